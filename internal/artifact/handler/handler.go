package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medichain/internal/artifact"
	dErrors "medichain/pkg/domain-errors"
	"medichain/pkg/platform/httputil"
	"medichain/pkg/platform/sentinel"
)

// maxUploadBytes bounds artifact uploads.
const maxUploadBytes = 16 << 20

// Pinner is the optional external replication hook.
type Pinner interface {
	Pin(ctx context.Context, hash string, data []byte) (string, error)
}

type Handler struct {
	store  artifact.Store
	pinner Pinner
	logger *slog.Logger
}

func New(store artifact.Store, pinner Pinner, logger *slog.Logger) *Handler {
	return &Handler{store: store, pinner: pinner, logger: logger}
}

// Register wires routes onto the authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Post("/artifacts", h.HandleUpload)
	r.Get("/artifacts/{hash}", h.HandleDownload)
}

// UploadResponse returns the content address of an uploaded artifact.
type UploadResponse struct {
	Hash string `json:"hash"`
}

// HandleUpload stores the request body and returns its hash. Pinning is
// best-effort: a pin failure does not fail the upload.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "artifact too large or unreadable"))
		return
	}
	if len(data) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "empty artifact"))
		return
	}

	hash, err := h.store.Store(ctx, data)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store artifact"))
		return
	}

	if h.pinner != nil {
		if _, err := h.pinner.Pin(ctx, hash, data); err != nil {
			h.logger.WarnContext(ctx, "artifact pin failed", "error", err, "hash", hash)
		}
	}

	httputil.WriteJSON(w, http.StatusCreated, UploadResponse{Hash: hash})
}

// HandleDownload streams the artifact bytes.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hash := chi.URLParam(r, "hash")

	data, err := h.store.Retrieve(ctx, hash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "artifact not found"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load artifact"))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
