package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medichain/internal/records/models"
	id "medichain/pkg/domain"
	dErrors "medichain/pkg/domain-errors"
	"medichain/pkg/platform/httputil"
	authmw "medichain/pkg/platform/middleware/auth"
	request "medichain/pkg/platform/middleware/request"
)

// Service defines the record operations the HTTP layer needs.
type Service interface {
	Mint(ctx context.Context, owner id.AccountID, artifactHash, primaryVerifierName string) (*models.Record, error)
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	ListByOwner(ctx context.Context, owner id.AccountID) ([]*models.Record, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register wires routes onto the authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Post("/records", h.HandleMint)
	r.Get("/records/{recordID}", h.HandleGet)
	r.Get("/records", h.HandleListMine)
}

// HandleMint mints a record owned by the authenticated account.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.Decode[MintRequest](w, r, h.logger)
	if !ok {
		return
	}

	owner := authmw.GetAccountID(ctx)
	record, err := h.service.Mint(ctx, owner, req.ArtifactHash, req.PrimaryVerifierName)
	if err != nil {
		h.logger.ErrorContext(ctx, "mint failed", "error", err, "request_id", requestID, "owner", owner)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toRecordResponse(record))
}

// HandleGet returns a record by ID.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return
	}

	record, err := h.service.Get(ctx, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

// HandleListMine returns the authenticated account's records in mint order.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := authmw.GetAccountID(ctx)

	records, err := h.service.ListByOwner(ctx, owner)
	if err != nil {
		h.logger.ErrorContext(ctx, "list records failed", "error", err, "request_id", request.GetRequestID(ctx), "owner", owner)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordListResponse(records))
}
