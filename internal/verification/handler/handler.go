package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medichain/internal/verification/models"
	"medichain/internal/verification/service"
	id "medichain/pkg/domain"
	dErrors "medichain/pkg/domain-errors"
	"medichain/pkg/platform/httputil"
	authmw "medichain/pkg/platform/middleware/auth"
	request "medichain/pkg/platform/middleware/request"
)

// Service defines the verification operations the HTTP layer needs.
type Service interface {
	VerifyPrimary(ctx context.Context, caller id.AccountID, recordID id.RecordID) (*models.Status, error)
	RequestSecondary(ctx context.Context, caller id.AccountID, recordID id.RecordID, targetName string) (*models.Status, error)
	ApproveSecondary(ctx context.Context, caller id.AccountID, recordID id.RecordID) (*models.Status, error)
	Status(ctx context.Context, recordID id.RecordID) (*models.Status, error)
	OwnedBy(ctx context.Context, owner id.AccountID) ([]*models.Status, error)
	Inbox(ctx context.Context, caller id.AccountID) ([]*models.Status, error)
	Health(ctx context.Context) (*service.HealthReport, error)
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
	r.Post("/verification/{recordID}/primary", h.HandleVerifyPrimary)
	r.Post("/verification/{recordID}/secondary/request", h.HandleRequestSecondary)
	r.Post("/verification/{recordID}/secondary/approve", h.HandleApproveSecondary)
	r.Get("/verification/{recordID}", h.HandleStatus)
	r.Get("/verification/mine", h.HandleMine)
	r.Get("/verification/inbox", h.HandleInbox)
}

// RegisterAdmin wires the operator-facing routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/verification/health", h.HandleHealth)
}

// HandleVerifyPrimary flips the record's primary tier.
func (h *Handler) HandleVerifyPrimary(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "verify primary", func(ctx context.Context, caller id.AccountID, recordID id.RecordID) (*models.Status, error) {
		return h.service.VerifyPrimary(ctx, caller, recordID)
	})
}

// HandleRequestSecondary asks a secondary verifier to approve the record.
func (h *Handler) HandleRequestSecondary(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[RequestSecondaryRequest](w, r, h.logger)
	if !ok {
		return
	}
	h.transition(w, r, "request secondary", func(ctx context.Context, caller id.AccountID, recordID id.RecordID) (*models.Status, error) {
		return h.service.RequestSecondary(ctx, caller, recordID, req.Target)
	})
}

// HandleApproveSecondary approves a pending secondary request.
func (h *Handler) HandleApproveSecondary(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve secondary", func(ctx context.Context, caller id.AccountID, recordID id.RecordID) (*models.Status, error) {
		return h.service.ApproveSecondary(ctx, caller, recordID)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, name string, apply func(context.Context, id.AccountID, id.RecordID) (*models.Status, error)) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return
	}

	caller := authmw.GetAccountID(ctx)
	status, err := apply(ctx, caller, recordID)
	if err != nil {
		h.logger.WarnContext(ctx, name+" rejected",
			"error", err, "request_id", request.GetRequestID(ctx), "record_id", recordID, "caller", caller)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(status))
}

// HandleStatus returns the derived state of one record.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return
	}

	status, err := h.service.Status(ctx, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(status))
}

// HandleMine returns the statuses of the caller's records.
func (h *Handler) HandleMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	statuses, err := h.service.OwnedBy(ctx, authmw.GetAccountID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusListResponse(statuses))
}

// HandleInbox returns the caller's role-specific work list.
func (h *Handler) HandleInbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	statuses, err := h.service.Inbox(ctx, authmw.GetAccountID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusListResponse(statuses))
}

// HandleHealth reports snapshot lag and replay anomalies.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.service.Health(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHealthResponse(report))
}
