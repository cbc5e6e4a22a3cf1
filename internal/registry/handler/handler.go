package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medichain/internal/registry/models"
	id "medichain/pkg/domain"
	dErrors "medichain/pkg/domain-errors"
	"medichain/pkg/platform/httputil"
	authmw "medichain/pkg/platform/middleware/auth"
	request "medichain/pkg/platform/middleware/request"
)

// Service defines the registry operations the HTTP layer needs.
type Service interface {
	RegisterParty(ctx context.Context, caller id.AccountID, role models.Role, accountID id.AccountID, displayName string) (*models.Party, error)
	PartyOf(ctx context.Context, accountID id.AccountID) (*models.Party, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.Party, error)
}

type Handler struct {
	service Service
	// registrar is the admin account used when an unauthenticated admin
	// endpoint (behind the X-Admin-Token gate) registers parties.
	registrar id.AccountID
	logger    *slog.Logger
}

func New(service Service, registrar id.AccountID, logger *slog.Logger) *Handler {
	return &Handler{service: service, registrar: registrar, logger: logger}
}

// Register wires routes onto the admin-gated router group.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/registry/parties", h.HandleRegisterParty)
}

// Register wires the public read routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/registry/primary-verifiers", h.HandleListPrimaryVerifiers)
	r.Get("/registry/secondary-verifiers", h.HandleListSecondaryVerifiers)
	r.Get("/registry/parties/{account}", h.HandleGetParty)
}

// HandleRegisterParty registers a party on behalf of the admin caller.
func (h *Handler) HandleRegisterParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.Decode[RegisterPartyRequest](w, r, h.logger)
	if !ok {
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	accountID, err := id.ParseAccountID(req.AccountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := authmw.GetAccountID(ctx)
	if caller.IsNil() {
		caller = h.registrar
	}

	party, err := h.service.RegisterParty(ctx, caller, role, accountID, req.DisplayName)
	if err != nil {
		h.logger.ErrorContext(ctx, "register party failed", "error", err, "request_id", requestID, "role", req.Role)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toPartyResponse(party))
}

func (h *Handler) HandleListPrimaryVerifiers(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, models.RolePrimaryVerifier)
}

func (h *Handler) HandleListSecondaryVerifiers(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, models.RoleSecondaryVerifier)
}

func (h *Handler) listByRole(w http.ResponseWriter, r *http.Request, role models.Role) {
	ctx := r.Context()
	parties, err := h.service.ListByRole(ctx, role)
	if err != nil {
		h.logger.ErrorContext(ctx, "list parties failed", "error", err, "request_id", request.GetRequestID(ctx), "role", role)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPartyListResponse(parties))
}

// HandleGetParty returns the party registered under an account.
func (h *Handler) HandleGetParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account"))
		return
	}

	party, err := h.service.PartyOf(ctx, accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPartyResponse(party))
}
