package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medichain/internal/auth/service"
	registrymodels "medichain/internal/registry/models"
	id "medichain/pkg/domain"
	dErrors "medichain/pkg/domain-errors"
	"medichain/pkg/platform/httputil"
	authmw "medichain/pkg/platform/middleware/auth"
	request "medichain/pkg/platform/middleware/request"
)

type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(service *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register wires the unauthenticated routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
}

// RegisterAuthenticated wires the routes behind the bearer middleware.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)
}

// HandleRegister creates credentials and the matching registry party.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}
	role, err := registrymodels.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	accountID, err := id.ParseAccountID(req.AccountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	u, err := h.service.Register(ctx, service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Role:        role,
		AccountID:   accountID,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "signup rejected", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

// HandleLogin verifies credentials and issues a bearer token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[LoginRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password, r.UserAgent())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoginResponse(result.Token, result.User, result.Session.ExpiresAt))
}

// HandleLogout closes the caller's session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(authmw.GetSessionID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no session"))
		return
	}
	if err := h.service.Logout(ctx, sessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(authmw.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no user"))
		return
	}
	u, err := h.service.Me(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(u))
}
