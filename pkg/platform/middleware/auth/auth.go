package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "medichain/pkg/domain"
	request "medichain/pkg/platform/middleware/request"
)

// Claims represents the claims the middleware expects from the token validator.
type Claims struct {
	UserID    string
	AccountID string
	Role      string
	SessionID string
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

type contextKeyUserID struct{}
type contextKeyAccountID struct{}
type contextKeyRole struct{}
type contextKeySessionID struct{}

// ContextWithClaims stores claims directly on a context, bypassing token
// validation. Used by handler tests.
func ContextWithClaims(ctx context.Context, claims Claims) context.Context {
	ctx = context.WithValue(ctx, contextKeyUserID{}, claims.UserID)
	ctx = context.WithValue(ctx, contextKeyAccountID{}, id.AccountID(claims.AccountID))
	ctx = context.WithValue(ctx, contextKeyRole{}, claims.Role)
	ctx = context.WithValue(ctx, contextKeySessionID{}, claims.SessionID)
	return ctx
}

// GetAccountID retrieves the authenticated ledger account from the context.
func GetAccountID(ctx context.Context) id.AccountID {
	account, _ := ctx.Value(contextKeyAccountID{}).(id.AccountID)
	return account
}

// GetUserID retrieves the credential-store user ID from the context.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(contextKeyUserID{}).(string)
	return userID
}

// GetRole retrieves the authenticated role string from the context.
func GetRole(ctx context.Context) string {
	role, _ := ctx.Value(contextKeyRole{}).(string)
	return role
}

// GetSessionID retrieves the session ID from the context.
func GetSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(contextKeySessionID{}).(string)
	return sessionID
}

// RequireAuth validates the Authorization bearer token and stores the caller
// identity in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "bearer token required")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "token validation failed",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			ctx = context.WithValue(ctx, contextKeyUserID{}, claims.UserID)
			ctx = context.WithValue(ctx, contextKeyAccountID{}, id.AccountID(claims.AccountID))
			ctx = context.WithValue(ctx, contextKeyRole{}, claims.Role)
			ctx = context.WithValue(ctx, contextKeySessionID{}, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + errCode + `","error_description":"` + errDesc + `"}`))
}
