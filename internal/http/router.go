// Package httpapi assembles the HTTP surface: public signup and party listings,
// bearer-authenticated workflow routes, and token-gated admin routes.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	artifacthandler "medichain/internal/artifact/handler"
	authhandler "medichain/internal/auth/handler"
	recordhandler "medichain/internal/records/handler"
	registryhandler "medichain/internal/registry/handler"
	verificationhandler "medichain/internal/verification/handler"
	adminmw "medichain/pkg/platform/middleware/admin"
	authmw "medichain/pkg/platform/middleware/auth"
	requestmw "medichain/pkg/platform/middleware/request"
)

// Deps carries the wired feature handlers and cross-cutting pieces.
type Deps struct {
	Auth         *authhandler.Handler
	Registry     *registryhandler.Handler
	Records      *recordhandler.Handler
	Verification *verificationhandler.Handler
	Artifacts    *artifacthandler.Handler

	TokenValidator authmw.TokenValidator
	AdminToken     string
	Logger         *slog.Logger

	// LoginLimiter throttles the unauthenticated auth endpoints when set.
	LoginLimiter func(http.Handler) http.Handler

	// Healthy reports backend liveness for /healthz.
	Healthy func() error
}

// NewRouter wires every endpoint with the shared middleware stack.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestmw.Recovery(d.Logger))
	r.Use(requestmw.RequestID)

	r.Get("/healthz", handleHealthz(d.Healthy))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public: signup, login, and verifier listings.
	if d.LoginLimiter != nil {
		r.Group(func(g chi.Router) {
			g.Use(d.LoginLimiter)
			d.Auth.Register(g)
		})
	} else {
		d.Auth.Register(r)
	}
	d.Registry.Register(r)

	// Authenticated workflow routes.
	r.Group(func(g chi.Router) {
		g.Use(authmw.RequireAuth(d.TokenValidator, d.Logger))
		d.Auth.RegisterAuthenticated(g)
		d.Records.Register(g)
		d.Verification.Register(g)
		d.Artifacts.Register(g)
	})

	// Operator routes behind the admin token.
	r.Group(func(g chi.Router) {
		g.Use(adminmw.RequireAdminToken(d.AdminToken, d.Logger))
		d.Registry.RegisterAdmin(g)
		d.Verification.RegisterAdmin(g)
	})

	return r
}

func handleHealthz(healthy func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if healthy != nil {
			if err := healthy(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
