// Package server assembles the HTTP surface: public health and metrics
// endpoints plus guarded API routes.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/workdeckhq/workdeck/internal/db/models"
	"github.com/workdeckhq/workdeck/internal/middleware"
	"github.com/workdeckhq/workdeck/internal/repository"
)

// RouterOptions controls construction of the HTTP router. The zero value is
// valid; sensible defaults are applied where fields are not set.
type RouterOptions struct {
	Guard         *middleware.Guard
	Principals    repository.PrincipalRepository
	Resources     repository.ResourceRepository
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
	ExtraRoutes   func(chi.Router)
}

// DefaultCORSOptions returns the shared development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy, and
// the API handlers mounted behind the request guard.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if opts.Guard != nil {
		guard := opts.Guard

		// Tenant principals may introspect themselves; TenantScoped only
		// widens access, the handler returns the caller's own record.
		r.Get("/api/auth/whoami", guard.Handle(middleware.Options{TenantScoped: true}, HandleWhoAmI()))

		if opts.Principals != nil {
			r.Get("/api/principals", guard.Handle(middleware.Options{
				RequiredRole: models.RoleAdmin,
			}, HandleListPrincipals(opts.Principals)))
			r.Post("/api/principals/{id}/deactivate", guard.Handle(middleware.Options{
				RequiredRole: models.RoleAdmin,
			}, HandleDeactivatePrincipal(opts.Principals)))
			r.Post("/api/principals/{id}/reactivate", guard.Handle(middleware.Options{
				RequiredRole: models.RoleSuperAdmin,
			}, HandleReactivatePrincipal(opts.Principals)))
		}

		if opts.Resources != nil {
			r.Get("/api/tasks", guard.Handle(middleware.Options{
				TenantScoped: true,
			}, HandleListTasks(opts.Resources)))
			r.Get("/api/tasks/{id}", guard.Handle(middleware.Options{
				CheckOwnership: true,
				ResourceType:   models.ResourceTypeTask,
				TenantScoped:   true,
			}, HandleGetTask(opts.Resources)))
			r.Get("/api/projects/{id}", guard.Handle(middleware.Options{
				CheckOwnership: true,
				ResourceType:   models.ResourceTypeProject,
				TenantScoped:   true,
			}, HandleGetProject(opts.Resources)))
		}
	}

	if opts.ExtraRoutes != nil {
		opts.ExtraRoutes(r)
	}

	return r
}

// NewH2CHandler wraps the router with an h2c server so HTTP/2 clients work
// over cleartext in development.
func NewH2CHandler(opts RouterOptions) http.Handler {
	return h2c.NewHandler(NewRouter(opts), &http2.Server{})
}
