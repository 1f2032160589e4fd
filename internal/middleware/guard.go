// Package middleware wires credential verification, principal
// resolution, and permission evaluation into chi middleware.
package middleware

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/workdeckhq/workdeck/internal/authz"
	"github.com/workdeckhq/workdeck/internal/db/models"
	"github.com/workdeckhq/workdeck/internal/identity"
)

// Error codes surfaced to clients. Anything more specific stays in the
// server logs.
const (
	CodeMissingCredential    = "MISSING_CREDENTIAL"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodePrincipalUnavailable = "PRINCIPAL_UNAVAILABLE"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
)

// Options configures the guard for a route.
type Options struct {
	RequiredRole   models.Role
	Department     models.Department
	CheckOwnership bool
	ResourceType   string
	// ResourceParam is the chi URL parameter carrying the resource id
	// when CheckOwnership is set. Defaults to "id".
	ResourceParam string
	TenantScoped  bool
}

// Guard runs the request pipeline: extract credential, verify it,
// resolve the principal, evaluate permissions, then attach the
// principal to the request context.
type Guard struct {
	Verifier  *identity.Verifier
	Resolver  *identity.Resolver
	Evaluator *authz.Evaluator
	Metrics   *Metrics
}

func NewGuard(verifier *identity.Verifier, resolver *identity.Resolver, evaluator *authz.Evaluator, metrics *Metrics) *Guard {
	return &Guard{Verifier: verifier, Resolver: resolver, Evaluator: evaluator, Metrics: metrics}
}

// Require returns middleware enforcing opts for every request.
func (g *Guard) Require(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(w, r, opts, next)
		})
	}
}

// Handle wraps a single handler func with the guard. Convenient for
// routes that carry per-route options.
func (g *Guard) Handle(opts Options, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.serve(w, r, opts, h)
	}
}

func (g *Guard) serve(w http.ResponseWriter, r *http.Request, opts Options, next http.Handler) {
	credential := extractBearer(r)

	claims, err := g.Verifier.Verify(r.Context(), credential)
	if err != nil {
		g.rejectVerification(w, r, err)
		return
	}
	g.Metrics.observeVerification(string(claims.Provider))

	principal, err := g.Resolver.Resolve(r.Context(), claims)
	if err != nil {
		g.rejectResolution(w, r, err)
		return
	}

	check := authz.CheckOptions{
		RequiredRole:   opts.RequiredRole,
		Department:     opts.Department,
		CheckOwnership: opts.CheckOwnership,
		ResourceType:   opts.ResourceType,
		TenantScoped:   opts.TenantScoped,
	}
	if opts.CheckOwnership {
		param := opts.ResourceParam
		if param == "" {
			param = "id"
		}
		check.ResourceID = chi.URLParam(r, param)
	}

	decision, err := g.Evaluator.Evaluate(r.Context(), principal, check)
	if err != nil {
		if errors.Is(err, authz.ErrResourceNotFound) {
			g.Metrics.observeDecision("not_found")
			writeError(w, http.StatusNotFound, CodeNotFound)
			return
		}
		// Storage failures during evaluation deny rather than surface a
		// 5xx; the cause stays in the log.
		g.Metrics.observeDecision("error")
		log.Printf("guard: permission evaluation failed for %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusForbidden, CodeForbidden)
		return
	}
	if !decision.Allowed {
		g.Metrics.observeDecision("forbidden")
		log.Printf("guard: denied %s %s for principal %s: %s", r.Method, r.URL.Path, principal.ID, decision.Reason)
		writeError(w, http.StatusForbidden, CodeForbidden)
		return
	}

	g.Metrics.observeDecision("allowed")
	next.ServeHTTP(w, r.WithContext(authz.WithPrincipal(r.Context(), principal)))
}

func (g *Guard) rejectVerification(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, identity.ErrCredentialMissing) {
		g.Metrics.observeDecision("missing_credential")
		writeError(w, http.StatusUnauthorized, CodeMissingCredential)
		return
	}
	g.Metrics.observeDecision("invalid_token")
	var verr *identity.VerificationError
	if errors.As(err, &verr) {
		log.Printf("guard: rejected credential on %s %s: %s", r.Method, r.URL.Path, verr.Detail())
	} else {
		log.Printf("guard: rejected credential on %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, http.StatusUnauthorized, CodeInvalidToken)
}

func (g *Guard) rejectResolution(w http.ResponseWriter, r *http.Request, err error) {
	g.Metrics.observeDecision("principal_unavailable")
	log.Printf("guard: principal resolution failed on %s %s: %v", r.Method, r.URL.Path, err)
	writeError(w, http.StatusUnauthorized, CodePrincipalUnavailable)
}

// extractBearer pulls the token out of the Authorization header. A
// missing header or wrong scheme yields the empty string, which the
// verifier reports as a missing credential.
func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code})
}
