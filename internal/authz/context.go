package authz

import (
	"context"

	"github.com/workdeckhq/workdeck/internal/db/models"
)

type principalContextKey struct{}

// WithPrincipal stores the resolved principal on the context for downstream
// handlers. There is no process-wide current-user state; the context is the
// only carrier.
func WithPrincipal(ctx context.Context, principal *models.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFrom retrieves the resolved principal from the context.
func PrincipalFrom(ctx context.Context) (*models.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(*models.Principal)
	return principal, ok && principal != nil
}
