package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/workdeckhq/workdeck/internal/db/models"
	"github.com/workdeckhq/workdeck/internal/repository"
)

// Resolver maps normalized claims to a persisted principal record, creating
// or linking one when absent.
//
// Resolution is idempotent: repeated calls with the same claims return the
// same principal and never create duplicates for an email or an external id.
// The first-time-creation race between concurrent requests is settled by the
// database's uniqueness constraints; the loser re-reads the winner's record.
type Resolver struct {
	principals  repository.PrincipalRepository
	defaultRole models.Role
}

// NewResolver constructs a resolver. defaultRole is assigned to principals
// created from claims that carry no explicit role.
func NewResolver(principals repository.PrincipalRepository, defaultRole models.Role) *Resolver {
	if defaultRole == "" {
		defaultRole = models.RoleReadOnly
	}
	return &Resolver{principals: principals, defaultRole: defaultRole}
}

// Resolve looks up or creates the principal for the given claims.
//
// Ordered algorithm, first match wins:
//  1. Claims with a provider subject: look up by external id; refresh email,
//     email_verified and the authentication timestamp.
//  2. Look up by email; link the provider identity to the existing record
//     when it has none (upgrading auth_provider to HYBRID if the record
//     holds a local credential).
//  3. Create a new principal with least-privileged defaults.
//
// A deactivated record fails resolution with ErrPrincipalInactive before any
// mutation.
func (r *Resolver) Resolve(ctx context.Context, claims *Claims) (*models.Principal, error) {
	if claims == nil || claims.Email == "" {
		return nil, fmt.Errorf("claims missing email")
	}

	if claims.SubjectID != "" {
		principal, err := r.principals.GetByExternalID(ctx, claims.SubjectID)
		switch {
		case err == nil:
			return r.refresh(ctx, principal, claims)
		case errors.Is(err, repository.ErrNotFound):
			// Fall through to email lookup.
		default:
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
	}

	principal, err := r.principals.GetByEmail(ctx, claims.Email)
	switch {
	case err == nil:
		return r.link(ctx, principal, claims)
	case errors.Is(err, repository.ErrNotFound):
		return r.create(ctx, claims)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
}

// refresh updates a principal found by external id: the email and
// email_verified flags follow the provider's claims (the external id itself
// never changes), and the authentication timestamp is touched.
func (r *Resolver) refresh(ctx context.Context, principal *models.Principal, claims *Claims) (*models.Principal, error) {
	if !principal.IsActive {
		return nil, ErrPrincipalInactive
	}

	changed := false
	if claims.Email != "" && claims.Email != principal.Email {
		principal.Email = claims.Email
		changed = true
	}
	if claims.EmailVerified != principal.EmailVerified {
		principal.EmailVerified = claims.EmailVerified
		changed = true
	}
	if changed = r.backfillNames(principal, claims) || changed; changed {
		if err := r.principals.Update(ctx, principal); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
	}
	if err := r.touch(ctx, principal); err != nil {
		return nil, err
	}
	return principal, nil
}

// link attaches a provider identity to a principal found by email. External
// ids are immutable: a record already linked to a different provider subject
// refuses the new link.
func (r *Resolver) link(ctx context.Context, principal *models.Principal, claims *Claims) (*models.Principal, error) {
	if !principal.IsActive {
		return nil, ErrPrincipalInactive
	}

	if claims.SubjectID != "" {
		if principal.HasExternalID() {
			if *principal.ExternalID != claims.SubjectID {
				return nil, ErrExternalIDConflict
			}
		} else {
			externalID := claims.SubjectID
			principal.ExternalID = &externalID
			if principal.HasLocalCredential() {
				principal.AuthProvider = models.ProviderHybrid
			} else {
				principal.AuthProvider = claims.Provider
			}
			principal.EmailVerified = claims.EmailVerified
			r.backfillNames(principal, claims)
			log.Printf("linked provider identity %s to principal %s", claims.SubjectID, principal.ID)
			if err := r.principals.Update(ctx, principal); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
			}
		}
	}

	if err := r.touch(ctx, principal); err != nil {
		return nil, err
	}
	return principal, nil
}

// create inserts a principal for a previously-unseen identity. A uniqueness
// violation means a concurrent request won the creation race; the record is
// re-read and returned instead of erroring.
func (r *Resolver) create(ctx context.Context, claims *Claims) (*models.Principal, error) {
	firstName, lastName := SplitDisplayName(claims.DisplayName)

	role := r.defaultRole
	if claims.Role != "" {
		role = claims.Role
	}

	principal := &models.Principal{
		Email:         claims.Email,
		FirstName:     firstName,
		LastName:      lastName,
		PhoneNumber:   claims.PhoneNumber,
		EmailVerified: claims.EmailVerified,
		Role:          role,
		PrincipalType: models.PrincipalInternal,
		AuthProvider:  claims.Provider,
		IsActive:      true,
	}
	if claims.SubjectID != "" {
		externalID := claims.SubjectID
		principal.ExternalID = &externalID
	}

	err := r.principals.Create(ctx, principal)
	if err == nil {
		log.Printf("created principal %s for %s via %s", principal.ID, principal.Email, principal.AuthProvider)
		if err := r.touch(ctx, principal); err != nil {
			return nil, err
		}
		return principal, nil
	}

	if !repository.IsUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	// Lost the first-time-creation race: the winner's record exists now.
	if claims.SubjectID != "" {
		if winner, lookupErr := r.principals.GetByExternalID(ctx, claims.SubjectID); lookupErr == nil {
			return r.refresh(ctx, winner, claims)
		}
	}
	winner, lookupErr := r.principals.GetByEmail(ctx, claims.Email)
	if lookupErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lookupErr)
	}
	return r.link(ctx, winner, claims)
}

// touch records the authentication timestamp on the stored row and on the
// in-memory record, so callers see the time of this authentication rather
// than the previous one.
func (r *Resolver) touch(ctx context.Context, principal *models.Principal) error {
	if err := r.principals.TouchAuthenticated(ctx, principal.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	now := time.Now()
	principal.LastAuthenticatedAt = &now
	return nil
}

// backfillNames fills empty name fields from the claims' display name.
// Existing names are never overwritten. Reports whether anything changed.
func (r *Resolver) backfillNames(principal *models.Principal, claims *Claims) bool {
	if claims.DisplayName == "" {
		return false
	}
	if principal.FirstName != "" && principal.FirstName != defaultFirstName {
		return false
	}
	firstName, lastName := SplitDisplayName(claims.DisplayName)
	if firstName == principal.FirstName && lastName == principal.LastName {
		return false
	}
	principal.FirstName = firstName
	if principal.LastName == "" {
		principal.LastName = lastName
	}
	return true
}
