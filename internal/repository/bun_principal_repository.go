package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/workdeckhq/workdeck/internal/db/bunx"
	"github.com/workdeckhq/workdeck/internal/db/models"
)

// BunPrincipalRepository implements PrincipalRepository using Bun ORM
type BunPrincipalRepository struct {
	db *bun.DB
}

// NewBunPrincipalRepository creates a new Bun-based principal repository
func NewBunPrincipalRepository(db *bun.DB) *BunPrincipalRepository {
	return &BunPrincipalRepository{db: db}
}

// Create inserts a new principal. The caller may leave ID empty, in which
// case a UUIDv7 is assigned. Uniqueness violations (email, external_id) are
// returned verbatim so callers can detect lost races via IsUniqueViolation.
func (r *BunPrincipalRepository) Create(ctx context.Context, principal *models.Principal) error {
	if err := principal.Validate(); err != nil {
		return err
	}
	if principal.ID == "" {
		principal.ID = bunx.NewUUIDv7()
	}
	now := time.Now()
	if principal.CreatedAt.IsZero() {
		principal.CreatedAt = now
	}
	principal.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(principal).
		Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create principal: %w", err)
	}
	return nil
}

// GetByID retrieves a principal by its internal id
func (r *BunPrincipalRepository) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	principal := new(models.Principal)
	err := r.db.NewSelect().
		Model(principal).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get principal by id: %w", err)
	}
	return principal, nil
}

// GetByExternalID retrieves a principal by its identity-provider subject
func (r *BunPrincipalRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Principal, error) {
	principal := new(models.Principal)
	err := r.db.NewSelect().
		Model(principal).
		Where("external_id = ?", externalID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get principal by external id: %w", err)
	}
	return principal, nil
}

// GetByEmail retrieves a principal by email
func (r *BunPrincipalRepository) GetByEmail(ctx context.Context, email string) (*models.Principal, error) {
	principal := new(models.Principal)
	err := r.db.NewSelect().
		Model(principal).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get principal by email: %w", err)
	}
	return principal, nil
}

// Update persists the full principal record
func (r *BunPrincipalRepository) Update(ctx context.Context, principal *models.Principal) error {
	if err := principal.Validate(); err != nil {
		return err
	}
	principal.UpdatedAt = time.Now()
	result, err := r.db.NewUpdate().
		Model(principal).
		WherePK().
		Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("update principal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchAuthenticated updates the last_authenticated_at timestamp
func (r *BunPrincipalRepository) TouchAuthenticated(ctx context.Context, id string) error {
	now := time.Now()
	_, err := r.db.NewUpdate().
		Model((*models.Principal)(nil)).
		Set("last_authenticated_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("touch authenticated: %w", err)
	}
	return nil
}

// Deactivate soft-disables a principal. The record is kept; subsequent
// resolutions fail closed.
func (r *BunPrincipalRepository) Deactivate(ctx context.Context, id string) error {
	now := time.Now()
	result, err := r.db.NewUpdate().
		Model((*models.Principal)(nil)).
		Set("is_active = ?", false).
		Set("deactivated_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("deactivate principal: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Reactivate re-enables a previously deactivated principal
func (r *BunPrincipalRepository) Reactivate(ctx context.Context, id string) error {
	result, err := r.db.NewUpdate().
		Model((*models.Principal)(nil)).
		Set("is_active = ?", true).
		Set("deactivated_at = NULL").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("reactivate principal: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves all principals, newest first
func (r *BunPrincipalRepository) List(ctx context.Context) ([]models.Principal, error) {
	var principals []models.Principal
	err := r.db.NewSelect().
		Model(&principals).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list principals: %w", err)
	}
	return principals, nil
}
