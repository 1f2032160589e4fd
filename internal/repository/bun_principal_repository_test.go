package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/workdeckhq/workdeck/internal/db/bunx"
	"github.com/workdeckhq/workdeck/internal/db/models"
	"github.com/workdeckhq/workdeck/internal/migrations"
)

// setupTestDB opens an in-memory SQLite database with the schema applied.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB(":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	ctx := context.Background()
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	return db
}

func testPrincipal(email string) *models.Principal {
	return &models.Principal{
		Email:         email,
		FirstName:     "Test",
		Role:          models.RoleReadOnly,
		PrincipalType: models.PrincipalInternal,
		AuthProvider:  models.ProviderModern,
		IsActive:      true,
	}
}

func TestBunPrincipalRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunPrincipalRepository(db)
	ctx := context.Background()

	principal := testPrincipal("jane@example.com")
	extID := "auth0|abc"
	principal.ExternalID = &extID

	require.NoError(t, repo.Create(ctx, principal))
	assert.NotEmpty(t, principal.ID, "create should assign an id")

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, principal.ID)
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", got.Email)
	})

	t.Run("by external id", func(t *testing.T) {
		got, err := repo.GetByExternalID(ctx, "auth0|abc")
		require.NoError(t, err)
		assert.Equal(t, principal.ID, got.ID)
	})

	t.Run("by email", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, principal.ID, got.ID)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.GetByExternalID(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.GetByEmail(ctx, "nope@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBunPrincipalRepository_UniqueConstraints(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunPrincipalRepository(db)
	ctx := context.Background()

	first := testPrincipal("jane@example.com")
	extID := "auth0|abc"
	first.ExternalID = &extID
	require.NoError(t, repo.Create(ctx, first))

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, testPrincipal("jane@example.com"))
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("duplicate external id", func(t *testing.T) {
		dup := testPrincipal("other@example.com")
		dupExt := "auth0|abc"
		dup.ExternalID = &dupExt
		err := repo.Create(ctx, dup)
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("multiple rows without external id", func(t *testing.T) {
		// The partial index must not collapse NULLs into one slot.
		require.NoError(t, repo.Create(ctx, testPrincipal("a@example.com")))
		require.NoError(t, repo.Create(ctx, testPrincipal("b@example.com")))
	})
}

func TestBunPrincipalRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunPrincipalRepository(db)
	ctx := context.Background()

	principal := testPrincipal("jane@example.com")
	require.NoError(t, repo.Create(ctx, principal))

	principal.Email = "jane.doe@example.com"
	principal.EmailVerified = true
	require.NoError(t, repo.Update(ctx, principal))

	got, err := repo.GetByID(ctx, principal.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", got.Email)
	assert.True(t, got.EmailVerified)

	t.Run("missing record", func(t *testing.T) {
		ghost := testPrincipal("ghost@example.com")
		ghost.ID = bunx.NewUUIDv7()
		assert.ErrorIs(t, repo.Update(ctx, ghost), ErrNotFound)
	})
}

func TestBunPrincipalRepository_ValidateOnWrite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunPrincipalRepository(db)
	ctx := context.Background()

	tenantAdmin := testPrincipal("client@example.com")
	tenantAdmin.PrincipalType = models.PrincipalTenant
	tenantAdmin.Role = models.RoleAdmin

	assert.Error(t, repo.Create(ctx, tenantAdmin))
}

func TestBunPrincipalRepository_DeactivateReactivate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunPrincipalRepository(db)
	ctx := context.Background()

	principal := testPrincipal("jane@example.com")
	require.NoError(t, repo.Create(ctx, principal))

	require.NoError(t, repo.Deactivate(ctx, principal.ID))
	got, err := repo.GetByID(ctx, principal.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.NotNil(t, got.DeactivatedAt)

	require.NoError(t, repo.Reactivate(ctx, principal.ID))
	got, err = repo.GetByID(ctx, principal.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.DeactivatedAt)

	t.Run("missing record", func(t *testing.T) {
		assert.ErrorIs(t, repo.Deactivate(ctx, "nope"), ErrNotFound)
		assert.ErrorIs(t, repo.Reactivate(ctx, "nope"), ErrNotFound)
	})
}

func TestBunPrincipalRepository_TouchAuthenticated(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunPrincipalRepository(db)
	ctx := context.Background()

	principal := testPrincipal("jane@example.com")
	require.NoError(t, repo.Create(ctx, principal))
	require.Nil(t, principal.LastAuthenticatedAt)

	require.NoError(t, repo.TouchAuthenticated(ctx, principal.ID))

	got, err := repo.GetByID(ctx, principal.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastAuthenticatedAt)
}

func TestBunPrincipalRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunPrincipalRepository(db)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.NoError(t, repo.Create(ctx, testPrincipal(email)))
	}

	records, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
