package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"

	"github.com/workdeckhq/workdeck/internal/authz"
	"github.com/workdeckhq/workdeck/internal/config"
	"github.com/workdeckhq/workdeck/internal/db/bunx"
	"github.com/workdeckhq/workdeck/internal/db/models"
	"github.com/workdeckhq/workdeck/internal/identity"
	"github.com/workdeckhq/workdeck/internal/middleware"
	"github.com/workdeckhq/workdeck/internal/migrations"
	"github.com/workdeckhq/workdeck/internal/repository"
)

const testSecret = "router-test-secret"

type rejectingProviderVerifier struct{}

func (rejectingProviderVerifier) VerifyToken(ctx context.Context, token string) (*identity.ProviderIdentity, error) {
	return nil, fmt.Errorf("token is unverifiable")
}

type routerFixture struct {
	router     http.Handler
	principals *repository.BunPrincipalRepository
	resources  *repository.BunResourceRepository
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	db, err := bunx.NewDB(":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	ctx := context.Background()
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	principalRepo := repository.NewBunPrincipalRepository(db)
	resourceRepo := repository.NewBunResourceRepository(db)

	legacy, err := identity.NewLegacyVerifier(testSecret)
	require.NoError(t, err)
	verifier := identity.NewVerifier(rejectingProviderVerifier{}, legacy, config.PolicyAnyProvider)
	resolver := identity.NewResolver(principalRepo, models.RoleReadOnly)
	evaluator := authz.NewEvaluator(resourceRepo)
	metrics := middleware.NewMetrics(prometheus.NewRegistry())
	guard := middleware.NewGuard(verifier, resolver, evaluator, metrics)

	router := NewRouter(RouterOptions{
		Guard:      guard,
		Principals: principalRepo,
		Resources:  resourceRepo,
	})

	return &routerFixture{router: router, principals: principalRepo, resources: resourceRepo}
}

func (f *routerFixture) seedPrincipal(t *testing.T, email string, role models.Role, principalType models.PrincipalType) *models.Principal {
	t.Helper()
	principal := &models.Principal{
		Email:         email,
		FirstName:     "Test",
		Role:          role,
		PrincipalType: principalType,
		AuthProvider:  models.ProviderLegacy,
		IsActive:      true,
	}
	require.NoError(t, f.principals.Create(context.Background(), principal))
	return principal
}

func (f *routerFixture) request(t *testing.T, method, path, email string, role models.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if email != "" {
		token, err := identity.SignLegacyToken(testSecret, "sub", email, role, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRouterPublicEndpoints(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusOK, f.request(t, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, f.request(t, http.MethodGet, "/metrics", "", "").Code)
}

func TestRouterWhoAmI(t *testing.T) {
	f := newRouterFixture(t)
	f.seedPrincipal(t, "jane@example.com", models.RoleManager, models.PrincipalInternal)

	t.Run("authenticated", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/auth/whoami", "jane@example.com", models.RoleManager)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "jane@example.com", body["email"])
		assert.Equal(t, "MANAGER", body["role"])
		// Credential material never appears in responses.
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/auth/whoami", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"MISSING_CREDENTIAL"}`, rec.Body.String())
	})
}

func TestRouterPrincipalAdministration(t *testing.T) {
	f := newRouterFixture(t)
	f.seedPrincipal(t, "admin@example.com", models.RoleAdmin, models.PrincipalInternal)
	f.seedPrincipal(t, "root@example.com", models.RoleSuperAdmin, models.PrincipalInternal)
	target := f.seedPrincipal(t, "victim@example.com", models.RoleReadOnly, models.PrincipalInternal)

	t.Run("list requires admin", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/principals", "victim@example.com", models.RoleReadOnly)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.request(t, http.MethodGet, "/api/principals", "admin@example.com", models.RoleAdmin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("deactivate and reactivate", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/principals/"+target.ID+"/deactivate", "admin@example.com", models.RoleAdmin)
		require.Equal(t, http.StatusOK, rec.Code)

		// The deactivated principal fails closed on its next request.
		rec = f.request(t, http.MethodGet, "/api/auth/whoami", "victim@example.com", models.RoleReadOnly)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"PRINCIPAL_UNAVAILABLE"}`, rec.Body.String())

		// Reactivation needs SUPER_ADMIN; plain admin is refused.
		rec = f.request(t, http.MethodPost, "/api/principals/"+target.ID+"/reactivate", "admin@example.com", models.RoleAdmin)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.request(t, http.MethodPost, "/api/principals/"+target.ID+"/reactivate", "root@example.com", models.RoleSuperAdmin)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = f.request(t, http.MethodGet, "/api/auth/whoami", "victim@example.com", models.RoleReadOnly)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouterTenantScopedTasks(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	staff := f.seedPrincipal(t, "staff@example.com", models.RoleManager, models.PrincipalInternal)
	tenant := f.seedPrincipal(t, "client@example.com", models.RoleReadOnly, models.PrincipalTenant)
	otherTenant := f.seedPrincipal(t, "other@example.com", models.RoleReadOnly, models.PrincipalTenant)

	mine := &models.Task{Title: "mine", CreatedBy: staff.ID, ClientID: &tenant.ID}
	theirs := &models.Task{Title: "theirs", CreatedBy: staff.ID, ClientID: &otherTenant.ID}
	require.NoError(t, f.resources.CreateTask(ctx, mine))
	require.NoError(t, f.resources.CreateTask(ctx, theirs))

	listTitles := func(rec *httptest.ResponseRecorder) []string {
		var body struct {
			Tasks []struct {
				Title string `json:"title"`
			} `json:"tasks"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		titles := make([]string, 0, len(body.Tasks))
		for _, task := range body.Tasks {
			titles = append(titles, task.Title)
		}
		return titles
	}

	t.Run("internal staff sees everything", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/tasks", "staff@example.com", models.RoleManager)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.ElementsMatch(t, []string{"mine", "theirs"}, listTitles(rec))
	})

	t.Run("tenant sees only its records", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/tasks", "client@example.com", models.RoleReadOnly)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"mine"}, listTitles(rec))
	})

	t.Run("tenant filter overrides query params", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/tasks?client_id="+otherTenant.ID, "client@example.com", models.RoleReadOnly)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"mine"}, listTitles(rec))
	})

	t.Run("tenant reads its own task by id", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/tasks/"+mine.ID, "client@example.com", models.RoleReadOnly)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("tenant denied another tenant's task", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/tasks/"+theirs.ID, "client@example.com", models.RoleReadOnly)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"FORBIDDEN"}`, rec.Body.String())
	})
}

func TestRouterOwnershipRoutes(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	owner := f.seedPrincipal(t, "owner@example.com", models.RoleManager, models.PrincipalInternal)
	f.seedPrincipal(t, "outsider@example.com", models.RoleManager, models.PrincipalInternal)
	f.seedPrincipal(t, "admin@example.com", models.RoleAdmin, models.PrincipalInternal)

	task := &models.Task{Title: "guarded", OwnerID: &owner.ID, CreatedBy: owner.ID}
	require.NoError(t, f.resources.CreateTask(ctx, task))
	project := &models.Project{Name: "guarded", OwnerID: &owner.ID, CreatedBy: owner.ID}
	require.NoError(t, f.resources.CreateProject(ctx, project))

	t.Run("owner reads task", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/tasks/"+task.ID, "owner@example.com", models.RoleManager)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/tasks/"+task.ID, "outsider@example.com", models.RoleManager)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin bypasses ownership", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/tasks/"+task.ID, "admin@example.com", models.RoleAdmin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("owner reads project", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/projects/"+project.ID, "owner@example.com", models.RoleManager)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing task is 404", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/tasks/"+bunx.NewUUIDv7(), "owner@example.com", models.RoleManager)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"NOT_FOUND"}`, rec.Body.String())
	})
}
