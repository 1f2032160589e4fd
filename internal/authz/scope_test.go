package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/workdeckhq/workdeck/internal/db/models"
	"github.com/workdeckhq/workdeck/internal/repository"
)

func internalPrincipal() *models.Principal {
	return &models.Principal{
		ID:            "p-internal",
		Role:          models.RoleManager,
		PrincipalType: models.PrincipalInternal,
	}
}

func tenantPrincipal() *models.Principal {
	return &models.Principal{
		ID:            "p-tenant",
		Role:          models.RoleReadOnly,
		PrincipalType: models.PrincipalTenant,
	}
}

func TestScopeFilterInternalPassthrough(t *testing.T) {
	filter := repository.QueryFilter{"status": "OPEN"}
	scoped := ScopeFilter(filter, internalPrincipal())

	assert.Equal(t, filter, scoped)
	_, forced := scoped[TenantOwnershipColumn]
	assert.False(t, forced)
}

func TestScopeFilterNilPrincipalPassthrough(t *testing.T) {
	filter := repository.QueryFilter{"status": "OPEN"}
	assert.Equal(t, filter, ScopeFilter(filter, nil))
}

func TestScopeFilterForcesTenantColumn(t *testing.T) {
	scoped := ScopeFilter(repository.QueryFilter{"status": "OPEN"}, tenantPrincipal())

	assert.Equal(t, "p-tenant", scoped[TenantOwnershipColumn])
	assert.Equal(t, "OPEN", scoped["status"])
}

func TestScopeFilterTenantFilterWins(t *testing.T) {
	// A caller-supplied filter for someone else's data is overridden.
	scoped := ScopeFilter(repository.QueryFilter{TenantOwnershipColumn: "someone-else"}, tenantPrincipal())
	assert.Equal(t, "p-tenant", scoped[TenantOwnershipColumn])
}

func TestScopeFilterDoesNotMutateInput(t *testing.T) {
	filter := repository.QueryFilter{"status": "OPEN"}
	_ = ScopeFilter(filter, tenantPrincipal())

	assert.Equal(t, repository.QueryFilter{"status": "OPEN"}, filter)
}

func TestScopeFilterNilFilter(t *testing.T) {
	scoped := ScopeFilter(nil, tenantPrincipal())
	assert.Equal(t, "p-tenant", scoped[TenantOwnershipColumn])
}
