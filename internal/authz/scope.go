package authz

import (
	"github.com/workdeckhq/workdeck/internal/db/models"
	"github.com/workdeckhq/workdeck/internal/repository"
)

// TenantOwnershipColumn is the column that ties a record to the client
// tenant that owns it.
const TenantOwnershipColumn = "client_id"

// ScopeFilter rewrites a list-query filter for the given principal.
//
// For internal principals it is a passthrough. For tenant principals the
// tenant-ownership column is forced to the principal's id; even when the
// caller supplied a conflicting value, the tenant filter wins. The input
// filter is never mutated.
func ScopeFilter(filter repository.QueryFilter, principal *models.Principal) repository.QueryFilter {
	if principal == nil || !principal.IsTenant() {
		return filter
	}
	scoped := filter.Clone()
	scoped[TenantOwnershipColumn] = principal.ID
	return scoped
}
