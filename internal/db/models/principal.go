package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Role is one value from the fixed role hierarchy. The ordering between
// roles lives in the authz package; the model layer only knows the names.
type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleAdmin       Role = "ADMIN"
	RoleManager     Role = "MANAGER"
	RoleSales       Role = "SALES"
	RoleDelivery    Role = "DELIVERY"
	RoleDevelopment Role = "DEVELOPMENT"
	RoleDesign      Role = "DESIGN"
	RoleReadOnly    Role = "READ_ONLY"
)

// Department is a categorical tag independent of role.
type Department string

const (
	DepartmentManagement  Department = "MANAGEMENT"
	DepartmentSales       Department = "SALES"
	DepartmentDelivery    Department = "DELIVERY"
	DepartmentDevelopment Department = "DEVELOPMENT"
	DepartmentDesign      Department = "DESIGN"
)

// PrincipalType distinguishes internal staff from external client tenants.
// Tenant principals get their data visibility restricted to their own records.
type PrincipalType string

const (
	PrincipalInternal PrincipalType = "INTERNAL"
	PrincipalTenant   PrincipalType = "TENANT"
)

// AuthProvider records which credential path(s) a principal can authenticate with.
type AuthProvider string

const (
	// ProviderModern means the principal authenticates with identity-provider tokens.
	ProviderModern AuthProvider = "MODERN"
	// ProviderLegacy means the principal authenticates with locally-signed legacy tokens.
	ProviderLegacy AuthProvider = "LEGACY"
	// ProviderHybrid means the principal holds both a provider identity and a
	// local credential and may authenticate via either path.
	ProviderHybrid AuthProvider = "HYBRID"
)

// Principal is the persisted record of an authenticated caller.
//
// ExternalID stores the identity provider's subject and is immutable once
// set (provider UIDs are never reassigned). Email is the migration/linking
// key between the legacy and provider identity spaces: exactly one active
// principal exists per email.
type Principal struct {
	bun.BaseModel `bun:"table:principals,alias:p"`

	ID            string        `bun:"id,pk,type:uuid"`
	ExternalID    *string       `bun:"external_id,unique"`
	Email         string        `bun:"email,notnull,unique"`
	FirstName     string        `bun:"first_name"`
	LastName      string        `bun:"last_name"`
	PhoneNumber   string        `bun:"phone_number"`
	EmailVerified bool          `bun:"email_verified,notnull,default:false"`
	Role          Role          `bun:"role,notnull"`
	Department    *Department   `bun:"department"`
	PrincipalType PrincipalType `bun:"principal_type,notnull"`
	AuthProvider  AuthProvider  `bun:"auth_provider,notnull"`
	PasswordHash  *string       `bun:"password_hash"` // bcrypt hash for local credentials

	IsActive            bool       `bun:"is_active,notnull,default:true"`
	LastAuthenticatedAt *time.Time `bun:"last_authenticated_at"`
	CreatedAt           time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt           time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	DeactivatedAt       *time.Time `bun:"deactivated_at"`
}

// Validate enforces the model-level invariants that must hold on every
// write: tenant principals may never hold an administrative role.
func (p *Principal) Validate() error {
	if p.PrincipalType == PrincipalTenant && (p.Role == RoleSuperAdmin || p.Role == RoleAdmin) {
		return fmt.Errorf("tenant principal %s may not hold role %s", p.Email, p.Role)
	}
	return nil
}

// DisplayName returns the principal's full name, falling back to the email.
func (p *Principal) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

// HasExternalID reports whether a provider identity has been linked.
func (p *Principal) HasExternalID() bool {
	return p.ExternalID != nil && *p.ExternalID != ""
}

// HasLocalCredential reports whether the principal holds a local password hash.
func (p *Principal) HasLocalCredential() bool {
	return p.PasswordHash != nil && *p.PasswordHash != ""
}

// IsTenant reports whether the principal represents an external client tenant.
func (p *Principal) IsTenant() bool {
	return p.PrincipalType == PrincipalTenant
}

// Deactivated reports whether the principal has been soft-disabled.
func (p *Principal) Deactivated() bool {
	return !p.IsActive
}
