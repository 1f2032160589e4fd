package authz

import "github.com/workdeckhq/workdeck/internal/db/models"

// roleLevels is the single ordered enumeration of the role hierarchy.
// Authorization compares levels, never role names; department-specific roles
// share one level and differ only by department scoping.
var roleLevels = map[models.Role]int{
	models.RoleSuperAdmin:  20,
	models.RoleAdmin:       15,
	models.RoleManager:     10,
	models.RoleSales:       5,
	models.RoleDelivery:    5,
	models.RoleDevelopment: 5,
	models.RoleDesign:      5,
	models.RoleReadOnly:    1,
}

// RoleLevel returns the numeric level of a role. Unknown roles map to 0,
// below every configured role, so a corrupted role value fails closed.
func RoleLevel(role models.Role) int {
	return roleLevels[role]
}

// ValidRole reports whether the role is part of the hierarchy.
func ValidRole(role models.Role) bool {
	_, ok := roleLevels[role]
	return ok
}

// HasRole reports whether a principal's role meets or exceeds required.
func HasRole(role, required models.Role) bool {
	return RoleLevel(role) >= RoleLevel(required)
}

// IsAdmin reports whether the role sits at or above the ADMIN level.
// Admin-level principals bypass department and ownership checks.
func IsAdmin(role models.Role) bool {
	return RoleLevel(role) >= RoleLevel(models.RoleAdmin)
}
