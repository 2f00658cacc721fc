// internal/domain/models/roles.go
package models

// Role values are stored as lowercase strings in both the user document
// (global_role) and each organization profile (role).
//
// Terminology:
//   - GlobalRole: scoped to the whole user record ("user" | "superadmin").
//   - Organization role: scoped to one membership
//     ("user" | "admin" | "manager" | "superadmin").
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleSuperAdmin = "superadmin"
)

// IsOrgAdminRole reports whether an organization-scoped role grants
// organization-admin capability. Managers are deliberately excluded.
func IsOrgAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// IsValidOrgRole checks a value against the organization role set.
func IsValidOrgRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleManager, RoleSuperAdmin:
		return true
	}
	return false
}

// IsValidGlobalRole checks a value against the global role set.
func IsValidGlobalRole(role string) bool {
	return role == RoleUser || role == RoleSuperAdmin
}
