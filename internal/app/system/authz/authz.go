// internal/app/system/authz/authz.go

// Package authz derives capability checks from a user document. Capabilities
// are always computed fresh from the document; nothing here is cached, so a
// role change in the database takes effect on the next check.
package authz

import (
	"context"
	"errors"

	"github.com/moimhub/moimhub/internal/domain/models"
)

// ErrForbidden is returned when the user lacks the required capability.
var ErrForbidden = errors.New("forbidden")

// UserGetter is the slice of the user store the gate needs. Get returns
// (nil, nil) for an absent document.
type UserGetter interface {
	Get(ctx context.Context, userID string) (*models.User, error)
}

// IsSuperAdmin reports whether the user holds the global superadmin role.
func IsSuperAdmin(u *models.User) bool {
	return u != nil && u.GlobalRole == models.RoleSuperAdmin
}

// OrgRole returns the user's role within orgID, or "" for non-members.
func OrgRole(u *models.User, orgID string) string {
	if u == nil {
		return ""
	}
	prof, ok := u.Profiles[orgID]
	if !ok {
		return ""
	}
	return prof.Role
}

// IsOrgAdmin reports whether the user's role within orgID grants
// organization administration. Manager does not qualify.
func IsOrgAdmin(u *models.User, orgID string) bool {
	return models.IsOrgAdminRole(OrgRole(u, orgID))
}

// CanManageOrg reports whether the user may administer orgID: either an
// admin-granting role inside the organization or the global superadmin role.
func CanManageOrg(u *models.User, orgID string) bool {
	return IsSuperAdmin(u) || IsOrgAdmin(u, orgID)
}

// Gate loads the current user's document and applies capability checks.
// Handlers use it per request, so membership and role changes apply without
// re-login.
type Gate struct {
	users UserGetter
}

// NewGate builds a Gate over a user store.
func NewGate(users UserGetter) *Gate {
	return &Gate{users: users}
}

// Member returns the user's document if they belong to orgID. Superadmins
// pass regardless of membership.
func (g *Gate) Member(ctx context.Context, userID, orgID string) (*models.User, error) {
	u, err := g.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrForbidden
	}
	if IsSuperAdmin(u) || u.IsMemberOf(orgID) {
		return u, nil
	}
	return nil, ErrForbidden
}

// OrgAdmin returns the user's document if they may administer orgID.
func (g *Gate) OrgAdmin(ctx context.Context, userID, orgID string) (*models.User, error) {
	u, err := g.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !CanManageOrg(u, orgID) {
		return nil, ErrForbidden
	}
	return u, nil
}

// SuperAdmin returns the user's document if they hold the global superadmin
// role.
func (g *Gate) SuperAdmin(ctx context.Context, userID string) (*models.User, error) {
	u, err := g.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !IsSuperAdmin(u) {
		return nil, ErrForbidden
	}
	return u, nil
}
