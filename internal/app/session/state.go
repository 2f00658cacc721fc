// internal/app/session/state.go
package session

import (
	"github.com/moimhub/moimhub/internal/app/system/status"
	"github.com/moimhub/moimhub/internal/domain/models"
)

// Snapshot is the session state published to the surrounding application.
// All derived flags are recomputed together from the same underlying fields;
// a Snapshot never mixes an old role with a new active organization.
type Snapshot struct {
	SignedIn bool   `json:"signed_in"`
	UserID   string `json:"user_id,omitempty"`
	Loading  bool   `json:"loading"`

	GlobalRole      string                                `json:"global_role,omitempty"`
	OrganizationIDs []string                              `json:"organization_ids,omitempty"`
	Profiles        map[string]models.OrganizationProfile `json:"profiles,omitempty"`

	ActiveOrganizationID string                      `json:"active_organization_id,omitempty"`
	ActiveProfile        *models.OrganizationProfile `json:"active_profile,omitempty"`

	IsOrgAdmin   bool   `json:"is_org_admin"`
	IsSuperAdmin bool   `json:"is_super_admin"`
	OrgStatus    string `json:"org_status"`
}

// Projection is the pure capability derivation over one state snapshot.
type Projection struct {
	IsOrgAdmin    bool
	IsSuperAdmin  bool
	ActiveProfile *models.OrganizationProfile
}

// Project derives capability flags from (globalRole, profiles, activeOrgID).
// An active id with no matching profile yields no capabilities: the user is
// treated as a non-member of that organization, not as an error.
func Project(globalRole string, profiles map[string]models.OrganizationProfile, activeOrgID string) Projection {
	p := Projection{
		IsSuperAdmin: globalRole == models.RoleSuperAdmin,
	}
	if activeOrgID == "" {
		return p
	}
	if prof, ok := profiles[activeOrgID]; ok {
		p.ActiveProfile = &prof
		p.IsOrgAdmin = models.IsOrgAdminRole(prof.Role)
	}
	return p
}

// signedOutSnapshot is the state published after sign-out or forced
// sign-out: everything back to defaults.
func signedOutSnapshot() Snapshot {
	return Snapshot{OrgStatus: status.Active}
}

// applyProjection recomputes the derived fields of s in place from its
// underlying fields. Callers hold the resolver mutex so the flags and the
// inputs they came from are published atomically.
func (s *Snapshot) applyProjection() {
	p := Project(s.GlobalRole, s.Profiles, s.ActiveOrganizationID)
	s.IsOrgAdmin = p.IsOrgAdmin
	s.IsSuperAdmin = p.IsSuperAdmin
	s.ActiveProfile = p.ActiveProfile
}
