// internal/domain/models/user.go
package models

import "time"

// ProfileUnset is the sentinel stored when a profile field has not been
// filled in yet. A profile with an empty or sentinel department/contact is
// "incomplete" and the UI blocks general navigation until it is fixed.
const ProfileUnset = "미지정"

// User is the per-identity membership record.
//
// The document _id is the opaque identifier assigned by the identity
// provider at account creation, not a Mongo ObjectID. Organization ids are
// stored as hex strings so they can double as keys of the Profiles map.
//
// NOTE:
//   - Every id in OrganizationIDs must have a matching key in Profiles.
//     Join/leave writes touch both fields in a single update to keep that
//     invariant visible to concurrent readers.
//   - LegacyOrganizationID predates multi-org membership. Readers must
//     fall back to it (wrapped into a one-element set) when
//     OrganizationIDs is absent.
type User struct {
	ID         string `bson:"_id" json:"id"`
	FullName   string `bson:"full_name" json:"full_name"`
	FullNameCI string `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string `bson:"email,omitempty" json:"email,omitempty"`
	AuthMethod string `bson:"auth_method,omitempty" json:"auth_method,omitempty"`

	// GlobalRole is "user" or "superadmin". Membership mutators preserve an
	// existing value and only default it to "user" when absent.
	GlobalRole string `bson:"global_role,omitempty" json:"global_role,omitempty"`

	OrganizationIDs []string                       `bson:"organization_ids,omitempty" json:"organization_ids,omitempty"`
	Profiles        map[string]OrganizationProfile `bson:"profiles,omitempty" json:"profiles,omitempty"`

	// LegacyOrganizationID is the pre-multi-org single membership field.
	LegacyOrganizationID string `bson:"organization_id,omitempty" json:"organization_id,omitempty"`

	// FCMTokens is append-only from the membership core's perspective.
	FCMTokens []string `bson:"fcm_tokens,omitempty" json:"fcm_tokens,omitempty"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// OrganizationProfile is the per-(user, organization) profile embedded in
// User.Profiles, keyed by organization id.
type OrganizationProfile struct {
	Name       string    `bson:"name" json:"name"`
	Department string    `bson:"department" json:"department"`
	Contact    string    `bson:"contact" json:"contact"`
	Role       string    `bson:"role" json:"role"` // user | admin | manager | superadmin
	JoinedAt   time.Time `bson:"joined_at" json:"joined_at"`
}

// IsIncomplete reports whether the profile still has unset required fields.
func (p OrganizationProfile) IsIncomplete() bool {
	return p.Department == "" || p.Department == ProfileUnset ||
		p.Contact == "" || p.Contact == ProfileUnset
}

// MemberOrganizationIDs returns the user's organization id set, falling back
// to the legacy single-organization field for pre-multi-org documents.
func (u *User) MemberOrganizationIDs() []string {
	if len(u.OrganizationIDs) > 0 {
		return u.OrganizationIDs
	}
	if u.LegacyOrganizationID != "" {
		return []string{u.LegacyOrganizationID}
	}
	return nil
}

// IsMemberOf reports whether orgID is in the user's membership set.
func (u *User) IsMemberOf(orgID string) bool {
	for _, id := range u.MemberOrganizationIDs() {
		if id == orgID {
			return true
		}
	}
	return false
}
