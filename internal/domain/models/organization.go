// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is a tenant: a collection of users sharing notices, surveys,
// and groups. Includes case/diacritic-insensitive fields for search/sort.
//
// AdminInviteCode and UserInviteCode are distinct opaque strings; redeeming
// the admin code grants the "admin" organization role, the user code grants
// "user". Codes are globally unique across organizations (lookup is an
// equality scan over all organizations, not org-scoped).
type Organization struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"` // ← always stored
	ContactInfo string             `bson:"contact_info,omitempty" json:"contact_info,omitempty"`

	Status string `bson:"status" json:"status"` // "active" | "suspended"

	AdminInviteCode string `bson:"admin_invite_code" json:"-"`
	UserInviteCode  string `bson:"user_invite_code" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsSuspended reports whether the organization is not accepting members.
func (o Organization) IsSuspended() bool {
	return o.Status == "suspended"
}
