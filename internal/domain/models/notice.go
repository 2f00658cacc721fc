// internal/domain/models/notice.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notice is an organization-scoped announcement. Body HTML is sanitized at
// write time; what is stored is safe to render as-is.
type Notice struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID string             `bson:"organization_id" json:"organization_id"`
	Title          string             `bson:"title" json:"title"`
	TitleCI        string             `bson:"title_ci" json:"-"` // lowercase, diacritics-stripped
	Body           string             `bson:"body" json:"body"`
	Pinned         bool               `bson:"pinned,omitempty" json:"pinned,omitempty"`

	AuthorID   string `bson:"author_id" json:"author_id"`
	AuthorName string `bson:"author_name" json:"author_name"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}
