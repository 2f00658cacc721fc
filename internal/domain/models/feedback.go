// internal/domain/models/feedback.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback is a free-text message from a member to their organization's
// admins. Listed only to organization admins.
type Feedback struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID string             `bson:"organization_id" json:"organization_id"`
	UserID         string             `bson:"user_id" json:"user_id"`
	UserName       string             `bson:"user_name" json:"user_name"`
	Body           string             `bson:"body" json:"body"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
