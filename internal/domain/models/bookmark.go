// internal/domain/models/bookmark.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bookmark is one entry in a user's ordered link list. Order is a dense
// zero-based index maintained by the bookmark store: removing or moving an
// entry renumbers the rest so indexes stay gapless.
type Bookmark struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID string             `bson:"user_id" json:"user_id"`
	Title  string             `bson:"title" json:"title"`
	URL    string             `bson:"url" json:"url"`
	Order  int                `bson:"order" json:"order"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
