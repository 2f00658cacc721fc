// internal/app/store/notices/noticestore.go
package noticestore

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notices")}
}

// Create inserts a notice. Body is expected to be sanitized by the caller.
func (s *Store) Create(ctx context.Context, n models.Notice) (models.Notice, error) {
	n.ID = primitive.NewObjectID()
	n.TitleCI = text.Fold(n.Title)
	n.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notice{}, err
	}
	return n, nil
}

// GetByID loads a notice.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Notice, error) {
	var n models.Notice
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return models.Notice{}, err
	}
	return n, nil
}

// ListByOrg returns an organization's notices, pinned first, then newest
// first.
func (s *Store) ListByOrg(ctx context.Context, orgID string, limit int64) ([]models.Notice, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "pinned", Value: -1}, {Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var notices []models.Notice
	if err := cur.All(ctx, &notices); err != nil {
		return nil, err
	}
	return notices, nil
}

// SetPinned flips the pinned flag and stamps updated_at.
func (s *Store) SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error {
	update := bson.M{"$set": bson.M{"pinned": pinned, "updated_at": time.Now().UTC()}}
	_, err := s.c.UpdateByID(ctx, id, update)
	return err
}

// Delete removes a notice. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
