// internal/app/store/feedback/feedbackstore.go
package feedbackstore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("feedback")}
}

// Create inserts a feedback message.
func (s *Store) Create(ctx context.Context, fb models.Feedback) (models.Feedback, error) {
	fb.ID = primitive.NewObjectID()
	fb.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, fb); err != nil {
		return models.Feedback{}, err
	}
	return fb, nil
}

// ListByOrg returns an organization's feedback, newest first.
func (s *Store) ListByOrg(ctx context.Context, orgID string) ([]models.Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var fbs []models.Feedback
	if err := cur.All(ctx, &fbs); err != nil {
		return nil, err
	}
	return fbs, nil
}

// Delete removes a feedback message. Returns the number of documents
// deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
