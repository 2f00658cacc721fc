// internal/app/store/bookmarks/bookmarkstore.go

// Package bookmarkstore owns each user's ordered bookmark list. Order is a
// dense zero-based index: Add appends at the end, Remove and Move renumber
// so the sequence stays gapless.
package bookmarkstore

import (
	"context"
	"errors"
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

var ErrNotFound = errors.New("bookmark not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("bookmarks")}
}

// List returns a user's bookmarks in order.
func (s *Store) List(ctx context.Context, userID string) ([]models.Bookmark, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var bms []models.Bookmark
	if err := cur.All(ctx, &bms); err != nil {
		return nil, err
	}
	return bms, nil
}

// Add appends a bookmark at the end of the user's list.
func (s *Store) Add(ctx context.Context, userID, title, url string) (models.Bookmark, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return models.Bookmark{}, err
	}
	bm := models.Bookmark{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		URL:       url,
		Order:     int(n),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, bm); err != nil {
		return models.Bookmark{}, err
	}
	return bm, nil
}

// Remove deletes a bookmark and closes the gap it leaves: every entry that
// sat after it shifts down by one.
func (s *Store) Remove(ctx context.Context, userID string, id primitive.ObjectID) error {
	var bm models.Bookmark
	err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&bm)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	filter := bson.M{"user_id": userID, "order": bson.M{"$gt": bm.Order}}
	_, err = s.c.UpdateMany(ctx, filter, bson.M{"$inc": bson.M{"order": -1}})
	return err
}

// Move places a bookmark at the given index, shifting the entries between
// its old and new positions by one. Indexes past the end clamp to the last
// slot.
func (s *Store) Move(ctx context.Context, userID string, id primitive.ObjectID, toIndex int) error {
	var bm models.Bookmark
	err := s.c.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&bm)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	n, err := s.c.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return err
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > int(n)-1 {
		toIndex = int(n) - 1
	}
	if toIndex == bm.Order {
		return nil
	}

	var filter, shift bson.M
	if toIndex > bm.Order {
		filter = bson.M{
			"user_id": userID,
			"order":   bson.M{"$gt": bm.Order, "$lte": toIndex},
		}
		shift = bson.M{"$inc": bson.M{"order": -1}}
	} else {
		filter = bson.M{
			"user_id": userID,
			"order":   bson.M{"$gte": toIndex, "$lt": bm.Order},
		}
		shift = bson.M{"$inc": bson.M{"order": 1}}
	}
	if _, err := s.c.UpdateMany(ctx, filter, shift); err != nil {
		return err
	}
	_, err = s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"order": toIndex}})
	return err
}
