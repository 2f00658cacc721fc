// internal/app/store/oauthstate/oauthstatestore.go

// Package oauthstatestore persists OAuth state tokens between the redirect
// to the provider and the callback. States are single use and expire via a
// TTL index on expires_at.
package oauthstatestore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

type stateDoc struct {
	State     string    `bson:"_id"`
	ReturnURL string    `bson:"return_url,omitempty"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Save records a state token with its return URL and expiry.
func (s *Store) Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error {
	_, err := s.c.InsertOne(ctx, stateDoc{
		State:     state,
		ReturnURL: returnURL,
		ExpiresAt: expiresAt.UTC(),
	})
	return err
}

// Validate consumes a state token. Returns the stored return URL and whether
// the token was known and unexpired. The token is deleted either way.
func (s *Store) Validate(ctx context.Context, state string) (string, bool, error) {
	var doc stateDoc
	err := s.c.FindOneAndDelete(ctx, bson.M{"_id": state}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if time.Now().UTC().After(doc.ExpiresAt) {
		return "", false, nil
	}
	return doc.ReturnURL, true, nil
}
