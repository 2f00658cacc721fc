// internal/app/store/users/userstore.go

// Package userstore owns the users collection: one document per identity,
// keyed by the id the identity provider assigned at account creation.
//
// The document carries the whole membership state (organization_ids +
// profiles). Join and Leave are single UpdateOne calls touching both fields,
// so the "every id has a profile" invariant holds for every concurrent
// reader; there is never a moment where only half the change is visible.
package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/moimhub/moimhub/internal/app/membership"
	"github.com/moimhub/moimhub/internal/app/system/normalize"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrDuplicateEmail = errors.New("a user with this email already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Get loads a user by id. Returns (nil, nil) when no document exists; the
// caller distinguishes "absent" from transport failure.
func (s *Store) Get(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail loads a user by normalized email. Returns (nil, nil) when no
// document matches.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a complete user document, as used by password registration.
// The caller mints the id and hashes the password.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// EnsureUser creates the user document at first sign-in if it does not
// exist yet. Existing documents are left untouched except for the email,
// which follows the identity provider.
func (s *Store) EnsureUser(ctx context.Context, userID, fullName, email, authMethod string) error {
	now := time.Now().UTC()
	fullName = normalize.Name(fullName)
	update := bson.M{
		"$set": bson.M{
			"email":      normalize.Email(email),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"full_name":    fullName,
			"full_name_ci": text.Fold(fullName),
			"auth_method":  normalize.AuthMethod(authMethod),
			"created_at":   now,
		},
	}
	opts := optionsUpdateUpsert()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, update, opts)
	return err
}

// Join adds orgID to organization_ids and inserts the profile under
// profiles.<orgID> in one merge write, creating the document if absent.
// setGlobalRole is written only when the caller determined the role is
// absent; an empty value leaves global_role alone.
func (s *Store) Join(ctx context.Context, userID, orgID string, profile models.OrganizationProfile, setGlobalRole string) error {
	now := time.Now().UTC()
	set := bson.M{
		"profiles." + orgID: profile,
		"updated_at":        now,
	}
	if setGlobalRole != "" {
		set["global_role"] = setGlobalRole
	}
	update := bson.M{
		"$addToSet":    bson.M{"organization_ids": orgID},
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := optionsUpdateUpsert()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, update, opts)
	return err
}

// Leave removes orgID from organization_ids and deletes profiles.<orgID> in
// one merge write. Removing an id the user does not hold is a harmless
// no-op at this layer.
func (s *Store) Leave(ctx context.Context, userID, orgID string) error {
	update := bson.M{
		"$pull":  bson.M{"organization_ids": orgID},
		"$unset": bson.M{"profiles." + orgID: ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}

// UpdateProfile overwrites name/department/contact of profiles.<orgID>.
// The filter requires membership, so the write cannot create an orphan
// profile entry even if the service-level guard is bypassed. Role and
// joined_at are never touched.
func (s *Store) UpdateProfile(ctx context.Context, userID, orgID string, fields membership.ProfileFields) error {
	prefix := "profiles." + orgID + "."
	update := bson.M{
		"$set": bson.M{
			prefix + "name":       fields.Name,
			prefix + "department": fields.Department,
			prefix + "contact":    fields.Contact,
			"updated_at":          time.Now().UTC(),
		},
	}
	filter := bson.M{"_id": userID, "organization_ids": orgID}
	_, err := s.c.UpdateOne(ctx, filter, update)
	return err
}

// AddFCMToken appends a push device token. Append-only from this store's
// perspective; token pruning is a separate maintenance concern.
func (s *Store) AddFCMToken(ctx context.Context, userID, token string) error {
	update := bson.M{
		"$addToSet": bson.M{"fcm_tokens": token},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}

// SetGlobalRole promotes or demotes a user's global role. Privileged
// operation; membership mutators never call this.
func (s *Store) SetGlobalRole(ctx context.Context, userID, role string) error {
	update := bson.M{
		"$set": bson.M{
			"global_role": normalize.Role(role),
			"updated_at":  time.Now().UTC(),
		},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}
