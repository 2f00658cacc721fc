// internal/app/store/organizations/organizationstore.go

// Package organizationstore owns the organizations collection, including
// invite-code resolution and the status subscription consumed by the
// session projection.
package organizationstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"github.com/moimhub/moimhub/internal/app/system/status"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateOrganization = errors.New("an organization with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

// Create inserts a new organization with freshly minted invite codes. The
// admin and user codes are distinct by construction and globally unique
// with overwhelming probability; the unique index on both fields backstops
// the rest.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.NameCI = text.Fold(org.Name)
	if org.Status == "" {
		org.Status = status.Active
	}
	org.AdminInviteCode = mintInviteCode("A")
	org.UserInviteCode = mintInviteCode("U")
	org.CreatedAt = now
	org.UpdatedAt = now

	_, err := s.c.InsertOne(ctx, org)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	return org, nil
}

// mintInviteCode derives an opaque code from a UUID. The prefix keeps admin
// and user codes from ever colliding with each other.
func mintInviteCode(prefix string) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + "-" + raw[:12]
}

// GetByID loads an organization by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// GetByHexID loads an organization by its hex id string, as stored in user
// membership sets.
func (s *Store) GetByHexID(ctx context.Context, hexID string) (models.Organization, error) {
	oid, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return models.Organization{}, err
	}
	return s.GetByID(ctx, oid)
}

// FindByAdminInviteCode scans all organizations for an admin code match.
// Returns (nil, nil) when no organization carries the code.
func (s *Store) FindByAdminInviteCode(ctx context.Context, code string) (*models.Organization, error) {
	return s.findByCodeField(ctx, "admin_invite_code", code)
}

// FindByUserInviteCode scans all organizations for a user code match.
// Returns (nil, nil) when no organization carries the code.
func (s *Store) FindByUserInviteCode(ctx context.Context, code string) (*models.Organization, error) {
	return s.findByCodeField(ctx, "user_invite_code", code)
}

func (s *Store) findByCodeField(ctx context.Context, field, code string) (*models.Organization, error) {
	if code == "" {
		return nil, nil
	}
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{field: code}).Decode(&org)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// SetStatus flips an organization between active and suspended.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	if !status.IsValid(st) {
		return errors.New(`status must be "active" or "suspended"`)
	}
	update := bson.M{"$set": bson.M{
		"status":     st,
		"updated_at": time.Now().UTC(),
	}}
	_, err := s.c.UpdateByID(ctx, id, update)
	return err
}

// List returns all organizations, newest first.
func (s *Store) List(ctx context.Context) ([]models.Organization, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}
