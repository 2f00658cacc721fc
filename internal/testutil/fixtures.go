package testutil

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
	n  int
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization inserts an active organization with deterministic
// invite codes derived from its name.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()
	return f.createOrganization(ctx, name, "active")
}

// CreateSuspendedOrganization inserts an organization in suspended status.
func (f *Fixtures) CreateSuspendedOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()
	return f.createOrganization(ctx, name, "suspended")
}

func (f *Fixtures) createOrganization(ctx context.Context, name, status string) models.Organization {
	f.t.Helper()

	f.n++
	now := time.Now().UTC()
	org := models.Organization{
		ID:              primitive.NewObjectID(),
		Name:            name,
		NameCI:          text.Fold(name),
		ContactInfo:     "test@example.com",
		Status:          status,
		AdminInviteCode: fmt.Sprintf("A-FIX%04d", f.n),
		UserInviteCode:  fmt.Sprintf("U-FIX%04d", f.n),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("create test organization: %v", err)
	}
	return org
}

// CreateUser inserts a user with no memberships. The id is a fresh opaque
// string, like the ids the identity provider assigns.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID().Hex(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "trust",
		GlobalRole: models.RoleUser,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("create test user: %v", err)
	}
	return user
}

// CreateMember inserts a user who belongs to the given organizations with
// the given per-organization role ("user" or "admin").
func (f *Fixtures) CreateMember(ctx context.Context, fullName, role string, orgs ...models.Organization) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID().Hex(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		AuthMethod: "trust",
		GlobalRole: models.RoleUser,
		Profiles:   make(map[string]models.OrganizationProfile),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, org := range orgs {
		orgID := org.ID.Hex()
		user.OrganizationIDs = append(user.OrganizationIDs, orgID)
		user.Profiles[orgID] = models.OrganizationProfile{
			Name:       fullName,
			Department: "Engineering",
			Contact:    "010-0000-0000",
			Role:       role,
			JoinedAt:   now,
		}
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("create test member: %v", err)
	}
	return user
}

// CreateLegacyUser inserts a pre-multi-org user: the single organization_id
// field is set and organization_ids/profiles are absent.
func (f *Fixtures) CreateLegacyUser(ctx context.Context, fullName string, org models.Organization) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:                   primitive.NewObjectID().Hex(),
		FullName:             fullName,
		FullNameCI:           text.Fold(fullName),
		AuthMethod:           "trust",
		GlobalRole:           models.RoleUser,
		LegacyOrganizationID: org.ID.Hex(),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("create legacy test user: %v", err)
	}
	return user
}

// CreateNotice inserts a notice in the given organization.
func (f *Fixtures) CreateNotice(ctx context.Context, org models.Organization, title string, pinned bool) models.Notice {
	f.t.Helper()

	notice := models.Notice{
		ID:             primitive.NewObjectID(),
		OrganizationID: org.ID.Hex(),
		Title:          title,
		TitleCI:        text.Fold(title),
		Body:           "<p>body</p>",
		Pinned:         pinned,
		AuthorID:       primitive.NewObjectID().Hex(),
		AuthorName:     "Fixture Author",
		CreatedAt:      time.Now().UTC(),
	}

	if _, err := f.db.Collection("notices").InsertOne(ctx, notice); err != nil {
		f.t.Fatalf("create test notice: %v", err)
	}
	return notice
}
