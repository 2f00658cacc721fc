package userstore_test

import (
	"testing"
	"time"

	"github.com/moimhub/moimhub/internal/app/membership"
	userstore "github.com/moimhub/moimhub/internal/app/store/users"
	"github.com/moimhub/moimhub/internal/domain/models"
	"github.com/moimhub/moimhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Get_Absent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Get(ctx, "nobody")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil for absent user, got %+v", u)
	}
}

func TestStore_EnsureUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureUser(ctx, "uid-1", "  Kim Minsu ", "KIM@Example.COM", "google"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	u, err := store.Get(ctx, "uid-1")
	if err != nil || u == nil {
		t.Fatalf("Get after EnsureUser: %v, %v", u, err)
	}
	if u.FullName != "Kim Minsu" {
		t.Errorf("FullName: got %q, want trimmed name", u.FullName)
	}
	if u.Email != "kim@example.com" {
		t.Errorf("Email: got %q, want lowercased", u.Email)
	}

	// Second sign-in must not reset the profile document.
	if err := store.EnsureUser(ctx, "uid-1", "Different Name", "kim@example.com", "google"); err != nil {
		t.Fatalf("EnsureUser (second) failed: %v", err)
	}
	u, _ = store.Get(ctx, "uid-1")
	if u.FullName != "Kim Minsu" {
		t.Errorf("FullName after re-ensure: got %q, want original", u.FullName)
	}
}

func TestStore_Join_CreatesDocumentAndProfileTogether(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	orgID := primitive.NewObjectID().Hex()
	profile := models.OrganizationProfile{
		Name:       "Kim",
		Department: "Math",
		Contact:    "010-1234-5678",
		Role:       models.RoleAdmin,
		JoinedAt:   time.Now().UTC(),
	}

	if err := store.Join(ctx, "uid-1", orgID, profile, models.RoleUser); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	u, err := store.Get(ctx, "uid-1")
	if err != nil || u == nil {
		t.Fatalf("Get after Join: %v, %v", u, err)
	}
	if !u.IsMemberOf(orgID) {
		t.Error("expected org id in membership set")
	}
	prof, ok := u.Profiles[orgID]
	if !ok {
		t.Fatal("expected profile entry keyed by org id")
	}
	if prof.Role != models.RoleAdmin {
		t.Errorf("profile role: got %q, want %q", prof.Role, models.RoleAdmin)
	}
	if u.GlobalRole != models.RoleUser {
		t.Errorf("global role: got %q, want defaulted %q", u.GlobalRole, models.RoleUser)
	}
}

func TestStore_Join_EmptySetGlobalRolePreserves(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Org")
	superadmin := fixtures.CreateUser(ctx, "Root", "root@example.com")
	if err := store.SetGlobalRole(ctx, superadmin.ID, models.RoleSuperAdmin); err != nil {
		t.Fatalf("SetGlobalRole failed: %v", err)
	}

	err := store.Join(ctx, superadmin.ID, org.ID.Hex(), models.OrganizationProfile{Role: "user"}, "")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	u, _ := store.Get(ctx, superadmin.ID)
	if u.GlobalRole != models.RoleSuperAdmin {
		t.Errorf("global role: got %q, want preserved %q", u.GlobalRole, models.RoleSuperAdmin)
	}
}

func TestStore_Join_DuplicateIsAbsorbed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	orgID := primitive.NewObjectID().Hex()
	profile := models.OrganizationProfile{Role: "user", JoinedAt: time.Now().UTC()}

	if err := store.Join(ctx, "uid-1", orgID, profile, models.RoleUser); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := store.Join(ctx, "uid-1", orgID, profile, ""); err != nil {
		t.Fatalf("second Join failed: %v", err)
	}

	u, _ := store.Get(ctx, "uid-1")
	if got := len(u.OrganizationIDs); got != 1 {
		t.Errorf("organization_ids length: got %d, want 1", got)
	}
}

func TestStore_Leave_RemovesIDAndProfileTogether(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	orgA := fixtures.CreateOrganization(ctx, "Org A")
	orgB := fixtures.CreateOrganization(ctx, "Org B")
	member := fixtures.CreateMember(ctx, "Kim", "user", orgA, orgB)

	if err := store.Leave(ctx, member.ID, orgB.ID.Hex()); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	u, _ := store.Get(ctx, member.ID)
	if u.IsMemberOf(orgB.ID.Hex()) {
		t.Error("expected orgB removed from membership set")
	}
	if _, ok := u.Profiles[orgB.ID.Hex()]; ok {
		t.Error("expected orgB profile entry removed")
	}
	if !u.IsMemberOf(orgA.ID.Hex()) {
		t.Error("expected orgA membership untouched")
	}
}

func TestStore_UpdateProfile_RequiresMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Org")
	outsider := fixtures.CreateUser(ctx, "Outsider", "out@example.com")

	err := store.UpdateProfile(ctx, outsider.ID, org.ID.Hex(), membership.ProfileFields{Name: "x"})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	// The filtered write must not create an orphan profile entry.
	u, _ := store.Get(ctx, outsider.ID)
	if len(u.Profiles) != 0 {
		t.Errorf("expected no profile entries, got %v", u.Profiles)
	}
}

func TestStore_UpdateProfile_KeepsRoleAndJoinedAt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fixtures.CreateOrganization(ctx, "Org")
	member := fixtures.CreateMember(ctx, "Kim", "admin", org)
	before, _ := store.Get(ctx, member.ID)
	orgID := org.ID.Hex()

	err := store.UpdateProfile(ctx, member.ID, orgID, membership.ProfileFields{
		Name:       "Kim Minsu",
		Department: "Science",
		Contact:    "010-9999-8888",
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	u, _ := store.Get(ctx, member.ID)
	prof := u.Profiles[orgID]
	if prof.Name != "Kim Minsu" || prof.Department != "Science" {
		t.Errorf("profile not updated: %+v", prof)
	}
	if prof.Role != "admin" {
		t.Errorf("role changed by profile update: got %q", prof.Role)
	}
	if !prof.JoinedAt.Equal(before.Profiles[orgID].JoinedAt) {
		t.Error("joined_at changed by profile update")
	}
}

func TestStore_AddFCMToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Kim", "kim@example.com")

	if err := store.AddFCMToken(ctx, u.ID, "tok-1"); err != nil {
		t.Fatalf("AddFCMToken failed: %v", err)
	}
	if err := store.AddFCMToken(ctx, u.ID, "tok-1"); err != nil {
		t.Fatalf("AddFCMToken (repeat) failed: %v", err)
	}

	got, _ := store.Get(ctx, u.ID)
	if len(got.FCMTokens) != 1 || got.FCMTokens[0] != "tok-1" {
		t.Errorf("fcm_tokens: got %v, want [tok-1]", got.FCMTokens)
	}
}
