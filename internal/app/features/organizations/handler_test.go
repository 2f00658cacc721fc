// internal/app/features/organizations/handler_test.go
package organizations

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/app/membership"
	organizationstore "github.com/moimhub/moimhub/internal/app/store/organizations"
	userstore "github.com/moimhub/moimhub/internal/app/store/users"
	"github.com/moimhub/moimhub/internal/app/system/auth"
	"github.com/moimhub/moimhub/internal/app/system/push"
	"github.com/moimhub/moimhub/internal/domain/models"
	"github.com/moimhub/moimhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func testRouter(t *testing.T) (*chi.Mux, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	members := membership.NewService(
		userstore.New(db), organizationstore.New(db),
		push.NewLogNotifier(zap.NewNop()), zap.NewNop())
	h := NewHandler(db, members, zap.NewNop())

	sm, err := auth.NewSessionManager("test-key-0123456789", "test-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	r := chi.NewRouter()
	r.Mount("/organizations", Routes(h, sm, Subrouters{
		Notices:  chi.NewRouter(),
		Surveys:  chi.NewRouter(),
		Groups:   chi.NewRouter(),
		Feedback: chi.NewRouter(),
	}))
	return r, testutil.NewFixtures(t, db), db
}

func asUser(u models.User) testutil.TestUser {
	return testutil.TestUser{ID: u.ID, Name: u.FullName, Email: u.Email, CreatedAt: u.CreatedAt}
}

func TestJoin_ByUserCode(t *testing.T) {
	r, fx, db := testRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Maple Academy")
	u := fx.CreateUser(ctx, "Joiner Ko", "joiner@test.com")

	body := `{"code":"` + org.UserInviteCode + `","name":"Joiner Ko","department":"Math","contact":"010-1111-2222"}`
	req := testutil.WithUser(
		httptest.NewRequest(http.MethodPost, "/organizations/join", strings.NewReader(body)),
		asUser(u))
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"role":"user"`)
	rec.AssertContains(t, "Maple Academy")

	got, err := userstore.New(db).Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !got.IsMemberOf(org.ID.Hex()) {
		t.Fatal("join did not record membership")
	}

	// Rejoining the same organization conflicts.
	req = testutil.WithUser(
		httptest.NewRequest(http.MethodPost, "/organizations/join", strings.NewReader(body)),
		asUser(u))
	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestJoin_ErrorMapping(t *testing.T) {
	r, fx, _ := testRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	suspended := fx.CreateSuspendedOrganization(ctx, "Closed Org")
	u := fx.CreateUser(ctx, "Hopeful Im", "hopeful@test.com")

	join := func(code string) *testutil.ResponseRecorder {
		req := testutil.WithUser(
			httptest.NewRequest(http.MethodPost, "/organizations/join",
				strings.NewReader(`{"code":"`+code+`"}`)),
			asUser(u))
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	join("no-such-code").AssertStatus(t, http.StatusNotFound)
	join(suspended.UserInviteCode).AssertStatus(t, http.StatusForbidden)
}

func TestLeave_LastOrganizationConflicts(t *testing.T) {
	r, fx, _ := testRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Only Org")
	member := fx.CreateMember(ctx, "Solo Min", models.RoleUser, org)

	req := testutil.WithUser(
		httptest.NewRequest(http.MethodPost, "/organizations/"+org.ID.Hex()+"/leave", nil),
		asUser(member))
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestCreateOrganization_SuperAdminOnly(t *testing.T) {
	r, fx, db := testRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	plain := fx.CreateUser(ctx, "Plain Woo", "plain@test.com")
	super := fx.CreateUser(ctx, "Root Kang", "root@test.com")
	if err := userstore.New(db).SetGlobalRole(ctx, super.ID, models.RoleSuperAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}

	create := func(u models.User) *testutil.ResponseRecorder {
		req := testutil.WithUser(
			httptest.NewRequest(http.MethodPost, "/organizations",
				strings.NewReader(`{"name":"New Academy"}`)),
			asUser(u))
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	create(plain).AssertStatus(t, http.StatusForbidden)

	rec := create(super)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, "admin_invite_code")
	rec.AssertContains(t, "user_invite_code")
}

func TestDetail_CodesOnlyForAdmins(t *testing.T) {
	r, fx, _ := testRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Code Club")
	admin := fx.CreateMember(ctx, "Admin Shin", models.RoleAdmin, org)
	member := fx.CreateMember(ctx, "Member Hong", models.RoleUser, org)

	get := func(u models.User) *testutil.ResponseRecorder {
		req := testutil.WithUser(
			httptest.NewRequest(http.MethodGet, "/organizations/"+org.ID.Hex(), nil),
			asUser(u))
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := get(member)
	rec.AssertStatus(t, http.StatusOK)
	if strings.Contains(rec.Body.String(), "admin_invite_code") {
		t.Error("invite codes leaked to a plain member")
	}

	rec = get(admin)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, org.AdminInviteCode)
	rec.AssertContains(t, org.UserInviteCode)
}
