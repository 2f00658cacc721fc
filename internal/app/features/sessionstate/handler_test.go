// internal/app/features/sessionstate/handler_test.go
package sessionstate

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/moimhub/moimhub/internal/app/session"
	"github.com/moimhub/moimhub/internal/app/system/auth"
	"github.com/moimhub/moimhub/internal/domain/models"
	"github.com/moimhub/moimhub/internal/testutil"
	"go.uber.org/zap"
)

func testSetup(t *testing.T) (*chi.Mux, *testutil.FakeUserSource, *testutil.FakeStatusSource) {
	t.Helper()
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()
	hub := session.NewHub(users, orgs, nil, zap.NewNop())

	sm, err := auth.NewSessionManager("test-key-0123456789", "test-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	h := NewHandler(hub, sm, zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/session", Routes(h, sm))
	return r, users, orgs
}

// emitWhenWatched feeds the user document as soon as the handler opens its
// subscription.
func emitWhenWatched(t *testing.T, users *testutil.FakeUserSource, userID string, doc *models.User) {
	t.Helper()
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if sub := users.Sub(userID); sub != nil {
				sub.EmitUser(doc)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
}

func TestSnapshot_ReturnsLoadedMembership(t *testing.T) {
	r, users, _ := testSetup(t)
	tu := testutil.SignedInUser()

	doc := &models.User{
		ID:              tu.ID,
		FullName:        tu.Name,
		GlobalRole:      models.RoleUser,
		OrganizationIDs: []string{"org-1"},
		Profiles: map[string]models.OrganizationProfile{
			"org-1": {Name: tu.Name, Role: models.RoleAdmin},
		},
	}
	emitWhenWatched(t, users, tu.ID, doc)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/session", tu)
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"signed_in":true`)
	rec.AssertContains(t, `"active_organization_id":"org-1"`)
	rec.AssertContains(t, `"is_org_admin":true`)
	if strings.Contains(rec.Body.String(), `"loading":true`) {
		t.Error("snapshot still loading after wait")
	}
}

func TestSnapshot_RequiresSignIn(t *testing.T) {
	r, _, _ := testSetup(t)

	req := testutil.NewRequest(http.MethodGet, "/session")
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestSetActiveOrg_WithoutResolverEchoes(t *testing.T) {
	r, _, _ := testSetup(t)
	tu := testutil.SignedInUser()

	req := httptest.NewRequest(http.MethodPost, "/session/active-org",
		strings.NewReader(`{"organization_id":"org-9"}`))
	req = testutil.WithUser(req, tu)
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "org-9")
}
