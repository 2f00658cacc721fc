package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/moimhub/moimhub/internal/app/session"
	"github.com/moimhub/moimhub/internal/domain/models"
	"github.com/moimhub/moimhub/internal/testutil"
	"go.uber.org/zap"
)

func memberDoc(userID string, orgRoles map[string]string, orgOrder ...string) *models.User {
	u := &models.User{
		ID:         userID,
		FullName:   "Test User",
		GlobalRole: models.RoleUser,
		Profiles:   make(map[string]models.OrganizationProfile),
	}
	for _, orgID := range orgOrder {
		u.OrganizationIDs = append(u.OrganizationIDs, orgID)
		u.Profiles[orgID] = models.OrganizationProfile{
			Name: "Test User",
			Role: orgRoles[orgID],
		}
	}
	return u
}

func identity(userID string, createdAt time.Time) *session.Identity {
	return &session.Identity{
		UserID:    userID,
		Name:      "Test User",
		Email:     "user@test.com",
		CreatedAt: createdAt,
	}
}

// stallingUserSource fails WatchUser for one user id, holding the call open
// until released so tests can order the failure against a concurrent
// identity switch.
type stallingUserSource struct {
	inner   *testutil.FakeUserSource
	failID  string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newStallingUserSource(failID string) *stallingUserSource {
	return &stallingUserSource{
		inner:   testutil.NewFakeUserSource(),
		failID:  failID,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *stallingUserSource) WatchUser(ctx context.Context, userID string) (session.UserSubscription, error) {
	if userID == s.failID {
		s.once.Do(func() { close(s.entered) })
		<-s.release
		return nil, errors.New("change stream unavailable")
	}
	return s.inner.WatchUser(ctx, userID)
}

// waitFor drains snapshots until one satisfies pred.
func waitFor(t *testing.T, ch <-chan session.Snapshot, pred func(session.Snapshot) bool) session.Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				t.Fatal("snapshot channel closed while waiting")
			}
			if pred(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestResolver_SignInLoadsMembership(t *testing.T) {
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()
	r := session.NewResolver(users, orgs, nil, zap.NewNop())
	defer r.Close()

	ch, cancel := r.Subscribe()
	defer cancel()

	ctx := context.Background()
	if err := r.SetIdentity(ctx, identity("u1", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	// Signed in, still loading, no capabilities yet.
	snap := waitFor(t, ch, func(s session.Snapshot) bool { return s.SignedIn })
	if !snap.Loading {
		t.Error("expected Loading before the first document emission")
	}
	if snap.IsOrgAdmin || snap.IsSuperAdmin {
		t.Error("expected no capabilities while loading")
	}

	users.Sub("u1").EmitUser(memberDoc("u1", map[string]string{"orgA": "admin", "orgB": "user"}, "orgA", "orgB"))

	snap = waitFor(t, ch, func(s session.Snapshot) bool { return !s.Loading })
	if got := snap.ActiveOrganizationID; got != "orgA" {
		t.Errorf("default active org: got %q, want %q", got, "orgA")
	}
	if !snap.IsOrgAdmin {
		t.Error("expected IsOrgAdmin for admin profile in active org")
	}
	if snap.IsSuperAdmin {
		t.Error("expected IsSuperAdmin false for global role user")
	}
	if orgs.OpenCount("orgA") != 1 {
		t.Errorf("expected one status subscription for orgA, got %d", orgs.OpenCount("orgA"))
	}
}

func TestResolver_ActiveOrgIsSticky(t *testing.T) {
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()
	r := session.NewResolver(users, orgs, nil, zap.NewNop())
	defer r.Close()

	ch, cancel := r.Subscribe()
	defer cancel()

	ctx := context.Background()
	if err := r.SetIdentity(ctx, identity("u1", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	doc := memberDoc("u1", map[string]string{"orgA": "user", "orgB": "admin"}, "orgA", "orgB")
	users.Sub("u1").EmitUser(doc)
	waitFor(t, ch, func(s session.Snapshot) bool { return s.ActiveOrganizationID == "orgA" })

	r.SetActiveOrganization(ctx, "orgB")
	snap := waitFor(t, ch, func(s session.Snapshot) bool { return s.ActiveOrganizationID == "orgB" })
	if !snap.IsOrgAdmin {
		t.Error("expected IsOrgAdmin after switching to admin org")
	}

	// A re-emission with the same membership must not reset the choice.
	users.Sub("u1").EmitUser(doc)
	snap = waitFor(t, ch, func(s session.Snapshot) bool { return !s.Loading })
	if snap.ActiveOrganizationID != "orgB" {
		t.Errorf("active org after re-emission: got %q, want %q", snap.ActiveOrganizationID, "orgB")
	}
}

func TestResolver_ActiveOrgFallsBackWhenRemoved(t *testing.T) {
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()
	r := session.NewResolver(users, orgs, nil, zap.NewNop())
	defer r.Close()

	ch, cancel := r.Subscribe()
	defer cancel()

	ctx := context.Background()
	if err := r.SetIdentity(ctx, identity("u1", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	users.Sub("u1").EmitUser(memberDoc("u1", map[string]string{"orgA": "user", "orgB": "user"}, "orgA", "orgB"))
	waitFor(t, ch, func(s session.Snapshot) bool { return s.ActiveOrganizationID == "orgA" })

	r.SetActiveOrganization(ctx, "orgB")
	waitFor(t, ch, func(s session.Snapshot) bool { return s.ActiveOrganizationID == "orgB" })

	// orgB disappears from the membership set: selection falls back to the
	// first remaining id.
	users.Sub("u1").EmitUser(memberDoc("u1", map[string]string{"orgA": "user"}, "orgA"))
	snap := waitFor(t, ch, func(s session.Snapshot) bool { return s.ActiveOrganizationID == "orgA" })
	if snap.IsOrgAdmin {
		t.Error("expected no admin capability after fallback")
	}
}

func TestResolver_LegacySingleOrgFallback(t *testing.T) {
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()
	r := session.NewResolver(users, orgs, nil, zap.NewNop())
	defer r.Close()

	ch, cancel := r.Subscribe()
	defer cancel()

	ctx := context.Background()
	if err := r.SetIdentity(ctx, identity("u1", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	users.Sub("u1").EmitUser(&models.User{
		ID:                   "u1",
		GlobalRole:           models.RoleUser,
		LegacyOrganizationID: "orgLegacy",
	})

	snap := waitFor(t, ch, func(s session.Snapshot) bool { return s.SignedIn && !s.Loading })
	if snap.ActiveOrganizationID != "orgLegacy" {
		t.Errorf("active org: got %q, want legacy org id", snap.ActiveOrganizationID)
	}
	if len(snap.OrganizationIDs) != 1 || snap.OrganizationIDs[0] != "orgLegacy" {
		t.Errorf("OrganizationIDs: got %v, want [orgLegacy]", snap.OrganizationIDs)
	}
}

func TestResolver_StatusSubscriptionRetargets(t *testing.T) {
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()
	r := session.NewResolver(users, orgs, nil, zap.NewNop())
	defer r.Close()

	ch, cancel := r.Subscribe()
	defer cancel()

	ctx := context.Background()
	if err := r.SetIdentity(ctx, identity("u1", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	users.Sub("u1").EmitUser(memberDoc("u1", map[string]string{"orgA": "user", "orgB": "user"}, "orgA", "orgB"))
	waitFor(t, ch, func(s session.Snapshot) bool { return s.ActiveOrganizationID == "orgA" })

	subA := orgs.Sub("orgA")
	subA.Emit("suspended")
	waitFor(t, ch, func(s session.Snapshot) bool { return s.OrgStatus == "suspended" })

	r.SetActiveOrganization(ctx, "orgB")
	snap := waitFor(t, ch, func(s session.Snapshot) bool { return s.ActiveOrganizationID == "orgB" })

	// The old subscription is released before the new target's state can be
	// observed, and the status resets until orgB reports.
	if !subA.IsClosed() {
		t.Error("expected orgA status subscription to be closed after retarget")
	}
	if snap.OrgStatus != "active" {
		t.Errorf("OrgStatus after retarget: got %q, want %q", snap.OrgStatus, "active")
	}

	orgs.Sub("orgB").Emit("active")
	time.Sleep(50 * time.Millisecond)
	if got := r.Snapshot().OrgStatus; got != "active" {
		t.Errorf("OrgStatus: got %q, want %q", got, "active")
	}
}

func TestResolver_GhostUserForcedSignOut(t *testing.T) {
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()

	signedOut := make(chan string, 1)
	signOut := func(userID string) { signedOut <- userID }

	created := time.Now().Add(-time.Hour)
	clock := func() time.Time { return created.Add(20 * time.Second) }

	r := session.NewResolver(users, orgs, signOut, zap.NewNop(), session.WithClock(clock))
	defer r.Close()

	ch, cancel := r.Subscribe()
	defer cancel()

	ctx := context.Background()
	if err := r.SetIdentity(ctx, identity("ghost", created)); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	sub := users.Sub("ghost")
	sub.EmitMissing()

	snap := waitFor(t, ch, func(s session.Snapshot) bool { return !s.SignedIn })
	if snap.UserID != "" || snap.ActiveOrganizationID != "" {
		t.Error("expected fully cleared snapshot after forced sign-out")
	}

	select {
	case userID := <-signedOut:
		if userID != "ghost" {
			t.Errorf("signed out user: got %q, want %q", userID, "ghost")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected forced sign-out callback")
	}

	if !sub.IsClosed() {
		t.Error("expected user subscription to be released after forced sign-out")
	}
}

func TestResolver_FreshAccountToleratesMissingDoc(t *testing.T) {
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()

	signedOut := make(chan string, 1)
	signOut := func(userID string) { signedOut <- userID }

	created := time.Now().Add(-time.Hour)
	clock := func() time.Time { return created.Add(5 * time.Second) }

	r := session.NewResolver(users, orgs, signOut, zap.NewNop(), session.WithClock(clock))
	defer r.Close()

	ch, cancel := r.Subscribe()
	defer cancel()

	ctx := context.Background()
	if err := r.SetIdentity(ctx, identity("newbie", created)); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	sub := users.Sub("newbie")
	sub.EmitMissing()

	// Registration write still in flight: signed in, empty membership.
	snap := waitFor(t, ch, func(s session.Snapshot) bool { return s.SignedIn && !s.Loading })
	if !snap.SignedIn {
		t.Error("expected to stay signed in within the grace window")
	}
	if len(snap.OrganizationIDs) != 0 || snap.ActiveOrganizationID != "" {
		t.Error("expected empty membership state")
	}

	select {
	case <-signedOut:
		t.Fatal("unexpected forced sign-out within grace window")
	case <-time.After(50 * time.Millisecond):
	}

	// The subscription stays open; when the write lands, state fills in.
	sub.EmitUser(memberDoc("newbie", map[string]string{"orgA": "user"}, "orgA"))
	snap = waitFor(t, ch, func(s session.Snapshot) bool { return s.ActiveOrganizationID == "orgA" })
	if !snap.SignedIn {
		t.Error("expected signed-in state after document appears")
	}
}

func TestResolver_SignOutClearsState(t *testing.T) {
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()
	r := session.NewResolver(users, orgs, nil, zap.NewNop())
	defer r.Close()

	ch, cancel := r.Subscribe()
	defer cancel()

	ctx := context.Background()
	if err := r.SetIdentity(ctx, identity("u1", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	users.Sub("u1").EmitUser(memberDoc("u1", map[string]string{"orgA": "admin"}, "orgA"))
	waitFor(t, ch, func(s session.Snapshot) bool { return s.IsOrgAdmin })

	userSub := users.Sub("u1")
	statusSub := orgs.Sub("orgA")

	if err := r.SetIdentity(ctx, nil); err != nil {
		t.Fatalf("SetIdentity(nil) failed: %v", err)
	}

	snap := waitFor(t, ch, func(s session.Snapshot) bool { return !s.SignedIn })
	if snap.IsOrgAdmin || snap.IsSuperAdmin || snap.ActiveProfile != nil {
		t.Error("expected all capabilities cleared after sign-out")
	}
	if !userSub.IsClosed() {
		t.Error("expected user subscription released on sign-out")
	}
	if !statusSub.IsClosed() {
		t.Error("expected status subscription released on sign-out")
	}
}

func TestResolver_IdentitySwitchReplacesSubscription(t *testing.T) {
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()
	r := session.NewResolver(users, orgs, nil, zap.NewNop())
	defer r.Close()

	ch, cancel := r.Subscribe()
	defer cancel()

	ctx := context.Background()
	if err := r.SetIdentity(ctx, identity("u1", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}
	firstSub := users.Sub("u1")

	if err := r.SetIdentity(ctx, identity("u2", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}
	if !firstSub.IsClosed() {
		t.Error("expected previous identity's subscription to be closed")
	}

	users.Sub("u2").EmitUser(memberDoc("u2", map[string]string{"orgZ": "user"}, "orgZ"))
	snap := waitFor(t, ch, func(s session.Snapshot) bool { return s.UserID == "u2" && !s.Loading })
	if snap.ActiveOrganizationID != "orgZ" {
		t.Errorf("active org: got %q, want %q", snap.ActiveOrganizationID, "orgZ")
	}
}

func TestResolver_FailedWatchDoesNotTouchSuccessorState(t *testing.T) {
	users := newStallingUserSource("flaky")
	orgs := testutil.NewFakeStatusSource()
	r := session.NewResolver(users, orgs, nil, zap.NewNop())
	defer r.Close()

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- r.SetIdentity(ctx, identity("flaky", time.Now().Add(-time.Hour)))
	}()
	<-users.entered

	// The identity switches while the first watch is still connecting.
	if err := r.SetIdentity(ctx, identity("steady", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	close(users.release)
	if err := <-done; err == nil {
		t.Fatal("expected an error from the failed watch")
	}

	// The failure belongs to a superseded generation: the successor is
	// still loading.
	snap := r.Snapshot()
	if snap.UserID != "steady" {
		t.Fatalf("UserID: got %q, want %q", snap.UserID, "steady")
	}
	if !snap.Loading {
		t.Error("expected successor to remain loading after the stale failure")
	}

	ch, cancel := r.Subscribe()
	defer cancel()
	users.inner.Sub("steady").EmitUser(memberDoc("steady", map[string]string{"orgA": "user"}, "orgA"))
	snap = waitFor(t, ch, func(s session.Snapshot) bool { return s.UserID == "steady" && !s.Loading })
	if snap.ActiveOrganizationID != "orgA" {
		t.Errorf("active org: got %q, want %q", snap.ActiveOrganizationID, "orgA")
	}
}

func TestResolver_CloseReleasesEverything(t *testing.T) {
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()
	r := session.NewResolver(users, orgs, nil, zap.NewNop())

	ch, cancel := r.Subscribe()
	defer cancel()

	ctx := context.Background()
	if err := r.SetIdentity(ctx, identity("u1", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}
	users.Sub("u1").EmitUser(memberDoc("u1", map[string]string{"orgA": "user"}, "orgA"))
	waitFor(t, ch, func(s session.Snapshot) bool { return s.ActiveOrganizationID == "orgA" })

	r.Close()

	if !users.Sub("u1").IsClosed() {
		t.Error("expected user subscription closed")
	}
	if !orgs.Sub("orgA").IsClosed() {
		t.Error("expected status subscription closed")
	}
}
