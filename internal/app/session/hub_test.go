package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/moimhub/moimhub/internal/app/session"
	"github.com/moimhub/moimhub/internal/testutil"
	"go.uber.org/zap"
)

func TestHub_SharesResolverPerUser(t *testing.T) {
	users := testutil.NewFakeUserSource()
	orgs := testutil.NewFakeStatusSource()
	hub := session.NewHub(users, orgs, nil, zap.NewNop())

	ctx := context.Background()
	id := *identity("u1", time.Now().Add(-time.Hour))

	r1, err := hub.Acquire(ctx, id)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	r2, err := hub.Acquire(ctx, id)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if r1 != r2 {
		t.Error("expected both acquisitions to share one resolver")
	}
	if users.OpenCount("u1") != 1 {
		t.Errorf("expected one user subscription, got %d", users.OpenCount("u1"))
	}

	// First release keeps the shared resolver alive.
	hub.Release("u1")
	if _, ok := hub.Get("u1"); !ok {
		t.Fatal("expected resolver to survive first release")
	}

	hub.Release("u1")
	if _, ok := hub.Get("u1"); ok {
		t.Error("expected resolver gone after last release")
	}
	if !users.Sub("u1").IsClosed() {
		t.Error("expected user subscription closed after last release")
	}
}

func TestHub_ConcurrentAcquireSharesStartupFailure(t *testing.T) {
	users := newStallingUserSource("flaky")
	orgs := testutil.NewFakeStatusSource()
	hub := session.NewHub(users, orgs, nil, zap.NewNop())

	ctx := context.Background()
	id := *identity("flaky", time.Now().Add(-time.Hour))

	first := make(chan error, 1)
	go func() {
		_, err := hub.Acquire(ctx, id)
		first <- err
	}()
	<-users.entered

	// A second caller joins while the creator's watch is still connecting.
	second := make(chan error, 1)
	go func() {
		_, err := hub.Acquire(ctx, id)
		second <- err
	}()
	time.Sleep(50 * time.Millisecond)

	close(users.release)

	if err := <-first; err == nil {
		t.Fatal("expected the creator's acquire to fail")
	}
	if err := <-second; err == nil {
		t.Fatal("expected the joining acquire to share the failure")
	}
	if _, ok := hub.Get("flaky"); ok {
		t.Error("expected no resolver left behind after the failed startup")
	}

	// The hub still serves other users afterwards.
	healthy := *identity("steady", time.Now().Add(-time.Hour))
	r, err := hub.Acquire(ctx, healthy)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if r == nil {
		t.Fatal("expected a resolver for the healthy user")
	}
	hub.Release("steady")
}

func TestHub_GetWithoutAcquire(t *testing.T) {
	hub := session.NewHub(testutil.NewFakeUserSource(), testutil.NewFakeStatusSource(), nil, zap.NewNop())
	if _, ok := hub.Get("nobody"); ok {
		t.Error("expected no resolver for unknown user")
	}
}
