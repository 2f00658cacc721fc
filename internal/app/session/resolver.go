// internal/app/session/resolver.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/moimhub/moimhub/internal/app/system/status"
	"go.uber.org/zap"
)

// GhostGraceWindow is how long after account creation a missing user
// document is tolerated as an in-progress registration write. Past it, an
// authenticated identity with no backing document is a hard inconsistency
// and the session is forcibly signed out.
const GhostGraceWindow = 15 * time.Second

// Resolver maintains a live projection of "who is signed in" and "what is
// their membership state".
//
// It owns at most one user-document subscription (per identity) and at most
// one organization-status subscription (per active organization). Replacing
// either subscription closes the old one before the new one's first emission
// is acted on, so a stale organization's status can never overwrite a
// fresher one.
type Resolver struct {
	users   UserSource
	orgs    OrgStatusSource
	signOut SignOutFunc
	log     *zap.Logger

	now   func() time.Time
	grace time.Duration

	mu        sync.Mutex
	snap      Snapshot
	identity  *Identity
	userSub   UserSubscription
	userGen   int
	statusSub StatusSubscription
	statusGen int
	listeners map[int]chan Snapshot
	nextLid   int
	closed    bool

	wg sync.WaitGroup
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the wall clock. Test hook for the ghost grace window.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithGraceWindow overrides the ghost-user grace window.
func WithGraceWindow(d time.Duration) Option {
	return func(r *Resolver) { r.grace = d }
}

// NewResolver builds a resolver in the signed-out state.
func NewResolver(users UserSource, orgs OrgStatusSource, signOut SignOutFunc, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		users:     users,
		orgs:      orgs,
		signOut:   signOut,
		log:       logger,
		now:       time.Now,
		grace:     GhostGraceWindow,
		snap:      signedOutSnapshot(),
		listeners: make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot returns the current session state.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Subscribe registers a listener for state changes. The returned channel
// receives the snapshot current at subscription time, then every subsequent
// published snapshot (oldest entries are dropped if the listener lags).
// The cancel func releases the listener.
func (r *Resolver) Subscribe() (<-chan Snapshot, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Snapshot, 16)
	lid := r.nextLid
	r.nextLid++
	r.listeners[lid] = ch
	ch <- r.snap

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.listeners[lid]; ok {
			delete(r.listeners, lid)
			close(ch)
		}
	}
	return ch, cancel
}

// publishLocked snapshots current state to all listeners. Caller holds r.mu.
func (r *Resolver) publishLocked() {
	for _, ch := range r.listeners {
		select {
		case ch <- r.snap:
		default:
			// Listener is full: drop its oldest entry to make room, so a
			// slow consumer still converges on the latest state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- r.snap:
			default:
			}
		}
	}
}

// SetIdentity handles one identity-change event from the auth collaborator.
// A non-nil identity opens a live subscription to that user's document
// (releasing any previous one first); nil clears all session state back to
// signed-out defaults.
func (r *Resolver) SetIdentity(ctx context.Context, id *Identity) error {
	// Subscriptions outlive the request that opened them; they end only via
	// Close. Multiple connections share this resolver, so tying the watch to
	// the first caller's context would kill it for the rest.
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}

	// Single-owner rule: the previous user subscription is released before
	// a new one is established.
	r.dropUserSubLocked()
	r.dropStatusSubLocked()

	r.identity = id
	if id == nil {
		r.snap = signedOutSnapshot()
		r.publishLocked()
		r.mu.Unlock()
		return nil
	}

	r.snap = signedOutSnapshot()
	r.snap.SignedIn = true
	r.snap.UserID = id.UserID
	r.snap.Loading = true
	r.snap.applyProjection()
	r.publishLocked()
	gen := r.userGen
	r.mu.Unlock()

	sub, err := r.users.WatchUser(ctx, id.UserID)
	if err != nil {
		r.mu.Lock()
		// The identity may have changed again while connecting; only the
		// generation that failed gets its loading flag cleared.
		if !r.closed && r.userGen == gen {
			r.snap.Loading = false
			r.publishLocked()
		}
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	if r.closed || r.userGen != gen {
		// Identity changed again while we were connecting.
		r.mu.Unlock()
		sub.Close()
		return nil
	}
	r.userSub = sub
	r.wg.Add(1)
	r.mu.Unlock()

	go r.consumeUser(ctx, sub, gen, *id)
	return nil
}

func (r *Resolver) consumeUser(ctx context.Context, sub UserSubscription, gen int, id Identity) {
	defer r.wg.Done()
	for ev := range sub.Events() {
		r.mu.Lock()
		if r.closed || r.userGen != gen {
			r.mu.Unlock()
			return
		}
		if !ev.Exists {
			r.handleMissingUserLocked(id)
			r.mu.Unlock()
			continue
		}

		u := ev.User
		r.snap.Loading = false
		r.snap.GlobalRole = u.GlobalRole
		r.snap.OrganizationIDs = u.MemberOrganizationIDs()
		r.snap.Profiles = u.Profiles

		r.reconcileActiveLocked(ctx)
		r.snap.applyProjection()
		r.publishLocked()
		r.mu.Unlock()
	}
}

// handleMissingUserLocked is ghost-user reconciliation. Caller holds r.mu.
func (r *Resolver) handleMissingUserLocked(id Identity) {
	age := r.now().Sub(id.CreatedAt)
	if age > r.grace {
		// Authenticated identity with no backing document, past the grace
		// window: hard inconsistency, force sign-out.
		r.log.Warn("ghost user detected, forcing sign-out",
			zap.String("user_id", id.UserID),
			zap.Duration("account_age", age))
		r.dropUserSubLocked()
		r.dropStatusSubLocked()
		r.identity = nil
		r.snap = signedOutSnapshot()
		r.publishLocked()
		if r.signOut != nil {
			r.signOut(id.UserID)
		}
		return
	}

	// Registration write still in flight: stay signed in with empty state.
	r.snap.Loading = false
	r.snap.GlobalRole = ""
	r.snap.OrganizationIDs = nil
	r.snap.Profiles = nil
	r.snap.ActiveOrganizationID = ""
	r.dropStatusSubLocked()
	r.snap.OrgStatus = status.Active
	r.snap.applyProjection()
	r.publishLocked()
}

// reconcileActiveLocked applies the default-selection rule: first loaded id
// becomes active when none is chosen; a chosen id is sticky until it
// disappears from the membership set. Caller holds r.mu.
func (r *Resolver) reconcileActiveLocked(ctx context.Context) {
	ids := r.snap.OrganizationIDs

	if r.snap.ActiveOrganizationID != "" {
		still := false
		for _, id := range ids {
			if id == r.snap.ActiveOrganizationID {
				still = true
				break
			}
		}
		if still {
			return
		}
		r.snap.ActiveOrganizationID = ""
	}

	if len(ids) > 0 {
		r.setActiveLocked(ctx, ids[0])
	} else {
		r.setActiveLocked(ctx, "")
	}
}

// SetActiveOrganization switches the active organization. Any id is
// accepted; one outside the membership set projects to no capabilities.
func (r *Resolver) SetActiveOrganization(ctx context.Context, orgID string) {
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.setActiveLocked(ctx, orgID)
	r.snap.applyProjection()
	r.publishLocked()
}

// setActiveLocked records the active id and retargets the status
// subscription. The previous subscription is closed before the new one is
// opened; emissions from it are additionally fenced by statusGen so nothing
// stale is acted on. Caller holds r.mu.
func (r *Resolver) setActiveLocked(ctx context.Context, orgID string) {
	if r.snap.ActiveOrganizationID == orgID && (orgID == "" || r.statusSub != nil) {
		return
	}
	r.snap.ActiveOrganizationID = orgID
	r.dropStatusSubLocked()
	r.snap.OrgStatus = status.Active

	if orgID == "" {
		return
	}

	gen := r.statusGen
	sub, err := r.orgs.WatchOrgStatus(ctx, orgID)
	if err != nil {
		r.log.Error("org status subscription failed",
			zap.String("org_id", orgID), zap.Error(err))
		return
	}
	if r.closed || r.statusGen != gen {
		sub.Close()
		return
	}
	r.statusSub = sub
	r.wg.Add(1)
	go r.consumeStatus(sub, gen)
}

func (r *Resolver) consumeStatus(sub StatusSubscription, gen int) {
	defer r.wg.Done()
	for st := range sub.Statuses() {
		r.mu.Lock()
		if r.closed || r.statusGen != gen {
			r.mu.Unlock()
			return
		}
		r.snap.OrgStatus = st
		r.publishLocked()
		r.mu.Unlock()
	}
}

// dropUserSubLocked releases the current user subscription, fencing off any
// in-flight emissions. Caller holds r.mu.
func (r *Resolver) dropUserSubLocked() {
	r.userGen++
	if r.userSub != nil {
		r.userSub.Close()
		r.userSub = nil
	}
}

// dropStatusSubLocked releases the current status subscription. Caller
// holds r.mu.
func (r *Resolver) dropStatusSubLocked() {
	r.statusGen++
	if r.statusSub != nil {
		r.statusSub.Close()
		r.statusSub = nil
	}
}

// Close releases every subscription and listener. The resolver publishes
// nothing after Close returns.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.dropUserSubLocked()
	r.dropStatusSubLocked()
	for lid, ch := range r.listeners {
		delete(r.listeners, lid)
		close(ch)
	}
	r.mu.Unlock()

	r.wg.Wait()
}
