// internal/app/session/hub.go
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hub hands out one shared Resolver per signed-in user. Multiple browser
// tabs (SSE connections) of the same user share a resolver and therefore an
// active-organization selection; the resolver is torn down when the last
// reference is released.
type Hub struct {
	users   UserSource
	orgs    OrgStatusSource
	signOut SignOutFunc
	log     *zap.Logger
	opts    []Option

	mu      sync.Mutex
	entries map[string]*hubEntry
}

// hubEntry tracks one user's shared resolver. ready is closed once the
// creator's SetIdentity has finished; err carries its outcome for every
// goroutine that joined while it was in flight.
type hubEntry struct {
	resolver *Resolver
	refs     int
	ready    chan struct{}
	err      error
}

// NewHub builds a Hub. opts are passed through to every resolver it creates.
func NewHub(users UserSource, orgs OrgStatusSource, signOut SignOutFunc, logger *zap.Logger, opts ...Option) *Hub {
	return &Hub{
		users:   users,
		orgs:    orgs,
		signOut: signOut,
		log:     logger,
		opts:    opts,
		entries: make(map[string]*hubEntry),
	}
}

// Acquire returns the resolver for id's user, creating and starting it on
// first use. Every successful Acquire must be paired with a Release; a
// failed Acquire releases its own reference.
func (h *Hub) Acquire(ctx context.Context, id Identity) (*Resolver, error) {
	h.mu.Lock()
	if e, ok := h.entries[id.UserID]; ok {
		e.refs++
		h.mu.Unlock()
		// Wait for the creator's SetIdentity so a concurrent failure is
		// shared instead of leaving this caller with a dead resolver.
		<-e.ready
		if e.err != nil {
			h.Release(id.UserID)
			return nil, e.err
		}
		return e.resolver, nil
	}

	e := &hubEntry{
		resolver: NewResolver(h.users, h.orgs, h.signOut, h.log, h.opts...),
		refs:     1,
		ready:    make(chan struct{}),
	}
	h.entries[id.UserID] = e
	h.mu.Unlock()

	err := e.resolver.SetIdentity(ctx, &id)

	h.mu.Lock()
	e.err = err
	close(e.ready)
	h.mu.Unlock()

	if err != nil {
		h.Release(id.UserID)
		return nil, err
	}
	return e.resolver, nil
}

// Get returns the running resolver for a user, if any, without taking a
// reference. Used by request handlers that want to poke a live session
// (e.g. switching the active organization).
func (h *Hub) Get(userID string) (*Resolver, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[userID]
	if !ok {
		return nil, false
	}
	select {
	case <-e.ready:
		if e.err != nil {
			return nil, false
		}
		return e.resolver, true
	default:
		// Still starting up.
		return nil, false
	}
}

// Release drops one reference to a user's resolver, closing it when the
// last reference goes away.
func (h *Hub) Release(userID string) {
	h.mu.Lock()
	e, ok := h.entries[userID]
	if !ok {
		h.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 {
		h.mu.Unlock()
		return
	}
	delete(h.entries, userID)
	h.mu.Unlock()

	e.resolver.Close()
}
