package testutil

import (
	"context"
	"sync"

	"github.com/moimhub/moimhub/internal/app/membership"
	"github.com/moimhub/moimhub/internal/app/session"
	"github.com/moimhub/moimhub/internal/domain/models"
)

// FakeUserSource hands out scripted user-document subscriptions. Tests drive
// emissions through the FakeUserSub returned by Sub.
type FakeUserSource struct {
	mu   sync.Mutex
	subs map[string][]*FakeUserSub
}

func NewFakeUserSource() *FakeUserSource {
	return &FakeUserSource{subs: make(map[string][]*FakeUserSub)}
}

func (f *FakeUserSource) WatchUser(ctx context.Context, userID string) (session.UserSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := newFakeUserSub()
	f.subs[userID] = append(f.subs[userID], sub)
	return sub, nil
}

// Sub returns the most recently opened subscription for userID, or nil.
func (f *FakeUserSource) Sub(userID string) *FakeUserSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.subs[userID]
	if len(subs) == 0 {
		return nil
	}
	return subs[len(subs)-1]
}

// OpenCount returns how many subscriptions were ever opened for userID.
func (f *FakeUserSource) OpenCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[userID])
}

// FakeUserSub is a hand-driven session.UserSubscription.
type FakeUserSub struct {
	ch   chan session.UserEvent
	done chan struct{}
	once sync.Once
}

func newFakeUserSub() *FakeUserSub {
	return &FakeUserSub{
		ch:   make(chan session.UserEvent, 8),
		done: make(chan struct{}),
	}
}

func (s *FakeUserSub) Events() <-chan session.UserEvent { return s.ch }

func (s *FakeUserSub) Close() {
	s.once.Do(func() {
		close(s.done)
		close(s.ch)
	})
}

// IsClosed reports whether Close has been called.
func (s *FakeUserSub) IsClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// EmitUser delivers a document-exists event.
func (s *FakeUserSub) EmitUser(u *models.User) {
	s.emit(session.UserEvent{User: u, Exists: true})
}

// EmitMissing delivers a document-absent event.
func (s *FakeUserSub) EmitMissing() {
	s.emit(session.UserEvent{Exists: false})
}

func (s *FakeUserSub) emit(ev session.UserEvent) {
	select {
	case <-s.done:
	case s.ch <- ev:
	}
}

// FakeStatusSource hands out scripted organization-status subscriptions.
type FakeStatusSource struct {
	mu   sync.Mutex
	subs map[string][]*FakeStatusSub
}

func NewFakeStatusSource() *FakeStatusSource {
	return &FakeStatusSource{subs: make(map[string][]*FakeStatusSub)}
}

func (f *FakeStatusSource) WatchOrgStatus(ctx context.Context, orgID string) (session.StatusSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := newFakeStatusSub()
	f.subs[orgID] = append(f.subs[orgID], sub)
	return sub, nil
}

// Sub returns the most recently opened subscription for orgID, or nil.
func (f *FakeStatusSource) Sub(orgID string) *FakeStatusSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.subs[orgID]
	if len(subs) == 0 {
		return nil
	}
	return subs[len(subs)-1]
}

// OpenCount returns how many subscriptions were ever opened for orgID.
func (f *FakeStatusSource) OpenCount(orgID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[orgID])
}

// FakeStatusSub is a hand-driven session.StatusSubscription.
type FakeStatusSub struct {
	ch   chan string
	done chan struct{}
	once sync.Once
}

func newFakeStatusSub() *FakeStatusSub {
	return &FakeStatusSub{
		ch:   make(chan string, 8),
		done: make(chan struct{}),
	}
}

func (s *FakeStatusSub) Statuses() <-chan string { return s.ch }

func (s *FakeStatusSub) Close() {
	s.once.Do(func() {
		close(s.done)
		close(s.ch)
	})
}

// IsClosed reports whether Close has been called.
func (s *FakeStatusSub) IsClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Emit delivers a status value.
func (s *FakeStatusSub) Emit(st string) {
	select {
	case <-s.done:
	case s.ch <- st:
	}
}

// FakeUserStore is an in-memory membership.UserStore with the same merge
// semantics as the Mongo store: join and leave touch organization_ids and
// profiles together.
type FakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewFakeUserStore(users ...*models.User) *FakeUserStore {
	f := &FakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		f.users[u.ID] = cloneUser(u)
	}
	return f
}

func (f *FakeUserStore) Get(ctx context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (f *FakeUserStore) Join(ctx context.Context, userID, orgID string, profile models.OrganizationProfile, setGlobalRole string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		u = &models.User{ID: userID}
		f.users[userID] = u
	}
	if !contains(u.OrganizationIDs, orgID) {
		u.OrganizationIDs = append(u.OrganizationIDs, orgID)
	}
	if u.Profiles == nil {
		u.Profiles = make(map[string]models.OrganizationProfile)
	}
	u.Profiles[orgID] = profile
	if setGlobalRole != "" {
		u.GlobalRole = setGlobalRole
	}
	return nil
}

func (f *FakeUserStore) Leave(ctx context.Context, userID, orgID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil
	}
	ids := u.OrganizationIDs[:0]
	for _, id := range u.OrganizationIDs {
		if id != orgID {
			ids = append(ids, id)
		}
	}
	u.OrganizationIDs = ids
	delete(u.Profiles, orgID)
	return nil
}

func (f *FakeUserStore) UpdateProfile(ctx context.Context, userID, orgID string, fields membership.ProfileFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || !contains(u.OrganizationIDs, orgID) {
		return nil
	}
	prof := u.Profiles[orgID]
	prof.Name = fields.Name
	prof.Department = fields.Department
	prof.Contact = fields.Contact
	u.Profiles[orgID] = prof
	return nil
}

// User returns a copy of the stored document for assertions, or nil.
func (f *FakeUserStore) User(userID string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.OrganizationIDs = append([]string(nil), u.OrganizationIDs...)
	if u.Profiles != nil {
		c.Profiles = make(map[string]models.OrganizationProfile, len(u.Profiles))
		for k, v := range u.Profiles {
			c.Profiles[k] = v
		}
	}
	c.FCMTokens = append([]string(nil), u.FCMTokens...)
	return &c
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// FakeOrganizationStore resolves invite codes against a fixed set of
// organizations.
type FakeOrganizationStore struct {
	Orgs []*models.Organization
}

func NewFakeOrganizationStore(orgs ...*models.Organization) *FakeOrganizationStore {
	return &FakeOrganizationStore{Orgs: orgs}
}

func (f *FakeOrganizationStore) FindByAdminInviteCode(ctx context.Context, code string) (*models.Organization, error) {
	for _, org := range f.Orgs {
		if org.AdminInviteCode == code {
			return org, nil
		}
	}
	return nil, nil
}

func (f *FakeOrganizationStore) FindByUserInviteCode(ctx context.Context, code string) (*models.Organization, error) {
	for _, org := range f.Orgs {
		if org.UserInviteCode == code {
			return org, nil
		}
	}
	return nil, nil
}

// RecordingNotifier records push topic changes for assertions.
type RecordingNotifier struct {
	mu          sync.Mutex
	Subscribed  []string
	Unsubbed    []string
	FailWithErr error
}

func (n *RecordingNotifier) SubscribeToOrg(ctx context.Context, userID, orgID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailWithErr != nil {
		return n.FailWithErr
	}
	n.Subscribed = append(n.Subscribed, userID+":"+orgID)
	return nil
}

func (n *RecordingNotifier) UnsubscribeFromOrg(ctx context.Context, userID, orgID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailWithErr != nil {
		return n.FailWithErr
	}
	n.Unsubbed = append(n.Unsubbed, userID+":"+orgID)
	return nil
}
