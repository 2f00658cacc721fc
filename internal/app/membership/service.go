// internal/app/membership/service.go

// Package membership implements the operations that change a user's
// organization memberships: join by invite code, leave, and per-organization
// profile updates.
//
// Every mutator validates before writing, and every successful write is a
// single merge touching both organization_ids and profiles, so no reader can
// observe an id without its profile or vice versa. The membership checks
// themselves are read-then-write, not compare-and-swap; two concurrent joins
// of the same organization can both pass the guard, and the $addToSet-style
// write absorbs the duplicate.
package membership

import (
	"context"
	"time"

	"github.com/moimhub/moimhub/internal/app/system/normalize"
	"github.com/moimhub/moimhub/internal/app/system/push"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.uber.org/zap"
)

// UserStore is the slice of the user store the mutators need.
//
// Get returns (nil, nil) when no document exists for the id; join must
// still work for such users (the merge write creates the document).
type UserStore interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	Join(ctx context.Context, userID, orgID string, profile models.OrganizationProfile, setGlobalRole string) error
	Leave(ctx context.Context, userID, orgID string) error
	UpdateProfile(ctx context.Context, userID, orgID string, fields ProfileFields) error
}

// OrganizationStore resolves invite codes. Both lookups return (nil, nil)
// when no organization carries the code.
type OrganizationStore interface {
	FindByAdminInviteCode(ctx context.Context, code string) (*models.Organization, error)
	FindByUserInviteCode(ctx context.Context, code string) (*models.Organization, error)
}

// ProfileFields are the caller-editable profile fields. Role and JoinedAt
// are never updatable through this service.
type ProfileFields struct {
	Name       string
	Department string
	Contact    string
}

// JoinResult reports what a successful join resolved to.
type JoinResult struct {
	Organization *models.Organization
	Role         string
}

// Service wires the mutators to their stores. Push topic changes are
// best-effort side effects of successful writes: a push failure is logged,
// never propagated, and never rolls back membership state.
type Service struct {
	users UserStore
	orgs  OrganizationStore
	push  push.Notifier
	log   *zap.Logger
	now   func() time.Time
}

// NewService builds a membership Service. notifier may be nil.
func NewService(users UserStore, orgs OrganizationStore, notifier push.Notifier, logger *zap.Logger) *Service {
	return &Service{
		users: users,
		orgs:  orgs,
		push:  notifier,
		log:   logger,
		now:   time.Now,
	}
}

// JoinByInviteCode resolves code against every organization's admin code
// first, then every user code; first match wins and determines the granted
// role. On success the organization id and a fresh profile are added to the
// caller's document in one merge write.
func (s *Service) JoinByInviteCode(ctx context.Context, userID, code string, fields ProfileFields) (*JoinResult, error) {
	code = normalize.InviteCode(code)

	org, role, err := s.resolveCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrInvalidCode
	}
	if org.IsSuspended() {
		return nil, ErrOrganizationSuspended
	}

	orgID := org.ID.Hex()

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u != nil && u.IsMemberOf(orgID) {
		return nil, ErrAlreadyMember
	}

	// Preserve an existing global role; default only when absent.
	setGlobalRole := ""
	if u == nil || u.GlobalRole == "" {
		setGlobalRole = models.RoleUser
	}

	profile := models.OrganizationProfile{
		Name:       normalize.Name(fields.Name),
		Department: orUnset(fields.Department),
		Contact:    orUnset(fields.Contact),
		Role:       role,
		JoinedAt:   s.now().UTC(),
	}
	if profile.Name == "" && u != nil {
		profile.Name = u.FullName
	}

	if err := s.users.Join(ctx, userID, orgID, profile, setGlobalRole); err != nil {
		return nil, err
	}

	s.log.Info("joined organization",
		zap.String("user_id", userID),
		zap.String("org_id", orgID),
		zap.String("role", role))

	if s.push != nil {
		if err := s.push.SubscribeToOrg(ctx, userID, orgID); err != nil {
			s.log.Warn("push topic subscribe failed",
				zap.String("org_id", orgID), zap.Error(err))
		}
	}

	return &JoinResult{Organization: org, Role: role}, nil
}

// resolveCode scans admin codes before user codes; first match wins. Both
// misses yield (nil, "", nil).
func (s *Service) resolveCode(ctx context.Context, code string) (*models.Organization, string, error) {
	if code == "" {
		return nil, "", nil
	}
	org, err := s.orgs.FindByAdminInviteCode(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if org != nil {
		return org, models.RoleAdmin, nil
	}
	org, err = s.orgs.FindByUserInviteCode(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if org != nil {
		return org, models.RoleUser, nil
	}
	return nil, "", nil
}

// LeaveOrganization removes orgID from the caller's membership set and
// deletes the matching profile entry in one merge write. A sole membership
// cannot be left through this path.
func (s *Service) LeaveOrganization(ctx context.Context, userID, orgID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil || !u.IsMemberOf(orgID) {
		return ErrNotMember
	}
	if len(u.MemberOrganizationIDs()) <= 1 {
		return ErrLastOrganization
	}

	if err := s.users.Leave(ctx, userID, orgID); err != nil {
		return err
	}

	s.log.Info("left organization",
		zap.String("user_id", userID),
		zap.String("org_id", orgID))

	if s.push != nil {
		if err := s.push.UnsubscribeFromOrg(ctx, userID, orgID); err != nil {
			s.log.Warn("push topic unsubscribe failed",
				zap.String("org_id", orgID), zap.Error(err))
		}
	}
	return nil
}

// UpdateOrganizationProfile overwrites name/department/contact of an
// existing profile entry. Role and JoinedAt are untouched. The membership
// guard keeps an orphan profile entry from ever being merge-written.
func (s *Service) UpdateOrganizationProfile(ctx context.Context, userID, orgID string, fields ProfileFields) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil || !u.IsMemberOf(orgID) {
		return ErrNotMember
	}

	fields.Name = normalize.Name(fields.Name)
	fields.Department = normalize.Name(fields.Department)
	fields.Contact = normalize.Name(fields.Contact)

	return s.users.UpdateProfile(ctx, userID, orgID, fields)
}

// ProfileIncomplete reports whether the user's profile for orgID still has
// unset required fields. Enforcement (blocking navigation) belongs to the
// surrounding application; this only computes the boolean.
func ProfileIncomplete(u *models.User, orgID string) bool {
	if u == nil {
		return false
	}
	prof, ok := u.Profiles[orgID]
	if !ok {
		return false
	}
	return prof.IsIncomplete()
}

func orUnset(s string) string {
	s = normalize.Name(s)
	if s == "" {
		return models.ProfileUnset
	}
	return s
}
