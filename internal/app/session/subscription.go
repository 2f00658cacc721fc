// internal/app/session/subscription.go
package session

import (
	"context"
	"time"

	"github.com/moimhub/moimhub/internal/domain/models"
)

// UserEvent is one emission of a user-document subscription. Exists is false
// when the document does not exist (or was deleted); User is nil in that
// case.
type UserEvent struct {
	User   *models.User
	Exists bool
}

// UserSubscription is a live view of one user document. The channel closes
// when the subscription ends. Close releases the subscription and must be
// safe to call more than once.
type UserSubscription interface {
	Events() <-chan UserEvent
	Close()
}

// StatusSubscription is a live view of one organization's status field.
type StatusSubscription interface {
	Statuses() <-chan string
	Close()
}

// UserSource opens live subscriptions to user documents. Backed by a Mongo
// change stream in production, by fakes in tests.
type UserSource interface {
	WatchUser(ctx context.Context, userID string) (UserSubscription, error)
}

// OrgStatusSource opens live subscriptions to an organization's status.
type OrgStatusSource interface {
	WatchOrgStatus(ctx context.Context, orgID string) (StatusSubscription, error)
}

// Identity is what the auth collaborator delivers on sign-in: the stable
// user id and the account-creation timestamp. The creation time drives the
// ghost-user grace window.
type Identity struct {
	UserID    string
	Name      string
	Email     string
	CreatedAt time.Time
}

// SignOutFunc forces an identity out of its session. Invoked by ghost-user
// reconciliation; never by normal flow.
type SignOutFunc func(userID string)
