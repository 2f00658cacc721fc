// internal/app/system/push/push.go

// Package push keeps the organization-topic subscription bookkeeping for
// push notifications. Delivery itself belongs to an external service; this
// package only records which device tokens should follow which organization
// topics, behind a Notifier interface so the delivery backend is pluggable.
package push

import (
	"context"

	"go.uber.org/zap"
)

// Notifier follows a user's devices on and off an organization's topic.
// Implementations must be safe for concurrent use.
type Notifier interface {
	SubscribeToOrg(ctx context.Context, userID, orgID string) error
	UnsubscribeFromOrg(ctx context.Context, userID, orgID string) error
}

// LogNotifier is the default Notifier: it records topic changes in the log
// and delivers nothing. Used until a real delivery backend is configured.
type LogNotifier struct {
	Log *zap.Logger
}

// NewLogNotifier builds a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{Log: logger}
}

// SubscribeToOrg logs the topic subscription.
func (n *LogNotifier) SubscribeToOrg(ctx context.Context, userID, orgID string) error {
	n.Log.Info("push topic subscribe",
		zap.String("user_id", userID),
		zap.String("org_id", orgID))
	return nil
}

// UnsubscribeFromOrg logs the topic unsubscription.
func (n *LogNotifier) UnsubscribeFromOrg(ctx context.Context, userID, orgID string) error {
	n.Log.Info("push topic unsubscribe",
		zap.String("user_id", userID),
		zap.String("org_id", orgID))
	return nil
}
