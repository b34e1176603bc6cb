package notification

import (
	"context"
	"time"

	domain "flightlog/internal/domain/notification"
)

// Store persists Notification state, keyed by visitor.
type Store interface {
	// Save inserts a notification.
	Save(ctx context.Context, n domain.Notification) error
	// Replace dismisses every notification of n.VisitorID and saves n, atomically.
	Replace(ctx context.Context, n domain.Notification) error
	// Dismiss marks one notification dismissed; domain.ErrNotFound if the
	// visitor has no such notification.
	Dismiss(ctx context.Context, visitorID, id string) error
	// ListActive returns the visitor's undismissed notifications that expire
	// after now, oldest first.
	ListActive(ctx context.Context, visitorID string, now time.Time) ([]domain.Notification, error)
	// PurgeExpired deletes notifications that expired at or before now, and
	// dismissed ones, returning how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
