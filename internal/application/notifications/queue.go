package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	store "flightlog/internal/adapters/storage/notification"
	domain "flightlog/internal/domain/notification"
)

// Options configures a Queue.
type Options struct {
	Mode domain.Mode
	TTL  time.Duration // 0 selects the mode's default
}

// Queue is the per-visitor notification queue shared by every page.
// It is safe for concurrent use when its store is.
type Queue struct {
	store store.Store
	mode  domain.Mode
	ttl   time.Duration
	now   func() time.Time
}

// NewQueue creates a queue over s.
// PRE: s is non-nil
// POST: Returns a queue in opts.Mode (stack when empty)
func NewQueue(s store.Store, opts Options) *Queue {
	mode := opts.Mode
	if mode == "" {
		mode = domain.ModeStack
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = mode.DefaultTTL()
	}
	return &Queue{store: s, mode: mode, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (q *Queue) WithClock(now func() time.Time) *Queue {
	q.now = now
	return q
}

// Mode returns the queue's display mode.
func (q *Queue) Mode() domain.Mode {
	return q.mode
}

// TTL returns how long a pushed notification stays visible.
func (q *Queue) TTL() time.Duration {
	return q.ttl
}

// Push queues a notification for visitorID.
// PRE: visitorID is non-empty
// POST: in single mode the visitor has exactly one active notification afterwards
func (q *Queue) Push(ctx context.Context, visitorID string, severity domain.Severity, message string) (domain.Notification, error) {
	if strings.TrimSpace(visitorID) == "" {
		return domain.Notification{}, fmt.Errorf("push notification: empty visitor id")
	}
	now := q.now()
	n := domain.Notification{
		ID:        uuid.NewString(),
		VisitorID: visitorID,
		Severity:  severity,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(q.ttl),
	}
	if err := n.Validate(); err != nil {
		return domain.Notification{}, err
	}

	var err error
	if q.mode == domain.ModeSingle {
		err = q.store.Replace(ctx, n)
	} else {
		err = q.store.Save(ctx, n)
	}
	if err != nil {
		return domain.Notification{}, fmt.Errorf("push notification: %w", err)
	}
	slog.Debug("notification_pushed", "visitor_id", visitorID, "severity", string(severity), "mode", string(q.mode))
	return n, nil
}

// Success queues a success notification, logging instead of failing.
func (q *Queue) Success(ctx context.Context, visitorID, message string) {
	q.pushLogged(ctx, visitorID, domain.SeveritySuccess, message)
}

// Error queues an error notification, logging instead of failing.
func (q *Queue) Error(ctx context.Context, visitorID, message string) {
	q.pushLogged(ctx, visitorID, domain.SeverityError, message)
}

// Info queues an info notification, logging instead of failing.
func (q *Queue) Info(ctx context.Context, visitorID, message string) {
	q.pushLogged(ctx, visitorID, domain.SeverityInfo, message)
}

func (q *Queue) pushLogged(ctx context.Context, visitorID string, severity domain.Severity, message string) {
	if _, err := q.Push(ctx, visitorID, severity, message); err != nil {
		slog.Error("notification_push_failed", "visitor_id", visitorID, "error", err)
	}
}

// Dismiss hides one notification before it expires.
// POST: returns domain.ErrNotFound when the visitor has no such notification
func (q *Queue) Dismiss(ctx context.Context, visitorID, id string) error {
	return q.store.Dismiss(ctx, visitorID, id)
}

// Active returns what the visitor should see now, oldest first.
// POST: no returned entry is dismissed or expired
func (q *Queue) Active(ctx context.Context, visitorID string) ([]domain.Notification, error) {
	if visitorID == "" {
		return nil, nil
	}
	now := q.now()
	list, err := q.store.ListActive(ctx, visitorID, now)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, n := range list {
		if n.IsActive(now) {
			out = append(out, n)
		}
	}
	if q.mode == domain.ModeSingle && len(out) > 1 {
		out = out[len(out)-1:]
	}
	return out, nil
}

// Sweep purges expired notifications once.
func (q *Queue) Sweep(ctx context.Context) (int, error) {
	return q.store.PurgeExpired(ctx, q.now())
}

// StartSweeper purges expired notifications every interval until stopCh closes.
func (q *Queue) StartSweeper(interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				n, err := q.Sweep(ctx)
				cancel()
				if err != nil {
					slog.Error("notification_sweep_failed", "error", err.Error())
				} else if n > 0 {
					slog.Debug("notification_sweep", "purged", n)
				}
			case <-stopCh:
				slog.Info("notification_sweeper_stopped")
				return
			}
		}
	}()
}
