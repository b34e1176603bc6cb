package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "flightlog/internal/domain/notification"
)

// MemoryStore implements Store in process memory. Suitable for a single instance.
type MemoryStore struct {
	mu      sync.Mutex
	byVisit map[string][]domain.Notification
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byVisit: map[string][]domain.Notification{}}
}

// Save inserts a notification.
// PRE: n has been validated
// POST: n is listed for its visitor until it expires or is dismissed
func (s *MemoryStore) Save(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byVisit[n.VisitorID] = append(s.byVisit[n.VisitorID], n)
	return nil
}

// Replace drops the visitor's notifications and saves n.
func (s *MemoryStore) Replace(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byVisit[n.VisitorID] = []domain.Notification{n}
	return nil
}

// Dismiss marks one notification dismissed.
func (s *MemoryStore) Dismiss(_ context.Context, visitorID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byVisit[visitorID]
	for i := range list {
		if list[i].ID == id {
			list[i].Dismissed = true
			return nil
		}
	}
	return domain.ErrNotFound
}

// ListActive returns the visitor's active notifications, oldest first.
// INVARIANT: stored notifications are not mutated
func (s *MemoryStore) ListActive(_ context.Context, visitorID string, now time.Time) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Notification
	for _, n := range s.byVisit[visitorID] {
		if n.IsActive(now) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// PurgeExpired drops inactive notifications and empty visitors.
func (s *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for visitor, list := range s.byVisit {
		kept := list[:0]
		for _, n := range list {
			if n.IsActive(now) {
				kept = append(kept, n)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(s.byVisit, visitor)
			continue
		}
		s.byVisit[visitor] = kept
	}
	return removed, nil
}
