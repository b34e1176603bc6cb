package notification

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"flightlog/internal/adapters/http/perf"
	"flightlog/internal/adapters/storage"
	domain "flightlog/internal/domain/notification"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return NewSQLiteStore(storage.NewTimedDB(db, perf.NewCollector(100), 0))
}

// newRedisStore connects to FLIGHTLOG_TEST_REDIS_ADDR, skipping when unset.
func newRedisStore(t *testing.T) Store {
	t.Helper()
	addr := os.Getenv("FLIGHTLOG_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FLIGHTLOG_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	s := NewRedisStore(client, "flightlog-test-"+uuid.NewString()[:8])
	if err := s.Ping(context.Background()); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	return s
}

var backends = map[string]func(t *testing.T) Store{
	"memory": func(*testing.T) Store { return NewMemoryStore() },
	"sqlite": newSQLiteStore,
	"redis":  newRedisStore,
}

func note(visitor, msg string, created time.Time, ttl time.Duration) domain.Notification {
	return domain.Notification{
		ID:        uuid.NewString(),
		VisitorID: visitor,
		Severity:  domain.SeverityInfo,
		Message:   msg,
		CreatedAt: created,
		ExpiresAt: created.Add(ttl),
	}
}

func messages(list []domain.Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.Message
	}
	return out
}

// TestStore_Contract runs the same behaviour checks against every backend.
func TestStore_Contract(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("lists active oldest first per visitor", func(t *testing.T) {
				s := newStore(t)
				now := time.Now()
				second := note("v1", "second", now.Add(-time.Second), time.Minute)
				first := note("v1", "first", now.Add(-2*time.Second), time.Minute)
				other := note("v2", "other", now, time.Minute)
				for _, n := range []domain.Notification{second, first, other} {
					if err := s.Save(ctx, n); err != nil {
						t.Fatalf("Save: %v", err)
					}
				}

				got, err := s.ListActive(ctx, "v1", now)
				if err != nil {
					t.Fatalf("ListActive: %v", err)
				}
				if m := messages(got); len(m) != 2 || m[0] != "first" || m[1] != "second" {
					t.Errorf("messages = %v, want [first second]", m)
				}
				if got[0].Severity != domain.SeverityInfo || got[0].VisitorID != "v1" {
					t.Errorf("round trip lost fields: %+v", got[0])
				}
			})

			t.Run("expired entries are not listed", func(t *testing.T) {
				s := newStore(t)
				now := time.Now()
				live := note("v1", "live", now, 2*time.Second)
				if err := s.Save(ctx, live); err != nil {
					t.Fatalf("Save: %v", err)
				}
				got, _ := s.ListActive(ctx, "v1", now.Add(3*time.Second))
				if len(got) != 0 {
					t.Errorf("got %v after expiry, want none", messages(got))
				}
			})

			t.Run("dismiss hides one entry", func(t *testing.T) {
				s := newStore(t)
				now := time.Now()
				a := note("v1", "a", now, time.Minute)
				b := note("v1", "b", now.Add(time.Millisecond), time.Minute)
				s.Save(ctx, a)
				s.Save(ctx, b)

				if err := s.Dismiss(ctx, "v1", a.ID); err != nil {
					t.Fatalf("Dismiss: %v", err)
				}
				got, _ := s.ListActive(ctx, "v1", now)
				if m := messages(got); len(m) != 1 || m[0] != "b" {
					t.Errorf("messages = %v, want [b]", m)
				}
				if err := s.Dismiss(ctx, "v2", b.ID); !errors.Is(err, domain.ErrNotFound) {
					t.Errorf("Dismiss other visitor = %v, want ErrNotFound", err)
				}
				if err := s.Dismiss(ctx, "v1", "missing"); !errors.Is(err, domain.ErrNotFound) {
					t.Errorf("Dismiss missing = %v, want ErrNotFound", err)
				}
			})

			t.Run("dismiss by another visitor leaves the entry", func(t *testing.T) {
				s := newStore(t)
				now := time.Now()
				mine := note("v1", "mine", now, time.Minute)
				if err := s.Save(ctx, mine); err != nil {
					t.Fatalf("Save: %v", err)
				}

				if err := s.Dismiss(ctx, "v2", mine.ID); !errors.Is(err, domain.ErrNotFound) {
					t.Fatalf("Dismiss other visitor = %v, want ErrNotFound", err)
				}
				got, err := s.ListActive(ctx, "v1", now)
				if err != nil {
					t.Fatalf("ListActive: %v", err)
				}
				if m := messages(got); len(m) != 1 || m[0] != "mine" {
					t.Errorf("messages = %v, want [mine]", m)
				}
			})

			t.Run("replace keeps only the newest", func(t *testing.T) {
				s := newStore(t)
				now := time.Now()
				s.Save(ctx, note("v1", "old-1", now, time.Minute))
				s.Save(ctx, note("v1", "old-2", now, time.Minute))
				if err := s.Replace(ctx, note("v1", "new", now.Add(time.Millisecond), time.Minute)); err != nil {
					t.Fatalf("Replace: %v", err)
				}
				got, _ := s.ListActive(ctx, "v1", now)
				if m := messages(got); len(m) != 1 || m[0] != "new" {
					t.Errorf("messages = %v, want [new]", m)
				}
			})

			t.Run("purge removes expired", func(t *testing.T) {
				s := newStore(t)
				now := time.Now()
				s.Save(ctx, note("v1", "short", now, time.Second))
				s.Save(ctx, note("v1", "long", now, time.Hour))

				n, err := s.PurgeExpired(ctx, now.Add(2*time.Second))
				if err != nil {
					t.Fatalf("PurgeExpired: %v", err)
				}
				if n != 1 {
					t.Errorf("purged = %d, want 1", n)
				}
				got, _ := s.ListActive(ctx, "v1", now)
				if m := messages(got); len(m) != 1 || m[0] != "long" {
					t.Errorf("messages = %v, want [long]", m)
				}
			})
		})
	}
}
