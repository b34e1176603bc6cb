package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"flightlog/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	if err := InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return db
}

const insertNotification = `INSERT INTO notification (id, visitor_id, severity, message, created_at, expires_at)
	VALUES (?, 'v1', 'info', 'hello', '2024-01-01T00:00:00Z', '2024-01-01T00:00:05Z')`

// TestTimedDB_RecordsWithVerb verifies each call is recorded under op and SQL verb.
func TestTimedDB_RecordsWithVerb(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, insertNotification, "n1"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM notification")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()
	var id string
	if err := tdb.QueryRowContext(ctx, "  select id FROM notification WHERE id = ?", "n1").Scan(&id); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	got := map[string]bool{}
	for _, s := range snap.SlowestQueries {
		got[s.Path] = true
	}
	for _, want := range []string{"ExecContext INSERT", "QueryContext SELECT", "QueryRowContext SELECT"} {
		if !got[want] {
			t.Errorf("missing %q in %v", want, got)
		}
	}
}

// TestTimedDB_ErrorPassthrough verifies SQL errors are returned unchanged and still timed.
func TestTimedDB_ErrorPassthrough(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector, 0)

	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO nonexistent_table VALUES (?)", 1); err == nil {
		t.Fatal("expected error from invalid SQL, got nil")
	}
	var v string
	err := tdb.QueryRowContext(context.Background(), "SELECT message FROM notification WHERE id = ?", "missing").Scan(&v)
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
	if collector.TotalRecorded() != 2 {
		t.Errorf("TotalRecorded = %d, want 2", collector.TotalRecorded())
	}
}

// TestTimedDB_CancelledContext verifies a cancelled context errors and is still timed.
func TestTimedDB_CancelledContext(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tdb.ExecContext(ctx, insertNotification, "n1"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
	if collector.TotalRecorded() != 1 {
		t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
	}
}

// TestTimedDB_NilCollectorAndRawDB verifies TimedDB works without a collector.
func TestTimedDB_NilCollectorAndRawDB(t *testing.T) {
	db := openTimedTestDB(t)
	tdb := NewTimedDB(db, nil, 10)

	if _, err := tdb.ExecContext(context.Background(), insertNotification, "n1"); err != nil {
		t.Fatalf("ExecContext with nil collector: %v", err)
	}
	if tdb.RawDB() != db {
		t.Error("RawDB() should return the original *sql.DB")
	}
	if err := tdb.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

// TestTimedDB_Transaction verifies BeginTx is timed and the tx commits.
func TestTimedDB_Transaction(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector, 0)

	tx, err := tdb.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if _, err := tx.Exec(insertNotification, "n1"); err != nil {
		t.Fatalf("tx exec: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	var n int
	tdb.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM notification").Scan(&n)
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

// TestTimedDB_ConcurrentMixedOps verifies no races or panics under concurrent use.
func TestTimedDB_ConcurrentMixedOps(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(1000)
	tdb := NewTimedDB(db, collector, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if n%2 == 0 {
					tdb.ExecContext(ctx, "INSERT OR REPLACE INTO notification (id, visitor_id, severity, message, created_at, expires_at) VALUES ('x', 'v', 'info', 'm', 'a', 'b')")
				} else {
					var c int
					tdb.QueryRowContext(ctx, "SELECT COUNT(*) FROM notification").Scan(&c)
				}
			}
		}(i)
	}
	wg.Wait()

	if collector.TotalRecorded() != 80 {
		t.Errorf("TotalRecorded = %d, want 80", collector.TotalRecorded())
	}
}

// BenchmarkTimedDB_Overhead compares TimedDB with the raw *sql.DB.
func BenchmarkTimedDB_Overhead(b *testing.B) {
	db, err := Open(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()
	InitDB(db)
	ctx := context.Background()

	b.Run("RawDB", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			var n int
			db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notification").Scan(&n)
		}
	})

	tdb := NewTimedDB(db, perf.NewCollector(perf.DefaultRingSize), 0)
	b.Run("TimedDB", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			var n int
			tdb.QueryRowContext(ctx, "SELECT COUNT(*) FROM notification").Scan(&n)
		}
	})
}
