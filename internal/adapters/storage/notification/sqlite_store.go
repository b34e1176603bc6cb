package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"flightlog/internal/adapters/storage"
	domain "flightlog/internal/domain/notification"
)

// timeLayout sorts lexically in the same order as the instants it encodes.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: the schema from storage.InitDB exists
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

const insertSQL = `INSERT INTO notification (id, visitor_id, severity, message, created_at, expires_at, dismissed)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

func insertArgs(n domain.Notification) []any {
	return []any{n.ID, n.VisitorID, string(n.Severity), n.Message,
		formatTime(n.CreatedAt), formatTime(n.ExpiresAt), boolToInt(n.Dismissed)}
}

// Save inserts a notification.
// PRE: n has been validated
// POST: n is persisted
func (s *SQLiteStore) Save(ctx context.Context, n domain.Notification) error {
	_, err := s.db.ExecContext(ctx, insertSQL, insertArgs(n)...)
	return err
}

// Replace dismisses the visitor's notifications and inserts n in one transaction.
// POST: at most one undismissed notification remains for n.VisitorID
func (s *SQLiteStore) Replace(ctx context.Context, n domain.Notification) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE notification SET dismissed = 1 WHERE visitor_id = ? AND dismissed = 0`, n.VisitorID); err != nil {
		return fmt.Errorf("dismiss previous: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertSQL, insertArgs(n)...); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return tx.Commit()
}

// Dismiss marks one notification dismissed.
// POST: returns domain.ErrNotFound when no row matched
func (s *SQLiteStore) Dismiss(ctx context.Context, visitorID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notification SET dismissed = 1 WHERE id = ? AND visitor_id = ?`, id, visitorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActive returns the visitor's active notifications, oldest first.
func (s *SQLiteStore) ListActive(ctx context.Context, visitorID string, now time.Time) ([]domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, visitor_id, severity, message, created_at, expires_at, dismissed
		 FROM notification
		 WHERE visitor_id = ? AND dismissed = 0 AND expires_at > ?
		 ORDER BY created_at ASC, id ASC`, visitorID, formatTime(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// PurgeExpired deletes expired and dismissed rows.
func (s *SQLiteStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notification WHERE dismissed = 1 OR expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanNotification(rows *sql.Rows) (domain.Notification, error) {
	var n domain.Notification
	var severity, created, expires string
	var dismissed int
	if err := rows.Scan(&n.ID, &n.VisitorID, &severity, &n.Message, &created, &expires, &dismissed); err != nil {
		return domain.Notification{}, err
	}
	n.Severity = domain.Severity(severity)
	n.Dismissed = dismissed != 0
	var err error
	if n.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return domain.Notification{}, fmt.Errorf("parse created_at: %w", err)
	}
	if n.ExpiresAt, err = time.Parse(timeLayout, expires); err != nil {
		return domain.Notification{}, fmt.Errorf("parse expires_at: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
