package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// pragmas applied to every file-backed connection.
const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// Open opens the SQLite database at path (":memory:" for a private in-memory DB).
// PRE: path is non-empty
// POST: Returns a pinged connection; in-memory databases use a single connection
// so every caller sees the same data
func Open(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		dsn = path + sep + pragmas
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return db, nil
}

// InitDB creates the schema.
// PRE: db is a valid database connection
// POST: All tables and indexes exist; calling again is a no-op
func InitDB(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS notification (
		id TEXT PRIMARY KEY,
		visitor_id TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		dismissed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_notification_visitor ON notification(visitor_id, expires_at);
	CREATE INDEX IF NOT EXISTS idx_notification_expires ON notification(expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
