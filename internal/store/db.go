package store

import (
	"database/sql"
	"fmt"
	"time"
)

// DB wraps the bridge-synced messages.db. The bridge owns messages and
// chats; only contact_nicknames is written from here.
type DB struct {
	*sql.DB
	now func() time.Time
}

// Open creates a new SQLite connection with WAL mode and a busy timeout, so
// reads do not fail while the bridge is writing.
func Open(path string) (*DB, error) {
	db, err := sql.Open(DriverName, path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{DB: db, now: time.Now}, nil
}

// SetClock replaces the clock used for nickname timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}
