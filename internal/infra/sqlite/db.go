// Package sqlite provides SQLite-based persistent storage for bloom.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/bloom-journal/bloom/internal/infra/logger"
)

// FileName is the database file created inside the data directory.
const FileName = "bloom.db"

// DB wraps a SQLite connection with WAL mode, migrations and a change feed.
type DB struct {
	db   *sql.DB
	feed *broadcaster
	log  *logger.Logger
}

// Open creates or opens the SQLite database at dir/bloom.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, FileName)
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db, feed: newBroadcaster(), log: logger.Nop()}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// SetLogger attaches a logger for background observer errors.
func (d *DB) SetLogger(l *logger.Logger) {
	if l != nil {
		d.log = l.With("component", "sqlite")
	}
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS moods (
			id         TEXT PRIMARY KEY,
			mood       INTEGER NOT NULL,
			intensity  REAL NOT NULL,
			prompt     TEXT NOT NULL DEFAULT '',
			answer     TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_moods_created ON moods(created_at)`,

		`CREATE TABLE IF NOT EXISTS journals (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL DEFAULT '',
			body       TEXT NOT NULL DEFAULT '',
			mood       INTEGER,
			images     TEXT NOT NULL DEFAULT '[]',
			archived   BOOLEAN NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journals_created ON journals(created_at)`,

		// Singleton garden row; id is pinned to 1.
		`CREATE TABLE IF NOT EXISTS garden_state (
			id                 INTEGER PRIMARY KEY CHECK (id = 1),
			xp                 INTEGER NOT NULL DEFAULT 0,
			water_tokens       INTEGER NOT NULL DEFAULT 0,
			level              INTEGER NOT NULL DEFAULT 1,
			last_daily_reset   INTEGER NOT NULL DEFAULT 0,
			last_mood_token    INTEGER NOT NULL DEFAULT 0,
			last_journal_token INTEGER NOT NULL DEFAULT 0,
			pending_daily      BOOLEAN NOT NULL DEFAULT 0,
			pending_mood       BOOLEAN NOT NULL DEFAULT 0,
			pending_journal    BOOLEAN NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS garden_ledger (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			at      INTEGER NOT NULL,
			kind    TEXT NOT NULL,
			source  TEXT NOT NULL DEFAULT '',
			tokens  INTEGER NOT NULL,
			xp      INTEGER NOT NULL DEFAULT 0,
			balance INTEGER NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// toMillis stores the zero time as 0.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
