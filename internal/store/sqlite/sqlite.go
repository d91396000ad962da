package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/mojachat-server/internal/store"
)

const defaultListLimit = 100

// Schema is the journal schema. It is idempotent and applied on New.
const Schema = `
CREATE TABLE IF NOT EXISTS presence_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	client_id  INTEGER NOT NULL,
	room       TEXT NOT NULL DEFAULT '',
	ihash      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_presence_room ON presence_events(room, id DESC);
CREATE INDEX IF NOT EXISTS idx_presence_ihash ON presence_events(ihash, id DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, applySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; :memory: requires it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func applySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordPresence appends a presence event.
func (s *SQLiteStore) RecordPresence(ctx context.Context, ev store.PresenceEvent) error {
	query := `
		INSERT INTO presence_events (kind, client_id, room, ihash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, string(ev.Kind), ev.ClientID, ev.Room, ev.IHash, ev.At.UTC()); err != nil {
		return fmt.Errorf("insert presence event: %w", err)
	}
	return nil
}

// ListPresence returns events newest first, optionally filtered by room and ihash.
func (s *SQLiteStore) ListPresence(ctx context.Context, filter store.PresenceFilter) ([]*store.PresenceEvent, error) {
	var (
		where []string
		args  []any
	)
	if filter.Room != "" {
		where = append(where, "room = ?")
		args = append(args, filter.Room)
	}
	if filter.IHash != "" {
		where = append(where, "ihash = ?")
		args = append(args, filter.IHash)
	}

	query := `SELECT id, kind, client_id, room, ihash, created_at FROM presence_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query presence events: %w", err)
	}
	defer rows.Close()

	var events []*store.PresenceEvent
	for rows.Next() {
		var (
			ev   store.PresenceEvent
			kind string
		)
		if err := rows.Scan(&ev.ID, &kind, &ev.ClientID, &ev.Room, &ev.IHash, &ev.At); err != nil {
			return nil, fmt.Errorf("scan presence event: %w", err)
		}
		ev.Kind = store.PresenceKind(kind)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presence events: %w", err)
	}

	return events, nil
}
