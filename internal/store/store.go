package store

import (
	"context"
	"time"
)

// PresenceKind names a presence transition.
type PresenceKind string

const (
	PresenceConnect    PresenceKind = "connect"
	PresenceEnter      PresenceKind = "enter"
	PresenceExit       PresenceKind = "exit"
	PresenceFull       PresenceKind = "full"
	PresenceDisconnect PresenceKind = "disconnect"
)

// PresenceEvent is one journal row. IHash is the anonymized source address,
// never the raw address.
type PresenceEvent struct {
	ID       int64
	Kind     PresenceKind
	ClientID int
	Room     string
	IHash    string
	At       time.Time
}

// PresenceFilter narrows ListPresence. Zero values match everything.
type PresenceFilter struct {
	Room  string
	IHash string
	Limit int
}

// PresenceStore is the moderation journal of connections and room transitions.
// It is never read back into live room state.
type PresenceStore interface {
	// RecordPresence appends an event.
	RecordPresence(ctx context.Context, ev PresenceEvent) error

	// ListPresence returns the newest events first.
	ListPresence(ctx context.Context, filter PresenceFilter) ([]*PresenceEvent, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	PresenceStore

	// Close closes the underlying database connection.
	Close() error
}
