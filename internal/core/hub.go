package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/mojachat-server/internal/store"
)

// Digester turns a secret into a printable one-way token.
type Digester interface {
	Digest(secret string) string
}

// Journal records presence transitions. It is write-only from the core's point of view.
type Journal interface {
	RecordPresence(ctx context.Context, ev store.PresenceEvent) error
}

// HubConfig tunes per-session behaviour.
type HubConfig struct {
	// CommentRateLimit caps COM frames per minute per session; 0 disables the cap.
	CommentRateLimit int
	// PolicyResponse is written back for policy-file-request when non-empty.
	PolicyResponse string
}

// Hub owns the process-wide shared state: the room directory and the identity pool.
type Hub struct {
	Rooms *Directory
	IDs   *IDAllocator

	digest  Digester
	journal Journal
	cfg     HubConfig
	log     *zerolog.Logger
}

// NewHub creates a hub. journal may be nil.
func NewHub(digest Digester, journal Journal, cfg HubConfig, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		Rooms:   NewDirectory(),
		IDs:     NewIDAllocator(),
		digest:  digest,
		journal: journal,
		cfg:     cfg,
		log:     logger,
	}
}

// NewSession binds a connected client to the hub. host is the remote address without port.
func (h *Hub) NewSession(client *Client, host string) *Session {
	logger := h.log.With().Str("conn_id", client.ID).Logger()
	return &Session{
		hub:     h,
		client:  client,
		ihash:   h.digest.Digest(host),
		limiter: newRateLimiter(h.cfg.CommentRateLimit),
		log:     logger,
	}
}
