package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/mojachat-server/internal/store"
)

const maxJournalLimit = 1000

// JournalHandlers serves the presence journal for moderation.
type JournalHandlers struct {
	store store.PresenceStore
	log   *zerolog.Logger
}

// NewJournalHandlers creates journal handlers. st may be nil.
func NewJournalHandlers(st store.PresenceStore, logger *zerolog.Logger) *JournalHandlers {
	return &JournalHandlers{store: st, log: logger}
}

// PresenceResponse is one journal row in API responses.
type PresenceResponse struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	ClientID  int    `json:"client_id"`
	Room      string `json:"room,omitempty"`
	IHash     string `json:"ihash,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListPresence returns recent journal rows.
// GET /api/journal?room=&ihash=&limit=
func (h *JournalHandlers) ListPresence(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "journal disabled"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxJournalLimit {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	events, err := h.store.ListPresence(c.Request.Context(), store.PresenceFilter{
		Room:  c.Query("room"),
		IHash: c.Query("ihash"),
		Limit: limit,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list presence journal")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]PresenceResponse, 0, len(events))
	for _, ev := range events {
		response = append(response, PresenceResponse{
			ID:        ev.ID,
			Kind:      string(ev.Kind),
			ClientID:  ev.ClientID,
			Room:      ev.Room,
			IHash:     ev.IHash,
			CreatedAt: ev.At.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, response)
}
