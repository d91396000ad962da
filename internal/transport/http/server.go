package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/mojachat-server/internal/config"
	"github.com/vovakirdan/mojachat-server/internal/core"
	"github.com/vovakirdan/mojachat-server/internal/store"
	"github.com/vovakirdan/mojachat-server/internal/transport/stream"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the status and WebSocket HTTP server. st may be nil when the journal is disabled.
func NewServer(hub *core.Hub, streams *stream.Server, st store.PresenceStore, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(streams, logger)))

	rooms := NewRoomHandlers(hub, logger)
	journal := NewJournalHandlers(st, logger)

	api := router.Group("/api")
	api.GET("/rooms", rooms.ListRooms)
	api.GET("/rooms/children", rooms.ChildCounts)
	api.GET("/rooms/occupants", rooms.Occupants)
	api.GET("/journal", journal.ListPresence)

	return &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
