package http

import (
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/mojachat-server/internal/transport/stream"
)

// WSHandler upgrades HTTP connections and runs the stream protocol over them.
// Each text message carries one or more NUL-terminated frames.
type WSHandler struct {
	streams *stream.Server
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(streams *stream.Server, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{streams: streams, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	ctx := r.Context()
	netConn := websocket.NetConn(ctx, conn, websocket.MessageText)
	defer netConn.Close()

	h.streams.ServeConn(ctx, netConn, stream.RemoteHost(r.RemoteAddr))
}
