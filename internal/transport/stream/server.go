package stream

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/mojachat-server/internal/core"
	"github.com/vovakirdan/mojachat-server/internal/proto"
)

const writeTimeout = 5 * time.Second

// Options tunes the per-connection loops.
type Options struct {
	MaxFrameBytes  int
	OutboundBuffer int
}

// Server bridges any byte stream to a core.Session: NUL-framed commands in, rendered events out.
type Server struct {
	hub  *core.Hub
	opts Options
	log  *zerolog.Logger
}

// NewServer builds a stream server on top of hub.
func NewServer(hub *core.Hub, opts Options, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{hub: hub, opts: opts, log: logger}
}

// ServeConn runs one connection until the peer goes away or ctx is canceled.
// host is the peer address without port; it feeds the ip-hash.
// Whatever ends the connection, the session's disconnect path runs before ServeConn returns.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn, host string) {
	client := core.NewClient(uuid.NewString(), host, s.opts.OutboundBuffer)
	session := s.hub.NewSession(client, host)
	logger := s.log.With().Str("conn_id", client.ID).Str("remote", host).Logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	writeDone := make(chan error, 1)
	go func() {
		writeDone <- s.writeLoop(conn, client, &logger)
	}()

	logger.Debug().Msg("connection opened")
	if err := s.readLoop(ctx, conn, session, &logger); err != nil {
		logger.Warn().Err(err).Msg("connection closed with error")
	}

	session.Close(ctx)
	client.Close()
	if err := <-writeDone; err != nil {
		logger.Debug().Err(err).Msg("write loop stopped")
	}
	logger.Debug().Msg("connection closed")
}

func (s *Server) readLoop(ctx context.Context, conn net.Conn, session *core.Session, logger *zerolog.Logger) error {
	frames := proto.NewFrameReader(conn, s.opts.MaxFrameBytes)
	for {
		frame, err := frames.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		logger.Debug().Bytes("frame", frame).Msg("inbound")

		el, err := proto.Parse(frame)
		if err != nil {
			logger.Warn().Err(err).Msg("drop frame")
			continue
		}

		cmd, err := frameToCommand(el)
		if err != nil {
			logger.Warn().Err(err).Msg("drop frame")
			continue
		}

		if err := session.Handle(ctx, cmd); err != nil {
			ev := logger.Warn().Err(err).Stringer("command", cmd.Kind)
			var coreErr *core.CoreError
			if errors.As(err, &coreErr) {
				ev = ev.Str("code", coreErr.Code)
			}
			ev.Msg("command rejected")
		}
	}
}

// writeLoop drains the client's queue until it is closed. A write failure
// closes the connection so the read loop ends too.
func (s *Server) writeLoop(conn net.Conn, client *core.Client, logger *zerolog.Logger) error {
	for ev := range client.Events {
		payload, err := eventPayload(ev)
		if err != nil {
			logger.Error().Err(err).Stringer("event", ev.Kind).Msg("render event")
			continue
		}
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			_ = conn.Close()
			return err
		}
		if err := proto.WriteFrame(conn, payload); err != nil {
			_ = conn.Close()
			return err
		}
	}
	return nil
}

// RemoteHost strips the port from a network address.
func RemoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
