package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/mojachat-server/internal/transport/stream"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server accepts raw TCP connections and hands each one to the stream server.
type Server struct {
	addr    string
	handler *stream.Server
	log     *zerolog.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewServer builds a TCP listener for addr ("host:port").
func NewServer(addr string, handler *stream.Server, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{addr: addr, handler: handler, log: logger}
}

// ListenAndServe listens on the configured address and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then waits for open
// connections to finish their disconnect path. Temporary accept errors are
// retried with backoff; any other accept error closes every open connection
// and is returned.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("tcp listener started")

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-connCtx.Done()
		_ = ln.Close()
	}()

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			if isTemporary(err) {
				delay = nextDelay(delay)
				s.log.Warn().Err(err).Dur("retry_in", delay).Msg("accept failed")
				select {
				case <-time.After(delay):
					continue
				case <-ctx.Done():
					s.wg.Wait()
					return nil
				}
			}

			s.log.Error().Err(err).Msg("accept failed, closing open connections")
			cancel()
			s.wg.Wait()
			return fmt.Errorf("accept: %w", err)
		}
		delay = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handler.ServeConn(connCtx, conn, stream.RemoteHost(conn.RemoteAddr().String()))
		}()
	}
}

// Addr returns the bound address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func isTemporary(err error) bool {
	var ne interface{ Temporary() bool }
	return errors.As(err, &ne) && ne.Temporary()
}

// nextDelay doubles the accept backoff from 5ms up to one second.
func nextDelay(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptDelay
	}
	if d *= 2; d > maxAcceptDelay {
		d = maxAcceptDelay
	}
	return d
}
