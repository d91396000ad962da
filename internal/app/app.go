package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/mojachat-server/internal/auth"
	"github.com/vovakirdan/mojachat-server/internal/config"
	"github.com/vovakirdan/mojachat-server/internal/core"
	"github.com/vovakirdan/mojachat-server/internal/log"
	"github.com/vovakirdan/mojachat-server/internal/store"
	"github.com/vovakirdan/mojachat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/mojachat-server/internal/transport/http"
	"github.com/vovakirdan/mojachat-server/internal/transport/stream"
	"github.com/vovakirdan/mojachat-server/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	tcp             *tcp.Server
	http            *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	digester, err := auth.NewDigester(cfg.TripSalt)
	if err != nil {
		return nil, fmt.Errorf("init digester: %w", err)
	}

	var (
		st      store.Store
		journal core.Journal
	)
	if cfg.DatabasePath != "" {
		s, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		st, journal = s, s
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("presence journal enabled")
	}

	hub := core.NewHub(digester, journal, core.HubConfig{
		CommentRateLimit: cfg.CommentRateLimit,
		PolicyResponse:   cfg.PolicyResponse,
	}, log.Component(logger, "core"))

	streams := stream.NewServer(hub, stream.Options{
		MaxFrameBytes:  cfg.MaxFrameBytes,
		OutboundBuffer: cfg.OutboundBuffer,
	}, log.Component(logger, "stream"))

	a := &App{
		tcp:             tcp.NewServer(cfg.Addr(), streams, log.Component(logger, "tcp")),
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}
	if cfg.HTTPAddr != "" {
		var presence store.PresenceStore
		if st != nil {
			presence = st
		}
		a.http = transporthttp.NewServer(hub, streams, presence, cfg, log.Component(logger, "http"))
	}
	return a, nil
}

// Hub exposes the shared room state, mainly for tests.
func (a *App) Hub() *core.Hub {
	return a.hub
}

// Run starts the listeners and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.tcp.ListenAndServe(ctx)
	})

	if a.http != nil {
		a.http.BaseContext = func(net.Listener) context.Context { return ctx }

		g.Go(func() error {
			a.log.Info().Str("addr", a.http.Addr).Msg("http server started")
			if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()

			a.log.Info().Msg("shutting down http server")
			return a.http.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
