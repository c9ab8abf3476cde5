package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gfranca/batepapo-server/internal/config"
	"github.com/gfranca/batepapo-server/internal/core"
	"github.com/gfranca/batepapo-server/internal/service/messages"
	"github.com/gfranca/batepapo-server/internal/service/registry"
	"github.com/gfranca/batepapo-server/internal/store"
	"github.com/gfranca/batepapo-server/internal/store/sqlite"
	transporthttp "github.com/gfranca/batepapo-server/internal/transport/http"
)

// App wires together the store, services and transport layers.
type App struct {
	server          *stdhttp.Server
	sweeper         *registry.Sweeper
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. The
// store handle is opened once here and injected everywhere; it lives
// for the whole process.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	hub := core.NewHub()
	registryService := registry.New(st, hub, logger)
	messageService := messages.New(st, hub)
	sweeper := registry.NewSweeper(registryService, cfg.SweepInterval, cfg.StaleAfter, logger)

	server := transporthttp.NewServer(registryService, messageService, hub, cfg, logger)

	return &App{
		server:          server,
		sweeper:         sweeper,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and the eviction sweeper, blocking until
// context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.sweeper.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
