package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamgate/streamgate-server/internal/config"
	"github.com/streamgate/streamgate-server/internal/core"
	"github.com/streamgate/streamgate-server/internal/store"
	"github.com/streamgate/streamgate-server/internal/store/sqlite"
	transporthttp "github.com/streamgate/streamgate-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	audit           store.AuditStore
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	audit, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init audit store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("audit store initialized")

	membership := core.NewMembership()
	gateway := transporthttp.NewWSGateway(logger)
	relay := core.NewRelay(membership, gateway, audit, logger)
	server := transporthttp.NewServer(relay, gateway, audit, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		audit:           audit,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

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

// cleanup closes the audit store.
func (a *App) cleanup() {
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close audit store")
		} else {
			a.log.Info().Msg("audit store closed")
		}
	}
}
