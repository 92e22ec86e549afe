package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yanqian/newsdigest/internal/infra/config"
)

const minShutdownGrace = 10 * time.Second

// App runs the summarization API until its context ends.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
}

// NewApp is the Wire entry point for the HTTP service.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap.app"), server: server}
}

// Run binds the listener and serves until ctx is cancelled. In-flight summaries get the
// write timeout (at least ten seconds) to finish.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("summarization api listening",
			"address", listener.Addr().String(),
			"method", a.cfg.Summary.Method,
			"metric", a.cfg.Summary.Metric,
			"word_quota", a.cfg.Realization.WordQuota,
			"pair_model", a.cfg.NeedsPairModel(),
		)
		errCh <- a.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		grace := a.cfg.HTTP.WriteTimeout
		if grace < minShutdownGrace {
			grace = minShutdownGrace
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		a.logger.Info("shutdown signal received", "grace", grace.String())
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
