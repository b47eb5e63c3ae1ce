package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/survey-dashboard/internal/domain/survey"
	"github.com/yanqian/survey-dashboard/internal/infra/config"
)

const warmUpTimeout = 30 * time.Second

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	survey survey.Service
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, svc survey.Service) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, survey: svc}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Survey.WarmUp {
		a.warmUp(ctx)
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// warmUp loads the default dataset before serving. A failure is logged
// and the first request retries the load.
func (a *App) warmUp(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, warmUpTimeout)
	defer cancel()
	start := time.Now()
	table, err := a.survey.Table(ctx, "")
	if err != nil {
		a.logger.Warn("dataset warm-up failed", "dataset", a.cfg.Survey.DefaultDataset, "error", err)
		return
	}
	a.logger.Info("dataset warmed up",
		"dataset", a.cfg.Survey.DefaultDataset,
		"rows", table.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}
