// Command app serves the survey dashboard API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("survey dashboard exited", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	app, err := initializeApp()
	if err != nil {
		return fmt.Errorf("assemble survey dashboard: %w", err)
	}
	return app.Run(ctx)
}
