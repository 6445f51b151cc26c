package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/mailmind/mailmind/internal/app"
	"github.com/mailmind/mailmind/internal/config"
)

// RunWorker starts the outbox relay and the sync job queue, plus the metrics
// server when enabled. Blocks until receiving SIGINT/SIGTERM or until a fatal
// error in one of the loops, then shuts everything down.
func RunWorker(ctx context.Context, version string) error {
	cfg := config.Load()

	gin.SetMode(gin.ReleaseMode)

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting worker", slog.String("version", version))

	defer closeContainer(container, logger)

	relay, err := container.OutboxRelay(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize outbox relay: %w", err)
	}

	queue, err := container.SyncQueue(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize sync queue: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return relay.Start(gctx)
	})

	g.Go(func() error {
		return queue.Start(gctx)
	})

	if cfg.MetricsEnabled && metricsServer != nil {
		g.Go(func() error {
			return metricsServer.Start(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
			defer shutdownCancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("worker stopped")
	return nil
}
