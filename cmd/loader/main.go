package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kvistad/shotpipe/internal/app"
	"github.com/kvistad/shotpipe/internal/config"
	"github.com/kvistad/shotpipe/internal/infrastructure/repository/postgres"
	"github.com/kvistad/shotpipe/internal/observability"
	"github.com/kvistad/shotpipe/internal/platform/id"
	"github.com/kvistad/shotpipe/internal/platform/logging"
	"github.com/kvistad/shotpipe/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(cfg, logger); err != nil {
		logger.Error("loader run failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownUptrace(shutdownCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	defer func() {
		if err := stopPyroscope(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("start pprof server: %w", err)
	}
	defer func() {
		if err := observability.StopPprofServer(pprofSrv, logger, 5*time.Second); err != nil {
			logger.Warn("pprof shutdown failed", "error", err)
		}
	}()

	runID, err := id.NewRandomGenerator().NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	logger = logger.With("run_id", runID, "pipeline", "loader")

	if cfg.DBAutoMigrate {
		if err := postgres.EnsureSchema(cfg.DBURL); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		logger.InfoContext(ctx, "schema up to date")
	}

	db, err := app.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	logger.InfoContext(ctx, "dataset load starting",
		"data_dir", cfg.DataDir,
		"leagues", len(cfg.Leagues),
		"batch_size", cfg.BatchSize,
		"workers", cfg.LoadWorkers,
		"dry_run", cfg.LoadDryRun,
	)

	svc := app.NewLoadService(db, cfg, logger)
	result, loadErr := svc.Load(ctx, usecase.LoadInput{
		Leagues:         cfg.Leagues,
		BatchSize:       cfg.BatchSize,
		MaxWorkers:      cfg.LoadWorkers,
		MaxErrorDetails: cfg.MaxErrorDetails,
		DryRun:          cfg.LoadDryRun,
	})
	if loadErr != nil {
		switch {
		case postgres.IsUnavailable(loadErr):
			logger.ErrorContext(ctx, "dataset load aborted, postgres unavailable", "error", loadErr)
		case postgres.IsTransient(loadErr):
			logger.ErrorContext(ctx, "dataset load aborted on storage failure that may clear on retry", "error", loadErr)
		}
	}

	notifyRun(ctx, cfg, logger, runID, "loader", result, loadErr)
	return loadErr
}

// notifyRun posts the run report when the webhook is configured. Delivery
// problems are logged, never escalated: the pipeline outcome stands on its
// own.
func notifyRun(
	ctx context.Context,
	cfg config.Config,
	logger *logging.Logger,
	runID, pipeline string,
	payload any,
	runErr error,
) {
	if !cfg.WebhookEnabled {
		return
	}

	// The report must still go out when the run was canceled, so the
	// delivery gets its own deadline.
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	report := app.RunReport(runID, pipeline, payload, runErr)
	if err := app.NewRunNotifier(cfg, logger).Notify(notifyCtx, report); err != nil {
		logger.ErrorContext(ctx, "run report delivery failed", "error", err)
	}
}
