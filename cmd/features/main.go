package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kvistad/shotpipe/internal/app"
	"github.com/kvistad/shotpipe/internal/config"
	"github.com/kvistad/shotpipe/internal/domain/feature"
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
		logger.Error("features run failed", "error", err)
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
	logger = logger.With("run_id", runID, "pipeline", "features")

	db, err := app.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	logger.InfoContext(ctx, "feature extraction starting",
		"out", cfg.FeaturesOut,
		"sort", cfg.FeaturesSort,
		"workers", cfg.FeatureWorkers,
		"count_own_goals", cfg.CountOwnGoals,
	)

	svc := app.NewFeatureService(db, logger)
	rows, result, extractErr := svc.Extract(ctx, usecase.FeatureInput{
		SortColumn:      cfg.FeaturesSort,
		MaxWorkers:      cfg.FeatureWorkers,
		Policy:          feature.GameStatePolicy{CountOwnGoals: cfg.CountOwnGoals},
		MaxErrorDetails: cfg.MaxErrorDetails,
	})
	if extractErr == nil {
		extractErr = writeCSVAtomic(cfg.FeaturesOut, rows)
		if extractErr == nil {
			logger.InfoContext(ctx, "feature table written", "path", cfg.FeaturesOut, "rows", len(rows))
		}
	} else {
		switch {
		case postgres.IsUnavailable(extractErr):
			logger.ErrorContext(ctx, "feature extraction aborted, postgres unavailable", "error", extractErr)
		case postgres.IsTransient(extractErr):
			logger.ErrorContext(ctx, "feature extraction aborted on storage failure that may clear on retry", "error", extractErr)
		}
	}

	notifyRun(ctx, cfg, logger, runID, "features", result, extractErr)
	return extractErr
}

// writeCSVAtomic stages the table in a temp file next to the target and
// renames it into place, so a failed run never leaves a truncated CSV.
func writeCSVAtomic(path string, rows []feature.Row) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp feature file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := feature.WriteCSV(tmp, rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write feature table: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush feature table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp feature file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("move feature table into place: %w", err)
	}

	return nil
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
