package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/kvistad/shotpipe/external/webhook"
	"github.com/kvistad/shotpipe/internal/config"
	"github.com/kvistad/shotpipe/internal/infrastructure/repository/postgres"
	"github.com/kvistad/shotpipe/internal/platform/logging"
	"github.com/kvistad/shotpipe/internal/usecase"
	"github.com/kvistad/shotpipe/internal/wyscout"
)

// OpenDB connects to Postgres through the instrumented sqlx wrapper so every
// statement shows up as a span. Pool limits come from config; the URL is
// normalized for lib/pq before dialing.
func OpenDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// NewLoadService wires the dataset reader and the Postgres repositories into
// the load pipeline.
func NewLoadService(db *sqlx.DB, cfg config.Config, logger *logging.Logger) *usecase.LoadService {
	return usecase.NewLoadService(
		wyscout.NewReader(cfg.DataDir),
		postgres.NewPlayerRepository(db),
		postgres.NewMatchRepository(db),
		postgres.NewEventRepository(db),
		logger,
	)
}

// NewFeatureService wires the shot read model into feature extraction.
func NewFeatureService(db *sqlx.DB, logger *logging.Logger) *usecase.FeatureService {
	return usecase.NewFeatureService(postgres.NewShotRepository(db), logger)
}

// NewRunNotifier builds the webhook client both binaries use to report run
// outcomes. Callers are expected to check cfg.WebhookEnabled first.
func NewRunNotifier(cfg config.Config, logger *logging.Logger) *webhook.Notifier {
	return webhook.NewNotifier(webhook.Config{
		URL:     cfg.WebhookURL,
		Token:   cfg.WebhookToken,
		Timeout: cfg.WebhookTimeout,
		Retries: cfg.WebhookRetries,
	}, logger)
}

// RunReport assembles the webhook payload for a finished pipeline run.
func RunReport(runID, pipeline string, payload any, runErr error) webhook.Report {
	status := "success"
	errText := ""
	if runErr != nil {
		status = "failed"
		errText = runErr.Error()
	}

	return webhook.Report{
		RunID:      runID,
		Pipeline:   pipeline,
		Status:     status,
		Error:      errText,
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
		Payload:    payload,
	}
}
