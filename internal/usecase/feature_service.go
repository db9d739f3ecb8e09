package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/kvistad/shotpipe/internal/domain/feature"
	"github.com/kvistad/shotpipe/internal/platform/logging"
)

type FeatureInput struct {
	// SortColumn orders the assembled table; empty means event_id.
	SortColumn string
	MaxWorkers int
	Policy     feature.GameStatePolicy
	// MaxErrorDetails caps the rejection details kept in the result. Zero
	// keeps everything.
	MaxErrorDetails int
}

type FeatureResult struct {
	ShotCount       int      `json:"shot_count"`
	MatchCount      int      `json:"match_count"`
	RowCount        int      `json:"row_count"`
	GoalCount       int      `json:"goal_count"`
	RejectedRows    int      `json:"rejected_rows"`
	WorkerCount     int      `json:"worker_count"`
	SortColumn      string   `json:"sort_column"`
	ErrorDetails    []string `json:"error_details,omitempty"`
	TruncatedErrors int      `json:"truncated_errors,omitempty"`
	DurationMs      int64    `json:"duration_ms"`
}

// FeatureService derives the flat shot feature table from the populated
// store. Reads go through feature.Repository; every computed row is a pure
// function of the store state and the game-state policy, so repeated runs
// over unchanged data produce identical tables.
type FeatureService struct {
	shots  feature.Repository
	logger *logging.Logger
}

func NewFeatureService(shots feature.Repository, logger *logging.Logger) *FeatureService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FeatureService{
		shots:  shots,
		logger: logger,
	}
}

// Extract selects all shots, reconstructs per-shot game state from each
// match's scoring events and assembles the validated, sorted feature table.
// Store failures surface as QueryError and abort the run; no partial table
// is returned.
func (s *FeatureService) Extract(ctx context.Context, input FeatureInput) ([]feature.Row, FeatureResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeatureService.Extract")
	defer span.End()

	start := time.Now()

	if s.shots == nil {
		return nil, FeatureResult{}, fmt.Errorf("%w: feature service is not fully configured", ErrDependencyUnavailable)
	}

	shots, err := s.shots.ListShots(ctx)
	if err != nil {
		return nil, FeatureResult{}, &QueryError{Op: "list shots", Err: err}
	}
	scoring, err := s.shots.ListScoringEvents(ctx)
	if err != nil {
		return nil, FeatureResult{}, &QueryError{Op: "list scoring events", Err: err}
	}

	shotsByMatch := make(map[int64][]feature.Shot)
	for _, shot := range shots {
		shotsByMatch[shot.MatchID] = append(shotsByMatch[shot.MatchID], shot)
	}
	scoringByMatch := make(map[int64][]feature.ScoringEvent)
	for _, g := range scoring {
		scoringByMatch[g.MatchID] = append(scoringByMatch[g.MatchID], g)
	}

	matchIDs := make([]int64, 0, len(shotsByMatch))
	for matchID := range shotsByMatch {
		matchIDs = append(matchIDs, matchID)
	}
	sort.Slice(matchIDs, func(i, j int) bool { return matchIDs[i] < matchIDs[j] })

	workerCount := normalizeFeatureWorkerCount(input.MaxWorkers, len(matchIDs))

	// Matches derive independently; Assemble re-sorts the merged rows, so
	// completion order never leaks into the output.
	workers := pool.NewWithResults[[]feature.Row]().
		WithContext(ctx).
		WithMaxGoroutines(workerCount)
	for _, matchID := range matchIDs {
		matchShots := shotsByMatch[matchID]
		matchScoring := scoringByMatch[matchID]
		workers.Go(func(context.Context) ([]feature.Row, error) {
			rows := make([]feature.Row, 0, len(matchShots))
			for _, shot := range matchShots {
				rows = append(rows, feature.Derive(shot, matchScoring, input.Policy))
			}
			return rows, nil
		})
	}

	perMatch, err := workers.Wait()
	if err != nil {
		return nil, FeatureResult{}, fmt.Errorf("derive feature rows: %w", err)
	}

	derived := make([]feature.Row, 0, len(shots))
	for _, rows := range perMatch {
		derived = append(derived, rows...)
	}

	kept, rejected, err := feature.Assemble(derived, input.SortColumn)
	if err != nil {
		return nil, FeatureResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	collector := newErrorCollector(input.MaxErrorDetails)
	for i := range rejected {
		collector.add(rejected[i].Error())
	}

	goalCount := 0
	for i := range kept {
		if kept[i].Goal {
			goalCount++
		}
	}

	result := FeatureResult{
		ShotCount:    len(shots),
		MatchCount:   len(matchIDs),
		RowCount:     len(kept),
		GoalCount:    goalCount,
		RejectedRows: len(rejected),
		WorkerCount:  workerCount,
		SortColumn:   sortColumnOrDefault(input.SortColumn),
		DurationMs:   time.Since(start).Milliseconds(),
	}
	result.ErrorDetails, result.TruncatedErrors = collector.snapshot()

	s.logger.InfoContext(ctx, "feature extraction finished",
		"shots", result.ShotCount,
		"matches", result.MatchCount,
		"rows", result.RowCount,
		"goals", result.GoalCount,
		"rejected_rows", result.RejectedRows,
		"sort_column", result.SortColumn,
		"duration_ms", result.DurationMs,
	)

	return kept, result, nil
}

func sortColumnOrDefault(column string) string {
	if column == "" {
		return "event_id"
	}
	return column
}

func normalizeFeatureWorkerCount(value int, matchCount int) int {
	if matchCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > matchCount {
		value = matchCount
	}
	return value
}
