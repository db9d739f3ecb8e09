package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kvistad/shotpipe/internal/domain/event"
	"github.com/kvistad/shotpipe/internal/domain/feature"
	"github.com/kvistad/shotpipe/internal/domain/player"
	"github.com/kvistad/shotpipe/internal/platform/logging"
)

type stubShotStore struct {
	shots      []feature.Shot
	scoring    []feature.ScoringEvent
	shotsErr   error
	scoringErr error
}

func (s *stubShotStore) ListShots(context.Context) ([]feature.Shot, error) {
	if s.shotsErr != nil {
		return nil, s.shotsErr
	}
	return s.shots, nil
}

func (s *stubShotStore) ListScoringEvents(context.Context) ([]feature.ScoringEvent, error) {
	if s.scoringErr != nil {
		return nil, s.scoringErr
	}
	return s.scoring, nil
}

// Two matches: match 1 has a penalty-spot goal while trailing plus a later
// reply shot, match 2 a lone header. Scoring in match 1: team 20 opens at
// 1H 200, the team 10 shot itself scores at 1H 600.
func testShotStore() *stubShotStore {
	return &stubShotStore{
		shots: []feature.Shot{
			{
				EventID: 1, MatchID: 1, Competition: "England",
				TeamID: 10, PlayerID: 7, PlayerName: "A. Striker",
				PreferredFoot: player.FootRight,
				MatchPeriod:   event.PeriodFirstHalf, EventSec: 600,
				X: 90, Y: 50,
				TagIDs: []int{event.TagGoal, event.TagRightFoot},
			},
			{
				EventID: 2, MatchID: 1, Competition: "England",
				TeamID: 20, PlayerID: 8, PlayerName: "B. Winger",
				PreferredFoot: player.FootLeft,
				MatchPeriod:   event.PeriodSecondHalf, EventSec: 100,
				X: 80, Y: 50,
				TagIDs: []int{event.TagLeftFoot},
			},
			{
				EventID: 3, MatchID: 2, Competition: "Spain",
				TeamID: 30, PlayerID: 9, PlayerName: "C. Forward",
				PreferredFoot: player.FootRight,
				MatchPeriod:   event.PeriodSecondHalf, EventSec: 300,
				X: 95, Y: 48,
				TagIDs: []int{event.TagHeadBody},
			},
		},
		scoring: []feature.ScoringEvent{
			{EventID: 100, MatchID: 1, TeamID: 20, MatchPeriod: event.PeriodFirstHalf, EventSec: 200},
			{EventID: 1, MatchID: 1, TeamID: 10, MatchPeriod: event.PeriodFirstHalf, EventSec: 600},
		},
	}
}

func TestFeatureService_Extract(t *testing.T) {
	t.Parallel()

	svc := NewFeatureService(testShotStore(), logging.NewNop())

	rows, result, err := svc.Extract(context.Background(), FeatureInput{MaxWorkers: 4})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if result.ShotCount != 3 || result.MatchCount != 2 || result.RowCount != 3 {
		t.Fatalf("counts: shots=%d matches=%d rows=%d", result.ShotCount, result.MatchCount, result.RowCount)
	}
	if result.GoalCount != 1 {
		t.Fatalf("goal count: got=%d want=1", result.GoalCount)
	}
	if result.RejectedRows != 0 {
		t.Fatalf("rejected rows: got=%d want=0", result.RejectedRows)
	}
	if result.WorkerCount != 2 {
		t.Fatalf("worker count must cap at match count: got=%d want=2", result.WorkerCount)
	}
	if result.SortColumn != "event_id" {
		t.Fatalf("default sort column: got=%q", result.SortColumn)
	}

	for i, wantID := range []int64{1, 2, 3} {
		if rows[i].EventID != wantID {
			t.Fatalf("row %d: got event_id=%d want=%d", i, rows[i].EventID, wantID)
		}
	}

	// The scoring shot itself: the opponent's opener counts, its own goal at
	// the shot instant does not.
	first := rows[0]
	if first.ScoreFor != 0 || first.ScoreAgainst != 1 || first.GameState != feature.GameStateTrailing {
		t.Fatalf("shot 1 game state: for=%d against=%d state=%s", first.ScoreFor, first.ScoreAgainst, first.GameState)
	}
	if !first.Goal || first.BodyPart != feature.BodyPartFoot || !first.FootMatch {
		t.Fatalf("shot 1 labels: goal=%v body=%s foot_match=%v", first.Goal, first.BodyPart, first.FootMatch)
	}
	if first.DistanceYds != 12 {
		t.Fatalf("penalty spot distance: got=%v want=12", first.DistanceYds)
	}

	// Second-half reply sees both first-half goals.
	second := rows[1]
	if second.ScoreFor != 1 || second.ScoreAgainst != 1 || second.GameState != feature.GameStateLevel {
		t.Fatalf("shot 2 game state: for=%d against=%d state=%s", second.ScoreFor, second.ScoreAgainst, second.GameState)
	}
	if second.Goal {
		t.Fatalf("shot 2 must not be labelled a goal")
	}

	// Match without scoring events stays level.
	third := rows[2]
	if third.ScoreFor != 0 || third.ScoreAgainst != 0 || third.GameState != feature.GameStateLevel {
		t.Fatalf("shot 3 game state: for=%d against=%d state=%s", third.ScoreFor, third.ScoreAgainst, third.GameState)
	}
	if third.BodyPart != feature.BodyPartHead || third.FootMatch {
		t.Fatalf("shot 3 labels: body=%s foot_match=%v", third.BodyPart, third.FootMatch)
	}
}

func TestFeatureService_Extract_Deterministic(t *testing.T) {
	t.Parallel()

	svc := NewFeatureService(testShotStore(), logging.NewNop())

	first, _, err := svc.Extract(context.Background(), FeatureInput{MaxWorkers: 2})
	if err != nil {
		t.Fatalf("first extract: %v", err)
	}
	second, _, err := svc.Extract(context.Background(), FeatureInput{MaxWorkers: 2})
	if err != nil {
		t.Fatalf("second extract: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated extraction over unchanged data must be identical")
	}
}

func TestFeatureService_Extract_OwnGoalPolicy(t *testing.T) {
	t.Parallel()

	store := testShotStore()
	// Replace the opener with an own goal by the shooter's own team: with the
	// default policy it still counts against them.
	store.scoring[0] = feature.ScoringEvent{
		EventID: 100, MatchID: 1, TeamID: 10,
		MatchPeriod: event.PeriodFirstHalf, EventSec: 200, OwnGoal: true,
	}
	svc := NewFeatureService(store, logging.NewNop())

	counted, _, err := svc.Extract(context.Background(), FeatureInput{
		Policy: feature.GameStatePolicy{CountOwnGoals: true},
	})
	if err != nil {
		t.Fatalf("extract with own goals counted: %v", err)
	}
	if counted[0].ScoreAgainst != 1 || counted[0].GameState != feature.GameStateTrailing {
		t.Fatalf("own goal must flip to the opponent: %+v", counted[0])
	}

	ignored, _, err := svc.Extract(context.Background(), FeatureInput{
		Policy: feature.GameStatePolicy{CountOwnGoals: false},
	})
	if err != nil {
		t.Fatalf("extract with own goals ignored: %v", err)
	}
	if ignored[0].ScoreAgainst != 0 || ignored[0].GameState != feature.GameStateLevel {
		t.Fatalf("ignored own goal must not move the score: %+v", ignored[0])
	}
}

func TestFeatureService_Extract_RejectsIncompleteRows(t *testing.T) {
	t.Parallel()

	store := testShotStore()
	store.shots = append(store.shots, feature.Shot{
		EventID: 9, MatchID: 2, Competition: "Spain",
		TeamID: 30, PlayerID: 0, // unresolvable player reference
		MatchPeriod: event.PeriodSecondHalf, EventSec: 400,
		X: 90, Y: 50,
		TagIDs: []int{event.TagRightFoot},
	})
	svc := NewFeatureService(store, logging.NewNop())

	rows, result, err := svc.Extract(context.Background(), FeatureInput{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if result.RowCount != 3 || result.RejectedRows != 1 {
		t.Fatalf("rows=%d rejected=%d", result.RowCount, result.RejectedRows)
	}
	for _, row := range rows {
		if row.EventID == 9 {
			t.Fatalf("rejected row must not appear in the table")
		}
	}

	found := false
	for _, detail := range result.ErrorDetails {
		if strings.Contains(detail, "event_id=9") && strings.Contains(detail, "player_id") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected rejection detail, got %v", result.ErrorDetails)
	}
}

func TestFeatureService_Extract_SortColumn(t *testing.T) {
	t.Parallel()

	svc := NewFeatureService(testShotStore(), logging.NewNop())

	rows, result, err := svc.Extract(context.Background(), FeatureInput{SortColumn: "distance_yds"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.SortColumn != "distance_yds" {
		t.Fatalf("sort column: got=%q", result.SortColumn)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].DistanceYds < rows[i-1].DistanceYds {
			t.Fatalf("rows not ordered by distance: %v then %v", rows[i-1].DistanceYds, rows[i].DistanceYds)
		}
	}
}

func TestFeatureService_Extract_UnknownSortColumn(t *testing.T) {
	t.Parallel()

	svc := NewFeatureService(testShotStore(), logging.NewNop())

	_, _, err := svc.Extract(context.Background(), FeatureInput{SortColumn: "xg"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "xg") {
		t.Fatalf("error must name the bad column: %v", err)
	}
}

func TestFeatureService_Extract_StoreFailure(t *testing.T) {
	t.Parallel()

	t.Run("shots query", func(t *testing.T) {
		t.Parallel()
		store := testShotStore()
		store.shotsErr = errors.New("relation events does not exist")
		svc := NewFeatureService(store, logging.NewNop())

		_, _, err := svc.Extract(context.Background(), FeatureInput{})
		var qerr *QueryError
		if !errors.As(err, &qerr) || qerr.Op != "list shots" {
			t.Fatalf("expected list shots QueryError, got %v", err)
		}
	})

	t.Run("scoring query", func(t *testing.T) {
		t.Parallel()
		store := testShotStore()
		store.scoringErr = errors.New("connection reset")
		svc := NewFeatureService(store, logging.NewNop())

		_, _, err := svc.Extract(context.Background(), FeatureInput{})
		var qerr *QueryError
		if !errors.As(err, &qerr) || qerr.Op != "list scoring events" {
			t.Fatalf("expected list scoring events QueryError, got %v", err)
		}
	})
}

func TestFeatureService_Extract_EmptyStore(t *testing.T) {
	t.Parallel()

	svc := NewFeatureService(&stubShotStore{}, logging.NewNop())

	rows, result, err := svc.Extract(context.Background(), FeatureInput{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(rows) != 0 || result.RowCount != 0 || result.MatchCount != 0 {
		t.Fatalf("empty store must yield an empty table: rows=%d result=%+v", len(rows), result)
	}
}

func TestFeatureService_Extract_MissingDependencies(t *testing.T) {
	t.Parallel()

	svc := NewFeatureService(nil, logging.NewNop())
	_, _, err := svc.Extract(context.Background(), FeatureInput{})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
