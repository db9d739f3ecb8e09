package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kvistad/shotpipe/internal/domain/event"
	"github.com/kvistad/shotpipe/internal/domain/feature"
	qb "github.com/kvistad/shotpipe/internal/platform/querybuilder"
)

// ShotRepository is the read side of feature extraction.
type ShotRepository struct {
	db *sqlx.DB
}

func NewShotRepository(db *sqlx.DB) *ShotRepository {
	return &ShotRepository{db: db}
}

var shotSelectColumns = []string{
	"e.id AS event_id",
	"e.match_id",
	"m.competition",
	"m.date_utc AS match_date",
	"e.team_id",
	"e.player_id",
	"COALESCE(p.short_name, '') AS player_name",
	"COALESCE(p.foot, 'unknown') AS preferred_foot",
	"e.match_period",
	"e.event_sec",
	"e.x1 AS x",
	"e.y1 AS y",
	"COALESCE(array_agg(t.tag_id ORDER BY t.tag_id) FILTER (WHERE t.tag_id IS NOT NULL), '{}') AS tag_ids",
}

// periodOrderSQL ranks match periods chronologically, mirroring
// event.PeriodRank.
const periodOrderSQL = "CASE e.match_period WHEN '1H' THEN 0 WHEN '2H' THEN 1 WHEN 'E1' THEN 2 WHEN 'E2' THEN 3 WHEN 'P' THEN 4 ELSE 5 END"

func listShotsQuery() (string, []any, error) {
	return qb.Select(shotSelectColumns...).
		From("events e JOIN matches m ON m.wy_id = e.match_id LEFT JOIN players p ON p.wy_id = e.player_id LEFT JOIN tags t ON t.event_id = e.id").
		Where(qb.Eq("e.event_name", event.NameShot)).
		GroupBy("e.id", "m.wy_id", "p.wy_id").
		OrderBy("e.id").
		ToSQL()
}

func (r *ShotRepository) ListShots(ctx context.Context) ([]feature.Shot, error) {
	query, args, err := listShotsQuery()
	if err != nil {
		return nil, fmt.Errorf("build select shots query: %w", err)
	}

	var rows []shotRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select shots: %w", storageErr(err))
	}

	out := make([]feature.Shot, 0, len(rows))
	for _, row := range rows {
		out = append(out, shotFromRow(row))
	}

	return out, nil
}

func shotFromRow(row shotRow) feature.Shot {
	tagIDs := make([]int, 0, len(row.TagIDs))
	for _, id := range row.TagIDs {
		tagIDs = append(tagIDs, int(id))
	}
	return feature.Shot{
		EventID:       row.EventID,
		MatchID:       row.MatchID,
		Competition:   row.Competition,
		MatchDate:     row.MatchDate,
		TeamID:        row.TeamID,
		PlayerID:      row.PlayerID.Int64,
		PlayerName:    row.PlayerName,
		PreferredFoot: row.PreferredFoot,
		MatchPeriod:   row.MatchPeriod,
		EventSec:      row.EventSec,
		X:             row.X,
		Y:             row.Y,
		TagIDs:        tagIDs,
	}
}

// listScoringEventsQuery excludes save attempts: the source data mirrors a
// conceded goal's tag onto the keeper's save-attempt event, so without the
// filter every goal would produce a second scoring row for the conceding team.
func listScoringEventsQuery() (string, []any, error) {
	return qb.Select(
		"e.id AS event_id",
		"e.match_id",
		"e.team_id",
		"e.match_period",
		"e.event_sec",
		fmt.Sprintf("BOOL_OR(t.tag_id = %d) AS own_goal", event.TagOwnGoal),
	).
		From("events e JOIN tags t ON t.event_id = e.id").
		Where(
			qb.In("t.tag_id", []any{event.TagGoal, event.TagOwnGoal}),
			qb.Expr("e.event_name <> ?", event.NameSaveAttempt),
		).
		GroupBy("e.id").
		OrderBy("e.match_id", periodOrderSQL, "e.event_sec", "e.id").
		ToSQL()
}

func (r *ShotRepository) ListScoringEvents(ctx context.Context) ([]feature.ScoringEvent, error) {
	query, args, err := listScoringEventsQuery()
	if err != nil {
		return nil, fmt.Errorf("build select scoring events query: %w", err)
	}

	var rows []scoringEventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select scoring events: %w", storageErr(err))
	}

	out := make([]feature.ScoringEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, scoringEventFromRow(row))
	}

	return out, nil
}

func scoringEventFromRow(row scoringEventRow) feature.ScoringEvent {
	return feature.ScoringEvent{
		EventID:     row.EventID,
		MatchID:     row.MatchID,
		TeamID:      row.TeamID,
		MatchPeriod: row.MatchPeriod,
		EventSec:    row.EventSec,
		OwnGoal:     row.OwnGoal,
	}
}
