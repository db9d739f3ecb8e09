package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kvistad/shotpipe/internal/domain/match"
	qb "github.com/kvistad/shotpipe/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

const matchUpsertSuffix = `ON CONFLICT (wy_id)
DO UPDATE SET
    competition = EXCLUDED.competition,
    season_id = EXCLUDED.season_id,
    gameweek = EXCLUDED.gameweek,
    date_utc = EXCLUDED.date_utc,
    label = EXCLUDED.label,
    venue = EXCLUDED.venue,
    status = EXCLUDED.status,
    winner_team_id = EXCLUDED.winner_team_id,
    home_team_id = EXCLUDED.home_team_id,
    away_team_id = EXCLUDED.away_team_id,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    duration = EXCLUDED.duration,
    loaded_at = NOW()`

func (r *MatchRepository) UpsertMany(ctx context.Context, matches []match.Match) (int, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx upsert matches: %w", storageErr(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, m := range matches {
		insertModel := matchInsertModel{
			WyID:         m.WyID,
			Competition:  m.Competition,
			SeasonID:     nullableInt64(m.SeasonID),
			Gameweek:     nullableInt(m.Gameweek),
			DateUTC:      m.DateUTC,
			Label:        nullableString(m.Label),
			Venue:        nullableString(m.Venue),
			Status:       nullableString(m.Status),
			WinnerTeamID: nullableInt64(m.WinnerTeamID),
			HomeTeamID:   nullableInt64(m.HomeTeamID),
			AwayTeamID:   nullableInt64(m.AwayTeamID),
			HomeScore:    m.HomeScore,
			AwayScore:    m.AwayScore,
			Duration:     nullableString(m.Duration),
		}

		query, args, err := qb.InsertModel("matches", insertModel, matchUpsertSuffix)
		if err != nil {
			return 0, fmt.Errorf("build upsert match query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("upsert match wy_id=%d: %w", m.WyID, storageErr(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert matches tx: %w", storageErr(err))
	}

	return len(matches), nil
}

func (r *MatchRepository) InsertStubs(ctx context.Context, stubs []match.Match) (int, error) {
	if len(stubs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx insert stub matches: %w", storageErr(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	inserted := 0
	for _, m := range stubs {
		insertModel := matchStubInsertModel{
			WyID:        m.WyID,
			Competition: m.Competition,
			Status:      m.Status,
		}

		query, args, err := qb.InsertModel("matches", insertModel, "ON CONFLICT (wy_id) DO NOTHING")
		if err != nil {
			return 0, fmt.Errorf("build insert stub match query: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert stub match wy_id=%d: %w", m.WyID, storageErr(err))
		}
		if affected, err := res.RowsAffected(); err == nil {
			inserted += int(affected)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert stub matches tx: %w", storageErr(err))
	}

	return inserted, nil
}

func (r *MatchRepository) ListIDs(ctx context.Context) (map[int64]struct{}, error) {
	query, args, err := qb.Select("wy_id").From("matches").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match ids query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select match ids: %w", storageErr(err))
	}

	known := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return known, nil
}
