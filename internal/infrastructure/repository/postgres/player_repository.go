package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kvistad/shotpipe/internal/domain/player"
	qb "github.com/kvistad/shotpipe/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerUpsertSuffix = `ON CONFLICT (wy_id)
DO UPDATE SET
    short_name = EXCLUDED.short_name,
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    foot = EXCLUDED.foot,
    role_code = EXCLUDED.role_code,
    role_name = EXCLUDED.role_name,
    birth_date = EXCLUDED.birth_date,
    height_cm = EXCLUDED.height_cm,
    weight_kg = EXCLUDED.weight_kg,
    current_team_id = EXCLUDED.current_team_id,
    loaded_at = NOW()`

func (r *PlayerRepository) UpsertMany(ctx context.Context, players []player.Player) (int, error) {
	if len(players) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx upsert players: %w", storageErr(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, p := range players {
		insertModel := playerInsertModel{
			WyID:          p.WyID,
			ShortName:     p.ShortName,
			FirstName:     nullableString(p.FirstName),
			LastName:      nullableString(p.LastName),
			Foot:          p.Foot,
			RoleCode:      nullableString(p.RoleCode),
			RoleName:      nullableString(p.RoleName),
			BirthDate:     p.BirthDate,
			HeightCM:      nullableInt(p.HeightCM),
			WeightKG:      nullableInt(p.WeightKG),
			CurrentTeamID: nullableInt64(p.CurrentTeamID),
		}

		query, args, err := qb.InsertModel("players", insertModel, playerUpsertSuffix)
		if err != nil {
			return 0, fmt.Errorf("build upsert player query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("upsert player wy_id=%d: %w", p.WyID, storageErr(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert players tx: %w", storageErr(err))
	}

	return len(players), nil
}

func (r *PlayerRepository) ListIDs(ctx context.Context) (map[int64]struct{}, error) {
	query, args, err := qb.Select("wy_id").From("players").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player ids query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select player ids: %w", storageErr(err))
	}

	known := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return known, nil
}
