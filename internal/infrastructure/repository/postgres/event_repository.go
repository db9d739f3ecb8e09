package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kvistad/shotpipe/internal/domain/event"
	qb "github.com/kvistad/shotpipe/internal/platform/querybuilder"
)

type EventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventUpsertSuffix = `ON CONFLICT (id)
DO UPDATE SET
    match_id = EXCLUDED.match_id,
    team_id = EXCLUDED.team_id,
    player_id = EXCLUDED.player_id,
    event_name = EXCLUDED.event_name,
    sub_event_name = EXCLUDED.sub_event_name,
    match_period = EXCLUDED.match_period,
    event_sec = EXCLUDED.event_sec,
    x1 = EXCLUDED.x1,
    y1 = EXCLUDED.y1,
    x2 = EXCLUDED.x2,
    y2 = EXCLUDED.y2,
    loaded_at = NOW()`

// UpsertMany writes one batch of events in a single transaction. Each event
// and its tag rows land atomically; a failure anywhere rolls back the whole
// batch so the caller can retry at row granularity.
func (r *EventRepository) UpsertMany(ctx context.Context, events []event.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx upsert events: %w", storageErr(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, ev := range events {
		if err := upsertEventTx(ctx, tx, ev); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert events tx: %w", storageErr(err))
	}

	return len(events), nil
}

// UpsertOne writes a single event and its tags in its own transaction. It is
// the row-granularity retry path after a batch failure.
func (r *EventRepository) UpsertOne(ctx context.Context, ev event.Event) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert event: %w", storageErr(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := upsertEventTx(ctx, tx, ev); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert event tx: %w", storageErr(err))
	}
	return nil
}

// upsertEventTx replaces one event row and its full tag set inside the
// caller's transaction. Tags are deleted and re-inserted so a reload never
// leaves stale tag rows behind.
func upsertEventTx(ctx context.Context, tx *sqlx.Tx, ev event.Event) error {
	insertModel := eventInsertModel{
		ID:           ev.ID,
		MatchID:      ev.MatchID,
		TeamID:       ev.TeamID,
		PlayerID:     nullableInt64(ev.PlayerID),
		EventName:    ev.EventName,
		SubEventName: nullableString(ev.SubEventName),
		MatchPeriod:  ev.MatchPeriod,
		EventSec:     ev.EventSec,
		X1:           ev.X1,
		Y1:           ev.Y1,
		X2:           ev.X2,
		Y2:           ev.Y2,
	}

	query, args, err := qb.InsertModel("events", insertModel, eventUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert event query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert event id=%d: %w", ev.ID, storageErr(err))
	}

	query, args, err = qb.Delete("tags").Where(qb.Eq("event_id", ev.ID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete event tags query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete tags event_id=%d: %w", ev.ID, storageErr(err))
	}

	for _, tag := range ev.Tags {
		query, args, err := qb.InsertModel("tags", tagInsertModel{
			EventID: ev.ID,
			TagID:   tag.ID,
			Label:   tag.Label,
		}, "")
		if err != nil {
			return fmt.Errorf("build insert tag query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert tag event_id=%d tag_id=%d: %w", ev.ID, tag.ID, storageErr(err))
		}
	}

	return nil
}
