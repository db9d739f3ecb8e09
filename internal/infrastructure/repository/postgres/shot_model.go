package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type shotRow struct {
	EventID       int64         `db:"event_id"`
	MatchID       int64         `db:"match_id"`
	Competition   string        `db:"competition"`
	MatchDate     *time.Time    `db:"match_date"`
	TeamID        int64         `db:"team_id"`
	PlayerID      sql.NullInt64 `db:"player_id"`
	PlayerName    string        `db:"player_name"`
	PreferredFoot string        `db:"preferred_foot"`
	MatchPeriod   string        `db:"match_period"`
	EventSec      float64       `db:"event_sec"`
	X             float64       `db:"x"`
	Y             float64       `db:"y"`
	TagIDs        pq.Int64Array `db:"tag_ids"`
}

type scoringEventRow struct {
	EventID     int64   `db:"event_id"`
	MatchID     int64   `db:"match_id"`
	TeamID      int64   `db:"team_id"`
	MatchPeriod string  `db:"match_period"`
	EventSec    float64 `db:"event_sec"`
	OwnGoal     bool    `db:"own_goal"`
}
