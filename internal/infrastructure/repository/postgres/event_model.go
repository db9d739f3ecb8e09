package postgres

type eventInsertModel struct {
	ID           int64    `db:"id"`
	MatchID      int64    `db:"match_id"`
	TeamID       int64    `db:"team_id"`
	PlayerID     *int64   `db:"player_id"`
	EventName    string   `db:"event_name"`
	SubEventName *string  `db:"sub_event_name"`
	MatchPeriod  string   `db:"match_period"`
	EventSec     float64  `db:"event_sec"`
	X1           float64  `db:"x1"`
	Y1           float64  `db:"y1"`
	X2           *float64 `db:"x2"`
	Y2           *float64 `db:"y2"`
}

type tagInsertModel struct {
	EventID int64  `db:"event_id"`
	TagID   int    `db:"tag_id"`
	Label   string `db:"label"`
}
