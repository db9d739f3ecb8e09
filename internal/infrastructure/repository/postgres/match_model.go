package postgres

import "time"

type matchInsertModel struct {
	WyID         int64      `db:"wy_id"`
	Competition  string     `db:"competition"`
	SeasonID     *int64     `db:"season_id"`
	Gameweek     *int       `db:"gameweek"`
	DateUTC      *time.Time `db:"date_utc"`
	Label        *string    `db:"label"`
	Venue        *string    `db:"venue"`
	Status       *string    `db:"status"`
	WinnerTeamID *int64     `db:"winner_team_id"`
	HomeTeamID   *int64     `db:"home_team_id"`
	AwayTeamID   *int64     `db:"away_team_id"`
	HomeScore    int        `db:"home_score"`
	AwayScore    int        `db:"away_score"`
	Duration     *string    `db:"duration"`
}

// matchStubInsertModel writes only the identifying columns; everything else
// stays NULL until real match data for the competition arrives.
type matchStubInsertModel struct {
	WyID        int64  `db:"wy_id"`
	Competition string `db:"competition"`
	Status      string `db:"status"`
}
