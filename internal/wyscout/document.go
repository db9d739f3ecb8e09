package wyscout

// EventDocument is one record of an events_{League}.json file. Coordinates
// are percent of pitch length/width in the acting team's attacking
// direction.
type EventDocument struct {
	ID           int64         `json:"id" validate:"required,gt=0"`
	MatchID      int64         `json:"matchId" validate:"required,gt=0"`
	TeamID       int64         `json:"teamId" validate:"required,gt=0"`
	PlayerID     int64         `json:"playerId" validate:"gte=0"` // 0 means no player recorded
	EventName    string        `json:"eventName" validate:"required"`
	SubEventName string        `json:"subEventName"`
	MatchPeriod  string        `json:"matchPeriod" validate:"required,oneof=1H 2H E1 E2 P"`
	EventSec     float64       `json:"eventSec" validate:"gte=0"`
	Positions    []PositionRef `json:"positions" validate:"required,min=1,dive"`
	Tags         []TagRef      `json:"tags"`
}

type PositionRef struct {
	X float64 `json:"x" validate:"gte=0,lte=100"`
	Y float64 `json:"y" validate:"gte=0,lte=100"`
}

type TagRef struct {
	ID int `json:"id"`
}

// MatchDocument is one record of a matches_{League}.json file. The teamsData
// object is keyed by team id rendered as a string.
type MatchDocument struct {
	WyID      int64                   `json:"wyId" validate:"required,gt=0"`
	SeasonID  int64                   `json:"seasonId"`
	Gameweek  int                     `json:"gameweek"`
	DateUTC   string                  `json:"dateutc"` // "2018-05-13 14:00:00", UTC
	Label     string                  `json:"label"`
	Venue     string                  `json:"venue"`
	Status    string                  `json:"status"`
	Winner    int64                   `json:"winner"` // 0 on a draw
	Duration  string                  `json:"duration"`
	TeamsData map[string]TeamSideData `json:"teamsData"`
}

type TeamSideData struct {
	TeamID int64  `json:"teamId"`
	Side   string `json:"side"` // "home" or "away"
	Score  int    `json:"score"`
}

// PlayerDocument is one record of players.json.
type PlayerDocument struct {
	WyID          int64      `json:"wyId" validate:"required,gt=0"`
	ShortName     string     `json:"shortName" validate:"required"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Foot          string     `json:"foot"`
	Role          PlayerRole `json:"role"`
	BirthDate     string     `json:"birthDate"` // "1989-06-17"
	Height        int        `json:"height"`
	Weight        int        `json:"weight"`
	CurrentTeamID int64      `json:"currentTeamId"`
}

type PlayerRole struct {
	Code string `json:"code2"`
	Name string `json:"name"`
}
