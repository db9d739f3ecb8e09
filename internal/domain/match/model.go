package match

import (
	"fmt"
	"strings"
	"time"
)

const (
	StatusPlayed = "Played"
	StatusStub   = "Stub"
)

// Match represents one played game of a competition.
type Match struct {
	WyID         int64
	Competition  string
	SeasonID     int64
	Gameweek     int
	DateUTC      *time.Time
	Label        string
	Venue        string
	Status       string
	WinnerTeamID int64
	HomeTeamID   int64
	AwayTeamID   int64
	HomeScore    int
	AwayScore    int
	Duration     string
}

// Stub builds a minimal placeholder row for a match that only appears in the
// event stream. It satisfies referential integrity until real match data for
// the competition is loaded.
func Stub(wyID int64, competition string) Match {
	return Match{
		WyID:        wyID,
		Competition: competition,
		Status:      StatusStub,
	}
}

func (m Match) IsStub() bool {
	return m.Status == StatusStub
}

func (m Match) Validate() error {
	if m.WyID <= 0 {
		return fmt.Errorf("match id must be > 0")
	}
	if strings.TrimSpace(m.Competition) == "" {
		return fmt.Errorf("match competition is required")
	}
	return nil
}
