package event

import (
	"fmt"
	"strings"
)

const (
	NameShot        = "Shot"
	NameFreeKick    = "Free Kick"
	NamePass        = "Pass"
	NameDuel        = "Duel"
	NameSaveAttempt = "Save attempt"
)

const (
	PeriodFirstHalf   = "1H"
	PeriodSecondHalf  = "2H"
	PeriodFirstExtra  = "E1"
	PeriodSecondExtra = "E2"
	PeriodPenalties   = "P"
)

// Event is a single recorded action within a match. Coordinates are percent
// of pitch length (x) and width (y) in the attacking direction, so (100, 50)
// is always the center of the goal the acting team attacks.
type Event struct {
	ID           int64
	MatchID      int64
	TeamID       int64
	PlayerID     int64 // 0 means the source recorded no player
	EventName    string
	SubEventName string
	MatchPeriod  string
	EventSec     float64
	X1           float64
	Y1           float64
	X2           *float64
	Y2           *float64
	Tags         []Tag
}

func (e Event) HasPlayer() bool {
	return e.PlayerID > 0
}

func (e Event) HasTag(tagID int) bool {
	for _, t := range e.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// ValidPeriod reports whether the value is one of the five period codes the
// source dataset uses.
func ValidPeriod(period string) bool {
	switch period {
	case PeriodFirstHalf, PeriodSecondHalf, PeriodFirstExtra, PeriodSecondExtra, PeriodPenalties:
		return true
	default:
		return false
	}
}

// PeriodRank orders period codes chronologically. Unknown periods sort last.
func PeriodRank(period string) int {
	switch period {
	case PeriodFirstHalf:
		return 0
	case PeriodSecondHalf:
		return 1
	case PeriodFirstExtra:
		return 2
	case PeriodSecondExtra:
		return 3
	case PeriodPenalties:
		return 4
	default:
		return 5
	}
}

// Before reports whether e happened strictly before other within the same
// match, ordering by (period, event_sec, id). The id tiebreak keeps ordering
// total for events recorded at the same clock instant.
func (e Event) Before(other Event) bool {
	if r1, r2 := PeriodRank(e.MatchPeriod), PeriodRank(other.MatchPeriod); r1 != r2 {
		return r1 < r2
	}
	if e.EventSec != other.EventSec {
		return e.EventSec < other.EventSec
	}
	return e.ID < other.ID
}

func (e Event) Validate() error {
	if e.ID <= 0 {
		return fmt.Errorf("event id must be > 0")
	}
	if e.MatchID <= 0 {
		return fmt.Errorf("event match id must be > 0")
	}
	if strings.TrimSpace(e.EventName) == "" {
		return fmt.Errorf("event name is required")
	}
	if !ValidPeriod(e.MatchPeriod) {
		return fmt.Errorf("invalid match period %q", e.MatchPeriod)
	}
	if e.EventSec < 0 {
		return fmt.Errorf("event second must be >= 0")
	}
	if err := validCoordinate("x", e.X1); err != nil {
		return err
	}
	if err := validCoordinate("y", e.Y1); err != nil {
		return err
	}
	if e.X2 != nil {
		if err := validCoordinate("x2", *e.X2); err != nil {
			return err
		}
	}
	if e.Y2 != nil {
		if err := validCoordinate("y2", *e.Y2); err != nil {
			return err
		}
	}
	return nil
}

func validCoordinate(name string, value float64) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("coordinate %s=%v outside [0, 100]", name, value)
	}
	return nil
}
