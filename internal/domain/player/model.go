package player

import (
	"fmt"
	"strings"
	"time"
)

const (
	FootLeft    = "left"
	FootRight   = "right"
	FootBoth    = "both"
	FootUnknown = "unknown"
)

// Player is one row of the players dataset, keyed by the provider id.
type Player struct {
	WyID          int64
	ShortName     string
	FirstName     string
	LastName      string
	Foot          string
	RoleCode      string
	RoleName      string
	BirthDate     *time.Time
	HeightCM      int
	WeightKG      int
	CurrentTeamID int64
}

// NormalizeFoot maps free-form provider values onto the fixed foot set.
func NormalizeFoot(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case FootLeft, "l":
		return FootLeft
	case FootRight, "r":
		return FootRight
	case FootBoth:
		return FootBoth
	default:
		return FootUnknown
	}
}

// MatchesFoot reports whether a shot taken with the given foot ("left" or
// "right") agrees with the player's preferred foot. A two-footed player
// matches either side; an unknown preference matches neither.
func MatchesFoot(preferred, used string) bool {
	preferred = NormalizeFoot(preferred)
	used = NormalizeFoot(used)
	if used != FootLeft && used != FootRight {
		return false
	}
	return preferred == used || preferred == FootBoth
}

func (p Player) Validate() error {
	if p.WyID <= 0 {
		return fmt.Errorf("player id must be > 0")
	}
	if strings.TrimSpace(p.ShortName) == "" {
		return fmt.Errorf("player short name is required")
	}
	switch p.Foot {
	case FootLeft, FootRight, FootBoth, FootUnknown:
	default:
		return fmt.Errorf("invalid foot %q", p.Foot)
	}
	return nil
}
