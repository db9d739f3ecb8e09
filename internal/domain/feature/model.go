package feature

import (
	"time"

	"github.com/kvistad/shotpipe/internal/domain/event"
	"github.com/kvistad/shotpipe/internal/domain/player"
)

const (
	BodyPartFoot  = "foot"
	BodyPartHead  = "head"
	BodyPartOther = "other"
)

const (
	GameStateLeading  = "leading"
	GameStateLevel    = "level"
	GameStateTrailing = "trailing"
)

// Shot is the read model the extractor consumes: one shot event joined with
// its player and match context plus the event's tag ids.
type Shot struct {
	EventID       int64
	MatchID       int64
	Competition   string
	MatchDate     *time.Time
	TeamID        int64
	PlayerID      int64
	PlayerName    string
	PreferredFoot string
	MatchPeriod   string
	EventSec      float64
	X             float64
	Y             float64
	TagIDs        []int
}

func (s Shot) HasTag(tagID int) bool {
	for _, id := range s.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// ScoringEvent is one goal-carrying event, used to reconstruct the score line
// of a match at any point in time.
type ScoringEvent struct {
	EventID     int64
	MatchID     int64
	TeamID      int64
	MatchPeriod string
	EventSec    float64
	OwnGoal     bool
}

// Before reports whether the scoring event happened strictly before a moment
// within the same match, ordered by (period, event_sec, event id).
func (g ScoringEvent) Before(period string, eventSec float64, eventID int64) bool {
	if r1, r2 := event.PeriodRank(g.MatchPeriod), event.PeriodRank(period); r1 != r2 {
		return r1 < r2
	}
	if g.EventSec != eventSec {
		return g.EventSec < eventSec
	}
	return g.EventID < eventID
}

// Row is one derived, model-ready feature row for a shot event. It is never
// authoritative state and can be recomputed from the store at any time.
type Row struct {
	EventID           int64
	MatchID           int64
	Competition       string
	MatchDate         *time.Time
	TeamID            int64
	PlayerID          int64
	PlayerName        string
	MatchPeriod       string
	EventSec          float64
	X                 float64
	Y                 float64
	DistanceYds       float64
	AngleRad          float64
	ProjectedWidthYds float64
	BodyPart          string
	PreferredFoot     string
	FootMatch         bool
	ScoreFor          int
	ScoreAgainst      int
	ScoreDiff         int
	GameState         string
	Goal              bool
}

// BodyPartOf categorizes a shot by its body-part tags. Foot tags take
// precedence over the head/body tag when the source carries both.
func BodyPartOf(tagIDs []int) string {
	var foot, head bool
	for _, id := range tagIDs {
		switch id {
		case event.TagLeftFoot, event.TagRightFoot:
			foot = true
		case event.TagHeadBody:
			head = true
		}
	}
	switch {
	case foot:
		return BodyPartFoot
	case head:
		return BodyPartHead
	default:
		return BodyPartOther
	}
}

// FootMatches reports whether a foot shot was taken with the player's
// preferred foot. Head and other shots never match.
func FootMatches(preferredFoot string, tagIDs []int) bool {
	for _, id := range tagIDs {
		switch id {
		case event.TagLeftFoot:
			if player.MatchesFoot(preferredFoot, player.FootLeft) {
				return true
			}
		case event.TagRightFoot:
			if player.MatchesFoot(preferredFoot, player.FootRight) {
				return true
			}
		}
	}
	return false
}
