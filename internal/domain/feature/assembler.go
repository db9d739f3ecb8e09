package feature

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Columns is the fixed, documented schema of the assembled feature table,
// in output order.
var Columns = []string{
	"event_id",
	"match_id",
	"competition",
	"match_date",
	"team_id",
	"player_id",
	"player_name",
	"match_period",
	"event_sec",
	"x",
	"y",
	"distance_yds",
	"angle_rad",
	"projected_width_yds",
	"body_part",
	"preferred_foot",
	"foot_match",
	"score_for",
	"score_against",
	"score_diff",
	"game_state",
	"goal",
}

// IntegrityError reports a feature row rejected from the assembled table
// because a mandatory column has no usable value.
type IntegrityError struct {
	EventID int64
	Column  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("feature row event_id=%d: mandatory column %q has no value", e.EventID, e.Column)
}

// MissingColumn returns the first mandatory column without a usable value.
// Mandatory columns are event_id, match_id, player_id, x, y, distance_yds,
// angle_rad, body_part, game_state and goal; the label is a bool and can
// never be absent.
func (r Row) MissingColumn() (string, bool) {
	switch {
	case r.EventID <= 0:
		return "event_id", true
	case r.MatchID <= 0:
		return "match_id", true
	case r.PlayerID <= 0:
		return "player_id", true
	case !finite(r.X):
		return "x", true
	case !finite(r.Y):
		return "y", true
	case !finite(r.DistanceYds):
		return "distance_yds", true
	case !finite(r.AngleRad):
		return "angle_rad", true
	case r.BodyPart != BodyPartFoot && r.BodyPart != BodyPartHead && r.BodyPart != BodyPartOther:
		return "body_part", true
	case r.GameState != GameStateLeading && r.GameState != GameStateLevel && r.GameState != GameStateTrailing:
		return "game_state", true
	default:
		return "", false
	}
}

func (r Row) Validate() error {
	if column, missing := r.MissingColumn(); missing {
		return &IntegrityError{EventID: r.EventID, Column: column}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Assemble orders the rows by the named column (event_id when empty) and
// validates mandatory columns. Invalid rows are rejected and reported, never
// silently dropped. Ties always break on event id, so the output is
// deterministic for a deterministic input set.
func Assemble(rows []Row, sortColumn string) ([]Row, []IntegrityError, error) {
	less, err := lessFor(sortColumn)
	if err != nil {
		return nil, nil, err
	}

	kept := make([]Row, 0, len(rows))
	var rejected []IntegrityError
	for _, r := range rows {
		if column, missing := r.MissingColumn(); missing {
			rejected = append(rejected, IntegrityError{EventID: r.EventID, Column: column})
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool { return less(kept[i], kept[j]) })
	return kept, rejected, nil
}

// WriteCSV encodes the rows with the fixed column order. Floats use the
// shortest round-trip representation so repeated runs over unchanged data
// produce identical bytes.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write feature table header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(rows[i].record()); err != nil {
			return fmt.Errorf("write feature row event_id=%d: %w", rows[i].EventID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush feature table: %w", err)
	}
	return nil
}

func (r Row) record() []string {
	matchDate := ""
	if r.MatchDate != nil {
		matchDate = r.MatchDate.UTC().Format(time.RFC3339)
	}
	return []string{
		strconv.FormatInt(r.EventID, 10),
		strconv.FormatInt(r.MatchID, 10),
		r.Competition,
		matchDate,
		strconv.FormatInt(r.TeamID, 10),
		strconv.FormatInt(r.PlayerID, 10),
		r.PlayerName,
		r.MatchPeriod,
		formatFloat(r.EventSec),
		formatFloat(r.X),
		formatFloat(r.Y),
		formatFloat(r.DistanceYds),
		formatFloat(r.AngleRad),
		formatFloat(r.ProjectedWidthYds),
		r.BodyPart,
		r.PreferredFoot,
		strconv.FormatBool(r.FootMatch),
		strconv.Itoa(r.ScoreFor),
		strconv.Itoa(r.ScoreAgainst),
		strconv.Itoa(r.ScoreDiff),
		r.GameState,
		strconv.FormatBool(r.Goal),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func lessFor(column string) (func(a, b Row) bool, error) {
	cmp, err := compareFor(column)
	if err != nil {
		return nil, err
	}
	return func(a, b Row) bool {
		if c := cmp(a, b); c != 0 {
			return c < 0
		}
		return a.EventID < b.EventID
	}, nil
}

func compareFor(column string) (func(a, b Row) int, error) {
	switch column {
	case "", "event_id":
		return func(a, b Row) int { return compareInt64(a.EventID, b.EventID) }, nil
	case "match_id":
		return func(a, b Row) int { return compareInt64(a.MatchID, b.MatchID) }, nil
	case "competition":
		return func(a, b Row) int { return strings.Compare(a.Competition, b.Competition) }, nil
	case "match_date":
		return func(a, b Row) int { return compareTimePtr(a.MatchDate, b.MatchDate) }, nil
	case "team_id":
		return func(a, b Row) int { return compareInt64(a.TeamID, b.TeamID) }, nil
	case "player_id":
		return func(a, b Row) int { return compareInt64(a.PlayerID, b.PlayerID) }, nil
	case "player_name":
		return func(a, b Row) int { return strings.Compare(a.PlayerName, b.PlayerName) }, nil
	case "match_period":
		return func(a, b Row) int { return strings.Compare(a.MatchPeriod, b.MatchPeriod) }, nil
	case "event_sec":
		return func(a, b Row) int { return compareFloat(a.EventSec, b.EventSec) }, nil
	case "x":
		return func(a, b Row) int { return compareFloat(a.X, b.X) }, nil
	case "y":
		return func(a, b Row) int { return compareFloat(a.Y, b.Y) }, nil
	case "distance_yds":
		return func(a, b Row) int { return compareFloat(a.DistanceYds, b.DistanceYds) }, nil
	case "angle_rad":
		return func(a, b Row) int { return compareFloat(a.AngleRad, b.AngleRad) }, nil
	case "projected_width_yds":
		return func(a, b Row) int { return compareFloat(a.ProjectedWidthYds, b.ProjectedWidthYds) }, nil
	case "body_part":
		return func(a, b Row) int { return strings.Compare(a.BodyPart, b.BodyPart) }, nil
	case "preferred_foot":
		return func(a, b Row) int { return strings.Compare(a.PreferredFoot, b.PreferredFoot) }, nil
	case "foot_match":
		return func(a, b Row) int { return compareBool(a.FootMatch, b.FootMatch) }, nil
	case "score_for":
		return func(a, b Row) int { return compareInt(a.ScoreFor, b.ScoreFor) }, nil
	case "score_against":
		return func(a, b Row) int { return compareInt(a.ScoreAgainst, b.ScoreAgainst) }, nil
	case "score_diff":
		return func(a, b Row) int { return compareInt(a.ScoreDiff, b.ScoreDiff) }, nil
	case "game_state":
		return func(a, b Row) int { return strings.Compare(a.GameState, b.GameState) }, nil
	case "goal":
		return func(a, b Row) int { return compareBool(a.Goal, b.Goal) }, nil
	default:
		return nil, fmt.Errorf("unknown sort column %q", column)
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt(a, b int) int {
	return compareInt64(int64(a), int64(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case !a && b:
		return -1
	case a && !b:
		return 1
	default:
		return 0
	}
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	default:
		return 0
	}
}
