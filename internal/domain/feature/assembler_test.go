package feature

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func validRow(eventID int64) Row {
	return Row{
		EventID:           eventID,
		MatchID:           1,
		Competition:       "England",
		TeamID:            3,
		PlayerID:          4,
		PlayerName:        "R. Firmino",
		MatchPeriod:       "1H",
		EventSec:          93.5,
		X:                 85,
		Y:                 42,
		DistanceYds:       19.1,
		AngleRad:          0.5,
		ProjectedWidthYds: 6.5,
		BodyPart:          BodyPartFoot,
		PreferredFoot:     "right",
		FootMatch:         true,
		GameState:         GameStateLevel,
	}
}

func TestAssemble(t *testing.T) {
	t.Parallel()

	rows := []Row{validRow(3), validRow(1), validRow(2)}
	broken := validRow(9)
	broken.PlayerID = 0
	rows = append(rows, broken)

	kept, rejected, err := Assemble(rows, "")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(kept) != 3 {
		t.Fatalf("unexpected kept count: got=%d want=3", len(kept))
	}
	for i, want := range []int64{1, 2, 3} {
		if kept[i].EventID != want {
			t.Fatalf("unexpected order at %d: got=%d want=%d", i, kept[i].EventID, want)
		}
	}

	if len(rejected) != 1 {
		t.Fatalf("unexpected rejection count: got=%d want=1", len(rejected))
	}
	if rejected[0].EventID != 9 || rejected[0].Column != "player_id" {
		t.Fatalf("unexpected rejection: %+v", rejected[0])
	}
}

func TestAssemble_SortColumnWithTiebreak(t *testing.T) {
	t.Parallel()

	near := validRow(5)
	near.DistanceYds = 8
	farA := validRow(7)
	farA.DistanceYds = 20
	farB := validRow(6)
	farB.DistanceYds = 20

	kept, _, err := Assemble([]Row{farA, near, farB}, "distance_yds")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	got := []int64{kept[0].EventID, kept[1].EventID, kept[2].EventID}
	want := []int64{5, 6, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got=%v want=%v", got, want)
		}
	}
}

func TestAssemble_NilDatesSortFirst(t *testing.T) {
	t.Parallel()

	dated := validRow(1)
	ts := time.Date(2018, 5, 13, 14, 0, 0, 0, time.UTC)
	dated.MatchDate = &ts
	undated := validRow(2)

	kept, _, err := Assemble([]Row{dated, undated}, "match_date")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if kept[0].EventID != 2 || kept[1].EventID != 1 {
		t.Fatalf("unexpected order: got=[%d %d] want=[2 1]", kept[0].EventID, kept[1].EventID)
	}
}

func TestAssemble_UnknownSortColumn(t *testing.T) {
	t.Parallel()

	_, _, err := Assemble([]Row{validRow(1)}, "xg")
	if err == nil {
		t.Fatalf("expected error for unknown sort column")
	}
	if !strings.Contains(err.Error(), "xg") {
		t.Fatalf("error should name the column: %v", err)
	}
}

func TestRowMissingColumn(t *testing.T) {
	t.Parallel()

	if column, missing := validRow(1).MissingColumn(); missing {
		t.Fatalf("valid row flagged as missing %q", column)
	}

	cases := []struct {
		name   string
		mutate func(*Row)
		want   string
	}{
		{name: "no event id", mutate: func(r *Row) { r.EventID = 0 }, want: "event_id"},
		{name: "no match id", mutate: func(r *Row) { r.MatchID = 0 }, want: "match_id"},
		{name: "no player id", mutate: func(r *Row) { r.PlayerID = 0 }, want: "player_id"},
		{name: "nan distance", mutate: func(r *Row) { r.DistanceYds = math.NaN() }, want: "distance_yds"},
		{name: "infinite angle", mutate: func(r *Row) { r.AngleRad = math.Inf(1) }, want: "angle_rad"},
		{name: "bad body part", mutate: func(r *Row) { r.BodyPart = "knee" }, want: "body_part"},
		{name: "bad game state", mutate: func(r *Row) { r.GameState = "" }, want: "game_state"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := validRow(1)
			tc.mutate(&row)
			column, missing := row.MissingColumn()
			if !missing || column != tc.want {
				t.Fatalf("missing column: got=(%q, %t) want=(%q, true)", column, missing, tc.want)
			}
			if err := row.Validate(); err == nil {
				t.Fatalf("validate must fail for %s", tc.name)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	ts := time.Date(2018, 5, 13, 14, 0, 0, 0, time.UTC)
	row := Row{
		EventID:           1,
		MatchID:           2,
		Competition:       "England",
		MatchDate:         &ts,
		TeamID:            3,
		PlayerID:          4,
		PlayerName:        "R. Firmino",
		MatchPeriod:       "1H",
		EventSec:          93.5,
		X:                 85,
		Y:                 42,
		DistanceYds:       12,
		AngleRad:          0.5,
		ProjectedWidthYds: 6.5,
		BodyPart:          BodyPartFoot,
		PreferredFoot:     "right",
		FootMatch:         true,
		ScoreFor:          1,
		ScoreAgainst:      0,
		ScoreDiff:         1,
		GameState:         GameStateLeading,
		Goal:              true,
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []Row{row}); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	want := strings.Join(Columns, ",") + "\n" +
		"1,2,England,2018-05-13T14:00:00Z,3,4,R. Firmino,1H,93.5,85,42,12,0.5,6.5,foot,right,true,1,0,1,leading,true\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected csv:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestWriteCSV_Deterministic(t *testing.T) {
	t.Parallel()

	rows := []Row{validRow(1), validRow(2)}

	var first, second bytes.Buffer
	if err := WriteCSV(&first, rows); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteCSV(&second, rows); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatalf("repeated writes differ")
	}
}

func TestWriteCSV_HeaderOnlyForNoRows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if got, want := buf.String(), strings.Join(Columns, ",")+"\n"; got != want {
		t.Fatalf("unexpected csv for empty table:\ngot:  %q\nwant: %q", got, want)
	}
}
