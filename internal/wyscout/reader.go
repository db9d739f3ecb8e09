package wyscout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/kvistad/shotpipe/internal/domain/event"
	"github.com/kvistad/shotpipe/internal/domain/match"
	"github.com/kvistad/shotpipe/internal/domain/player"
)

// PlayersFile is the single cross-competition player dataset.
const PlayersFile = "players.json"

func EventsFile(league string) string {
	return fmt.Sprintf("events_%s.json", league)
}

func MatchesFile(league string) string {
	return fmt.Sprintf("matches_%s.json", league)
}

// Reader parses the public soccer-event dataset files under one directory
// into domain records. Malformed documents are skipped and reported as
// ParseErrors; only file-level problems (unreadable file, file not a JSON
// array) surface as errors.
type Reader struct {
	dir      string
	validate *validator.Validate
}

func NewReader(dir string) *Reader {
	return &Reader{dir: dir, validate: newValidator()}
}

// Players parses players.json.
func (r *Reader) Players() ([]player.Player, []ParseError, error) {
	file := PlayersFile
	docs, err := r.readDocuments(file)
	if err != nil {
		return nil, nil, err
	}

	players := make([]player.Player, 0, len(docs))
	var skipped []ParseError
	for i, raw := range docs {
		p, perr := r.playerFromRaw(file, i, raw)
		if perr != nil {
			skipped = append(skipped, *perr)
			continue
		}
		players = append(players, p)
	}
	return players, skipped, nil
}

// Matches parses matches_{league}.json, stamping every row with the league
// as its competition. A missing file surfaces as an fs.ErrNotExist error the
// caller may treat as "no match data for this competition".
func (r *Reader) Matches(league string) ([]match.Match, []ParseError, error) {
	file := MatchesFile(league)
	docs, err := r.readDocuments(file)
	if err != nil {
		return nil, nil, err
	}

	matches := make([]match.Match, 0, len(docs))
	var skipped []ParseError
	for i, raw := range docs {
		m, perr := r.matchFromRaw(file, i, raw, league)
		if perr != nil {
			skipped = append(skipped, *perr)
			continue
		}
		matches = append(matches, m)
	}
	return matches, skipped, nil
}

// Events parses events_{league}.json.
func (r *Reader) Events(league string) ([]event.Event, []ParseError, error) {
	file := EventsFile(league)
	docs, err := r.readDocuments(file)
	if err != nil {
		return nil, nil, err
	}

	events := make([]event.Event, 0, len(docs))
	var skipped []ParseError
	for i, raw := range docs {
		ev, perr := r.eventFromRaw(file, i, raw)
		if perr != nil {
			skipped = append(skipped, *perr)
			continue
		}
		events = append(events, ev)
	}
	return events, skipped, nil
}

// readDocuments reads a dataset file and splits the top-level JSON array
// into raw documents, so one malformed document cannot poison its
// neighbours.
func (r *Reader) readDocuments(file string) ([]json.RawMessage, error) {
	path := filepath.Join(r.dir, file)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file %s: %w", path, err)
	}

	var docs []json.RawMessage
	if err := sonic.Unmarshal(raw, &docs); err != nil {
		return nil, &ParseError{File: file, Index: -1, Reason: fmt.Sprintf("not a JSON array: %v", err)}
	}
	return docs, nil
}

func (r *Reader) eventFromRaw(file string, index int, raw json.RawMessage) (event.Event, *ParseError) {
	var doc EventDocument
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return event.Event{}, &ParseError{File: file, Index: index, Reason: fmt.Sprintf("invalid document: %v", err)}
	}
	if doc.ID <= 0 {
		return event.Event{}, &ParseError{File: file, Index: index, Field: "event_id", Reason: "missing event identifier"}
	}
	if doc.MatchID <= 0 {
		return event.Event{}, &ParseError{File: file, Index: index, Field: "match_id", Reason: "missing match identifier"}
	}
	if err := r.validate.Struct(doc); err != nil {
		field, reason := validationDetail(err)
		return event.Event{}, &ParseError{File: file, Index: index, Field: field, Reason: reason}
	}
	return normalizeEvent(doc), nil
}

func (r *Reader) matchFromRaw(file string, index int, raw json.RawMessage, league string) (match.Match, *ParseError) {
	var doc MatchDocument
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return match.Match{}, &ParseError{File: file, Index: index, Reason: fmt.Sprintf("invalid document: %v", err)}
	}
	if doc.WyID <= 0 {
		return match.Match{}, &ParseError{File: file, Index: index, Field: "wy_id", Reason: "missing match identifier"}
	}
	if err := r.validate.Struct(doc); err != nil {
		field, reason := validationDetail(err)
		return match.Match{}, &ParseError{File: file, Index: index, Field: field, Reason: reason}
	}
	return normalizeMatch(doc, league), nil
}

func (r *Reader) playerFromRaw(file string, index int, raw json.RawMessage) (player.Player, *ParseError) {
	var doc PlayerDocument
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return player.Player{}, &ParseError{File: file, Index: index, Reason: fmt.Sprintf("invalid document: %v", err)}
	}
	if doc.WyID <= 0 {
		return player.Player{}, &ParseError{File: file, Index: index, Field: "wy_id", Reason: "missing player identifier"}
	}
	if err := r.validate.Struct(doc); err != nil {
		field, reason := validationDetail(err)
		return player.Player{}, &ParseError{File: file, Index: index, Field: field, Reason: reason}
	}
	return normalizePlayer(doc), nil
}
