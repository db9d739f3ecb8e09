package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/kvistad/shotpipe/internal/domain/event"
	"github.com/kvistad/shotpipe/internal/domain/match"
	"github.com/kvistad/shotpipe/internal/domain/player"
	"github.com/kvistad/shotpipe/internal/platform/logging"
	"github.com/kvistad/shotpipe/internal/wyscout"
)

type fakeReader struct {
	players    []player.Player
	playerErrs []wyscout.ParseError
	playersErr error
	matches    map[string][]match.Match
	matchErrs  map[string][]wyscout.ParseError
	matchesErr map[string]error
	events     map[string][]event.Event
	eventErrs  map[string][]wyscout.ParseError
	eventsErr  map[string]error
}

func (f *fakeReader) Players() ([]player.Player, []wyscout.ParseError, error) {
	return f.players, f.playerErrs, f.playersErr
}

func (f *fakeReader) Matches(league string) ([]match.Match, []wyscout.ParseError, error) {
	if err, ok := f.matchesErr[league]; ok {
		return nil, nil, err
	}
	return f.matches[league], f.matchErrs[league], nil
}

func (f *fakeReader) Events(league string) ([]event.Event, []wyscout.ParseError, error) {
	if err, ok := f.eventsErr[league]; ok {
		return nil, nil, err
	}
	return f.events[league], f.eventErrs[league], nil
}

type memPlayerRepo struct {
	mu   sync.Mutex
	rows map[int64]player.Player
}

func newMemPlayerRepo() *memPlayerRepo {
	return &memPlayerRepo{rows: make(map[int64]player.Player)}
}

func (r *memPlayerRepo) UpsertMany(_ context.Context, players []player.Player) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range players {
		r.rows[p.WyID] = p
	}
	return len(players), nil
}

func (r *memPlayerRepo) ListIDs(context.Context) (map[int64]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[int64]struct{}, len(r.rows))
	for id := range r.rows {
		ids[id] = struct{}{}
	}
	return ids, nil
}

type memMatchRepo struct {
	mu   sync.Mutex
	rows map[int64]match.Match
}

func newMemMatchRepo() *memMatchRepo {
	return &memMatchRepo{rows: make(map[int64]match.Match)}
}

func (r *memMatchRepo) UpsertMany(_ context.Context, matches []match.Match) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		r.rows[m.WyID] = m
	}
	return len(matches), nil
}

func (r *memMatchRepo) InsertStubs(_ context.Context, stubs []match.Match) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted := 0
	for _, m := range stubs {
		if _, exists := r.rows[m.WyID]; exists {
			continue
		}
		r.rows[m.WyID] = m
		inserted++
	}
	return inserted, nil
}

func (r *memMatchRepo) ListIDs(context.Context) (map[int64]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[int64]struct{}, len(r.rows))
	for id := range r.rows {
		ids[id] = struct{}{}
	}
	return ids, nil
}

type memEventRepo struct {
	mu     sync.Mutex
	rows   map[int64]event.Event
	poison map[int64]error
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{rows: make(map[int64]event.Event), poison: make(map[int64]error)}
}

func (r *memEventRepo) UpsertMany(_ context.Context, events []event.Event) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// A poisoned row fails the whole batch, like an aborted transaction.
	for _, ev := range events {
		if err, ok := r.poison[ev.ID]; ok {
			return 0, err
		}
	}
	for _, ev := range events {
		r.rows[ev.ID] = ev
	}
	return len(events), nil
}

func (r *memEventRepo) UpsertOne(_ context.Context, ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.poison[ev.ID]; ok {
		return err
	}
	r.rows[ev.ID] = ev
	return nil
}

func testEvent(id, matchID, playerID int64) event.Event {
	return event.Event{
		ID:          id,
		MatchID:     matchID,
		TeamID:      100,
		PlayerID:    playerID,
		EventName:   event.NameShot,
		MatchPeriod: event.PeriodFirstHalf,
		EventSec:    float64(id),
		X1:          85,
		Y1:          42,
	}
}

func testMatch(wyID int64, competition string) match.Match {
	return match.Match{WyID: wyID, Competition: competition, Status: match.StatusPlayed}
}

func testLoadFixture() (*fakeReader, *memPlayerRepo, *memMatchRepo, *memEventRepo) {
	reader := &fakeReader{
		players: []player.Player{
			{WyID: 7, ShortName: "L. Messi", Foot: player.FootLeft},
			{WyID: 8, ShortName: "C. Ronaldo", Foot: player.FootRight},
		},
		matches: map[string][]match.Match{
			"England": {testMatch(500, "England")},
		},
		events: map[string][]event.Event{
			"England": {
				testEvent(1, 500, 7),
				testEvent(2, 500, 999), // unknown player, rejected per row
				testEvent(3, 600, 8),   // unknown match, stub synthesized
			},
		},
	}
	return reader, newMemPlayerRepo(), newMemMatchRepo(), newMemEventRepo()
}

func TestLoadService_Load(t *testing.T) {
	t.Parallel()

	reader, players, matches, events := testLoadFixture()
	svc := NewLoadService(reader, players, matches, events, logging.NewNop())

	result, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if result.PlayersLoaded != 2 {
		t.Fatalf("players loaded: got=%d want=2", result.PlayersLoaded)
	}
	if result.MatchesLoaded != 1 {
		t.Fatalf("matches loaded: got=%d want=1", result.MatchesLoaded)
	}
	if result.StubMatches != 1 {
		t.Fatalf("stub matches: got=%d want=1", result.StubMatches)
	}
	if result.EventsLoaded != 2 {
		t.Fatalf("events loaded: got=%d want=2", result.EventsLoaded)
	}
	if result.RowErrors != 1 {
		t.Fatalf("row errors: got=%d want=1", result.RowErrors)
	}
	if result.FilesRead != 3 {
		t.Fatalf("files read: got=%d want=3", result.FilesRead)
	}
	if len(result.Leagues) != 1 || result.Leagues[0].Status != loadStatusSuccess {
		t.Fatalf("unexpected league results: %+v", result.Leagues)
	}

	foundUnknownPlayer := false
	for _, detail := range result.ErrorDetails {
		if strings.Contains(detail, "unknown player id=999") {
			foundUnknownPlayer = true
		}
	}
	if !foundUnknownPlayer {
		t.Fatalf("expected unknown player detail, got %v", result.ErrorDetails)
	}

	if _, ok := events.rows[2]; ok {
		t.Fatalf("event with unknown player must not be stored")
	}
	stub, ok := matches.rows[600]
	if !ok || !stub.IsStub() {
		t.Fatalf("expected stub match row for id 600, got %+v", stub)
	}
}

func TestLoadService_Load_Idempotent(t *testing.T) {
	t.Parallel()

	reader, players, matches, events := testLoadFixture()
	svc := NewLoadService(reader, players, matches, events, logging.NewNop())

	if _, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}}); err != nil {
		t.Fatalf("first load: %v", err)
	}
	playersAfterFirst := len(players.rows)
	matchesAfterFirst := len(matches.rows)
	eventsAfterFirst := len(events.rows)

	second, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}})
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	if len(players.rows) != playersAfterFirst || len(matches.rows) != matchesAfterFirst || len(events.rows) != eventsAfterFirst {
		t.Fatalf("reload changed row counts: players=%d matches=%d events=%d",
			len(players.rows), len(matches.rows), len(events.rows))
	}
	if second.StubMatches != 0 {
		t.Fatalf("reload must not re-synthesize stubs: got=%d", second.StubMatches)
	}
	if second.EventsLoaded != 2 {
		t.Fatalf("reload events loaded: got=%d want=2", second.EventsLoaded)
	}
}

func TestLoadService_Load_OrderIndependent(t *testing.T) {
	t.Parallel()

	forward, players, matches, events := testLoadFixture()
	svc := NewLoadService(forward, players, matches, events, logging.NewNop())
	if _, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}}); err != nil {
		t.Fatalf("forward load: %v", err)
	}

	reversed, players2, matches2, events2 := testLoadFixture()
	slices.Reverse(reversed.players)
	slices.Reverse(reversed.matches["England"])
	slices.Reverse(reversed.events["England"])
	svc2 := NewLoadService(reversed, players2, matches2, events2, logging.NewNop())
	if _, err := svc2.Load(context.Background(), LoadInput{Leagues: []string{"England"}}); err != nil {
		t.Fatalf("reversed load: %v", err)
	}

	if !reflect.DeepEqual(players.rows, players2.rows) {
		t.Fatalf("player rows depend on input order:\nforward:  %+v\nreversed: %+v", players.rows, players2.rows)
	}
	if !reflect.DeepEqual(matches.rows, matches2.rows) {
		t.Fatalf("match rows depend on input order:\nforward:  %+v\nreversed: %+v", matches.rows, matches2.rows)
	}
	if !reflect.DeepEqual(events.rows, events2.rows) {
		t.Fatalf("event rows depend on input order:\nforward:  %+v\nreversed: %+v", events.rows, events2.rows)
	}
}

func TestLoadService_Load_RowRetryAfterBatchFailure(t *testing.T) {
	t.Parallel()

	reader, players, matches, events := testLoadFixture()
	events.poison[3] = fmt.Errorf("value too long for competition column")
	svc := NewLoadService(reader, players, matches, events, logging.NewNop())

	result, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Events 1 and 3 share a batch with the poisoned row; the per-row retry
	// recovers event 1 and loses only event 3.
	if result.EventsLoaded != 1 {
		t.Fatalf("events loaded: got=%d want=1", result.EventsLoaded)
	}
	if result.RowErrors != 2 {
		t.Fatalf("row errors: got=%d want=2 (unknown player plus poisoned row)", result.RowErrors)
	}
	if _, ok := events.rows[1]; !ok {
		t.Fatalf("healthy row must survive the batch failure")
	}
	if _, ok := events.rows[3]; ok {
		t.Fatalf("poisoned row must not be stored")
	}

	foundRowDetail := false
	for _, detail := range result.ErrorDetails {
		if strings.Contains(detail, "load events row key=3") {
			foundRowDetail = true
		}
	}
	if !foundRowDetail {
		t.Fatalf("expected row error detail, got %v", result.ErrorDetails)
	}
}

func TestLoadService_Load_DryRun(t *testing.T) {
	t.Parallel()

	reader, players, matches, events := testLoadFixture()
	svc := NewLoadService(reader, players, matches, events, logging.NewNop())

	result, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}, DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}

	if result.PlayersLoaded != 2 || result.MatchesLoaded != 1 || result.EventsLoaded != 2 {
		t.Fatalf("dry run must still report would-be counts: %+v", result)
	}
	if result.StubMatches != 1 {
		t.Fatalf("dry run stub count: got=%d want=1", result.StubMatches)
	}
	if len(players.rows) != 0 || len(matches.rows) != 0 || len(events.rows) != 0 {
		t.Fatalf("dry run must not write: players=%d matches=%d events=%d",
			len(players.rows), len(matches.rows), len(events.rows))
	}
}

func TestLoadService_Load_MissingEventsFile(t *testing.T) {
	t.Parallel()

	reader, players, matches, events := testLoadFixture()
	reader.eventsErr = map[string]error{"England": fmt.Errorf("open events: %w", fs.ErrNotExist)}
	svc := NewLoadService(reader, players, matches, events, logging.NewNop())

	result, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(result.Leagues) != 1 || result.Leagues[0].Status != loadStatusSkipped {
		t.Fatalf("expected skipped league, got %+v", result.Leagues)
	}
	if result.Leagues[0].MatchesLoaded != 1 {
		t.Fatalf("matches still load when events are absent: got=%d", result.Leagues[0].MatchesLoaded)
	}
}

func TestLoadService_Load_MissingMatchesFile(t *testing.T) {
	t.Parallel()

	reader, players, matches, events := testLoadFixture()
	reader.matchesErr = map[string]error{"England": fmt.Errorf("open matches: %w", fs.ErrNotExist)}
	svc := NewLoadService(reader, players, matches, events, logging.NewNop())

	result, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	row := result.Leagues[0]
	if row.Status != loadStatusSuccess {
		t.Fatalf("expected success with synthesized stubs, got %+v", row)
	}
	if row.MatchesLoaded != 0 {
		t.Fatalf("no real matches should load: got=%d", row.MatchesLoaded)
	}
	// Both referenced matches only exist in the event stream now.
	if row.StubMatches != 2 {
		t.Fatalf("stub matches: got=%d want=2", row.StubMatches)
	}
	if row.EventsLoaded != 2 {
		t.Fatalf("events loaded: got=%d want=2", row.EventsLoaded)
	}
}

func TestLoadService_Load_ParseErrorsReported(t *testing.T) {
	t.Parallel()

	reader, players, matches, events := testLoadFixture()
	reader.eventErrs = map[string][]wyscout.ParseError{
		"England": {{File: "events_England.json", Index: 5, Field: "match_id", Reason: "missing match identifier"}},
	}
	svc := NewLoadService(reader, players, matches, events, logging.NewNop())

	result, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result.SkippedDocuments != 1 {
		t.Fatalf("skipped documents: got=%d want=1", result.SkippedDocuments)
	}

	found := false
	for _, detail := range result.ErrorDetails {
		if strings.Contains(detail, "field match_id") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected parse error detail, got %v", result.ErrorDetails)
	}
}

func TestLoadService_Load_ErrorDetailCap(t *testing.T) {
	t.Parallel()

	reader, players, matches, events := testLoadFixture()
	reader.events["England"] = append(reader.events["England"],
		testEvent(4, 500, 998), // second unknown player
	)
	svc := NewLoadService(reader, players, matches, events, logging.NewNop())

	result, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}, MaxErrorDetails: 1})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(result.ErrorDetails) != 1 {
		t.Fatalf("detail cap: got=%d details want=1", len(result.ErrorDetails))
	}
	if result.TruncatedErrors != 1 {
		t.Fatalf("truncated count: got=%d want=1", result.TruncatedErrors)
	}
}

func TestLoadService_Load_MultipleLeaguesSorted(t *testing.T) {
	t.Parallel()

	reader, players, matches, events := testLoadFixture()
	reader.matches["Spain"] = []match.Match{testMatch(700, "Spain")}
	reader.events["Spain"] = []event.Event{testEvent(10, 700, 8)}
	svc := NewLoadService(reader, players, matches, events, logging.NewNop())

	result, err := svc.Load(context.Background(), LoadInput{
		Leagues:    []string{"Spain", "England", "Spain"},
		MaxWorkers: 16,
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if result.LeagueCount != 2 {
		t.Fatalf("duplicate league not collapsed: got=%d want=2", result.LeagueCount)
	}
	if result.WorkerCount != 2 {
		t.Fatalf("worker count must cap at league count: got=%d want=2", result.WorkerCount)
	}
	if len(result.Leagues) != 2 || result.Leagues[0].League != "England" || result.Leagues[1].League != "Spain" {
		t.Fatalf("league results must sort by name: %+v", result.Leagues)
	}
	if result.EventsLoaded != 3 {
		t.Fatalf("events loaded: got=%d want=3", result.EventsLoaded)
	}
}

func TestLoadService_Load_ReaderFailureIsFatal(t *testing.T) {
	t.Parallel()

	reader, players, matches, events := testLoadFixture()
	reader.playersErr = errors.New("players.json corrupted")
	svc := NewLoadService(reader, players, matches, events, logging.NewNop())

	_, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}})
	if err == nil || !strings.Contains(err.Error(), "read players dataset") {
		t.Fatalf("expected fatal players read error, got %v", err)
	}
}

func TestLoadService_Load_InvalidInput(t *testing.T) {
	t.Parallel()

	reader, players, matches, events := testLoadFixture()
	svc := NewLoadService(reader, players, matches, events, logging.NewNop())

	_, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"  ", ""}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoadService_Load_MissingDependencies(t *testing.T) {
	t.Parallel()

	svc := NewLoadService(nil, nil, nil, nil, logging.NewNop())
	_, err := svc.Load(context.Background(), LoadInput{Leagues: []string{"England"}})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
