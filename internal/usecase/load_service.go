package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kvistad/shotpipe/internal/domain/event"
	"github.com/kvistad/shotpipe/internal/domain/match"
	"github.com/kvistad/shotpipe/internal/domain/player"
	"github.com/kvistad/shotpipe/internal/platform/logging"
	"github.com/kvistad/shotpipe/internal/wyscout"
	"github.com/panjf2000/ants/v2"
)

const defaultBatchSize = 500

// DatasetReader yields normalized domain records from the raw dataset
// directory together with per-document parse errors. Malformed documents
// are reported, not returned.
type DatasetReader interface {
	Players() ([]player.Player, []wyscout.ParseError, error)
	Matches(league string) ([]match.Match, []wyscout.ParseError, error)
	Events(league string) ([]event.Event, []wyscout.ParseError, error)
}

type LoadInput struct {
	Leagues    []string
	BatchSize  int
	MaxWorkers int
	// MaxErrorDetails caps the row-level error strings kept in the result.
	// Zero keeps everything.
	MaxErrorDetails int
	// DryRun parses and validates without writing to the store.
	DryRun bool
}

type LoadResult struct {
	LeagueCount      int                `json:"league_count"`
	WorkerCount      int                `json:"worker_count"`
	FilesRead        int                `json:"files_read"`
	PlayersLoaded    int                `json:"players_loaded"`
	MatchesLoaded    int                `json:"matches_loaded"`
	StubMatches      int                `json:"stub_matches"`
	EventsLoaded     int                `json:"events_loaded"`
	SkippedDocuments int                `json:"skipped_documents"`
	RowErrors        int                `json:"row_errors"`
	Leagues          []LeagueLoadResult `json:"leagues"`
	ErrorDetails     []string           `json:"error_details,omitempty"`
	TruncatedErrors  int                `json:"truncated_errors,omitempty"`
	DurationMs       int64              `json:"duration_ms"`
}

type LeagueLoadResult struct {
	League           string `json:"league"`
	Status           string `json:"status"`
	MatchesLoaded    int    `json:"matches_loaded"`
	StubMatches      int    `json:"stub_matches"`
	EventsLoaded     int    `json:"events_loaded"`
	SkippedDocuments int    `json:"skipped_documents"`
	RowErrors        int    `json:"row_errors"`
	DurationMs       int64  `json:"duration_ms"`
	Message          string `json:"message,omitempty"`
}

const (
	loadStatusSuccess = "success"
	loadStatusFailed  = "failed"
	loadStatusSkipped = "skipped"
)

// LoadService drives the dataset load: players once, then matches and
// events per league. Leagues run on a bounded worker pool; all writes go
// through keyed upserts so re-running a load cannot duplicate rows.
type LoadService struct {
	reader  DatasetReader
	players player.Repository
	matches match.Repository
	events  event.Repository
	logger  *logging.Logger
}

func NewLoadService(
	reader DatasetReader,
	players player.Repository,
	matches match.Repository,
	events event.Repository,
	logger *logging.Logger,
) *LoadService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LoadService{
		reader:  reader,
		players: players,
		matches: matches,
		events:  events,
		logger:  logger,
	}
}

func (s *LoadService) Load(ctx context.Context, input LoadInput) (LoadResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LoadService.Load")
	defer span.End()

	start := time.Now()

	if s.reader == nil || s.players == nil || s.matches == nil || s.events == nil {
		return LoadResult{}, fmt.Errorf("%w: load service is not fully configured", ErrDependencyUnavailable)
	}

	leagues := normalizeLeagues(input.Leagues)
	if len(leagues) == 0 {
		return LoadResult{}, fmt.Errorf("%w: at least one league is required", ErrInvalidInput)
	}

	batchSize := input.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	workerCount := normalizeLoadWorkerCount(input.MaxWorkers, len(leagues))

	collector := newErrorCollector(input.MaxErrorDetails)
	var filesRead atomic.Int32

	result := LoadResult{
		LeagueCount: len(leagues),
		WorkerCount: workerCount,
		Leagues:     make([]LeagueLoadResult, 0, len(leagues)),
	}

	// Players load first so event rows can be checked against a complete
	// player set regardless of league ordering.
	playersOutcome, err := s.loadPlayers(ctx, batchSize, input.DryRun, collector, &filesRead)
	if err != nil {
		return LoadResult{}, err
	}
	result.PlayersLoaded = playersOutcome.loaded
	result.SkippedDocuments += playersOutcome.skipped
	result.RowErrors += playersOutcome.rowErrors

	knownPlayerIDs, err := s.players.ListIDs(ctx)
	if err != nil {
		return LoadResult{}, fmt.Errorf("list known players: %w", err)
	}
	knownMatchIDs, err := s.matches.ListIDs(ctx)
	if err != nil {
		return LoadResult{}, fmt.Errorf("list known matches: %w", err)
	}
	knownPlayers := newIDSet(knownPlayerIDs)
	knownPlayers.add(playersOutcome.ids...)
	knownMatches := newIDSet(knownMatchIDs)

	results := make(chan LeagueLoadResult, len(leagues))

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return LoadResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, league := range leagues {
		league := league
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			results <- s.loadLeague(ctx, league, batchSize, input.DryRun, knownPlayers, knownMatches, collector, &filesRead)
		}); err != nil {
			workers.Done()
			return LoadResult{}, fmt.Errorf("submit league to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Leagues = append(result.Leagues, row)
		result.MatchesLoaded += row.MatchesLoaded
		result.StubMatches += row.StubMatches
		result.EventsLoaded += row.EventsLoaded
		result.SkippedDocuments += row.SkippedDocuments
		result.RowErrors += row.RowErrors
	}

	sort.SliceStable(result.Leagues, func(i, j int) bool {
		return result.Leagues[i].League < result.Leagues[j].League
	})

	result.FilesRead = int(filesRead.Load())
	result.ErrorDetails, result.TruncatedErrors = collector.snapshot()
	result.DurationMs = time.Since(start).Milliseconds()

	s.logger.InfoContext(ctx, "dataset load finished",
		"leagues", result.LeagueCount,
		"players_loaded", result.PlayersLoaded,
		"matches_loaded", result.MatchesLoaded,
		"stub_matches", result.StubMatches,
		"events_loaded", result.EventsLoaded,
		"skipped_documents", result.SkippedDocuments,
		"row_errors", result.RowErrors,
		"duration_ms", result.DurationMs,
	)

	return result, nil
}

type playerLoadOutcome struct {
	loaded    int
	skipped   int
	rowErrors int
	ids       []int64
}

func (s *LoadService) loadPlayers(
	ctx context.Context,
	batchSize int,
	dryRun bool,
	collector *errorCollector,
	filesRead *atomic.Int32,
) (playerLoadOutcome, error) {
	out := playerLoadOutcome{}

	players, parseErrs, err := s.reader.Players()
	if err != nil {
		return out, fmt.Errorf("read players dataset: %w", err)
	}
	filesRead.Add(1)
	reportParseErrors(parseErrs, collector)
	out.skipped = len(parseErrs)

	out.ids = make([]int64, 0, len(players))
	for _, item := range players {
		out.ids = append(out.ids, item.WyID)
	}

	out.loaded, out.rowErrors = s.upsertPlayers(ctx, players, batchSize, dryRun, collector)
	return out, nil
}

func (s *LoadService) loadLeague(
	ctx context.Context,
	league string,
	batchSize int,
	dryRun bool,
	knownPlayers *idSet,
	knownMatches *idSet,
	collector *errorCollector,
	filesRead *atomic.Int32,
) LeagueLoadResult {
	start := time.Now()
	row := LeagueLoadResult{League: league, Status: loadStatusSuccess}

	matches, parseErrs, err := s.reader.Matches(league)
	matchesFileMissing := false
	switch {
	case err == nil:
		filesRead.Add(1)
	case errors.Is(err, fs.ErrNotExist):
		// Stub rows are synthesized below from event references so the
		// events FK still holds.
		matchesFileMissing = true
		row.Message = "matches file absent, synthesizing stub rows"
	default:
		collector.add(err.Error())
		row.Status = loadStatusFailed
		row.Message = err.Error()
		row.DurationMs = time.Since(start).Milliseconds()
		return row
	}
	reportParseErrors(parseErrs, collector)
	row.SkippedDocuments += len(parseErrs)

	if !matchesFileMissing {
		loaded, rowErrs := s.upsertMatches(ctx, matches, batchSize, dryRun, collector)
		row.MatchesLoaded = loaded
		row.RowErrors += rowErrs

		ids := make([]int64, 0, len(matches))
		for _, item := range matches {
			ids = append(ids, item.WyID)
		}
		knownMatches.add(ids...)
	}

	events, parseErrs, err := s.reader.Events(league)
	switch {
	case err == nil:
		filesRead.Add(1)
	case errors.Is(err, fs.ErrNotExist):
		row.Status = loadStatusSkipped
		row.Message = "events file not found"
		row.DurationMs = time.Since(start).Milliseconds()
		return row
	default:
		collector.add(err.Error())
		row.Status = loadStatusFailed
		row.Message = err.Error()
		row.DurationMs = time.Since(start).Milliseconds()
		return row
	}
	reportParseErrors(parseErrs, collector)
	row.SkippedDocuments += len(parseErrs)

	// Referential integrity at load time: events naming an unknown player
	// are rejected per row, match references without a match row get a
	// stub so the FK holds.
	filtered := make([]event.Event, 0, len(events))
	stubIDs := make([]int64, 0)
	seenStub := make(map[int64]struct{})
	for _, ev := range events {
		if ev.HasPlayer() && !knownPlayers.has(ev.PlayerID) {
			loadErr := &LoadError{Table: "events", Key: ev.ID, Err: fmt.Errorf("unknown player id=%d", ev.PlayerID)}
			collector.add(loadErr.Error())
			row.RowErrors++
			continue
		}
		if !knownMatches.has(ev.MatchID) {
			if _, ok := seenStub[ev.MatchID]; !ok {
				seenStub[ev.MatchID] = struct{}{}
				stubIDs = append(stubIDs, ev.MatchID)
			}
		}
		filtered = append(filtered, ev)
	}

	if len(stubIDs) > 0 {
		sort.Slice(stubIDs, func(i, j int) bool { return stubIDs[i] < stubIDs[j] })
		stubs := make([]match.Match, 0, len(stubIDs))
		for _, id := range stubIDs {
			stubs = append(stubs, match.Stub(id, league))
		}
		if dryRun {
			row.StubMatches = len(stubs)
		} else {
			inserted, err := s.matches.InsertStubs(ctx, stubs)
			if err != nil {
				collector.add(fmt.Sprintf("insert stub matches league=%s: %v", league, err))
				row.Status = loadStatusFailed
				row.Message = err.Error()
				row.DurationMs = time.Since(start).Milliseconds()
				return row
			}
			row.StubMatches = inserted
		}
		knownMatches.add(stubIDs...)
	}

	loaded, rowErrs := s.upsertEvents(ctx, filtered, batchSize, dryRun, collector)
	row.EventsLoaded = loaded
	row.RowErrors += rowErrs

	row.DurationMs = time.Since(start).Milliseconds()

	s.logger.InfoContext(ctx, "league loaded",
		"league", league,
		"matches_loaded", row.MatchesLoaded,
		"stub_matches", row.StubMatches,
		"events_loaded", row.EventsLoaded,
		"row_errors", row.RowErrors,
	)

	return row
}

func (s *LoadService) upsertPlayers(
	ctx context.Context,
	items []player.Player,
	batchSize int,
	dryRun bool,
	collector *errorCollector,
) (int, int) {
	if dryRun || len(items) == 0 {
		return len(items), 0
	}

	loaded := 0
	rowErrors := 0
	for batchStart := 0; batchStart < len(items); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(items) {
			batchEnd = len(items)
		}
		batch := items[batchStart:batchEnd]

		_, err := s.players.UpsertMany(ctx, batch)
		if err == nil {
			loaded += len(batch)
			continue
		}
		s.logger.WarnContext(ctx, "player batch upsert failed, retrying per row", "batch_size", len(batch), "error", err)

		for _, item := range batch {
			if _, err := s.players.UpsertMany(ctx, []player.Player{item}); err != nil {
				collector.add((&LoadError{Table: "players", Key: item.WyID, Err: err}).Error())
				rowErrors++
				continue
			}
			loaded++
		}
	}
	return loaded, rowErrors
}

func (s *LoadService) upsertMatches(
	ctx context.Context,
	items []match.Match,
	batchSize int,
	dryRun bool,
	collector *errorCollector,
) (int, int) {
	if dryRun || len(items) == 0 {
		return len(items), 0
	}

	loaded := 0
	rowErrors := 0
	for batchStart := 0; batchStart < len(items); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(items) {
			batchEnd = len(items)
		}
		batch := items[batchStart:batchEnd]

		_, err := s.matches.UpsertMany(ctx, batch)
		if err == nil {
			loaded += len(batch)
			continue
		}
		s.logger.WarnContext(ctx, "match batch upsert failed, retrying per row", "batch_size", len(batch), "error", err)

		for _, item := range batch {
			if _, err := s.matches.UpsertMany(ctx, []match.Match{item}); err != nil {
				collector.add((&LoadError{Table: "matches", Key: item.WyID, Err: err}).Error())
				rowErrors++
				continue
			}
			loaded++
		}
	}
	return loaded, rowErrors
}

func (s *LoadService) upsertEvents(
	ctx context.Context,
	items []event.Event,
	batchSize int,
	dryRun bool,
	collector *errorCollector,
) (int, int) {
	if dryRun || len(items) == 0 {
		return len(items), 0
	}

	loaded := 0
	rowErrors := 0
	for batchStart := 0; batchStart < len(items); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(items) {
			batchEnd = len(items)
		}
		batch := items[batchStart:batchEnd]

		_, err := s.events.UpsertMany(ctx, batch)
		if err == nil {
			loaded += len(batch)
			continue
		}
		s.logger.WarnContext(ctx, "event batch upsert failed, retrying per row", "batch_size", len(batch), "error", err)

		for _, item := range batch {
			if err := s.events.UpsertOne(ctx, item); err != nil {
				collector.add((&LoadError{Table: "events", Key: item.ID, Err: err}).Error())
				rowErrors++
				continue
			}
			loaded++
		}
	}
	return loaded, rowErrors
}

func reportParseErrors(parseErrs []wyscout.ParseError, collector *errorCollector) {
	for i := range parseErrs {
		collector.add(parseErrs[i].Error())
	}
}

func normalizeLeagues(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		league := strings.TrimSpace(item)
		if league == "" {
			continue
		}
		if _, ok := seen[league]; ok {
			continue
		}
		seen[league] = struct{}{}
		out = append(out, league)
	}
	return out
}

func normalizeLoadWorkerCount(value int, leagueCount int) int {
	if leagueCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > leagueCount {
		value = leagueCount
	}
	return value
}

// errorCollector accumulates row and document error details across
// concurrent league workers, capped so a corrupt dataset cannot balloon
// the run summary.
type errorCollector struct {
	mu        sync.Mutex
	max       int
	details   []string
	truncated int
}

func newErrorCollector(max int) *errorCollector {
	return &errorCollector{max: max}
}

func (c *errorCollector) add(detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.max > 0 && len(c.details) >= c.max {
		c.truncated++
		return
	}
	c.details = append(c.details, detail)
}

func (c *errorCollector) snapshot() ([]string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.details))
	copy(out, c.details)
	return out, c.truncated
}

// idSet is a concurrency-safe set of known row ids shared by league
// workers for referential checks.
type idSet struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

func newIDSet(ids map[int64]struct{}) *idSet {
	if ids == nil {
		ids = make(map[int64]struct{})
	}
	return &idSet{ids: ids}
}

func (s *idSet) has(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *idSet) add(ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}
