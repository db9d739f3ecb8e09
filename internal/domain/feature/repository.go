package feature

import "context"

// Repository describes the read side of feature extraction. Implementations
// must return deterministic orderings for a deterministic store state.
type Repository interface {
	// ListShots returns every shot event joined with its player and match
	// context, ordered by event id.
	ListShots(ctx context.Context) ([]Shot, error)
	// ListScoringEvents returns every event carrying a goal or own-goal tag,
	// ordered chronologically within each match.
	ListScoringEvents(ctx context.Context) ([]ScoringEvent, error)
}
