package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	UpsertMany(ctx context.Context, players []Player) (int, error)
	ListIDs(ctx context.Context) (map[int64]struct{}, error)
}
