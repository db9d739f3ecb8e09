package match

import "context"

// Repository describes match persistence needs from use cases.
type Repository interface {
	UpsertMany(ctx context.Context, matches []Match) (int, error)
	// InsertStubs writes placeholder rows for match ids seen only in the event
	// stream, skipping ids that already exist.
	InsertStubs(ctx context.Context, stubs []Match) (int, error)
	ListIDs(ctx context.Context) (map[int64]struct{}, error)
}
