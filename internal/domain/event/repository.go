package event

import "context"

// Repository describes event persistence needs from use cases. An event and
// its tags are written atomically; reloading an event replaces its tag set.
type Repository interface {
	UpsertMany(ctx context.Context, events []Event) (int, error)
	UpsertOne(ctx context.Context, ev Event) error
}
