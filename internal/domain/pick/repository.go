package pick

import "context"

// CorrectnessUpdate sets the scored result for one pick.
type CorrectnessUpdate struct {
	PickID    string
	IsCorrect bool
}

// Repository describes pick persistence needs from use cases.
type Repository interface {
	ListByGameIDs(ctx context.Context, gameIDs []string) ([]Pick, error)
	Create(ctx context.Context, p Pick) error
	// ApplyCorrectness writes scored results in bulk and reports how many
	// picks actually changed.
	ApplyCorrectness(ctx context.Context, updates []CorrectnessUpdate) (int, error)
}
