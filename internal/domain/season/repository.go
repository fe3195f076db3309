package season

import "context"

// Repository describes season persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, id string) (Season, bool, error)
	GetByYear(ctx context.Context, year int) (Season, bool, error)
	GetCurrent(ctx context.Context) (Season, bool, error)
	Create(ctx context.Context, s Season) error
	// SetCurrent marks the given season current and clears the flag on
	// every other season.
	SetCurrent(ctx context.Context, id string) error
}
