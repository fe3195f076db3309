package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, id string) (Team, bool, error)
	GetByCode(ctx context.Context, code string) (Team, bool, error)
	List(ctx context.Context) ([]Team, error)
	Create(ctx context.Context, t Team) error
	Update(ctx context.Context, t Team) error
}
