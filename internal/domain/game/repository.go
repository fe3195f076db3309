package game

import "context"

// ListFilter narrows game listings. Nil fields match everything.
type ListFilter struct {
	SeasonID    string
	Week        *int
	SeasonPhase *int
}

// Repository describes game persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, id string) (Game, bool, error)
	// FindByMatchup resolves a game by its identity tuple within a season.
	FindByMatchup(ctx context.Context, seasonID string, week int, homeTeamID, awayTeamID string) (Game, bool, error)
	List(ctx context.Context, filter ListFilter) ([]Game, error)
	Create(ctx context.Context, g Game) error
	Update(ctx context.Context, g Game) error
	// UpdateScores writes only the live fields: scores, status and the
	// scores-updated timestamp.
	UpdateScores(ctx context.Context, g Game) error
}
