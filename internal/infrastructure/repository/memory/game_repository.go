package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
)

type GameRepository struct {
	mu    sync.RWMutex
	games map[string]game.Game
}

func NewGameRepository(games []game.Game) *GameRepository {
	byID := make(map[string]game.Game, len(games))
	for _, item := range games {
		byID[item.ID] = item
	}
	return &GameRepository{games: byID}
}

func (r *GameRepository) GetByID(_ context.Context, id string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.games[id]
	return item, ok, nil
}

func (r *GameRepository) FindByMatchup(_ context.Context, seasonID string, week int, homeTeamID, awayTeamID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.games {
		if item.SeasonID == seasonID && item.Week == week && item.HomeTeamID == homeTeamID && item.AwayTeamID == awayTeamID {
			return item, true, nil
		}
	}
	return game.Game{}, false, nil
}

func (r *GameRepository) List(_ context.Context, filter game.ListFilter) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0, len(r.games))
	for _, item := range r.games {
		if filter.SeasonID != "" && item.SeasonID != filter.SeasonID {
			continue
		}
		if filter.Week != nil && item.Week != *filter.Week {
			continue
		}
		if filter.SeasonPhase != nil && item.SeasonPhase != *filter.SeasonPhase {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *GameRepository) Create(_ context.Context, g game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.games[g.ID] = g
	return nil
}

func (r *GameRepository) Update(_ context.Context, g game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.games[g.ID] = g
	return nil
}

func (r *GameRepository) UpdateScores(_ context.Context, g game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.games[g.ID]
	if !ok {
		return nil
	}
	existing.HomeScore = g.HomeScore
	existing.AwayScore = g.AwayScore
	existing.Status = g.Status
	existing.ScoresUpdatedAt = g.ScoresUpdatedAt
	r.games[g.ID] = existing
	return nil
}
