package memory

import (
	"context"
	"sync"

	"github.com/tbrandt27/nfl-pickem/internal/domain/season"
)

type SeasonRepository struct {
	mu      sync.RWMutex
	seasons map[string]season.Season
}

func NewSeasonRepository(seasons []season.Season) *SeasonRepository {
	byID := make(map[string]season.Season, len(seasons))
	for _, item := range seasons {
		byID[item.ID] = item
	}
	return &SeasonRepository{seasons: byID}
}

func (r *SeasonRepository) GetByID(_ context.Context, id string) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.seasons[id]
	return item, ok, nil
}

func (r *SeasonRepository) GetByYear(_ context.Context, year int) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.seasons {
		if item.Year == year {
			return item, true, nil
		}
	}
	return season.Season{}, false, nil
}

func (r *SeasonRepository) GetCurrent(_ context.Context) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.seasons {
		if item.IsCurrent {
			return item, true, nil
		}
	}
	return season.Season{}, false, nil
}

func (r *SeasonRepository) Create(_ context.Context, s season.Season) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seasons[s.ID] = s
	return nil
}

func (r *SeasonRepository) SetCurrent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, item := range r.seasons {
		item.IsCurrent = key == id
		r.seasons[key] = item
	}
	return nil
}
