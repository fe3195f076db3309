package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tbrandt27/nfl-pickem/internal/domain/pick"
)

type PickRepository struct {
	mu    sync.RWMutex
	picks map[string]pick.Pick
	now   func() time.Time
}

func NewPickRepository(picks []pick.Pick) *PickRepository {
	byID := make(map[string]pick.Pick, len(picks))
	for _, item := range picks {
		byID[item.ID] = item
	}
	return &PickRepository{picks: byID, now: time.Now}
}

func (r *PickRepository) ListByGameIDs(_ context.Context, gameIDs []string) ([]pick.Pick, error) {
	wanted := make(map[string]struct{}, len(gameIDs))
	for _, id := range gameIDs {
		wanted[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pick.Pick, 0, len(r.picks))
	for _, item := range r.picks {
		if _, ok := wanted[item.GameID]; ok {
			out = append(out, item)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PickRepository) Create(_ context.Context, p pick.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.picks[p.ID] = p
	return nil
}

func (r *PickRepository) ApplyCorrectness(_ context.Context, updates []pick.CorrectnessUpdate) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := 0
	now := r.now().UTC()
	for _, update := range updates {
		existing, ok := r.picks[update.PickID]
		if !ok {
			continue
		}
		if existing.IsCorrect != nil && *existing.IsCorrect == update.IsCorrect {
			continue
		}
		value := update.IsCorrect
		existing.IsCorrect = &value
		existing.UpdatedAt = now
		r.picks[update.PickID] = existing
		changed++
	}
	return changed, nil
}
