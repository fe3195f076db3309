package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/domain/pick"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
)

const defaultScoringWorkers = 4

type ScoringResult struct {
	UpdatedPicks   int
	CompletedGames int
}

type WeekScoringResult struct {
	Week   int
	Result ScoringResult
	Err    error
}

type PickScoringService struct {
	gameRepo game.Repository
	pickRepo pick.Repository
	workers  int
	logger   *logging.Logger
}

func NewPickScoringService(gameRepo game.Repository, pickRepo pick.Repository, workers int, logger *logging.Logger) *PickScoringService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers < 1 {
		workers = defaultScoringWorkers
	}
	return &PickScoringService{
		gameRepo: gameRepo,
		pickRepo: pickRepo,
		workers:  workers,
		logger:   logger,
	}
}

// CalculatePicks scores every pick attached to a finished game in the
// season, optionally narrowed to one week. A finished tie has no winner,
// so every pick on it is marked incorrect. The pass is idempotent: picks
// already carrying the right value are left untouched.
func (s *PickScoringService) CalculatePicks(ctx context.Context, seasonID string, week *int) (ScoringResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickScoringService.CalculatePicks")
	defer span.End()

	if seasonID == "" {
		return ScoringResult{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	if week != nil && *week <= 0 {
		return ScoringResult{}, fmt.Errorf("%w: week must be greater than zero", ErrInvalidInput)
	}

	games, err := s.gameRepo.List(ctx, game.ListFilter{SeasonID: seasonID, Week: week})
	if err != nil {
		return ScoringResult{}, fmt.Errorf("list games: %w", err)
	}

	finished := make(map[string]game.Game, len(games))
	gameIDs := make([]string, 0, len(games))
	for _, g := range games {
		if !game.IsFinalStatus(g.Status) {
			continue
		}
		finished[g.ID] = g
		gameIDs = append(gameIDs, g.ID)
	}
	if len(finished) == 0 {
		return ScoringResult{}, nil
	}

	picks, err := s.pickRepo.ListByGameIDs(ctx, gameIDs)
	if err != nil {
		return ScoringResult{}, fmt.Errorf("list picks: %w", err)
	}

	updates := make([]pick.CorrectnessUpdate, 0, len(picks))
	for _, p := range picks {
		g, ok := finished[p.GameID]
		if !ok {
			continue
		}
		winnerID, hasWinner := g.WinnerTeamID()
		correct := hasWinner && p.TeamID == winnerID
		if p.IsCorrect != nil && *p.IsCorrect == correct {
			continue
		}
		updates = append(updates, pick.CorrectnessUpdate{PickID: p.ID, IsCorrect: correct})
	}

	updated := 0
	if len(updates) > 0 {
		updated, err = s.pickRepo.ApplyCorrectness(ctx, updates)
		if err != nil {
			return ScoringResult{}, fmt.Errorf("apply pick correctness: %w", err)
		}
	}

	return ScoringResult{
		UpdatedPicks:   updated,
		CompletedGames: len(finished),
	}, nil
}

// CalculateWeeks scores several weeks concurrently over a worker pool.
// One failed week never aborts the batch.
func (s *PickScoringService) CalculateWeeks(ctx context.Context, seasonID string, weeks []int) ([]WeekScoringResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickScoringService.CalculateWeeks")
	defer span.End()

	if seasonID == "" {
		return nil, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	if len(weeks) == 0 {
		return nil, nil
	}

	workers := s.workers
	if workers > len(weeks) {
		workers = len(weeks)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create scoring pool: %w", err)
	}
	defer pool.Release()

	var mu sync.Mutex
	var wg sync.WaitGroup
	out := make([]WeekScoringResult, 0, len(weeks))

	for _, target := range weeks {
		target := target
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			result, scoreErr := s.CalculatePicks(ctx, seasonID, &target)
			if scoreErr != nil {
				s.logger.WarnContext(ctx, "pick scoring failed for week, continuing", "week", target, "error", scoreErr)
			}

			mu.Lock()
			out = append(out, WeekScoringResult{Week: target, Result: result, Err: scoreErr})
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			out = append(out, WeekScoringResult{Week: target, Err: fmt.Errorf("submit scoring task: %w", submitErr)})
			mu.Unlock()
		}
	}
	wg.Wait()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out, nil
}
