package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
)

// defaultStaleScoreAge is how old a finished game's score data may be
// before a refresh is forced.
const defaultStaleScoreAge = 10 * time.Minute

type Staleness struct {
	Stale      bool
	Reason     string
	LastUpdate *time.Time
}

type RefreshResult struct {
	Updated      bool
	Reason       string
	LastUpdate   *time.Time
	GamesCreated int
	GamesUpdated int
	PicksUpdated int
}

type weekSyncer interface {
	UpdateGames(ctx context.Context, seasonID string, opts SyncOptions) (SyncResult, error)
}

type weekScorer interface {
	CalculatePicks(ctx context.Context, seasonID string, week *int) (ScoringResult, error)
}

type RefreshConfig struct {
	StaleScoreAge time.Duration
}

type RefreshService struct {
	provider ScoreProvider
	gameRepo game.Repository
	syncer   weekSyncer
	scorer   weekScorer
	staleAge time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

func NewRefreshService(
	provider ScoreProvider,
	gameRepo game.Repository,
	syncer weekSyncer,
	scorer weekScorer,
	cfg RefreshConfig,
	logger *logging.Logger,
) *RefreshService {
	if logger == nil {
		logger = logging.Default()
	}
	staleAge := cfg.StaleScoreAge
	if staleAge <= 0 {
		staleAge = defaultStaleScoreAge
	}
	return &RefreshService{
		provider: provider,
		gameRepo: gameRepo,
		syncer:   syncer,
		scorer:   scorer,
		staleAge: staleAge,
		logger:   logger,
		now:      time.Now,
	}
}

// AreScoresStale decides whether a week's stored score data needs a
// provider refresh. A week with no games at all is always stale.
func (s *RefreshService) AreScoresStale(ctx context.Context, seasonID string, week int) (Staleness, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.AreScoresStale")
	defer span.End()

	if seasonID == "" {
		return Staleness{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	if week <= 0 {
		return Staleness{}, fmt.Errorf("%w: week must be greater than zero", ErrInvalidInput)
	}

	games, err := s.gameRepo.List(ctx, game.ListFilter{SeasonID: seasonID, Week: &week})
	if err != nil {
		return Staleness{}, fmt.Errorf("list games: %w", err)
	}
	if len(games) == 0 {
		return Staleness{Stale: true, Reason: "no games on record for week"}, nil
	}

	var lastUpdate *time.Time
	anyUpdated := false
	anyScheduled := false
	for _, g := range games {
		if g.ScoresUpdatedAt != nil {
			anyUpdated = true
			if lastUpdate == nil || g.ScoresUpdatedAt.After(*lastUpdate) {
				ts := *g.ScoresUpdatedAt
				lastUpdate = &ts
			}
		}
		if game.IsScheduledStatus(g.Status) {
			anyScheduled = true
		}
	}

	if !anyUpdated && anyScheduled {
		return Staleness{Stale: true, Reason: "games have never been updated"}, nil
	}

	now := s.now().UTC()
	for _, g := range games {
		if !game.IsFinalStatus(g.Status) {
			continue
		}
		if g.ScoresUpdatedAt == nil || now.Sub(g.ScoresUpdatedAt.UTC()) > s.staleAge {
			return Staleness{Stale: true, Reason: "finished games carry stale scores", LastUpdate: lastUpdate}, nil
		}
	}

	return Staleness{Stale: false, Reason: "scores are fresh", LastUpdate: lastUpdate}, nil
}

// UpdateScoresIfStale refreshes a week only when its data is stale. A
// stale current (or immediately previous) week expands the refresh to the
// {previous, current} neighborhood; any other week refreshes alone. Each
// refreshed week is rescored right away.
func (s *RefreshService) UpdateScoresIfStale(ctx context.Context, seasonID string, week int) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.UpdateScoresIfStale")
	defer span.End()

	staleness, err := s.AreScoresStale(ctx, seasonID, week)
	if err != nil {
		return RefreshResult{}, err
	}
	if !staleness.Stale {
		return RefreshResult{
			Updated:    false,
			Reason:     staleness.Reason,
			LastUpdate: staleness.LastUpdate,
		}, nil
	}

	weeks := []int{week}
	if currentWeek, weekErr := s.provider.FetchCurrentWeek(ctx); weekErr != nil {
		s.logger.WarnContext(ctx, "resolve current week failed, refreshing requested week only", "week", week, "error", weekErr)
	} else if week == currentWeek || week == currentWeek-1 {
		weeks = weeks[:0]
		if currentWeek > 1 {
			weeks = append(weeks, currentWeek-1)
		}
		weeks = append(weeks, currentWeek)
	}

	phase := s.provider.FetchCurrentSeason(ctx).Phase

	result := RefreshResult{
		Updated:    true,
		Reason:     staleness.Reason,
		LastUpdate: staleness.LastUpdate,
	}
	for _, target := range weeks {
		target := target
		syncResult, syncErr := s.syncer.UpdateGames(ctx, seasonID, SyncOptions{
			Week:        &target,
			SeasonPhase: &phase,
			ScoresOnly:  true,
		})
		if syncErr != nil {
			s.logger.WarnContext(ctx, "stale refresh sync failed for week, continuing", "week", target, "error", syncErr)
			continue
		}
		result.GamesCreated += syncResult.Created
		result.GamesUpdated += syncResult.Updated

		scoringResult, scoreErr := s.scorer.CalculatePicks(ctx, seasonID, &target)
		if scoreErr != nil {
			s.logger.WarnContext(ctx, "stale refresh scoring failed for week, continuing", "week", target, "error", scoreErr)
			continue
		}
		result.PicksUpdated += scoringResult.UpdatedPicks
	}

	return result, nil
}
