package usecase

import (
	"context"
	"fmt"

	"github.com/tbrandt27/nfl-pickem/internal/domain/season"
	"github.com/tbrandt27/nfl-pickem/internal/platform/id"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
)

type SeasonService struct {
	provider   ScoreProvider
	seasonRepo season.Repository
	ids        id.Generator
	logger     *logging.Logger
}

func NewSeasonService(provider ScoreProvider, seasonRepo season.Repository, ids id.Generator, logger *logging.Logger) *SeasonService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	return &SeasonService{
		provider:   provider,
		seasonRepo: seasonRepo,
		ids:        ids,
		logger:     logger,
	}
}

func (s *SeasonService) CurrentSeason(ctx context.Context) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.CurrentSeason")
	defer span.End()

	current, found, err := s.seasonRepo.GetCurrent(ctx)
	if err != nil {
		return season.Season{}, fmt.Errorf("load current season: %w", err)
	}
	if !found {
		return season.Season{}, fmt.Errorf("%w: no current season", ErrNotFound)
	}
	return current, nil
}

// EnsureCurrentSeason returns the current season, bootstrapping one from
// the provider's league calendar when none is marked yet.
func (s *SeasonService) EnsureCurrentSeason(ctx context.Context) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.EnsureCurrentSeason")
	defer span.End()

	current, found, err := s.seasonRepo.GetCurrent(ctx)
	if err != nil {
		return season.Season{}, fmt.Errorf("load current season: %w", err)
	}
	if found {
		return current, nil
	}

	info := s.provider.FetchCurrentSeason(ctx)
	existing, found, err := s.seasonRepo.GetByYear(ctx, info.Year)
	if err != nil {
		return season.Season{}, fmt.Errorf("load season year=%d: %w", info.Year, err)
	}
	if found {
		if err := s.seasonRepo.SetCurrent(ctx, existing.ID); err != nil {
			return season.Season{}, fmt.Errorf("mark season current: %w", err)
		}
		existing.IsCurrent = true
		return existing, nil
	}

	newID, err := s.ids.NewID()
	if err != nil {
		return season.Season{}, fmt.Errorf("generate season id: %w", err)
	}
	created := season.Season{ID: newID, Year: info.Year, IsCurrent: true}
	if err := created.Validate(); err != nil {
		return season.Season{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.seasonRepo.Create(ctx, created); err != nil {
		return season.Season{}, fmt.Errorf("create season year=%d: %w", info.Year, err)
	}
	if err := s.seasonRepo.SetCurrent(ctx, created.ID); err != nil {
		return season.Season{}, fmt.Errorf("mark season current: %w", err)
	}

	s.logger.InfoContext(ctx, "bootstrapped current season", "year", info.Year)
	return created, nil
}
