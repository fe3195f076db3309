package usecase

import (
	"context"
	"fmt"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/domain/season"
	"github.com/tbrandt27/nfl-pickem/internal/domain/team"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
)

// GameView is one game joined with both franchises for read endpoints.
type GameView struct {
	Game     game.Game
	HomeTeam team.Team
	AwayTeam team.Team
}

type GameQuery struct {
	// SeasonID narrows to one season; empty means the current season.
	SeasonID    string
	Week        *int
	SeasonPhase *int
}

type GameQueryService struct {
	seasonRepo season.Repository
	teamRepo   team.Repository
	gameRepo   game.Repository
	logger     *logging.Logger
}

func NewGameQueryService(seasonRepo season.Repository, teamRepo team.Repository, gameRepo game.Repository, logger *logging.Logger) *GameQueryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &GameQueryService{
		seasonRepo: seasonRepo,
		teamRepo:   teamRepo,
		gameRepo:   gameRepo,
		logger:     logger,
	}
}

func (s *GameQueryService) ListGames(ctx context.Context, query GameQuery) ([]GameView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameQueryService.ListGames")
	defer span.End()

	seasonID := query.SeasonID
	if seasonID == "" {
		current, found, err := s.seasonRepo.GetCurrent(ctx)
		if err != nil {
			return nil, fmt.Errorf("load current season: %w", err)
		}
		if !found {
			return nil, fmt.Errorf("%w: no current season", ErrNotFound)
		}
		seasonID = current.ID
	}
	if query.Week != nil && *query.Week <= 0 {
		return nil, fmt.Errorf("%w: week must be greater than zero", ErrInvalidInput)
	}

	games, err := s.gameRepo.List(ctx, game.ListFilter{
		SeasonID:    seasonID,
		Week:        query.Week,
		SeasonPhase: query.SeasonPhase,
	})
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	byID := make(map[string]team.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}

	out := make([]GameView, 0, len(games))
	for _, g := range games {
		out = append(out, GameView{
			Game:     g,
			HomeTeam: byID[g.HomeTeamID],
			AwayTeam: byID[g.AwayTeamID],
		})
	}
	return out, nil
}

func (s *GameQueryService) ListTeams(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameQueryService.ListTeams")
	defer span.End()

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}
