package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/domain/season"
	"github.com/tbrandt27/nfl-pickem/internal/domain/team"
	"github.com/tbrandt27/nfl-pickem/internal/platform/id"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
)

// ExternalTeam is a provider-neutral view of one franchise as the score
// source reports it.
type ExternalTeam struct {
	Code           string
	Name           string
	City           string
	PrimaryColor   string
	SecondaryColor string
	LogoPath       string
}

// ExternalGame is a provider-neutral view of one matchup.
type ExternalGame struct {
	Week        int
	SeasonPhase int
	HomeTeam    ExternalTeam
	AwayTeam    ExternalTeam
	HomeScore   *int
	AwayScore   *int
	KickoffAt   time.Time
	Status      string
}

// SeasonInfo describes where the league calendar currently stands.
type SeasonInfo struct {
	Year  int
	Phase int
	Week  int
}

// ScoreProvider is the score source contract the sync pipeline consumes.
type ScoreProvider interface {
	// FetchCurrentSeason never fails; implementations fall back to the
	// calendar year and the regular season phase.
	FetchCurrentSeason(ctx context.Context) SeasonInfo
	FetchCurrentWeek(ctx context.Context) (int, error)
	FetchWeekGames(ctx context.Context, week, seasonPhase, year int) ([]ExternalGame, error)
	FetchFullSchedule(ctx context.Context, year int, includePreseason bool) ([]ExternalGame, error)
}

// SyncOptions narrows one sync run. Nil week/phase mean "ask the provider".
type SyncOptions struct {
	Week        *int
	SeasonPhase *int
	// ScoresOnly limits writes to scores, status and the scores-updated
	// timestamp. A scores-only run never inserts games.
	ScoresOnly bool
}

type SyncResult struct {
	Created int
	Updated int
}

type WeekSyncResult struct {
	Week        int
	SeasonPhase int
	Result      SyncResult
	Err         error
}

type ScoreSyncService struct {
	provider   ScoreProvider
	seasonRepo season.Repository
	teamRepo   team.Repository
	gameRepo   game.Repository
	ids        id.Generator
	logger     *logging.Logger
	now        func() time.Time
}

func NewScoreSyncService(
	provider ScoreProvider,
	seasonRepo season.Repository,
	teamRepo team.Repository,
	gameRepo game.Repository,
	ids id.Generator,
	logger *logging.Logger,
) *ScoreSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	return &ScoreSyncService{
		provider:   provider,
		seasonRepo: seasonRepo,
		teamRepo:   teamRepo,
		gameRepo:   gameRepo,
		ids:        ids,
		logger:     logger,
		now:        time.Now,
	}
}

// UpdateGames reconciles one week of provider games into storage.
func (s *ScoreSyncService) UpdateGames(ctx context.Context, seasonID string, opts SyncOptions) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoreSyncService.UpdateGames")
	defer span.End()

	if seasonID == "" {
		return SyncResult{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	current, found, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("load season: %w", err)
	}
	if !found {
		return SyncResult{}, fmt.Errorf("%w: season %s", ErrNotFound, seasonID)
	}

	week := 0
	if opts.Week != nil {
		week = *opts.Week
	} else {
		week, err = s.provider.FetchCurrentWeek(ctx)
		if err != nil {
			return SyncResult{}, fmt.Errorf("resolve current week: %w", err)
		}
	}
	if week <= 0 {
		return SyncResult{}, fmt.Errorf("%w: week must be greater than zero", ErrInvalidInput)
	}

	phase := 0
	if opts.SeasonPhase != nil {
		phase = *opts.SeasonPhase
	} else {
		phase = s.provider.FetchCurrentSeason(ctx).Phase
	}
	if phase < game.PhasePreseason || phase > game.PhasePostseason {
		return SyncResult{}, fmt.Errorf("%w: season phase %d is not valid", ErrInvalidInput, phase)
	}

	fetched, err := s.provider.FetchWeekGames(ctx, week, phase, current.Year)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch week games: %w", err)
	}

	return s.applyGames(ctx, current.ID, fetched, opts.ScoresOnly)
}

// UpdateFullSchedule pulls and reconciles the whole season schedule.
func (s *ScoreSyncService) UpdateFullSchedule(ctx context.Context, seasonID string, includePreseason bool) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoreSyncService.UpdateFullSchedule")
	defer span.End()

	if seasonID == "" {
		return SyncResult{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	current, found, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("load season: %w", err)
	}
	if !found {
		return SyncResult{}, fmt.Errorf("%w: season %s", ErrNotFound, seasonID)
	}

	fetched, err := s.provider.FetchFullSchedule(ctx, current.Year, includePreseason)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch full schedule: %w", err)
	}

	return s.applyGames(ctx, current.ID, fetched, false)
}

// UpdateGameScores refreshes the current and previous league weeks of the
// current season, scores only. Per-week failures are recorded, not fatal.
func (s *ScoreSyncService) UpdateGameScores(ctx context.Context) ([]WeekSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoreSyncService.UpdateGameScores")
	defer span.End()

	current, found, err := s.seasonRepo.GetCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("load current season: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: no current season", ErrNotFound)
	}

	week, err := s.provider.FetchCurrentWeek(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current week: %w", err)
	}
	phase := s.provider.FetchCurrentSeason(ctx).Phase

	weeks := make([]int, 0, 2)
	if week > 1 {
		weeks = append(weeks, week-1)
	}
	weeks = append(weeks, week)

	out := make([]WeekSyncResult, 0, len(weeks))
	for _, target := range weeks {
		target := target
		result, syncErr := s.UpdateGames(ctx, current.ID, SyncOptions{
			Week:        &target,
			SeasonPhase: &phase,
			ScoresOnly:  true,
		})
		if syncErr != nil {
			s.logger.WarnContext(ctx, "score refresh failed for week, continuing", "week", target, "season_phase", phase, "error", syncErr)
		}
		out = append(out, WeekSyncResult{
			Week:        target,
			SeasonPhase: phase,
			Result:      result,
			Err:         syncErr,
		})
	}
	return out, nil
}

func (s *ScoreSyncService) applyGames(ctx context.Context, seasonID string, fetched []ExternalGame, scoresOnly bool) (SyncResult, error) {
	result := SyncResult{}
	now := s.now().UTC()

	for _, item := range fetched {
		homeID, ok, err := s.resolveTeam(ctx, item.HomeTeam)
		if err != nil {
			return result, err
		}
		if !ok {
			s.logger.WarnContext(ctx, "skip game with unresolvable home team", "home_code", item.HomeTeam.Code, "week", item.Week)
			continue
		}
		awayID, ok, err := s.resolveTeam(ctx, item.AwayTeam)
		if err != nil {
			return result, err
		}
		if !ok {
			s.logger.WarnContext(ctx, "skip game with unresolvable away team", "away_code", item.AwayTeam.Code, "week", item.Week)
			continue
		}

		status := game.NormalizeStatus(item.Status)
		existing, found, err := s.gameRepo.FindByMatchup(ctx, seasonID, item.Week, homeID, awayID)
		if err != nil {
			return result, fmt.Errorf("find game week=%d: %w", item.Week, err)
		}

		if !found {
			if scoresOnly {
				continue
			}

			newID, idErr := s.ids.NewID()
			if idErr != nil {
				return result, fmt.Errorf("generate game id: %w", idErr)
			}
			created := game.Game{
				ID:          newID,
				SeasonID:    seasonID,
				Week:        item.Week,
				SeasonPhase: item.SeasonPhase,
				HomeTeamID:  homeID,
				AwayTeamID:  awayID,
				HomeScore:   item.HomeScore,
				AwayScore:   item.AwayScore,
				KickoffAt:   item.KickoffAt.UTC(),
				Status:      status,
			}
			if item.HomeScore != nil || item.AwayScore != nil || !game.IsScheduledStatus(status) {
				created.ScoresUpdatedAt = &now
			}
			if err := created.Validate(); err != nil {
				s.logger.WarnContext(ctx, "skip invalid provider game", "week", item.Week, "error", err)
				continue
			}
			if err := s.gameRepo.Create(ctx, created); err != nil {
				return result, fmt.Errorf("create game week=%d: %w", item.Week, err)
			}
			result.Created++
			continue
		}

		changed := scoresDiffer(existing.HomeScore, item.HomeScore) ||
			scoresDiffer(existing.AwayScore, item.AwayScore) ||
			existing.Status != status

		next := existing
		next.HomeScore = item.HomeScore
		next.AwayScore = item.AwayScore
		next.Status = status
		next.ScoresUpdatedAt = &now

		if scoresOnly {
			if err := s.gameRepo.UpdateScores(ctx, next); err != nil {
				return result, fmt.Errorf("update game scores week=%d: %w", item.Week, err)
			}
		} else {
			if !item.KickoffAt.IsZero() && !existing.KickoffAt.Equal(item.KickoffAt.UTC()) {
				next.KickoffAt = item.KickoffAt.UTC()
				changed = true
			}
			if item.SeasonPhase >= game.PhasePreseason && item.SeasonPhase <= game.PhasePostseason && existing.SeasonPhase != item.SeasonPhase {
				next.SeasonPhase = item.SeasonPhase
				changed = true
			}
			if err := s.gameRepo.Update(ctx, next); err != nil {
				return result, fmt.Errorf("update game week=%d: %w", item.Week, err)
			}
		}
		if changed {
			result.Updated++
		}
	}

	return result, nil
}

// resolveTeam maps a provider team to a stored team id, creating the team
// on first sight and backfilling colors that are still missing.
func (s *ScoreSyncService) resolveTeam(ctx context.Context, ext ExternalTeam) (string, bool, error) {
	code := team.NormalizeCode(ext.Code)
	if code == "" {
		return "", false, nil
	}

	existing, found, err := s.teamRepo.GetByCode(ctx, code)
	if err != nil {
		return "", false, fmt.Errorf("load team code=%s: %w", code, err)
	}

	if !found {
		newID, idErr := s.ids.NewID()
		if idErr != nil {
			return "", false, fmt.Errorf("generate team id: %w", idErr)
		}
		name := ext.Name
		if name == "" {
			name = code
		}
		created := team.Team{
			ID:             newID,
			Code:           code,
			Name:           name,
			City:           ext.City,
			Conference:     team.ConferenceUnknown,
			Division:       team.DivisionUnknown,
			PrimaryColor:   ext.PrimaryColor,
			SecondaryColor: ext.SecondaryColor,
			LogoPath:       ext.LogoPath,
		}
		if err := s.teamRepo.Create(ctx, created); err != nil {
			return "", false, fmt.Errorf("create team code=%s: %w", code, err)
		}
		s.logger.InfoContext(ctx, "created team from provider data", "code", code, "name", name)
		return created.ID, true, nil
	}

	dirty := false
	if existing.PrimaryColor == "" && ext.PrimaryColor != "" {
		existing.PrimaryColor = ext.PrimaryColor
		dirty = true
	}
	if existing.SecondaryColor == "" && ext.SecondaryColor != "" {
		existing.SecondaryColor = ext.SecondaryColor
		dirty = true
	}
	if existing.LogoPath == "" && ext.LogoPath != "" {
		existing.LogoPath = ext.LogoPath
		dirty = true
	}
	if dirty {
		if err := s.teamRepo.Update(ctx, existing); err != nil {
			return "", false, fmt.Errorf("update team code=%s: %w", code, err)
		}
	}

	return existing.ID, true, nil
}

func scoresDiffer(a, b *int) bool {
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}
