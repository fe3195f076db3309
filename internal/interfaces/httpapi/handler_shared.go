package httpapi

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/domain/team"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
	"github.com/tbrandt27/nfl-pickem/internal/scheduler"
	"github.com/tbrandt27/nfl-pickem/internal/usecase"
)

// SchedulerControl is the slice of the scheduler the API needs.
type SchedulerControl interface {
	Status() scheduler.Status
	TriggerUpdate(ctx context.Context) error
}

type Handler struct {
	seasonService  *usecase.SeasonService
	syncService    *usecase.ScoreSyncService
	scoringService *usecase.PickScoringService
	refreshService *usecase.RefreshService
	queryService   *usecase.GameQueryService
	scheduler      SchedulerControl
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	seasonService *usecase.SeasonService,
	syncService *usecase.ScoreSyncService,
	scoringService *usecase.PickScoringService,
	refreshService *usecase.RefreshService,
	queryService *usecase.GameQueryService,
	schedulerControl SchedulerControl,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		seasonService:  seasonService,
		syncService:    syncService,
		scoringService: scoringService,
		refreshService: refreshService,
		queryService:   queryService,
		scheduler:      schedulerControl,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type syncGamesRequest struct {
	Week        *int `json:"week" validate:"omitempty,gt=0"`
	SeasonPhase *int `json:"season_phase" validate:"omitempty,gte=1,lte=3"`
	ScoresOnly  bool `json:"scores_only"`
}

type fullScheduleRequest struct {
	IncludePreseason bool `json:"include_preseason"`
}

type calculatePicksRequest struct {
	Week *int `json:"week" validate:"omitempty,gt=0"`
}

type refreshWeekRequest struct {
	Week int `json:"week" validate:"required,gt=0"`
}

type seasonDTO struct {
	ID        string `json:"id"`
	Year      int    `json:"year"`
	IsCurrent bool   `json:"isCurrent"`
}

type teamDTO struct {
	ID             string `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	City           string `json:"city,omitempty"`
	Conference     string `json:"conference,omitempty"`
	Division       string `json:"division,omitempty"`
	PrimaryColor   string `json:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
	LogoPath       string `json:"logoPath,omitempty"`
}

type gameDTO struct {
	ID              string  `json:"id"`
	SeasonID        string  `json:"seasonId"`
	Week            int     `json:"week"`
	SeasonPhase     int     `json:"seasonPhase"`
	HomeTeam        teamDTO `json:"homeTeam"`
	AwayTeam        teamDTO `json:"awayTeam"`
	HomeScore       *int    `json:"homeScore,omitempty"`
	AwayScore       *int    `json:"awayScore,omitempty"`
	KickoffAt       string  `json:"kickoffAt"`
	Status          string  `json:"status"`
	WinnerTeamID    string  `json:"winnerTeamId,omitempty"`
	ScoresUpdatedAt string  `json:"scoresUpdatedAt,omitempty"`
}

type syncResultDTO struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type weekSyncResultDTO struct {
	Week        int           `json:"week"`
	SeasonPhase int           `json:"seasonPhase"`
	Result      syncResultDTO `json:"result"`
	Error       string        `json:"error,omitempty"`
}

type scoringResultDTO struct {
	UpdatedPicks   int `json:"updatedPicks"`
	CompletedGames int `json:"completedGames"`
}

type refreshResultDTO struct {
	Updated      bool   `json:"updated"`
	Reason       string `json:"reason"`
	LastUpdate   string `json:"lastUpdate,omitempty"`
	GamesCreated int    `json:"gamesCreated"`
	GamesUpdated int    `json:"gamesUpdated"`
	PicksUpdated int    `json:"picksUpdated"`
}

type schedulerTaskDTO struct {
	Name      string `json:"name"`
	LastRunAt string `json:"lastRunAt,omitempty"`
	LastError string `json:"lastError,omitempty"`
}

type schedulerStatusDTO struct {
	Running bool               `json:"running"`
	Entries int                `json:"entries"`
	Tasks   []schedulerTaskDTO `json:"tasks"`
}

func teamToDTO(v team.Team) teamDTO {
	return teamDTO{
		ID:             v.ID,
		Code:           v.Code,
		Name:           v.Name,
		City:           v.City,
		Conference:     v.Conference,
		Division:       v.Division,
		PrimaryColor:   v.PrimaryColor,
		SecondaryColor: v.SecondaryColor,
		LogoPath:       v.LogoPath,
	}
}

func gameViewToDTO(ctx context.Context, v usecase.GameView) gameDTO {
	ctx, span := startSpan(ctx, "httpapi.gameViewToDTO")
	defer span.End()

	winnerID, _ := v.Game.WinnerTeamID()
	return gameDTO{
		ID:              v.Game.ID,
		SeasonID:        v.Game.SeasonID,
		Week:            v.Game.Week,
		SeasonPhase:     v.Game.SeasonPhase,
		HomeTeam:        teamToDTO(v.HomeTeam),
		AwayTeam:        teamToDTO(v.AwayTeam),
		HomeScore:       v.Game.HomeScore,
		AwayScore:       v.Game.AwayScore,
		KickoffAt:       v.Game.KickoffAt.UTC().Format(time.RFC3339),
		Status:          game.NormalizeStatus(v.Game.Status),
		WinnerTeamID:    winnerID,
		ScoresUpdatedAt: formatOptionalTime(v.Game.ScoresUpdatedAt),
	}
}

func weekSyncResultsToDTO(results []usecase.WeekSyncResult) []weekSyncResultDTO {
	out := make([]weekSyncResultDTO, 0, len(results))
	for _, r := range results {
		dto := weekSyncResultDTO{
			Week:        r.Week,
			SeasonPhase: r.SeasonPhase,
			Result:      syncResultDTO{Created: r.Result.Created, Updated: r.Result.Updated},
		}
		if r.Err != nil {
			dto.Error = r.Err.Error()
		}
		out = append(out, dto)
	}
	return out
}

func schedulerStatusToDTO(status scheduler.Status) schedulerStatusDTO {
	tasks := make([]schedulerTaskDTO, 0, len(status.Tasks))
	for name, task := range status.Tasks {
		dto := schedulerTaskDTO{Name: name, LastError: task.LastError}
		if !task.LastRunAt.IsZero() {
			dto.LastRunAt = task.LastRunAt.UTC().Format(time.RFC3339)
		}
		tasks = append(tasks, dto)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })

	return schedulerStatusDTO{
		Running: status.Running,
		Entries: status.Entries,
		Tasks:   tasks,
	}
}

func formatOptionalTime(v *time.Time) string {
	if v == nil || v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
