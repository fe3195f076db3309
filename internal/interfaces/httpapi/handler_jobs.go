package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/tbrandt27/nfl-pickem/internal/usecase"
)

func (h *Handler) RunSyncGamesJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncGamesJob")
	defer span.End()

	var req syncGamesRequest
	if err := decodeJobRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	current, err := h.seasonService.EnsureCurrentSeason(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "ensure current season failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.UpdateGames(ctx, current.ID, usecase.SyncOptions{
		Week:        req.Week,
		SeasonPhase: req.SeasonPhase,
		ScoresOnly:  req.ScoresOnly,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "sync games job failed", "season_id", current.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, syncResultDTO{Created: result.Created, Updated: result.Updated})
}

func (h *Handler) RunSyncScoresJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncScoresJob")
	defer span.End()

	if _, err := h.seasonService.EnsureCurrentSeason(ctx); err != nil {
		h.logger.WarnContext(ctx, "ensure current season failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	results, err := h.syncService.UpdateGameScores(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "sync scores job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, weekSyncResultsToDTO(results))
}

func (h *Handler) RunFullScheduleJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFullScheduleJob")
	defer span.End()

	var req fullScheduleRequest
	if err := decodeJobRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	current, err := h.seasonService.EnsureCurrentSeason(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "ensure current season failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.UpdateFullSchedule(ctx, current.ID, req.IncludePreseason)
	if err != nil {
		h.logger.WarnContext(ctx, "full schedule job failed", "season_id", current.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, syncResultDTO{Created: result.Created, Updated: result.Updated})
}

func (h *Handler) RunCalculatePicksJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunCalculatePicksJob")
	defer span.End()

	var req calculatePicksRequest
	if err := decodeJobRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	current, err := h.seasonService.EnsureCurrentSeason(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "ensure current season failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	result, err := h.scoringService.CalculatePicks(ctx, current.ID, req.Week)
	if err != nil {
		h.logger.WarnContext(ctx, "calculate picks job failed", "season_id", current.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoringResultDTO{
		UpdatedPicks:   result.UpdatedPicks,
		CompletedGames: result.CompletedGames,
	})
}

func (h *Handler) RunRefreshWeekJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshWeekJob")
	defer span.End()

	var req refreshWeekRequest
	if err := decodeJobRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	current, err := h.seasonService.EnsureCurrentSeason(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "ensure current season failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	result, err := h.refreshService.UpdateScoresIfStale(ctx, current.ID, req.Week)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh week job failed", "season_id", current.ID, "week", req.Week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, refreshResultDTO{
		Updated:      result.Updated,
		Reason:       result.Reason,
		LastUpdate:   formatOptionalTime(result.LastUpdate),
		GamesCreated: result.GamesCreated,
		GamesUpdated: result.GamesUpdated,
		PicksUpdated: result.PicksUpdated,
	})
}

func (h *Handler) RunTriggerUpdateJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunTriggerUpdateJob")
	defer span.End()

	if h.scheduler == nil {
		writeError(ctx, w, fmt.Errorf("%w: scheduler is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	if err := h.scheduler.TriggerUpdate(ctx); err != nil {
		h.logger.WarnContext(ctx, "trigger update job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "completed"})
}

func decodeJobRequest(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		// An empty body means "use the defaults".
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
