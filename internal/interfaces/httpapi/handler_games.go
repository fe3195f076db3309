package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tbrandt27/nfl-pickem/internal/usecase"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetCurrentSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentSeason")
	defer span.End()

	current, err := h.seasonService.CurrentSeason(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get current season failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seasonDTO{
		ID:        current.ID,
		Year:      current.Year,
		IsCurrent: current.IsCurrent,
	})
}

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGames")
	defer span.End()

	query := usecase.GameQuery{
		SeasonID: strings.TrimSpace(r.URL.Query().Get("season_id")),
	}

	week, err := optionalIntParam(r, "week")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query.Week = week

	phase, err := optionalIntParam(r, "season_phase")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query.SeasonPhase = phase

	views, err := h.queryService.ListGames(ctx, query)
	if err != nil {
		h.logger.WarnContext(ctx, "list games failed", "season_id", query.SeasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]gameDTO, 0, len(views))
	for _, view := range views {
		items = append(items, gameViewToDTO(ctx, view))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.queryService.ListTeams(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSchedulerStatus")
	defer span.End()

	if h.scheduler == nil {
		writeError(ctx, w, fmt.Errorf("%w: scheduler is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, schedulerStatusToDTO(h.scheduler.Status()))
}

func optionalIntParam(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return &value, nil
}
