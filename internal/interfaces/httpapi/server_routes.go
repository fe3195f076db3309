package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/season/current", handler.GetCurrentSeason)
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/games", handler.ListGames)
	mux.HandleFunc("GET /v1/scheduler/status", handler.GetSchedulerStatus)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sync-games", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncGamesJob)))
	mux.Handle("POST /v1/internal/jobs/sync-scores", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncScoresJob)))
	mux.Handle("POST /v1/internal/jobs/full-schedule", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunFullScheduleJob)))
	mux.Handle("POST /v1/internal/jobs/calculate-picks", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunCalculatePicksJob)))
	mux.Handle("POST /v1/internal/jobs/refresh-week", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRefreshWeekJob)))
	mux.Handle("POST /v1/internal/jobs/trigger-update", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunTriggerUpdateJob)))
}
