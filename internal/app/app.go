package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/tbrandt27/nfl-pickem/external/espn"
	"github.com/tbrandt27/nfl-pickem/internal/config"
	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/domain/pick"
	"github.com/tbrandt27/nfl-pickem/internal/domain/season"
	"github.com/tbrandt27/nfl-pickem/internal/domain/team"
	"github.com/tbrandt27/nfl-pickem/internal/infrastructure/repository/memory"
	"github.com/tbrandt27/nfl-pickem/internal/infrastructure/repository/postgres"
	"github.com/tbrandt27/nfl-pickem/internal/interfaces/httpapi"
	"github.com/tbrandt27/nfl-pickem/internal/platform/cache"
	idgen "github.com/tbrandt27/nfl-pickem/internal/platform/id"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
	"github.com/tbrandt27/nfl-pickem/internal/platform/resilience"
	"github.com/tbrandt27/nfl-pickem/internal/scheduler"
	"github.com/tbrandt27/nfl-pickem/internal/usecase"
)

// App owns the wired service graph: the HTTP server, the cron
// scheduler, and the database handle when one is configured.
type App struct {
	Server    *http.Server
	Scheduler *scheduler.Scheduler
	DB        *sqlx.DB

	logger *logging.Logger
}

type repositories struct {
	seasons season.Repository
	teams   team.Repository
	games   game.Repository
	picks   pick.Repository
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	db, repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}

	provider := espn.NewClient(espn.ClientConfig{
		BaseURL:        cfg.ESPNBaseURL,
		Timeout:        cfg.ESPNTimeout,
		MaxRetries:     cfg.ESPNMaxRetries,
		RetryBaseDelay: cfg.ESPNRetryBaseDelay,
		Logger:         logger,
		Cache:          store,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ESPNCircuitEnabled,
			FailureThreshold: cfg.ESPNCircuitFailureCount,
			OpenTimeout:      cfg.ESPNCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ESPNCircuitHalfOpenMaxReq,
		},
	})

	ids := idgen.NewRandomGenerator()
	seasonSvc := usecase.NewSeasonService(provider, repos.seasons, ids, logger)
	syncSvc := usecase.NewScoreSyncService(provider, repos.seasons, repos.teams, repos.games, ids, logger)
	scoringSvc := usecase.NewPickScoringService(repos.games, repos.picks, 0, logger)
	refreshSvc := usecase.NewRefreshService(provider, repos.games, syncSvc, scoringSvc, usecase.RefreshConfig{}, logger)
	querySvc := usecase.NewGameQueryService(repos.seasons, repos.teams, repos.games, logger)

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched, err = scheduler.New(seasonSvc, syncSvc, scoringSvc, refreshSvc, provider, repos.games, scheduler.Config{
			Timezone:        cfg.SchedulerTimezone,
			ActiveHourStart: cfg.SchedulerActiveHourStart,
			ActiveHourEnd:   cfg.SchedulerActiveHourEnd,
			PauseBetween:    cfg.SchedulerPauseBetween,
		}, logger)
		if err != nil {
			closeDB(db, logger)
			return nil, fmt.Errorf("build scheduler: %w", err)
		}
	}

	var schedulerControl httpapi.SchedulerControl
	if sched != nil {
		schedulerControl = sched
	}

	handler := httpapi.NewHandler(seasonSvc, syncSvc, scoringSvc, refreshSvc, querySvc, schedulerControl, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		Server:    server,
		Scheduler: sched,
		DB:        db,
		logger:    logger,
	}, nil
}

// Close releases resources held by the app. The HTTP server and the
// scheduler are shut down by the caller before this point.
func (a *App) Close() error {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}

	return nil
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (*sqlx.DB, repositories, error) {
	if cfg.DBURL == "" {
		logger.Warn("DB_URL is empty, using seeded in-memory repositories")
		return nil, repositories{
			seasons: memory.NewSeasonRepository(memory.SeedSeasons()),
			teams:   memory.NewTeamRepository(memory.SeedTeams()),
			games:   memory.NewGameRepository(memory.SeedGames()),
			picks:   memory.NewPickRepository(memory.SeedPicks()),
		}, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, repositories{}, fmt.Errorf("open database: %w", err)
	}

	return db, repositories{
		seasons: postgres.NewSeasonRepository(db),
		teams:   postgres.NewTeamRepository(db),
		games:   postgres.NewGameRepository(db),
		picks:   postgres.NewPickRepository(db),
	}, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dbURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func closeDB(db *sqlx.DB, logger *logging.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn("close database", "error", err)
	}
}
