package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc/panics"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/domain/season"
	"github.com/tbrandt27/nfl-pickem/internal/platform/cache"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
	"github.com/tbrandt27/nfl-pickem/internal/usecase"
)

const (
	scoreUpdateSpec  = "*/15 * * * *"
	pickScoringSpec  = "0 * * * *"
	staleCatchupSpec = "0 */6 * * *"

	taskScoreUpdate  = "score_update"
	taskPickScoring  = "pick_scoring"
	taskStaleCatchup = "stale_catchup"
)

type seasonEnsurer interface {
	EnsureCurrentSeason(ctx context.Context) (season.Season, error)
}

type scoreUpdater interface {
	UpdateGameScores(ctx context.Context) ([]usecase.WeekSyncResult, error)
}

type pickScorer interface {
	CalculateWeeks(ctx context.Context, seasonID string, weeks []int) ([]usecase.WeekScoringResult, error)
}

type staleRefresher interface {
	UpdateScoresIfStale(ctx context.Context, seasonID string, week int) (usecase.RefreshResult, error)
}

type weekResolver interface {
	FetchCurrentWeek(ctx context.Context) (int, error)
}

type Config struct {
	// Timezone anchors game-day and active-hour checks. Defaults to
	// America/New_York, where the league calendar lives.
	Timezone         string
	ActiveHourStart  int
	ActiveHourEnd    int
	PauseBetween     time.Duration
	HasGamesCacheTTL time.Duration
}

type TaskStatus struct {
	LastRunAt time.Time
	LastError string
}

type Status struct {
	Running bool
	Entries int
	Tasks   map[string]TaskStatus
}

// Scheduler drives the periodic sync pipeline. Every task body is
// supervised: a panic or error in one cycle is logged and the timers
// stay registered.
type Scheduler struct {
	seasons   seasonEnsurer
	updater   scoreUpdater
	scorer    pickScorer
	resolver  weekResolver
	refresher staleRefresher
	gameRepo  game.Repository

	cron     *cron.Cron
	store    *cache.Store
	logger   *logging.Logger
	location *time.Location
	cfg      Config
	now      func() time.Time

	mu      sync.Mutex
	running bool
	tasks   map[string]TaskStatus
	baseCtx context.Context
	cancel  context.CancelFunc
}

func New(
	seasons seasonEnsurer,
	updater scoreUpdater,
	scorer pickScorer,
	refresher staleRefresher,
	resolver weekResolver,
	gameRepo game.Repository,
	cfg Config,
	logger *logging.Logger,
) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "America/New_York"
	}
	if cfg.ActiveHourStart == 0 && cfg.ActiveHourEnd == 0 {
		cfg.ActiveHourStart = 13
		cfg.ActiveHourEnd = 23
	}
	if cfg.ActiveHourStart < 0 || cfg.ActiveHourStart > 23 || cfg.ActiveHourEnd <= cfg.ActiveHourStart || cfg.ActiveHourEnd > 24 {
		return nil, fmt.Errorf("active hours %d-%d are not valid", cfg.ActiveHourStart, cfg.ActiveHourEnd)
	}
	if cfg.PauseBetween <= 0 {
		cfg.PauseBetween = 2 * time.Second
	}
	if cfg.HasGamesCacheTTL <= 0 {
		cfg.HasGamesCacheTTL = 15 * time.Minute
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone %q: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		seasons:   seasons,
		updater:   updater,
		scorer:    scorer,
		refresher: refresher,
		resolver:  resolver,
		gameRepo:  gameRepo,
		store:     cache.NewStore(cfg.HasGamesCacheTTL),
		logger:    logger,
		location:  location,
		cfg:       cfg,
		now:       time.Now,
	}, nil
}

// Start registers the cron entries. Calling it on a running scheduler is
// a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	s.tasks = make(map[string]TaskStatus, 3)
	s.cron = cron.New(cron.WithLocation(s.location))

	entries := []struct {
		spec string
		name string
		fn   func(context.Context) error
	}{
		{scoreUpdateSpec, taskScoreUpdate, s.runScoreUpdate},
		{pickScoringSpec, taskPickScoring, s.runPickScoring},
		{staleCatchupSpec, taskStaleCatchup, s.runStaleCatchup},
	}
	for _, entry := range entries {
		entry := entry
		if _, err := s.cron.AddFunc(entry.spec, func() {
			s.superviseTask(entry.name, entry.fn)
		}); err != nil {
			return fmt.Errorf("register %s task: %w", entry.name, err)
		}
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "entries", len(entries), "timezone", s.cfg.Timezone)
	return nil
}

// Stop halts the cron loop and waits for in-flight runs. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	runner := s.cron
	cancel := s.cancel
	s.mu.Unlock()

	// Drain outside the lock: in-flight tasks re-take it to record
	// their status before the cron wait group releases them.
	<-runner.Stop().Done()
	cancel()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make(map[string]TaskStatus, len(s.tasks))
	for name, status := range s.tasks {
		tasks[name] = status
	}

	entries := 0
	if s.cron != nil {
		entries = len(s.cron.Entries())
	}
	return Status{
		Running: s.running,
		Entries: entries,
		Tasks:   tasks,
	}
}

// TriggerUpdate runs one full cycle immediately: score refresh, a short
// settle pause, then pick scoring for the current and previous weeks.
func (s *Scheduler) TriggerUpdate(ctx context.Context) error {
	current, err := s.seasons.EnsureCurrentSeason(ctx)
	if err != nil {
		return fmt.Errorf("ensure current season: %w", err)
	}

	if _, err := s.updater.UpdateGameScores(ctx); err != nil {
		return fmt.Errorf("update game scores: %w", err)
	}

	// Give score writes a moment to land before rescoring picks.
	timer := time.NewTimer(s.cfg.PauseBetween)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
	}

	weeks, err := s.neighborhoodWeeks(ctx)
	if err != nil {
		return err
	}
	if _, err := s.scorer.CalculateWeeks(ctx, current.ID, weeks); err != nil {
		return fmt.Errorf("score picks: %w", err)
	}
	return nil
}

// superviseTask runs one cron cycle under a panic catcher and records
// the outcome for Status.
func (s *Scheduler) superviseTask(name string, fn func(context.Context) error) {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	var runErr error
	var catcher panics.Catcher
	catcher.Try(func() {
		runErr = fn(ctx)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		runErr = fmt.Errorf("task panicked: %v", recovered.Value)
		s.logger.Error("scheduler task panicked", "task", name, "panic", recovered.String())
	} else if runErr != nil {
		s.logger.Warn("scheduler task failed", "task", name, "error", runErr)
	}

	status := TaskStatus{LastRunAt: s.now().UTC()}
	if runErr != nil {
		status.LastError = runErr.Error()
	}
	s.mu.Lock()
	if s.tasks != nil {
		s.tasks[name] = status
	}
	s.mu.Unlock()
}

// runScoreUpdate is the 15-minute cycle. On a game day inside active
// hours it forces a score refresh; outside them it defers to the
// staleness check, which only hits the provider when data is old.
func (s *Scheduler) runScoreUpdate(ctx context.Context) error {
	local := s.now().In(s.location)
	if !isGameDay(local) {
		return nil
	}

	current, err := s.seasons.EnsureCurrentSeason(ctx)
	if err != nil {
		return fmt.Errorf("ensure current season: %w", err)
	}

	hasGames, err := s.hasGamesToday(ctx, current.ID, local)
	if err != nil {
		return err
	}
	if !hasGames {
		return nil
	}

	if s.inActiveHours(local) {
		return s.TriggerUpdate(ctx)
	}

	week, err := s.resolver.FetchCurrentWeek(ctx)
	if err != nil {
		return fmt.Errorf("resolve current week: %w", err)
	}
	if _, err := s.refresher.UpdateScoresIfStale(ctx, current.ID, week); err != nil {
		return fmt.Errorf("refresh stale week %d: %w", week, err)
	}
	return nil
}

// runPickScoring is the hourly game-day cycle.
func (s *Scheduler) runPickScoring(ctx context.Context) error {
	local := s.now().In(s.location)
	if !isGameDay(local) {
		return nil
	}

	current, err := s.seasons.EnsureCurrentSeason(ctx)
	if err != nil {
		return fmt.Errorf("ensure current season: %w", err)
	}

	hasGames, err := s.hasGamesToday(ctx, current.ID, local)
	if err != nil {
		return err
	}
	if !hasGames {
		return nil
	}

	weeks, err := s.neighborhoodWeeks(ctx)
	if err != nil {
		return err
	}
	if _, err := s.scorer.CalculateWeeks(ctx, current.ID, weeks); err != nil {
		return fmt.Errorf("score picks: %w", err)
	}
	return nil
}

// runStaleCatchup is the six-hour cycle. It only acts off-hours on a
// game day with games on the slate; inside active hours the 15-minute
// cycle already covers the week, and outside the season there is
// nothing new to fetch.
func (s *Scheduler) runStaleCatchup(ctx context.Context) error {
	local := s.now().In(s.location)
	if !isGameDay(local) || s.inActiveHours(local) {
		return nil
	}

	current, err := s.seasons.EnsureCurrentSeason(ctx)
	if err != nil {
		return fmt.Errorf("ensure current season: %w", err)
	}

	hasGames, err := s.hasGamesToday(ctx, current.ID, local)
	if err != nil {
		return err
	}
	if !hasGames {
		return nil
	}

	week, err := s.resolver.FetchCurrentWeek(ctx)
	if err != nil {
		return fmt.Errorf("resolve current week: %w", err)
	}
	if _, err := s.refresher.UpdateScoresIfStale(ctx, current.ID, week); err != nil {
		return fmt.Errorf("refresh stale week %d: %w", week, err)
	}
	return nil
}

func (s *Scheduler) neighborhoodWeeks(ctx context.Context) ([]int, error) {
	week, err := s.resolver.FetchCurrentWeek(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current week: %w", err)
	}
	weeks := make([]int, 0, 2)
	if week > 1 {
		weeks = append(weeks, week-1)
	}
	weeks = append(weeks, week)
	return weeks, nil
}

// hasGamesToday reports whether the current week has a kickoff on the
// local calendar day. Results are cached per day so the check stays
// cheap between cron ticks.
func (s *Scheduler) hasGamesToday(ctx context.Context, seasonID string, local time.Time) (bool, error) {
	key := "hasgames:" + seasonID + ":" + local.Format("2006-01-02")
	loaded, err := s.store.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		week, weekErr := s.resolver.FetchCurrentWeek(ctx)
		if weekErr != nil {
			return nil, fmt.Errorf("resolve current week: %w", weekErr)
		}

		games, listErr := s.gameRepo.List(ctx, game.ListFilter{SeasonID: seasonID, Week: &week})
		if listErr != nil {
			return nil, fmt.Errorf("list games: %w", listErr)
		}

		year, month, day := local.Date()
		for _, g := range games {
			gy, gm, gd := g.KickoffAt.In(s.location).Date()
			if gy == year && gm == month && gd == day {
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}

	hasGames, ok := loaded.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected cached value type %T", loaded)
	}
	return hasGames, nil
}

func (s *Scheduler) inActiveHours(local time.Time) bool {
	hour := local.Hour()
	return hour >= s.cfg.ActiveHourStart && hour < s.cfg.ActiveHourEnd
}

// isGameDay covers the NFL slate days within the season months.
func isGameDay(local time.Time) bool {
	switch local.Month() {
	case time.September, time.October, time.November, time.December, time.January, time.February:
	default:
		return false
	}
	switch local.Weekday() {
	case time.Sunday, time.Monday, time.Thursday, time.Saturday:
		return true
	default:
		return false
	}
}
