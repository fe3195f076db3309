package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/domain/season"
	"github.com/tbrandt27/nfl-pickem/internal/infrastructure/repository/memory"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
	"github.com/tbrandt27/nfl-pickem/internal/usecase"
)

type fakeSeasons struct {
	current season.Season
	err     error
}

func (f *fakeSeasons) EnsureCurrentSeason(context.Context) (season.Season, error) {
	return f.current, f.err
}

type fakeUpdater struct {
	calls int
	err   error
}

func (f *fakeUpdater) UpdateGameScores(context.Context) ([]usecase.WeekSyncResult, error) {
	f.calls++
	return nil, f.err
}

type fakeScorer struct {
	weeks [][]int
	err   error
}

func (f *fakeScorer) CalculateWeeks(_ context.Context, _ string, weeks []int) ([]usecase.WeekScoringResult, error) {
	f.weeks = append(f.weeks, weeks)
	return nil, f.err
}

type fakeRefresher struct {
	weeks []int
}

func (f *fakeRefresher) UpdateScoresIfStale(_ context.Context, _ string, week int) (usecase.RefreshResult, error) {
	f.weeks = append(f.weeks, week)
	return usecase.RefreshResult{}, nil
}

type fakeResolver struct {
	week  int
	err   error
	calls int
}

func (f *fakeResolver) FetchCurrentWeek(context.Context) (int, error) {
	f.calls++
	return f.week, f.err
}

func newTestScheduler(t *testing.T, games []game.Game, week int) (*Scheduler, *fakeUpdater, *fakeScorer, *fakeRefresher, *fakeResolver) {
	t.Helper()

	seasons := &fakeSeasons{current: season.Season{ID: memory.SeasonID2025, Year: 2025, IsCurrent: true}}
	updater := &fakeUpdater{}
	scorer := &fakeScorer{}
	refresher := &fakeRefresher{}
	resolver := &fakeResolver{week: week}

	s, err := New(seasons, updater, scorer, refresher, resolver, memory.NewGameRepository(games), Config{
		PauseBetween: time.Millisecond,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return s, updater, scorer, refresher, resolver
}

func TestScheduler_TriggerUpdate_SyncsThenScoresNeighborhood(t *testing.T) {
	t.Parallel()

	s, updater, scorer, _, _ := newTestScheduler(t, nil, 3)

	if err := s.TriggerUpdate(context.Background()); err != nil {
		t.Fatalf("TriggerUpdate error: %v", err)
	}
	if updater.calls != 1 {
		t.Fatalf("expected one score sync, got %d", updater.calls)
	}
	if len(scorer.weeks) != 1 {
		t.Fatalf("expected one scoring batch, got %d", len(scorer.weeks))
	}
	if got := scorer.weeks[0]; len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("expected weeks [2 3] scored, got %v", got)
	}
}

func TestScheduler_TriggerUpdate_Week1ScoresSingleWeek(t *testing.T) {
	t.Parallel()

	s, _, scorer, _, _ := newTestScheduler(t, nil, 1)

	if err := s.TriggerUpdate(context.Background()); err != nil {
		t.Fatalf("TriggerUpdate error: %v", err)
	}
	if got := scorer.weeks[0]; len(got) != 1 || got[0] != 1 {
		t.Fatalf("week 1 has no previous week, got %v", got)
	}
}

func TestScheduler_TriggerUpdate_PropagatesSyncFailure(t *testing.T) {
	t.Parallel()

	s, updater, scorer, _, _ := newTestScheduler(t, nil, 3)
	updater.err = fmt.Errorf("provider down")

	if err := s.TriggerUpdate(context.Background()); err == nil {
		t.Fatalf("expected sync failure to propagate")
	}
	if len(scorer.weeks) != 0 {
		t.Fatalf("scoring must not run after a failed sync, got %v", scorer.weeks)
	}
}

func TestScheduler_StartStopIdempotent(t *testing.T) {
	t.Parallel()

	s, _, _, _, _ := newTestScheduler(t, nil, 1)

	if err := s.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start error: %v", err)
	}

	status := s.Status()
	if !status.Running || status.Entries != 3 {
		t.Fatalf("expected 3 running entries, got %+v", status)
	}

	s.Stop()
	s.Stop()

	if s.Status().Running {
		t.Fatalf("scheduler should report stopped")
	}
}

func TestScheduler_StopWaitsForInFlightTask(t *testing.T) {
	t.Parallel()

	s, _, _, _, _ := newTestScheduler(t, nil, 1)

	// Wire a second-granularity entry so a run is in flight within a
	// second of starting.
	var entered sync.Once
	started := make(chan struct{})
	release := make(chan struct{})

	s.mu.Lock()
	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	s.tasks = make(map[string]TaskStatus)
	s.cron = cron.New(cron.WithSeconds(), cron.WithLocation(s.location))
	_, err := s.cron.AddFunc("* * * * * *", func() {
		s.superviseTask("slow", func(context.Context) error {
			entered.Do(func() { close(started) })
			<-release
			return nil
		})
	})
	if err != nil {
		s.mu.Unlock()
		t.Fatalf("register task: %v", err)
	}
	s.cron.Start()
	s.running = true
	s.mu.Unlock()

	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatalf("Stop returned before the in-flight run finished")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatalf("Stop did not return after the run finished")
	}

	status := s.Status()
	if status.Running {
		t.Fatalf("scheduler should report stopped")
	}
	if task, ok := status.Tasks["slow"]; !ok || task.LastRunAt.IsZero() {
		t.Fatalf("expected the in-flight run recorded, got %+v", status.Tasks)
	}
}

func TestScheduler_SuperviseTaskRecoversPanics(t *testing.T) {
	t.Parallel()

	s, _, _, _, _ := newTestScheduler(t, nil, 1)
	s.baseCtx = context.Background()
	s.tasks = make(map[string]TaskStatus)

	s.superviseTask("boom", func(context.Context) error {
		panic("kaboom")
	})

	status := s.Status()
	task, ok := status.Tasks["boom"]
	if !ok {
		t.Fatalf("expected a recorded task run")
	}
	if task.LastError == "" {
		t.Fatalf("expected the panic recorded as an error")
	}
	if task.LastRunAt.IsZero() {
		t.Fatalf("expected a run timestamp")
	}
}

func TestScheduler_RunStaleCatchup_RefreshesCurrentWeekOffHours(t *testing.T) {
	t.Parallel()

	// Week 7 Sunday with a 1pm ET kickoff on record.
	kickoff := time.Date(2025, 10, 19, 17, 0, 0, 0, time.UTC)
	games := []game.Game{{
		ID:          "game-w7-kc-den",
		SeasonID:    memory.SeasonID2025,
		Week:        7,
		SeasonPhase: game.PhaseRegular,
		HomeTeamID:  "team-kc",
		AwayTeamID:  "team-den",
		KickoffAt:   kickoff,
		Status:      game.StatusScheduled,
	}}

	s, updater, _, refresher, _ := newTestScheduler(t, games, 7)
	// 10:00 ET on that Sunday, before the active window opens.
	s.now = func() time.Time { return time.Date(2025, 10, 19, 14, 0, 0, 0, time.UTC) }

	if err := s.runStaleCatchup(context.Background()); err != nil {
		t.Fatalf("runStaleCatchup error: %v", err)
	}
	if len(refresher.weeks) != 1 || refresher.weeks[0] != 7 {
		t.Fatalf("expected week 7 refreshed, got %v", refresher.weeks)
	}
	if updater.calls != 0 {
		t.Fatalf("catch-up must not force a sync, got %d", updater.calls)
	}
}

func TestScheduler_RunStaleCatchup_SkipsActiveHours(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 10, 19, 17, 0, 0, 0, time.UTC)
	games := []game.Game{{
		ID:          "game-w7-kc-den",
		SeasonID:    memory.SeasonID2025,
		Week:        7,
		SeasonPhase: game.PhaseRegular,
		HomeTeamID:  "team-kc",
		AwayTeamID:  "team-den",
		KickoffAt:   kickoff,
		Status:      game.StatusInProgress,
	}}

	s, _, _, refresher, resolver := newTestScheduler(t, games, 7)
	// 15:00 ET: the 15-minute cycle owns this window.
	s.now = func() time.Time { return time.Date(2025, 10, 19, 19, 0, 0, 0, time.UTC) }

	if err := s.runStaleCatchup(context.Background()); err != nil {
		t.Fatalf("runStaleCatchup error: %v", err)
	}
	if len(refresher.weeks) != 0 || resolver.calls != 0 {
		t.Fatalf("catch-up must stand down inside active hours (refresh=%v lookups=%d)", refresher.weeks, resolver.calls)
	}
}

func TestScheduler_RunStaleCatchup_SkipsOffseason(t *testing.T) {
	t.Parallel()

	s, _, _, refresher, resolver := newTestScheduler(t, nil, 7)
	// A Wednesday in July: neither a game day nor a season month.
	s.now = func() time.Time { return time.Date(2025, 7, 16, 11, 0, 0, 0, time.UTC) }

	if err := s.runStaleCatchup(context.Background()); err != nil {
		t.Fatalf("runStaleCatchup error: %v", err)
	}
	if len(refresher.weeks) != 0 || resolver.calls != 0 {
		t.Fatalf("offseason catch-up must be a no-op (refresh=%v lookups=%d)", refresher.weeks, resolver.calls)
	}
}

func TestScheduler_RunStaleCatchup_GameDayWithoutGamesIsNoop(t *testing.T) {
	t.Parallel()

	s, _, _, refresher, _ := newTestScheduler(t, nil, 7)
	// An off-hours September Sunday with nothing on the slate.
	s.now = func() time.Time { return time.Date(2025, 9, 7, 14, 0, 0, 0, time.UTC) }

	if err := s.runStaleCatchup(context.Background()); err != nil {
		t.Fatalf("runStaleCatchup error: %v", err)
	}
	if len(refresher.weeks) != 0 {
		t.Fatalf("no kickoffs today means no refresh, got %v", refresher.weeks)
	}
}

func TestScheduler_RunScoreUpdate_SkipsOffseason(t *testing.T) {
	t.Parallel()

	s, updater, _, refresher, _ := newTestScheduler(t, nil, 1)
	// A Wednesday in July: neither a game day nor a season month.
	s.now = func() time.Time { return time.Date(2025, 7, 16, 18, 0, 0, 0, time.UTC) }

	if err := s.runScoreUpdate(context.Background()); err != nil {
		t.Fatalf("runScoreUpdate error: %v", err)
	}
	if updater.calls != 0 || len(refresher.weeks) != 0 {
		t.Fatalf("offseason runs must be no-ops (sync=%d refresh=%v)", updater.calls, refresher.weeks)
	}
}

func TestScheduler_RunScoreUpdate_GameDayTriggersFullCycle(t *testing.T) {
	t.Parallel()

	// Week 1 Sunday with a 1pm ET kickoff on record.
	kickoff := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	games := []game.Game{{
		ID:          "game-w1-kc-den",
		SeasonID:    memory.SeasonID2025,
		Week:        1,
		SeasonPhase: game.PhaseRegular,
		HomeTeamID:  "team-kc",
		AwayTeamID:  "team-den",
		KickoffAt:   kickoff,
		Status:      game.StatusScheduled,
	}}

	s, updater, scorer, _, _ := newTestScheduler(t, games, 1)
	// 15:00 ET on that Sunday, inside the active window.
	s.now = func() time.Time { return time.Date(2025, 9, 7, 19, 0, 0, 0, time.UTC) }

	if err := s.runScoreUpdate(context.Background()); err != nil {
		t.Fatalf("runScoreUpdate error: %v", err)
	}
	if updater.calls != 1 {
		t.Fatalf("expected a forced score sync on an active game day, got %d", updater.calls)
	}
	if len(scorer.weeks) != 1 {
		t.Fatalf("expected pick scoring after the sync, got %v", scorer.weeks)
	}
}

func TestScheduler_RunScoreUpdate_OffHoursChecksStalenessOnly(t *testing.T) {
	t.Parallel()

	// Week 1 Sunday with a 1pm ET kickoff on record.
	kickoff := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	games := []game.Game{{
		ID:          "game-w1-kc-den",
		SeasonID:    memory.SeasonID2025,
		Week:        1,
		SeasonPhase: game.PhaseRegular,
		HomeTeamID:  "team-kc",
		AwayTeamID:  "team-den",
		KickoffAt:   kickoff,
		Status:      game.StatusScheduled,
	}}

	s, updater, scorer, refresher, _ := newTestScheduler(t, games, 1)
	// 10:00 ET that morning, before the active window opens.
	s.now = func() time.Time { return time.Date(2025, 9, 7, 14, 0, 0, 0, time.UTC) }

	if err := s.runScoreUpdate(context.Background()); err != nil {
		t.Fatalf("runScoreUpdate error: %v", err)
	}
	if updater.calls != 0 {
		t.Fatalf("off-hours runs must not force a sync, got %d", updater.calls)
	}
	if len(scorer.weeks) != 0 {
		t.Fatalf("off-hours runs must not score picks, got %v", scorer.weeks)
	}
	if len(refresher.weeks) != 1 || refresher.weeks[0] != 1 {
		t.Fatalf("expected a staleness check for week 1, got %v", refresher.weeks)
	}
}

func TestScheduler_RunScoreUpdate_GameDayWithoutGamesIsNoop(t *testing.T) {
	t.Parallel()

	s, updater, _, refresher, _ := newTestScheduler(t, nil, 1)
	s.now = func() time.Time { return time.Date(2025, 9, 7, 19, 0, 0, 0, time.UTC) }

	if err := s.runScoreUpdate(context.Background()); err != nil {
		t.Fatalf("runScoreUpdate error: %v", err)
	}
	if updater.calls != 0 || len(refresher.weeks) != 0 {
		t.Fatalf("a game day without scheduled games must not sync (sync=%d refresh=%v)", updater.calls, refresher.weeks)
	}
}

func TestIsGameDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2025, 9, 7, 12, 0, 0, 0, time.UTC), true},   // September Sunday
		{time.Date(2025, 9, 8, 12, 0, 0, 0, time.UTC), true},   // Monday night
		{time.Date(2025, 9, 11, 12, 0, 0, 0, time.UTC), true},  // Thursday night
		{time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC), true}, // late-season Saturday
		{time.Date(2025, 9, 9, 12, 0, 0, 0, time.UTC), false},  // Tuesday
		{time.Date(2025, 7, 13, 12, 0, 0, 0, time.UTC), false}, // offseason Sunday
	}
	for _, tc := range cases {
		if got := isGameDay(tc.at); got != tc.want {
			t.Fatalf("isGameDay(%v) = %t, want %t", tc.at, got, tc.want)
		}
	}
}
