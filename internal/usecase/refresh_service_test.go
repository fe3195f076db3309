package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/infrastructure/repository/memory"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
)

type recordingSyncer struct {
	weeks  []int
	result SyncResult
}

func (r *recordingSyncer) UpdateGames(_ context.Context, _ string, opts SyncOptions) (SyncResult, error) {
	if opts.Week != nil {
		r.weeks = append(r.weeks, *opts.Week)
	}
	if !opts.ScoresOnly {
		panic("stale refresh must sync scores only")
	}
	return r.result, nil
}

type recordingScorer struct {
	weeks  []int
	result ScoringResult
}

func (r *recordingScorer) CalculatePicks(_ context.Context, _ string, week *int) (ScoringResult, error) {
	if week != nil {
		r.weeks = append(r.weeks, *week)
	}
	return r.result, nil
}

func refreshFixture(games []game.Game, currentWeek int, at time.Time) (*RefreshService, *recordingSyncer, *recordingScorer) {
	provider := &fakeScoreProvider{
		seasonInfo: SeasonInfo{Year: 2025, Phase: game.PhaseRegular, Week: currentWeek},
		week:       currentWeek,
	}
	syncer := &recordingSyncer{result: SyncResult{Updated: 1}}
	scorer := &recordingScorer{result: ScoringResult{UpdatedPicks: 1}}
	service := NewRefreshService(provider, memory.NewGameRepository(games), syncer, scorer, RefreshConfig{}, logging.NewNop())
	service.now = func() time.Time { return at }
	return service, syncer, scorer
}

func TestRefreshService_AreScoresStale_NoGames(t *testing.T) {
	t.Parallel()

	service, _, _ := refreshFixture(nil, 1, time.Date(2025, 9, 7, 21, 0, 0, 0, time.UTC))

	staleness, err := service.AreScoresStale(context.Background(), memory.SeasonID2025, 1)
	if err != nil {
		t.Fatalf("AreScoresStale error: %v", err)
	}
	if !staleness.Stale {
		t.Fatalf("a week with no games must be stale, got %+v", staleness)
	}
}

func TestRefreshService_AreScoresStale_NeverUpdatedScheduledGames(t *testing.T) {
	t.Parallel()

	service, _, _ := refreshFixture(memory.SeedGames(), 1, time.Date(2025, 9, 7, 21, 0, 0, 0, time.UTC))

	staleness, err := service.AreScoresStale(context.Background(), memory.SeasonID2025, 1)
	if err != nil {
		t.Fatalf("AreScoresStale error: %v", err)
	}
	if !staleness.Stale {
		t.Fatalf("scheduled games that were never refreshed must be stale, got %+v", staleness)
	}
}

func TestRefreshService_AreScoresStale_FinishedGameAgesOut(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 7, 21, 0, 0, 0, time.UTC)

	build := func(age time.Duration) []game.Game {
		ts := now.Add(-age)
		g := finishedGame("game-w1-kc-den", 1, "team-kc", "team-den", 27, 20)
		g.ScoresUpdatedAt = &ts
		return []game.Game{g}
	}

	service, _, _ := refreshFixture(build(30*time.Minute), 1, now)
	staleness, err := service.AreScoresStale(context.Background(), memory.SeasonID2025, 1)
	if err != nil {
		t.Fatalf("AreScoresStale error: %v", err)
	}
	if !staleness.Stale {
		t.Fatalf("a finished game refreshed 30m ago must be stale, got %+v", staleness)
	}

	service, _, _ = refreshFixture(build(5*time.Minute), 1, now)
	staleness, err = service.AreScoresStale(context.Background(), memory.SeasonID2025, 1)
	if err != nil {
		t.Fatalf("AreScoresStale error: %v", err)
	}
	if staleness.Stale {
		t.Fatalf("a finished game refreshed 5m ago is fresh, got %+v", staleness)
	}
}

func TestRefreshService_UpdateScoresIfStale_FreshWeekIsNoop(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 7, 21, 0, 0, 0, time.UTC)
	ts := now.Add(-2 * time.Minute)
	g := finishedGame("game-w1-kc-den", 1, "team-kc", "team-den", 27, 20)
	g.ScoresUpdatedAt = &ts

	service, syncer, scorer := refreshFixture([]game.Game{g}, 1, now)

	result, err := service.UpdateScoresIfStale(context.Background(), memory.SeasonID2025, 1)
	if err != nil {
		t.Fatalf("UpdateScoresIfStale error: %v", err)
	}
	if result.Updated {
		t.Fatalf("fresh week must not refresh, got %+v", result)
	}
	if len(syncer.weeks) != 0 || len(scorer.weeks) != 0 {
		t.Fatalf("fresh week must not touch provider or scoring (sync=%v score=%v)", syncer.weeks, scorer.weeks)
	}
}

func TestRefreshService_UpdateScoresIfStale_ExpandsCurrentWeekNeighborhood(t *testing.T) {
	t.Parallel()

	service, syncer, scorer := refreshFixture(nil, 3, time.Date(2025, 9, 21, 21, 0, 0, 0, time.UTC))

	result, err := service.UpdateScoresIfStale(context.Background(), memory.SeasonID2025, 3)
	if err != nil {
		t.Fatalf("UpdateScoresIfStale error: %v", err)
	}
	if !result.Updated {
		t.Fatalf("stale week must refresh, got %+v", result)
	}
	if len(syncer.weeks) != 2 || syncer.weeks[0] != 2 || syncer.weeks[1] != 3 {
		t.Fatalf("expected weeks [2 3] synced, got %v", syncer.weeks)
	}
	if len(scorer.weeks) != 2 || scorer.weeks[0] != 2 || scorer.weeks[1] != 3 {
		t.Fatalf("expected weeks [2 3] rescored, got %v", scorer.weeks)
	}
	if result.GamesUpdated != 2 || result.PicksUpdated != 2 {
		t.Fatalf("expected accumulated counts, got %+v", result)
	}
}

func TestRefreshService_UpdateScoresIfStale_OldWeekRefreshesAlone(t *testing.T) {
	t.Parallel()

	service, syncer, _ := refreshFixture(nil, 10, time.Date(2025, 11, 9, 21, 0, 0, 0, time.UTC))

	if _, err := service.UpdateScoresIfStale(context.Background(), memory.SeasonID2025, 5); err != nil {
		t.Fatalf("UpdateScoresIfStale error: %v", err)
	}
	if len(syncer.weeks) != 1 || syncer.weeks[0] != 5 {
		t.Fatalf("a week outside the current neighborhood refreshes alone, got %v", syncer.weeks)
	}
}
