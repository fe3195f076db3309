package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/domain/pick"
	"github.com/tbrandt27/nfl-pickem/internal/infrastructure/repository/memory"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
)

func finishedGame(id string, week int, homeTeamID, awayTeamID string, homeScore, awayScore int) game.Game {
	ts := time.Date(2025, 9, 7, 20, 0, 0, 0, time.UTC)
	return game.Game{
		ID:              id,
		SeasonID:        memory.SeasonID2025,
		Week:            week,
		SeasonPhase:     game.PhaseRegular,
		HomeTeamID:      homeTeamID,
		AwayTeamID:      awayTeamID,
		HomeScore:       &homeScore,
		AwayScore:       &awayScore,
		KickoffAt:       time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC),
		Status:          game.StatusFinal,
		ScoresUpdatedAt: &ts,
	}
}

func TestPickScoringService_CalculatePicks_MarksWinners(t *testing.T) {
	t.Parallel()

	gameRepo := memory.NewGameRepository([]game.Game{
		finishedGame("game-w1-kc-den", 1, "team-kc", "team-den", 27, 20),
	})
	pickRepo := memory.NewPickRepository([]pick.Pick{
		{ID: "pick-001", UserID: "user-1", PoolID: "pool-1", GameID: "game-w1-kc-den", TeamID: "team-kc"},
		{ID: "pick-002", UserID: "user-2", PoolID: "pool-1", GameID: "game-w1-kc-den", TeamID: "team-den"},
	})

	service := NewPickScoringService(gameRepo, pickRepo, 1, logging.NewNop())

	result, err := service.CalculatePicks(context.Background(), memory.SeasonID2025, intPtr(1))
	if err != nil {
		t.Fatalf("CalculatePicks error: %v", err)
	}
	if result.UpdatedPicks != 2 || result.CompletedGames != 1 {
		t.Fatalf("expected 2 updated picks over 1 game, got %+v", result)
	}

	picks, err := pickRepo.ListByGameIDs(context.Background(), []string{"game-w1-kc-den"})
	if err != nil {
		t.Fatalf("ListByGameIDs error: %v", err)
	}
	for _, p := range picks {
		if p.IsCorrect == nil {
			t.Fatalf("pick %s was not scored", p.ID)
		}
		want := p.TeamID == "team-kc"
		if *p.IsCorrect != want {
			t.Fatalf("pick %s correctness = %t, want %t", p.ID, *p.IsCorrect, want)
		}
	}
}

func TestPickScoringService_CalculatePicks_TieMarksAllIncorrect(t *testing.T) {
	t.Parallel()

	gameRepo := memory.NewGameRepository([]game.Game{
		finishedGame("game-w1-kc-den", 1, "team-kc", "team-den", 21, 21),
	})
	pickRepo := memory.NewPickRepository([]pick.Pick{
		{ID: "pick-001", UserID: "user-1", PoolID: "pool-1", GameID: "game-w1-kc-den", TeamID: "team-kc"},
		{ID: "pick-002", UserID: "user-2", PoolID: "pool-1", GameID: "game-w1-kc-den", TeamID: "team-den"},
	})

	service := NewPickScoringService(gameRepo, pickRepo, 1, logging.NewNop())

	result, err := service.CalculatePicks(context.Background(), memory.SeasonID2025, intPtr(1))
	if err != nil {
		t.Fatalf("CalculatePicks error: %v", err)
	}
	if result.UpdatedPicks != 2 {
		t.Fatalf("expected both picks marked, got %+v", result)
	}

	picks, err := pickRepo.ListByGameIDs(context.Background(), []string{"game-w1-kc-den"})
	if err != nil {
		t.Fatalf("ListByGameIDs error: %v", err)
	}
	for _, p := range picks {
		if p.IsCorrect == nil || *p.IsCorrect {
			t.Fatalf("a tie leaves no winner, pick %s should be incorrect", p.ID)
		}
	}
}

func TestPickScoringService_CalculatePicks_SecondRunIsNoop(t *testing.T) {
	t.Parallel()

	gameRepo := memory.NewGameRepository([]game.Game{
		finishedGame("game-w1-kc-den", 1, "team-kc", "team-den", 27, 20),
	})
	pickRepo := memory.NewPickRepository([]pick.Pick{
		{ID: "pick-001", UserID: "user-1", PoolID: "pool-1", GameID: "game-w1-kc-den", TeamID: "team-kc"},
		{ID: "pick-002", UserID: "user-2", PoolID: "pool-1", GameID: "game-w1-kc-den", TeamID: "team-den"},
	})

	service := NewPickScoringService(gameRepo, pickRepo, 1, logging.NewNop())

	if _, err := service.CalculatePicks(context.Background(), memory.SeasonID2025, intPtr(1)); err != nil {
		t.Fatalf("first CalculatePicks error: %v", err)
	}

	result, err := service.CalculatePicks(context.Background(), memory.SeasonID2025, intPtr(1))
	if err != nil {
		t.Fatalf("second CalculatePicks error: %v", err)
	}
	if result.UpdatedPicks != 0 {
		t.Fatalf("rescoring unchanged games must update nothing, got %+v", result)
	}
}

func TestPickScoringService_CalculatePicks_SkipsUnfinishedGames(t *testing.T) {
	t.Parallel()

	inProgress := finishedGame("game-w1-phi-dal", 1, "team-phi", "team-dal", 14, 7)
	inProgress.Status = game.StatusInProgress

	gameRepo := memory.NewGameRepository([]game.Game{inProgress})
	pickRepo := memory.NewPickRepository([]pick.Pick{
		{ID: "pick-003", UserID: "user-1", PoolID: "pool-1", GameID: "game-w1-phi-dal", TeamID: "team-dal"},
	})

	service := NewPickScoringService(gameRepo, pickRepo, 1, logging.NewNop())

	result, err := service.CalculatePicks(context.Background(), memory.SeasonID2025, intPtr(1))
	if err != nil {
		t.Fatalf("CalculatePicks error: %v", err)
	}
	if result.UpdatedPicks != 0 || result.CompletedGames != 0 {
		t.Fatalf("in-progress games must not be scored, got %+v", result)
	}

	picks, err := pickRepo.ListByGameIDs(context.Background(), []string{"game-w1-phi-dal"})
	if err != nil {
		t.Fatalf("ListByGameIDs error: %v", err)
	}
	if picks[0].IsCorrect != nil {
		t.Fatalf("pick on an in-progress game must stay unscored")
	}
}

func TestPickScoringService_CalculateWeeks_ScoresEachWeek(t *testing.T) {
	t.Parallel()

	gameRepo := memory.NewGameRepository([]game.Game{
		finishedGame("game-w1-kc-den", 1, "team-kc", "team-den", 27, 20),
		finishedGame("game-w2-phi-dal", 2, "team-phi", "team-dal", 10, 24),
	})
	pickRepo := memory.NewPickRepository([]pick.Pick{
		{ID: "pick-001", UserID: "user-1", PoolID: "pool-1", GameID: "game-w1-kc-den", TeamID: "team-kc"},
		{ID: "pick-002", UserID: "user-1", PoolID: "pool-1", GameID: "game-w2-phi-dal", TeamID: "team-phi"},
	})

	service := NewPickScoringService(gameRepo, pickRepo, 2, logging.NewNop())

	results, err := service.CalculateWeeks(context.Background(), memory.SeasonID2025, []int{2, 1})
	if err != nil {
		t.Fatalf("CalculateWeeks error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 week results, got %d", len(results))
	}
	if results[0].Week != 1 || results[1].Week != 2 {
		t.Fatalf("results should be ordered by week, got [%d %d]", results[0].Week, results[1].Week)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("week %d failed: %v", r.Week, r.Err)
		}
		if r.Result.UpdatedPicks != 1 {
			t.Fatalf("week %d expected 1 updated pick, got %+v", r.Week, r.Result)
		}
	}
}
