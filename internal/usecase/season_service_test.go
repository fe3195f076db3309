package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/domain/season"
	"github.com/tbrandt27/nfl-pickem/internal/infrastructure/repository/memory"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
)

func TestSeasonService_CurrentSeason_NotFound(t *testing.T) {
	t.Parallel()

	service := NewSeasonService(&fakeScoreProvider{}, memory.NewSeasonRepository(nil), &sequenceIDs{}, logging.NewNop())

	_, err := service.CurrentSeason(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSeasonService_EnsureCurrentSeason_BootstrapsFromProvider(t *testing.T) {
	t.Parallel()

	repo := memory.NewSeasonRepository(nil)
	provider := &fakeScoreProvider{seasonInfo: SeasonInfo{Year: 2025, Phase: game.PhaseRegular}}
	service := NewSeasonService(provider, repo, &sequenceIDs{}, logging.NewNop())

	created, err := service.EnsureCurrentSeason(context.Background())
	if err != nil {
		t.Fatalf("EnsureCurrentSeason error: %v", err)
	}
	if created.Year != 2025 || !created.IsCurrent {
		t.Fatalf("unexpected bootstrapped season: %+v", created)
	}

	stored, found, err := repo.GetCurrent(context.Background())
	if err != nil || !found {
		t.Fatalf("expected a current season, found=%t err=%v", found, err)
	}
	if stored.ID != created.ID {
		t.Fatalf("stored current season %q != returned %q", stored.ID, created.ID)
	}
}

func TestSeasonService_EnsureCurrentSeason_ReusesExistingYear(t *testing.T) {
	t.Parallel()

	repo := memory.NewSeasonRepository([]season.Season{
		{ID: "season-2025", Year: 2025, IsCurrent: false},
	})
	provider := &fakeScoreProvider{seasonInfo: SeasonInfo{Year: 2025, Phase: game.PhaseRegular}}
	service := NewSeasonService(provider, repo, &sequenceIDs{}, logging.NewNop())

	got, err := service.EnsureCurrentSeason(context.Background())
	if err != nil {
		t.Fatalf("EnsureCurrentSeason error: %v", err)
	}
	if got.ID != "season-2025" || !got.IsCurrent {
		t.Fatalf("expected the existing season marked current, got %+v", got)
	}
}

func TestSeasonService_EnsureCurrentSeason_ReturnsExistingCurrent(t *testing.T) {
	t.Parallel()

	repo := memory.NewSeasonRepository(memory.SeedSeasons())
	service := NewSeasonService(&fakeScoreProvider{}, repo, &sequenceIDs{}, logging.NewNop())

	got, err := service.EnsureCurrentSeason(context.Background())
	if err != nil {
		t.Fatalf("EnsureCurrentSeason error: %v", err)
	}
	if got.ID != memory.SeasonID2025 {
		t.Fatalf("expected %s, got %+v", memory.SeasonID2025, got)
	}
}
