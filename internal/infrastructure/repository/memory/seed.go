package memory

import (
	"time"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/domain/pick"
	"github.com/tbrandt27/nfl-pickem/internal/domain/season"
	"github.com/tbrandt27/nfl-pickem/internal/domain/team"
)

const SeasonID2025 = "season-2025"

// Seed data backs demo runs without a database.

func SeedSeasons() []season.Season {
	return []season.Season{
		{ID: SeasonID2025, Year: 2025, IsCurrent: true},
	}
}

func SeedTeams() []team.Team {
	return []team.Team{
		{ID: "team-kc", Code: "KC", Name: "Chiefs", City: "Kansas City", Conference: "AFC", Division: "West", PrimaryColor: "#e31837", SecondaryColor: "#ffb81c"},
		{ID: "team-den", Code: "DEN", Name: "Broncos", City: "Denver", Conference: "AFC", Division: "West", PrimaryColor: "#fb4f14", SecondaryColor: "#002244"},
		{ID: "team-phi", Code: "PHI", Name: "Eagles", City: "Philadelphia", Conference: "NFC", Division: "East", PrimaryColor: "#004c54", SecondaryColor: "#a5acaf"},
		{ID: "team-dal", Code: "DAL", Name: "Cowboys", City: "Dallas", Conference: "NFC", Division: "East", PrimaryColor: "#003594", SecondaryColor: "#869397"},
		{ID: "team-wsh", Code: "WSH", Name: "Commanders", City: "Washington", Conference: "NFC", Division: "East", PrimaryColor: "#5a1414", SecondaryColor: "#ffb612"},
		{ID: "team-nyg", Code: "NYG", Name: "Giants", City: "New York", Conference: "NFC", Division: "East", PrimaryColor: "#0b2265", SecondaryColor: "#a71930"},
	}
}

func SeedGames() []game.Game {
	kickoffA := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	kickoffB := time.Date(2025, 9, 7, 20, 25, 0, 0, time.UTC)
	return []game.Game{
		{
			ID:          "game-w1-kc-den",
			SeasonID:    SeasonID2025,
			Week:        1,
			SeasonPhase: game.PhaseRegular,
			HomeTeamID:  "team-kc",
			AwayTeamID:  "team-den",
			KickoffAt:   kickoffA,
			Status:      game.StatusScheduled,
		},
		{
			ID:          "game-w1-phi-dal",
			SeasonID:    SeasonID2025,
			Week:        1,
			SeasonPhase: game.PhaseRegular,
			HomeTeamID:  "team-phi",
			AwayTeamID:  "team-dal",
			KickoffAt:   kickoffB,
			Status:      game.StatusScheduled,
		},
	}
}

func SeedPicks() []pick.Pick {
	return []pick.Pick{
		{ID: "pick-001", UserID: "user-1", PoolID: "pool-1", GameID: "game-w1-kc-den", TeamID: "team-kc"},
		{ID: "pick-002", UserID: "user-2", PoolID: "pool-1", GameID: "game-w1-kc-den", TeamID: "team-den"},
		{ID: "pick-003", UserID: "user-1", PoolID: "pool-1", GameID: "game-w1-phi-dal", TeamID: "team-dal"},
	}
}
