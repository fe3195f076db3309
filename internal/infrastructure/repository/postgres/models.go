package postgres

import (
	"time"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	"github.com/tbrandt27/nfl-pickem/internal/domain/pick"
	"github.com/tbrandt27/nfl-pickem/internal/domain/season"
	"github.com/tbrandt27/nfl-pickem/internal/domain/team"
)

type seasonTableModel struct {
	ID        string    `db:"id"`
	Year      int       `db:"year"`
	IsCurrent bool      `db:"is_current"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func seasonFromRow(row seasonTableModel) season.Season {
	return season.Season{
		ID:        row.ID,
		Year:      row.Year,
		IsCurrent: row.IsCurrent,
	}
}

type seasonInsertModel struct {
	ID        string `db:"id"`
	Year      int    `db:"year"`
	IsCurrent bool   `db:"is_current"`
}

type teamTableModel struct {
	ID             string    `db:"id"`
	Code           string    `db:"code"`
	Name           string    `db:"name"`
	City           string    `db:"city"`
	Conference     string    `db:"conference"`
	Division       string    `db:"division"`
	PrimaryColor   string    `db:"primary_color"`
	SecondaryColor string    `db:"secondary_color"`
	LogoPath       string    `db:"logo_path"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:             row.ID,
		Code:           row.Code,
		Name:           row.Name,
		City:           row.City,
		Conference:     row.Conference,
		Division:       row.Division,
		PrimaryColor:   row.PrimaryColor,
		SecondaryColor: row.SecondaryColor,
		LogoPath:       row.LogoPath,
	}
}

type teamInsertModel struct {
	ID             string `db:"id"`
	Code           string `db:"code"`
	Name           string `db:"name"`
	City           string `db:"city"`
	Conference     string `db:"conference"`
	Division       string `db:"division"`
	PrimaryColor   string `db:"primary_color"`
	SecondaryColor string `db:"secondary_color"`
	LogoPath       string `db:"logo_path"`
}

type gameTableModel struct {
	ID              string     `db:"id"`
	SeasonID        string     `db:"season_id"`
	Week            int        `db:"week"`
	SeasonPhase     int        `db:"season_phase"`
	HomeTeamID      string     `db:"home_team_id"`
	AwayTeamID      string     `db:"away_team_id"`
	HomeScore       *int       `db:"home_score"`
	AwayScore       *int       `db:"away_score"`
	KickoffAt       time.Time  `db:"kickoff_at"`
	Status          string     `db:"status"`
	ScoresUpdatedAt *time.Time `db:"scores_updated_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func gameFromRow(row gameTableModel) game.Game {
	return game.Game{
		ID:              row.ID,
		SeasonID:        row.SeasonID,
		Week:            row.Week,
		SeasonPhase:     row.SeasonPhase,
		HomeTeamID:      row.HomeTeamID,
		AwayTeamID:      row.AwayTeamID,
		HomeScore:       row.HomeScore,
		AwayScore:       row.AwayScore,
		KickoffAt:       row.KickoffAt,
		Status:          row.Status,
		ScoresUpdatedAt: row.ScoresUpdatedAt,
	}
}

type gameInsertModel struct {
	ID              string     `db:"id"`
	SeasonID        string     `db:"season_id"`
	Week            int        `db:"week"`
	SeasonPhase     int        `db:"season_phase"`
	HomeTeamID      string     `db:"home_team_id"`
	AwayTeamID      string     `db:"away_team_id"`
	HomeScore       *int       `db:"home_score"`
	AwayScore       *int       `db:"away_score"`
	KickoffAt       time.Time  `db:"kickoff_at"`
	Status          string     `db:"status"`
	ScoresUpdatedAt *time.Time `db:"scores_updated_at"`
}

type pickTableModel struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	PoolID     string    `db:"pool_id"`
	GameID     string    `db:"game_id"`
	TeamID     string    `db:"team_id"`
	IsCorrect  *bool     `db:"is_correct"`
	Tiebreaker *int      `db:"tiebreaker"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func pickFromRow(row pickTableModel) pick.Pick {
	return pick.Pick{
		ID:         row.ID,
		UserID:     row.UserID,
		PoolID:     row.PoolID,
		GameID:     row.GameID,
		TeamID:     row.TeamID,
		IsCorrect:  row.IsCorrect,
		Tiebreaker: row.Tiebreaker,
		UpdatedAt:  row.UpdatedAt,
	}
}

type pickInsertModel struct {
	ID         string `db:"id"`
	UserID     string `db:"user_id"`
	PoolID     string `db:"pool_id"`
	GameID     string `db:"game_id"`
	TeamID     string `db:"team_id"`
	IsCorrect  *bool  `db:"is_correct"`
	Tiebreaker *int   `db:"tiebreaker"`
}
