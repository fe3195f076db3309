package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tbrandt27/nfl-pickem/internal/domain/game"
	qb "github.com/tbrandt27/nfl-pickem/internal/platform/querybuilder"
)

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(ctx context.Context, id string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game: %w", err)
	}
	return gameFromRow(row), true, nil
}

func (r *GameRepository) FindByMatchup(ctx context.Context, seasonID string, week int, homeTeamID, awayTeamID string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("season_id", seasonID),
			qb.Eq("week", week),
			qb.Eq("home_team_id", homeTeamID),
			qb.Eq("away_team_id", awayTeamID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build find game query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("find game: %w", err)
	}
	return gameFromRow(row), true, nil
}

func (r *GameRepository) List(ctx context.Context, filter game.ListFilter) ([]game.Game, error) {
	builder := qb.Select("*").From("games")

	conditions := make([]qb.Condition, 0, 3)
	if filter.SeasonID != "" {
		conditions = append(conditions, qb.Eq("season_id", filter.SeasonID))
	}
	if filter.Week != nil {
		conditions = append(conditions, qb.Eq("week", *filter.Week))
	}
	if filter.SeasonPhase != nil {
		conditions = append(conditions, qb.Eq("season_phase", *filter.SeasonPhase))
	}
	if len(conditions) > 0 {
		builder = builder.Where(conditions...)
	}

	query, args, err := builder.OrderBy("week", "kickoff_at", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row))
	}
	return out, nil
}

func (r *GameRepository) Create(ctx context.Context, g game.Game) error {
	query, args, err := qb.InsertModel("games", gameInsertModel{
		ID:              g.ID,
		SeasonID:        g.SeasonID,
		Week:            g.Week,
		SeasonPhase:     g.SeasonPhase,
		HomeTeamID:      g.HomeTeamID,
		AwayTeamID:      g.AwayTeamID,
		HomeScore:       g.HomeScore,
		AwayScore:       g.AwayScore,
		KickoffAt:       g.KickoffAt,
		Status:          g.Status,
		ScoresUpdatedAt: g.ScoresUpdatedAt,
	}, "ON CONFLICT (season_id, week, home_team_id, away_team_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert game query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (r *GameRepository) Update(ctx context.Context, g game.Game) error {
	query, args, err := qb.Update("games").
		Set("week", g.Week).
		Set("season_phase", g.SeasonPhase).
		Set("home_score", g.HomeScore).
		Set("away_score", g.AwayScore).
		Set("kickoff_at", g.KickoffAt).
		Set("status", g.Status).
		Set("scores_updated_at", g.ScoresUpdatedAt).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", g.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update game query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return nil
}

func (r *GameRepository) UpdateScores(ctx context.Context, g game.Game) error {
	query, args, err := qb.Update("games").
		Set("home_score", g.HomeScore).
		Set("away_score", g.AwayScore).
		Set("status", g.Status).
		Set("scores_updated_at", g.ScoresUpdatedAt).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", g.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update game scores query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update game scores: %w", err)
	}
	return nil
}
