package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tbrandt27/nfl-pickem/internal/domain/pick"
	qb "github.com/tbrandt27/nfl-pickem/internal/platform/querybuilder"
)

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) ListByGameIDs(ctx context.Context, gameIDs []string) ([]pick.Pick, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}

	values := make([]any, 0, len(gameIDs))
	for _, id := range gameIDs {
		values = append(values, id)
	}

	query, args, err := qb.Select("*").From("picks").
		Where(qb.In("game_id", values)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list picks query: %w", err)
	}

	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, pickFromRow(row))
	}
	return out, nil
}

func (r *PickRepository) Create(ctx context.Context, p pick.Pick) error {
	query, args, err := qb.InsertModel("picks", pickInsertModel{
		ID:         p.ID,
		UserID:     p.UserID,
		PoolID:     p.PoolID,
		GameID:     p.GameID,
		TeamID:     p.TeamID,
		IsCorrect:  p.IsCorrect,
		Tiebreaker: p.Tiebreaker,
	}, "ON CONFLICT (user_id, pool_id, game_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert pick query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert pick: %w", err)
	}
	return nil
}

// ApplyCorrectness writes scored results inside one transaction. Rows
// already carrying the right value are not touched, so the returned count
// reflects picks that actually changed.
func (r *PickRepository) ApplyCorrectness(ctx context.Context, updates []pick.CorrectnessUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin pick correctness tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	changed := 0
	for _, update := range updates {
		query, args, buildErr := qb.Update("picks").
			Set("is_correct", update.IsCorrect).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.Eq("id", update.PickID),
				qb.Expr("is_correct IS DISTINCT FROM ?", update.IsCorrect),
			).
			ToSQL()
		if buildErr != nil {
			return 0, fmt.Errorf("build update pick query: %w", buildErr)
		}

		result, execErr := tx.ExecContext(ctx, query, args...)
		if execErr != nil {
			return 0, fmt.Errorf("update pick %s: %w", update.PickID, execErr)
		}
		affected, affErr := result.RowsAffected()
		if affErr != nil {
			return 0, fmt.Errorf("read affected rows: %w", affErr)
		}
		changed += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit pick correctness tx: %w", err)
	}
	return changed, nil
}
