package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/macrotrack/apiserver/types"
)

// GoalRepository handles persistence for daily goals.
type GoalRepository struct {
	db *sql.DB
}

func NewGoalRepository(db *sql.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Put replaces the goal row for (user_id, date).
func (r *GoalRepository) Put(ctx context.Context, goal types.Goal) error {
	const query = `
		INSERT INTO daily_goals (user_id, date, calories, protein, carbs, fat, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, date) DO UPDATE
		SET calories = EXCLUDED.calories,
			protein = EXCLUDED.protein,
			carbs = EXCLUDED.carbs,
			fat = EXCLUDED.fat,
			updated_at = EXCLUDED.updated_at`
	_, err := r.db.ExecContext(
		ctx,
		query,
		goal.UserID,
		goal.Date,
		goal.Calories,
		goal.Protein,
		goal.Carbs,
		goal.Fat,
	)
	return err
}

func (r *GoalRepository) Get(ctx context.Context, userID, date string) (types.Goal, error) {
	const query = `
		SELECT user_id, date, calories, protein, carbs, fat
		FROM daily_goals
		WHERE user_id = $1 AND date = $2`
	var goal types.Goal
	err := r.db.QueryRowContext(ctx, query, userID, date).Scan(
		&goal.UserID,
		&goal.Date,
		&goal.Calories,
		&goal.Protein,
		&goal.Carbs,
		&goal.Fat,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Goal{}, ErrNotFound
		}
		return types.Goal{}, err
	}
	return goal, nil
}
