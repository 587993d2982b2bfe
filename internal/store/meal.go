package store

import (
	"context"
	"database/sql"

	"github.com/macrotrack/apiserver/types"
)

// MealRepository handles persistence for meal entries.
type MealRepository struct {
	db *sql.DB
}

func NewMealRepository(db *sql.DB) *MealRepository {
	return &MealRepository{db: db}
}

// Create inserts a meal row. Meal rows are never updated.
func (r *MealRepository) Create(ctx context.Context, meal types.Meal) error {
	const query = `
		INSERT INTO meal_logs (meal_id, user_id, date, meal_type, calories, protein, carbs, fat, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		meal.MealID,
		meal.UserID,
		meal.Date,
		meal.MealType,
		meal.Calories,
		meal.Protein,
		meal.Carbs,
		meal.Fat,
		meal.LoggedAt,
	)
	return err
}

func (r *MealRepository) ListByDay(ctx context.Context, userID, date string) ([]types.Meal, error) {
	const query = `
		SELECT meal_id, user_id, date, meal_type, calories, protein, carbs, fat, logged_at
		FROM meal_logs
		WHERE user_id = $1 AND date = $2
		ORDER BY logged_at`
	rows, err := r.db.QueryContext(ctx, query, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := make([]types.Meal, 0)
	for rows.Next() {
		var meal types.Meal
		if err := rows.Scan(
			&meal.MealID,
			&meal.UserID,
			&meal.Date,
			&meal.MealType,
			&meal.Calories,
			&meal.Protein,
			&meal.Carbs,
			&meal.Fat,
			&meal.LoggedAt,
		); err != nil {
			return nil, err
		}
		meals = append(meals, meal)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return meals, nil
}
