package services

import (
	"context"
	"fmt"

	"github.com/macrotrack/apiserver/types"
)

// Aggregate sums the macros of meals. The result does not depend on the order
// of meals.
func Aggregate(meals []types.Meal) types.DailyTotals {
	var totals types.Macros
	for _, meal := range meals {
		totals = totals.Add(meal.Macros)
	}
	return types.DailyTotals{Totals: totals, MealsLogged: len(meals)}
}

// SummaryService combines a day's meals and goals.
type SummaryService struct {
	goals *GoalService
	meals *MealService
}

func NewSummaryService(goals *GoalService, meals *MealService) *SummaryService {
	return &SummaryService{goals: goals, meals: meals}
}

// Track builds the daily summary for (userID, date).
func (s *SummaryService) Track(ctx context.Context, userID, date string) (types.DailySummary, error) {
	if err := requiredDate(date, "Date query parameter is required."); err != nil {
		return types.DailySummary{}, err
	}

	meals, err := s.meals.ListForDay(ctx, userID, date)
	if err != nil {
		return types.DailySummary{}, fmt.Errorf("list meals: %w", err)
	}
	totals := Aggregate(meals)

	goal, ok, err := s.goals.Get(ctx, userID, date)
	if err != nil {
		return types.DailySummary{}, fmt.Errorf("get goals: %w", err)
	}

	summary := types.DailySummary{
		Date:        date,
		Goals:       struct{}{},
		Totals:      totals.Totals,
		MealsLogged: totals.MealsLogged,
	}
	if ok {
		summary.Goals = goal
	}
	return summary, nil
}
