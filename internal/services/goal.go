package services

import (
	"context"
	"errors"

	"github.com/macrotrack/apiserver/internal/store"
	"github.com/macrotrack/apiserver/types"
)

// GoalRepository defines persistence operations for daily goals.
type GoalRepository interface {
	Put(ctx context.Context, goal types.Goal) error
	Get(ctx context.Context, userID, date string) (types.Goal, error)
}

// GoalService encapsulates goal use-cases.
type GoalService struct {
	repo     GoalRepository
	notifier *Notifier
}

func NewGoalService(repo GoalRepository, notifier *Notifier) *GoalService {
	return &GoalService{repo: repo, notifier: notifier}
}

// Set replaces the goal record for (userID, date). Concurrent writers race
// and the last one wins.
func (s *GoalService) Set(ctx context.Context, userID, date string, macros types.Macros) (types.Goal, error) {
	if err := requiredDate(date, "Date is required."); err != nil {
		return types.Goal{}, err
	}
	if err := validateMacros(macros); err != nil {
		return types.Goal{}, err
	}

	goal := types.Goal{UserID: userID, Date: date, Macros: macros}
	if err := s.repo.Put(ctx, goal); err != nil {
		return types.Goal{}, err
	}

	s.notifier.Notify(ctx, types.Event{
		Type:   types.EventGoalsSet,
		UserID: userID,
		Date:   date,
		Macros: macros,
	})
	return goal, nil
}

// Get returns the goal for (userID, date). The boolean is false when no goal
// was set; absence is not an error.
func (s *GoalService) Get(ctx context.Context, userID, date string) (types.Goal, bool, error) {
	goal, err := s.repo.Get(ctx, userID, date)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Goal{}, false, nil
		}
		return types.Goal{}, false, err
	}
	return goal, true, nil
}

func validateMacros(m types.Macros) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"calories", m.Calories},
		{"protein", m.Protein},
		{"carbs", m.Carbs},
		{"fat", m.Fat},
	}
	for _, f := range fields {
		if f.value < 0 {
			return ValidationError{Field: f.name, Message: "Field '" + f.name + "' must not be negative."}
		}
	}
	return nil
}
