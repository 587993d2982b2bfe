package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/macrotrack/apiserver/types"
)

// MealRepository defines persistence operations for meal entries.
type MealRepository interface {
	Create(ctx context.Context, meal types.Meal) error
	ListByDay(ctx context.Context, userID, date string) ([]types.Meal, error)
}

// MealService encapsulates meal use-cases.
type MealService struct {
	repo     MealRepository
	notifier *Notifier
	now      func() time.Time
	newID    func() string
}

func NewMealService(repo MealRepository, notifier *Notifier) *MealService {
	return &MealService{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Log inserts a new meal entry with a fresh identifier and UTC timestamp.
func (s *MealService) Log(ctx context.Context, userID, date, mealType string, macros types.Macros) (types.Meal, error) {
	if err := requiredDate(date, "Date is required."); err != nil {
		return types.Meal{}, err
	}
	if err := validateMacros(macros); err != nil {
		return types.Meal{}, err
	}

	mealType = strings.TrimSpace(mealType)
	if mealType == "" {
		mealType = types.DefaultMealType
	}

	meal := types.Meal{
		MealID:   s.newID(),
		UserID:   userID,
		Date:     date,
		MealType: mealType,
		Macros:   macros,
		LoggedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, meal); err != nil {
		return types.Meal{}, err
	}

	s.notifier.Notify(ctx, types.Event{
		Type:       types.EventMealLogged,
		UserID:     userID,
		Date:       date,
		MealID:     meal.MealID,
		Macros:     macros,
		OccurredAt: meal.LoggedAt,
	})
	return meal, nil
}

// ListForDay returns every meal logged for (userID, date), possibly none.
func (s *MealService) ListForDay(ctx context.Context, userID, date string) ([]types.Meal, error) {
	meals, err := s.repo.ListByDay(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if meals == nil {
		meals = []types.Meal{}
	}
	return meals, nil
}
