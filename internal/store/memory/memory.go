// Package memory provides process-local repositories for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/macrotrack/apiserver/internal/store"
	"github.com/macrotrack/apiserver/types"
)

type dayKey struct {
	userID string
	date   string
}

// Store holds all three collections behind a single lock.
type Store struct {
	mu        sync.RWMutex
	allowList map[string]struct{}
	goals     map[dayKey]types.Goal
	meals     map[dayKey][]types.Meal
	mealIDs   map[string]struct{}
}

func New() *Store {
	return &Store{
		allowList: make(map[string]struct{}),
		goals:     make(map[dayKey]types.Goal),
		meals:     make(map[dayKey][]types.Meal),
		mealIDs:   make(map[string]struct{}),
	}
}

// AllowList returns the allow-list view of the store.
func (s *Store) AllowList() *AllowListRepository { return &AllowListRepository{s: s} }

// Goals returns the goal view of the store.
func (s *Store) Goals() *GoalRepository { return &GoalRepository{s: s} }

// Meals returns the meal view of the store.
func (s *Store) Meals() *MealRepository { return &MealRepository{s: s} }

type AllowListRepository struct{ s *Store }

func (r *AllowListRepository) Exists(_ context.Context, userID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.allowList[userID]
	return ok, nil
}

func (r *AllowListRepository) Add(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.allowList[userID] = struct{}{}
	return nil
}

type GoalRepository struct{ s *Store }

func (r *GoalRepository) Put(_ context.Context, goal types.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.goals[dayKey{goal.UserID, goal.Date}] = goal
	return nil
}

func (r *GoalRepository) Get(_ context.Context, userID, date string) (types.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	goal, ok := r.s.goals[dayKey{userID, date}]
	if !ok {
		return types.Goal{}, store.ErrNotFound
	}
	return goal, nil
}

type MealRepository struct{ s *Store }

func (r *MealRepository) Create(_ context.Context, meal types.Meal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.mealIDs[meal.MealID]; exists {
		return fmt.Errorf("meal %s already exists", meal.MealID)
	}
	r.s.mealIDs[meal.MealID] = struct{}{}
	key := dayKey{meal.UserID, meal.Date}
	r.s.meals[key] = append(r.s.meals[key], meal)
	return nil
}

func (r *MealRepository) ListByDay(_ context.Context, userID, date string) ([]types.Meal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stored := r.s.meals[dayKey{userID, date}]
	meals := make([]types.Meal, len(stored))
	copy(meals, stored)
	return meals, nil
}
