// Package objects stores goals, meals and the allow-list as JSON documents
// in an object store bucket.
package objects

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/macrotrack/apiserver/internal/storage"
	"github.com/macrotrack/apiserver/internal/store"
	"github.com/macrotrack/apiserver/types"
)

const contentType = "application/json"

// Backend is the subset of storage.Storage used by the repositories.
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

func allowListKey(userID string) string {
	return path.Join("allowlist", url.PathEscape(userID))
}

func goalKey(userID, date string) string {
	return path.Join("goals", url.PathEscape(userID), url.PathEscape(date)+".json")
}

func mealPrefix(userID, date string) string {
	return path.Join("meals", url.PathEscape(userID), url.PathEscape(date)) + "/"
}

func mealKey(userID, date, mealID string) string {
	return mealPrefix(userID, date) + url.PathEscape(mealID) + ".json"
}

func putJSON(ctx context.Context, backend Backend, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return backend.Put(ctx, key, bytes.NewReader(body), int64(len(body)), contentType)
}

func getJSON(ctx context.Context, backend Backend, key string, v any) error {
	rc, err := backend.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	defer rc.Close()
	return json.NewDecoder(rc).Decode(v)
}

type AllowListRepository struct {
	backend Backend
}

func NewAllowListRepository(backend Backend) *AllowListRepository {
	return &AllowListRepository{backend: backend}
}

func (r *AllowListRepository) Exists(ctx context.Context, userID string) (bool, error) {
	rc, err := r.backend.Get(ctx, allowListKey(userID))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get allow-list entry: %w", err)
	}
	_ = rc.Close()
	return true, nil
}

func (r *AllowListRepository) Add(ctx context.Context, userID string) error {
	if err := r.backend.Put(ctx, allowListKey(userID), strings.NewReader(""), 0, "text/plain"); err != nil {
		return fmt.Errorf("put allow-list entry: %w", err)
	}
	return nil
}

type GoalRepository struct {
	backend Backend
}

func NewGoalRepository(backend Backend) *GoalRepository {
	return &GoalRepository{backend: backend}
}

// Put overwrites the goal document for the user and day.
func (r *GoalRepository) Put(ctx context.Context, goal types.Goal) error {
	if err := putJSON(ctx, r.backend, goalKey(goal.UserID, goal.Date), goal); err != nil {
		return fmt.Errorf("put goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) Get(ctx context.Context, userID, date string) (types.Goal, error) {
	var goal types.Goal
	if err := getJSON(ctx, r.backend, goalKey(userID, date), &goal); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Goal{}, err
		}
		return types.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	goal.UserID = userID
	return goal, nil
}

type MealRepository struct {
	backend Backend
}

func NewMealRepository(backend Backend) *MealRepository {
	return &MealRepository{backend: backend}
}

func (r *MealRepository) Create(ctx context.Context, meal types.Meal) error {
	if err := putJSON(ctx, r.backend, mealKey(meal.UserID, meal.Date, meal.MealID), meal); err != nil {
		return fmt.Errorf("put meal: %w", err)
	}
	return nil
}

// ListByDay reads every meal under the user's day prefix, ordered by log time.
func (r *MealRepository) ListByDay(ctx context.Context, userID, date string) ([]types.Meal, error) {
	keys, err := r.backend.List(ctx, mealPrefix(userID, date))
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}

	meals := make([]types.Meal, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		var meal types.Meal
		if err := getJSON(ctx, r.backend, key, &meal); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get meal %s: %w", key, err)
		}
		meal.UserID = userID
		meals = append(meals, meal)
	}

	sort.SliceStable(meals, func(i, j int) bool {
		return meals[i].LoggedAt.Before(meals[j].LoggedAt)
	})
	return meals, nil
}
