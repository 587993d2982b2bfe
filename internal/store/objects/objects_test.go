package objects

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/macrotrack/apiserver/internal/storage"
	"github.com/macrotrack/apiserver/internal/store"
	"github.com/macrotrack/apiserver/types"
)

type fakeBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: make(map[string][]byte)}
}

func (f *fakeBackend) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = body
	return nil
}

func (f *fakeBackend) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (f *fakeBackend) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func TestGoalRepository(t *testing.T) {
	backend := newFakeBackend()
	repo := NewGoalRepository(backend)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "u1", "2024-01-01"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	goal := types.Goal{UserID: "u1", Date: "2024-01-01", Macros: types.Macros{Calories: 2000, Protein: 150.5}}
	if err := repo.Put(ctx, goal); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.Get(ctx, "u1", "2024-01-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != goal {
		t.Fatalf("expected %+v, got %+v", goal, got)
	}

	goal.Macros = types.Macros{Calories: 1800}
	if err := repo.Put(ctx, goal); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err = repo.Get(ctx, "u1", "2024-01-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Protein != 0 {
		t.Fatalf("expected replaced goal to drop protein, got %v", got.Protein)
	}
}

func TestMealRepositoryListsOneDayInOrder(t *testing.T) {
	backend := newFakeBackend()
	repo := NewMealRepository(backend)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	meals := []types.Meal{
		{MealID: "b", UserID: "u1", Date: "2024-01-01", MealType: "dinner", LoggedAt: base.Add(time.Hour)},
		{MealID: "a", UserID: "u1", Date: "2024-01-01", MealType: "breakfast", LoggedAt: base},
		{MealID: "c", UserID: "u1", Date: "2024-01-02", LoggedAt: base},
		{MealID: "d", UserID: "u2", Date: "2024-01-01", LoggedAt: base},
	}
	for _, meal := range meals {
		if err := repo.Create(ctx, meal); err != nil {
			t.Fatalf("create %s: %v", meal.MealID, err)
		}
	}

	got, err := repo.ListByDay(ctx, "u1", "2024-01-01")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 meals, got %d", len(got))
	}
	if got[0].MealType != "breakfast" || got[1].MealType != "dinner" {
		t.Fatalf("unexpected order: %q, %q", got[0].MealType, got[1].MealType)
	}
	if got[0].UserID != "u1" {
		t.Fatalf("unexpected user %q", got[0].UserID)
	}

	empty, err := repo.ListByDay(ctx, "u3", "2024-01-01")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestKeysEscapeUserSegments(t *testing.T) {
	if got := goalKey("a/b", "2024-01-01"); got != "goals/a%2Fb/2024-01-01.json" {
		t.Fatalf("unexpected goal key %q", got)
	}
	if got := mealPrefix("u", "d"); got != "meals/u/d/" {
		t.Fatalf("unexpected meal prefix %q", got)
	}
}

func TestAllowListRepository(t *testing.T) {
	repo := NewAllowListRepository(newFakeBackend())
	ctx := context.Background()

	ok, err := repo.Exists(ctx, "digest")
	if err != nil || ok {
		t.Fatalf("expected unknown digest, got %v %v", ok, err)
	}

	if err := repo.Add(ctx, "digest"); err != nil {
		t.Fatalf("add: %v", err)
	}
	ok, err = repo.Exists(ctx, "digest")
	if err != nil || !ok {
		t.Fatalf("expected provisioned digest, got %v %v", ok, err)
	}
}
