package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/macrotrack/apiserver/internal/store"
	"github.com/macrotrack/apiserver/types"
)

type fakeClient struct {
	items   map[string]map[string]ddbtypes.AttributeValue
	puts    []*dynamodb.PutItemInput
	pages   []*dynamodb.QueryOutput
	queries []*dynamodb.QueryInput
}

func (f *fakeClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[aws.ToString(params.TableName)]}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, params)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) Query(ctx context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	idx := len(f.queries)
	f.queries = append(f.queries, params)
	if idx >= len(f.pages) {
		return nil, errors.New("unexpected query")
	}
	return f.pages[idx], nil
}

func mustMarshal(t *testing.T, v any) map[string]ddbtypes.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return item
}

func TestGoalRepositoryRoundTrip(t *testing.T) {
	client := &fakeClient{}
	repo := NewGoalRepository(client, "goals")

	goal := types.Goal{
		UserID: "u1",
		Date:   "2024-01-01",
		Macros: types.Macros{Calories: 2000, Protein: 150.75, Carbs: 250, Fat: 70.1},
	}
	if err := repo.Put(context.Background(), goal); err != nil {
		t.Fatalf("put goal: %v", err)
	}
	if len(client.puts) != 1 {
		t.Fatalf("expected one put, got %d", len(client.puts))
	}
	put := client.puts[0]
	if put.ConditionExpression != nil {
		t.Fatalf("goal writes must be unconditional")
	}
	if _, ok := put.Item["user_id"]; !ok {
		t.Fatalf("expected user_id attribute in item")
	}

	client.items = map[string]map[string]ddbtypes.AttributeValue{"goals": put.Item}
	got, err := repo.Get(context.Background(), "u1", "2024-01-01")
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if got != goal {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, goal)
	}
}

func TestGoalRepositoryGetMissing(t *testing.T) {
	repo := NewGoalRepository(&fakeClient{}, "goals")
	if _, err := repo.Get(context.Background(), "u1", "2024-01-01"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMealRepositoryCreateIsConditional(t *testing.T) {
	client := &fakeClient{}
	repo := NewMealRepository(client, "meals", "UserDateIndex")

	err := repo.Create(context.Background(), types.Meal{
		MealID:   "m1",
		UserID:   "u1",
		Date:     "2024-01-01",
		MealType: "lunch",
		LoggedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}
	if client.puts[0].ConditionExpression == nil {
		t.Fatalf("expected attribute_not_exists condition")
	}
}

func TestMealRepositoryListFollowsPages(t *testing.T) {
	loggedAt := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	first := types.Meal{MealID: "m1", UserID: "u1", Date: "2024-01-01", MealType: "breakfast", Macros: types.Macros{Calories: 500}, LoggedAt: loggedAt}
	second := types.Meal{MealID: "m2", UserID: "u1", Date: "2024-01-01", MealType: "dinner", Macros: types.Macros{Calories: 300.5}, LoggedAt: loggedAt}
	lastKey := mustMarshal(t, map[string]string{"meal_id": "m1", "user_id": "u1", "date": "2024-01-01"})

	client := &fakeClient{
		pages: []*dynamodb.QueryOutput{
			{Items: []map[string]ddbtypes.AttributeValue{mustMarshal(t, first)}, LastEvaluatedKey: lastKey},
			{Items: []map[string]ddbtypes.AttributeValue{mustMarshal(t, second)}},
		},
	}
	repo := NewMealRepository(client, "meals", "UserDateIndex")

	meals, err := repo.ListByDay(context.Background(), "u1", "2024-01-01")
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if len(meals) != 2 {
		t.Fatalf("expected 2 meals across pages, got %d", len(meals))
	}
	if len(client.queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(client.queries))
	}
	if aws.ToString(client.queries[0].IndexName) != "UserDateIndex" {
		t.Fatalf("expected index to be queried")
	}
	if client.queries[1].ExclusiveStartKey == nil {
		t.Fatalf("expected continuation key on second query")
	}
	if meals[1].Calories != 300.5 {
		t.Fatalf("unexpected calories: %v", meals[1].Calories)
	}
}

func TestAllowListRepository(t *testing.T) {
	client := &fakeClient{}
	repo := NewAllowListRepository(client, "allow")

	ok, err := repo.Exists(context.Background(), "digest")
	if err != nil || ok {
		t.Fatalf("expected missing identity, got %v %v", ok, err)
	}

	if err := repo.Add(context.Background(), "digest"); err != nil {
		t.Fatalf("add identity: %v", err)
	}
	client.items = map[string]map[string]ddbtypes.AttributeValue{"allow": client.puts[0].Item}

	ok, err = repo.Exists(context.Background(), "digest")
	if err != nil || !ok {
		t.Fatalf("expected identity to exist, got %v %v", ok, err)
	}
}
