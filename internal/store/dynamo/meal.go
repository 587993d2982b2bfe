package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/macrotrack/apiserver/types"
)

// MealRepository stores meals keyed by meal_id and reads them back through
// the (user_id, date) secondary index.
type MealRepository struct {
	client API
	table  string
	index  string
}

func NewMealRepository(client API, table, index string) *MealRepository {
	return &MealRepository{client: client, table: table, index: index}
}

// Create inserts meal and fails if the identifier is already taken.
func (r *MealRepository) Create(ctx context.Context, meal types.Meal) error {
	item, err := attributevalue.MarshalMap(meal)
	if err != nil {
		return err
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("meal_id"))).
		Build()
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.table),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	return err
}

// ListByDay follows LastEvaluatedKey until the index is exhausted.
func (r *MealRepository) ListByDay(ctx context.Context, userID, date string) ([]types.Meal, error) {
	keyCond := expression.Key("user_id").Equal(expression.Value(userID)).
		And(expression.Key("date").Equal(expression.Value(date)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if r.index != "" {
		input.IndexName = aws.String(r.index)
	}

	meals := make([]types.Meal, 0)
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []types.Meal
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		meals = append(meals, batch...)
	}
	return meals, nil
}
