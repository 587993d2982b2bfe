package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/macrotrack/apiserver/internal/store"
	"github.com/macrotrack/apiserver/types"
)

// GoalRepository stores one item per (user_id, date).
type GoalRepository struct {
	client API
	table  string
}

func NewGoalRepository(client API, table string) *GoalRepository {
	return &GoalRepository{client: client, table: table}
}

// Put overwrites the whole item; no condition is attached.
func (r *GoalRepository) Put(ctx context.Context, goal types.Goal) error {
	item, err := attributevalue.MarshalMap(goal)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	return err
}

func (r *GoalRepository) Get(ctx context.Context, userID, date string) (types.Goal, error) {
	key, err := attributevalue.MarshalMap(dayKey{UserID: userID, Date: date})
	if err != nil {
		return types.Goal{}, err
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       key,
	})
	if err != nil {
		return types.Goal{}, err
	}
	if len(out.Item) == 0 {
		return types.Goal{}, store.ErrNotFound
	}

	var goal types.Goal
	if err := attributevalue.UnmarshalMap(out.Item, &goal); err != nil {
		return types.Goal{}, err
	}
	return goal, nil
}
