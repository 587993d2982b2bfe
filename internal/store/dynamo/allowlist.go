package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// AllowListRepository checks identity digests against the allow-list table.
type AllowListRepository struct {
	client API
	table  string
}

func NewAllowListRepository(client API, table string) *AllowListRepository {
	return &AllowListRepository{client: client, table: table}
}

func (r *AllowListRepository) Exists(ctx context.Context, userID string) (bool, error) {
	key, err := attributevalue.MarshalMap(allowListEntry{UserID: userID})
	if err != nil {
		return false, err
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       key,
	})
	if err != nil {
		return false, err
	}
	return len(out.Item) > 0, nil
}

func (r *AllowListRepository) Add(ctx context.Context, userID string) error {
	item, err := attributevalue.MarshalMap(allowListEntry{UserID: userID})
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	return err
}
