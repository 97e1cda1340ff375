package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoStore is the shared CounterStore for multi-instance deployments.
// Each window bucket is one item keyed by counterKey, incremented atomically
// with UpdateItem. A DynamoDB TTL on the expiresAt attribute garbage-collects
// dead buckets, mirroring the in-memory sweep.
type DynamoStore struct {
	client *dynamodb.Client
	table  string
}

// NewDynamoStore creates a DynamoStore for the given table. The table must
// have a string partition key named counterKey and TTL enabled on expiresAt.
func NewDynamoStore(client *dynamodb.Client, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// Incr implements CounterStore. The increment and the conditional expiry
// set happen in a single UpdateItem, so concurrent instances never lose
// counts to each other.
func (s *DynamoStore) Incr(ctx context.Context, key string, ttl time.Duration) (int, error) {
	expiresAt := time.Now().Add(ttl).Unix()

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"counterKey": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression: aws.String("ADD requestCount :one SET expiresAt = if_not_exists(expiresAt, :exp)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":exp": &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("increment rate counter %s: %w", key, err)
	}

	var rec struct {
		RequestCount int `dynamodbav:"requestCount"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return 0, fmt.Errorf("unmarshal rate counter %s: %w", key, err)
	}
	return rec.RequestCount, nil
}
