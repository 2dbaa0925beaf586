package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DynamoStore is the managed, serverless idempotency backend. Put relies on
// a conditional PutItem (attribute_not_exists, or an expiresAt already in
// the past) so two concurrent writers
// for the same key cannot both believe they stored first.
type DynamoStore struct {
	client *dynamodb.Client
	table  string
	logger *zap.Logger
}

func NewDynamoStore(client *dynamodb.Client, table string, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{client: client, table: table, logger: logger}
}

type dynamoRecord struct {
	Key       string `dynamodbav:"key"`
	Value     []byte `dynamodbav:"value"`
	ExpiresAt int64  `dynamodbav:"expiresAt"`
}

func (s *DynamoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		s.logger.Error("idempotency: get item failed", zap.String("key", key), zap.Error(err))
		return nil, false, err
	}
	if out.Item == nil {
		return nil, false, nil
	}

	rec, err := decodeDynamoRecord(out.Item)
	if err != nil {
		return nil, false, err
	}
	if time.Now().Unix() > rec.ExpiresAt {
		return nil, false, nil
	}
	return rec.Value, true, nil
}

func (s *DynamoStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, []byte, error) {
	now := time.Now()
	cond := expression.AttributeNotExists(expression.Name("key")).
		Or(expression.Name("expiresAt").LessThan(expression.Value(now.Unix())))
	builder, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return false, nil, err
	}

	rec := dynamoRecord{Key: key, Value: value, ExpiresAt: now.Add(ttl).Unix()}
	item, err := encodeDynamoRecord(rec)
	if err != nil {
		return false, nil, err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.table),
		Item:                      item,
		ConditionExpression:       builder.Condition(),
		ExpressionAttributeNames:  builder.Names(),
		ExpressionAttributeValues: builder.Values(),
	})
	if err == nil {
		return true, nil, nil
	}

	var condFailed *types.ConditionalCheckFailedException
	if errors.As(err, &condFailed) {
		existing, ok, getErr := s.Get(ctx, key)
		if getErr != nil {
			return false, nil, getErr
		}
		if !ok {
			// Lost the race against an entry that has since expired and
			// been overwritten; treat as if we won.
			return true, nil, nil
		}
		return false, existing, nil
	}

	s.logger.Error("idempotency: put item failed", zap.String("key", key), zap.Error(err))
	return false, nil, err
}
