package receipt

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DynamoStore uses a conditional PutItem keyed on the composite
// (namespace, id) so ConsumeOnce stays linearizable under concurrent
// callers without a separate lock table.
type DynamoStore struct {
	client *dynamodb.Client
	table  string
	logger *zap.Logger
}

func NewDynamoStore(client *dynamodb.Client, table string, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{client: client, table: table, logger: logger}
}

func (s *DynamoStore) ConsumeOnce(ctx context.Context, namespace, id string) (bool, error) {
	cond := expression.AttributeNotExists(expression.Name("compositeKey"))
	builder, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return false, err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"compositeKey": &types.AttributeValueMemberS{Value: namespace + ":" + id},
			"namespace":    &types.AttributeValueMemberS{Value: namespace},
			"receiptId":    &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       builder.Condition(),
		ExpressionAttributeNames:  builder.Names(),
		ExpressionAttributeValues: builder.Values(),
	})
	if err == nil {
		return true, nil
	}

	var condFailed *types.ConditionalCheckFailedException
	if errors.As(err, &condFailed) {
		return false, nil
	}

	s.logger.Error("receipt: put item failed", zap.String("namespace", namespace), zap.String("id", id), zap.Error(err))
	return false, err
}
