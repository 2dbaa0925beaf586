package idempotency

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func encodeDynamoRecord(rec dynamoRecord) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(rec)
}

func decodeDynamoRecord(item map[string]types.AttributeValue) (dynamoRecord, error) {
	var rec dynamoRecord
	err := attributevalue.UnmarshalMap(item, &rec)
	return rec, err
}
