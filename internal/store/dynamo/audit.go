package dynamo

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/switchyard-systems/switchyard/pkg/types"
)

// AppendAudit writes a change record to the route's audit partition.
func (d *DynamoStore) AppendAudit(ctx context.Context, event types.RouteChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &d.tableName,
		Item: map[string]ddbtypes.AttributeValue{
			"PK":   &ddbtypes.AttributeValueMemberS{Value: routePK(event.RouteKey)},
			"SK":   &ddbtypes.AttributeValueMemberS{Value: auditSK(event.Timestamp)},
			"data": &ddbtypes.AttributeValueMemberS{Value: string(data)},
		},
	})
	return err
}

// ListAudit returns up to limit audit records for the route in chronological
// order. Limit 0 means the complete trail.
func (d *DynamoStore) ListAudit(ctx context.Context, key types.RouteKey, limit int) ([]types.RouteChangeEvent, error) {
	input := &dynamodb.QueryInput{
		TableName:              &d.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":     &ddbtypes.AttributeValueMemberS{Value: routePK(key)},
			":prefix": &ddbtypes.AttributeValueMemberS{Value: prefixAudit},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	// Query newest-first, following pagination, then reverse for
	// chronological order. Limit caps items per page, not the result, so
	// the loop runs until enough records (or the whole trail) are in hand.
	var items []map[string]ddbtypes.AttributeValue
	for {
		out, err := d.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if limit > 0 && len(items) >= limit {
			items = items[:limit]
			break
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	trail := make([]types.RouteChangeEvent, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		data, err := attributeStr(items[i], "data")
		if err != nil {
			d.logger.Warn("skipping corrupt audit record", "error", err)
			continue
		}
		var event types.RouteChangeEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			d.logger.Warn("skipping corrupt audit record", "error", err)
			continue
		}
		trail = append(trail, event)
	}
	return trail, nil
}
