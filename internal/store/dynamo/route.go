package dynamo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/switchyard-systems/switchyard/internal/store"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// Save stores a route document under its identity tuple.
func (d *DynamoStore) Save(ctx context.Context, route types.ResourceRoute) error {
	route.RouteKey = route.RouteKey.WithDefaults()
	data, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("marshaling route: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &d.tableName,
		Item: map[string]ddbtypes.AttributeValue{
			"PK":     &ddbtypes.AttributeValueMemberS{Value: routePK(route.RouteKey)},
			"SK":     &ddbtypes.AttributeValueMemberS{Value: configSK()},
			"GSI1PK": &ddbtypes.AttributeValueMemberS{Value: gsiRoutePK},
			"GSI1SK": &ddbtypes.AttributeValueMemberS{Value: routePK(route.RouteKey)},
			"data":   &ddbtypes.AttributeValueMemberS{Value: string(data)},
		},
	})
	return err
}

// Get retrieves a route document by identity tuple.
func (d *DynamoStore) Get(ctx context.Context, key types.RouteKey) (*types.ResourceRoute, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &d.tableName,
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: routePK(key)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: configSK()},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, store.ErrNotFound
	}

	data, err := attributeStr(out.Item, "data")
	if err != nil {
		return nil, err
	}
	var route types.ResourceRoute
	if err := json.Unmarshal([]byte(data), &route); err != nil {
		return nil, fmt.Errorf("decoding route %s: %w", key, err)
	}
	return &route, nil
}

// LoadAll returns every route document via GSI1.
func (d *DynamoStore) LoadAll(ctx context.Context) ([]types.ResourceRoute, error) {
	var routes []types.ResourceRoute
	var startKey map[string]ddbtypes.AttributeValue

	for {
		out, err := d.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              &d.tableName,
			IndexName:              aws.String("GSI1"),
			KeyConditionExpression: aws.String("GSI1PK = :pk"),
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
				":pk": &ddbtypes.AttributeValueMemberS{Value: gsiRoutePK},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}

		for _, item := range out.Items {
			data, err := attributeStr(item, "data")
			if err != nil {
				d.logger.Warn("skipping corrupt route entry", "error", err)
				continue
			}
			var route types.ResourceRoute
			if err := json.Unmarshal([]byte(data), &route); err != nil {
				d.logger.Warn("skipping corrupt route data", "error", err)
				continue
			}
			routes = append(routes, route)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return routes, nil
}

// Delete removes a route document. Uses a conditional delete so the caller
// can tell "was absent" apart from "removed".
func (d *DynamoStore) Delete(ctx context.Context, key types.RouteKey) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &d.tableName,
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: routePK(key)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: configSK()},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

// attributeStr extracts a string attribute from a DynamoDB item.
func attributeStr(item map[string]ddbtypes.AttributeValue, key string) (string, error) {
	av, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing attribute %q", key)
	}
	var s string
	if err := attributevalue.Unmarshal(av, &s); err != nil {
		return "", fmt.Errorf("unmarshaling %q: %w", key, err)
	}
	return s, nil
}
