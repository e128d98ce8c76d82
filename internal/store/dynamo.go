// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"vidcatalog/internal/models"
)

// categoryIndex is the GSI keyed on the category attribute.
const categoryIndex = "CategoryIndex"

// Dynamo is the document-table Catalog backend on DynamoDB. The table is
// keyed on videoId with a CategoryIndex GSI for the category query.
type Dynamo struct {
	client *dynamodb.Client
	table  string
}

// NewDynamo creates a DynamoDB catalog using the default AWS credential
// chain. endpoint overrides the service URL for local development and is
// usually empty.
func NewDynamo(ctx context.Context, region, table, endpoint string) (*Dynamo, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamodb table name cannot be empty")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &Dynamo{client: client, table: table}, nil
}

// dynamoItem is the table shape. Timestamps are stored as RFC 3339
// strings, matching the wire format so exported items read naturally.
type dynamoItem struct {
	VideoID   string         `dynamodbav:"videoId"`
	Category  string         `dynamodbav:"category"`
	Status    string         `dynamodbav:"status"`
	CreatedAt string         `dynamodbav:"createdAt"`
	UpdatedAt string         `dynamodbav:"updatedAt"`
	Attrs     map[string]any `dynamodbav:"attrs,omitempty"`
}

func toItem(v models.Video) dynamoItem {
	return dynamoItem{
		VideoID:   v.ID,
		Category:  v.Category,
		Status:    string(v.Status),
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: v.UpdatedAt.UTC().Format(time.RFC3339),
		Attrs:     v.Attrs,
	}
}

func fromItem(item dynamoItem) (models.Video, error) {
	createdAt, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		return models.Video{}, fmt.Errorf("item %q createdAt: %w", item.VideoID, err)
	}
	updatedAt, err := time.Parse(time.RFC3339, item.UpdatedAt)
	if err != nil {
		return models.Video{}, fmt.Errorf("item %q updatedAt: %w", item.VideoID, err)
	}
	attrs := item.Attrs
	if attrs == nil {
		attrs = make(map[string]any)
	}
	return models.Video{
		ID:        item.VideoID,
		Category:  item.Category,
		Status:    models.VideoStatus(item.Status),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Attrs:     attrs,
	}, nil
}

// put marshals and writes one record.
func (d *Dynamo) put(ctx context.Context, v models.Video) error {
	av, err := attributevalue.MarshalMap(toItem(v))
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("put item %q: %w", v.ID, err)
	}
	return nil
}

// ListAll scans the whole table, following pagination.
func (d *Dynamo) ListAll(ctx context.Context) ([]models.Video, error) {
	out := make([]models.Video, 0)
	var startKey map[string]types.AttributeValue

	for {
		resp, err := d.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(d.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan videos: %w", err)
		}

		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal scan page: %w", err)
		}
		for _, item := range items {
			v, err := fromItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}

		if resp.LastEvaluatedKey == nil {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	return out, nil
}

// Get fetches one record by ID.
func (d *Dynamo) Get(ctx context.Context, id string) (models.Video, error) {
	resp, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			"videoId": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return models.Video{}, fmt.Errorf("get item %q: %w", id, err)
	}
	if len(resp.Item) == 0 {
		return models.Video{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(resp.Item, &item); err != nil {
		return models.Video{}, fmt.Errorf("unmarshal item %q: %w", id, err)
	}
	return fromItem(item)
}

// Create persists a new record.
func (d *Dynamo) Create(ctx context.Context, payload models.Video) (models.Video, error) {
	v, err := prepareCreate(payload, time.Now())
	if err != nil {
		return models.Video{}, err
	}
	if err := d.put(ctx, v); err != nil {
		return models.Video{}, err
	}
	return v, nil
}

// Update reads the current item, merges the patch, and writes it back.
// Single-writer operation keeps the read-modify-write safe without a
// conditional write.
func (d *Dynamo) Update(ctx context.Context, id string, patch models.VideoPatch) (models.Video, error) {
	existing, err := d.Get(ctx, id)
	if err != nil {
		return models.Video{}, err
	}

	merged, err := applyPatch(existing, patch, time.Now())
	if err != nil {
		return models.Video{}, err
	}
	if err := d.put(ctx, merged); err != nil {
		return models.Video{}, err
	}
	return merged, nil
}

// Delete removes the item. DynamoDB deletes are naturally idempotent.
func (d *Dynamo) Delete(ctx context.Context, id string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			"videoId": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("delete item %q: %w", id, err)
	}
	return nil
}

// ReplaceAll deletes every current item and writes the given records
// verbatim. DynamoDB has no table truncate, so this walks the existing
// items first.
func (d *Dynamo) ReplaceAll(ctx context.Context, videos []models.Video) error {
	existing, err := d.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, v := range existing {
		if err := d.Delete(ctx, v.ID); err != nil {
			return err
		}
	}
	for _, v := range videos {
		if err := d.put(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// QueryByCategory queries the CategoryIndex GSI.
func (d *Dynamo) QueryByCategory(ctx context.Context, category string) ([]models.Video, error) {
	out := make([]models.Video, 0)
	var startKey map[string]types.AttributeValue

	for {
		resp, err := d.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(d.table),
			IndexName:              aws.String(categoryIndex),
			KeyConditionExpression: aws.String("category = :category"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":category": &types.AttributeValueMemberS{Value: category},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query category %q: %w", category, err)
		}

		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal query page: %w", err)
		}
		for _, item := range items {
			v, err := fromItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}

		if resp.LastEvaluatedKey == nil {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	return out, nil
}
