package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/jsphweid/ceol/model"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// tuneItem is the table layout. PK holds the tune id and Position keeps the
// book order, which a scan does not.
type tuneItem struct {
	PK       string `dynamodbav:"PK"`
	Title    string `dynamodbav:"Title"`
	Type     string `dynamodbav:"Type"`
	Notation string `dynamodbav:"Notation"`
	Position int    `dynamodbav:"Position"`
}

// NewClient connects to DynamoDB. A non-empty endpoint points the client at
// a local instance.
func NewClient(region, endpoint string) (*dynamodb.DynamoDB, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create a new DynamoDB session: %w", err)
	}
	return dynamodb.New(sess), nil
}

// ScanTunes reads the whole table ordered by Position, then id.
func ScanTunes(ctx context.Context, client dynamodbiface.DynamoDBAPI, table string) ([]model.Tune, error) {
	var items []tuneItem
	var decodeErr error
	input := &dynamodb.ScanInput{TableName: aws.String(table)}
	err := client.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, last bool) bool {
		var batch []tuneItem
		if err := dynamodbattribute.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			decodeErr = err
			return false
		}
		items = append(items, batch...)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("error from DynamoDB: %w", err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("could not decode tune items: %w", decodeErr)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].PK < items[j].PK
	})
	tunes := make([]model.Tune, 0, len(items))
	for _, it := range items {
		tunes = append(tunes, model.Tune{Id: it.PK, Title: it.Title, Type: it.Type, Notation: it.Notation})
	}
	return tunes, nil
}

// maxBatch is the BatchWriteItem limit.
const maxBatch = 25

// PutTunes writes tunes in book order, overwriting items with the same id.
func PutTunes(ctx context.Context, client dynamodbiface.DynamoDBAPI, table string, tunes []model.Tune, opts ...request.Option) error {
	for start := 0; start < len(tunes); start += maxBatch {
		end := start + maxBatch
		if end > len(tunes) {
			end = len(tunes)
		}
		var writes []*dynamodb.WriteRequest
		for i := start; i < end; i++ {
			t := tunes[i]
			item, err := dynamodbattribute.MarshalMap(tuneItem{PK: t.Id, Title: t.Title, Type: t.Type, Notation: t.Notation, Position: i})
			if err != nil {
				return fmt.Errorf("could not encode tune %s: %w", t.Id, err)
			}
			writes = append(writes, &dynamodb.WriteRequest{PutRequest: &dynamodb.PutRequest{Item: item}})
		}
		input := &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]*dynamodb.WriteRequest{table: writes},
		}
		if _, err := client.BatchWriteItemWithContext(ctx, input, opts...); err != nil {
			return fmt.Errorf("error from DynamoDB: %w", err)
		}
	}
	return nil
}
