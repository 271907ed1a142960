package annotations

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"trendgraph/internal/logger"
	"trendgraph/internal/models"
)

// DynamoAPI is the part of the DynamoDB client the backend uses
type DynamoAPI interface {
	dynamodb.QueryAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// sortKeyLayout keeps sort keys in chronological byte order
const sortKeyLayout = "2006-01-02T15:04:05.000000000Z"

// dynamoItem is the table layout: partition key scope, sort key created#id
type dynamoItem struct {
	Scope            string    `dynamodbav:"scope"`
	SortKey          string    `dynamodbav:"sortKey"`
	ID               string    `dynamodbav:"id"`
	Content          string    `dynamodbav:"content"`
	DateMarker       time.Time `dynamodbav:"dateMarker"`
	CreatedAt        time.Time `dynamodbav:"createdAt"`
	CreatorFirstName string    `dynamodbav:"creatorFirstName,omitempty"`
	CreatorEmail     string    `dynamodbav:"creatorEmail,omitempty"`
}

// DynamoBackend stores annotations in a DynamoDB table
type DynamoBackend struct {
	client    DynamoAPI
	tableName string
	log       *logger.Logger
}

// NewDynamoBackend creates a backend using the default AWS credential chain
func NewDynamoBackend(ctx context.Context, tableName string) (*DynamoBackend, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewDynamoBackendWithClient(dynamodb.NewFromConfig(cfg), tableName), nil
}

// NewDynamoBackendWithClient creates a backend over an existing client
func NewDynamoBackendWithClient(client DynamoAPI, tableName string) *DynamoBackend {
	return &DynamoBackend{
		client:    client,
		tableName: tableName,
		log:       logger.Component("dynamodb"),
	}
}

// List queries every annotation in the scope's partition in creation order
func (b *DynamoBackend) List(ctx context.Context, scope Scope) ([]models.Annotation, error) {
	paginator := dynamodb.NewQueryPaginator(b.client, &dynamodb.QueryInput{
		TableName:              aws.String(b.tableName),
		KeyConditionExpression: aws.String("#scope = :scope"),
		ExpressionAttributeNames: map[string]string{
			"#scope": "scope",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":scope": &types.AttributeValueMemberS{Value: scope.Key()},
		},
		ScanIndexForward: aws.Bool(true),
	})

	var list []models.Annotation
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query annotations: %w", err)
		}
		for _, raw := range page.Items {
			var item dynamoItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				b.log.Warn("Skipping malformed annotation item", logger.Fields{"error": err.Error()})
				continue
			}
			list = append(list, item.annotation(scope))
		}
	}
	return list, nil
}

func (item dynamoItem) annotation(scope Scope) models.Annotation {
	a := models.Annotation{
		ID:            item.ID,
		Content:       item.Content,
		DateMarker:    item.DateMarker.UTC(),
		CreatedAt:     item.CreatedAt.UTC(),
		DashboardItem: scope.DashboardItem,
	}
	if item.CreatorFirstName != "" || item.CreatorEmail != "" {
		a.CreatedBy = &models.Creator{FirstName: item.CreatorFirstName, Email: item.CreatorEmail}
	}
	return a
}

// Create puts a with a fresh id
func (b *DynamoBackend) Create(ctx context.Context, a models.Annotation) (models.Annotation, error) {
	a.ID = uuid.NewString()
	item := dynamoItem{
		Scope:      Scope{DashboardItem: a.DashboardItem}.Key(),
		SortKey:    a.CreatedAt.UTC().Format(sortKeyLayout) + "#" + a.ID,
		ID:         a.ID,
		Content:    a.Content,
		DateMarker: a.DateMarker.UTC(),
		CreatedAt:  a.CreatedAt.UTC(),
	}
	if a.CreatedBy != nil {
		item.CreatorFirstName = a.CreatedBy.FirstName
		item.CreatorEmail = a.CreatedBy.Email
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return models.Annotation{}, fmt.Errorf("failed to marshal annotation: %w", err)
	}
	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(b.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(sortKey)"),
	})
	if err != nil {
		return models.Annotation{}, fmt.Errorf("failed to store annotation: %w", err)
	}
	return a, nil
}

// Close is a no-op; the SDK client holds no resources that need releasing
func (b *DynamoBackend) Close() error {
	return nil
}
