package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultDynamoTable = "rental_inventory"

// DynamoConfig locates the inventory table. Endpoint targets DynamoDB Local when set.
type DynamoConfig struct {
	Table           string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore keeps one item per unit, keyed by equipment_id.
type DynamoStore struct {
	ddb   dynamoAPI
	table string
	log   *slog.Logger
	now   func() time.Time
}

// NewDynamoClient builds a DynamoDB client. Static keys are only used when both are configured.
func NewDynamoClient(ctx context.Context, cfg DynamoConfig) (*dynamodb.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

func NewDynamoStore(ddb dynamoAPI, table string, log *slog.Logger) *DynamoStore {
	if table == "" {
		table = defaultDynamoTable
	}
	if log == nil {
		log = slog.Default()
	}

	return &DynamoStore{
		ddb:   ddb,
		table: table,
		log:   log.With("backend", BackendDynamoDB),
		now:   time.Now,
	}
}

func (s *DynamoStore) ListAll(ctx context.Context) ([]Equipment, error) {
	return s.scan(ctx, nil)
}

func (s *DynamoStore) ListAvailable(ctx context.Context) ([]Equipment, error) {
	return s.scan(ctx, &dynamodb.ScanInput{
		FilterExpression:         aws.String("#status = :available"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":available": &types.AttributeValueMemberS{Value: string(StatusAvailable)},
		},
	})
}

func (s *DynamoStore) GetByID(ctx context.Context, id string) (*Equipment, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            equipmentKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		s.log.Error("failed to fetch equipment", slog.String("equipment_id", id), slog.Any("error", err))
		return nil, fmt.Errorf("get equipment item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var eq Equipment
	if err := attributevalue.UnmarshalMap(out.Item, &eq); err != nil {
		return nil, fmt.Errorf("decode equipment item: %w", err)
	}

	return &eq, nil
}

// TryReserve relies on a conditional update: a failed condition is a lost race, not an error.
func (s *DynamoStore) TryReserve(ctx context.Context, id string, newStatus Status) (bool, error) {
	_, err := s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 equipmentKey(id),
		UpdateExpression:    aws.String("SET #status = :status, #updated_at = :updated_at"),
		ConditionExpression: aws.String("attribute_exists(#id) AND #status = :available"),
		ExpressionAttributeNames: map[string]string{
			"#id":         "equipment_id",
			"#status":     "status",
			"#updated_at": "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":     &types.AttributeValueMemberS{Value: string(newStatus)},
			":available":  &types.AttributeValueMemberS{Value: string(StatusAvailable)},
			":updated_at": &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			s.log.Info("reservation rejected", "equipment_id", id)
			return false, nil
		}

		s.log.Error("failed to reserve equipment", slog.String("equipment_id", id), slog.Any("error", err))
		return false, fmt.Errorf("conditional status update: %w", err)
	}

	s.log.Info("equipment reserved", "equipment_id", id, "status", newStatus)
	return true, nil
}

// Upsert writes items unconditionally, used when seeding the table.
func (s *DynamoStore) Upsert(ctx context.Context, items []Equipment) error {
	for _, eq := range items {
		av, err := attributevalue.MarshalMap(eq)
		if err != nil {
			return fmt.Errorf("encode equipment %s: %w", eq.ID, err)
		}
		av["updated_at"] = &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339)}

		if _, err := s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.table),
			Item:      av,
		}); err != nil {
			return fmt.Errorf("put equipment %s: %w", eq.ID, err)
		}
	}

	return nil
}

func (s *DynamoStore) scan(ctx context.Context, in *dynamodb.ScanInput) ([]Equipment, error) {
	if in == nil {
		in = &dynamodb.ScanInput{}
	}
	in.TableName = aws.String(s.table)

	var items []Equipment
	paginator := dynamodb.NewScanPaginator(s.ddb, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.log.Error("failed to scan inventory", slog.Any("error", err))
			return nil, fmt.Errorf("scan inventory: %w", err)
		}

		var batch []Equipment
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("decode inventory page: %w", err)
		}
		items = append(items, batch...)
	}

	sort.Slice(items, func(i, j int) bool {
		return strings.Compare(items[i].ID, items[j].ID) < 0
	})

	return items, nil
}

func equipmentKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"equipment_id": &types.AttributeValueMemberS{Value: id},
	}
}
