package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/wolfman30/oncall-chatbot/internal/observability/metrics"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// contextRecord is the DynamoDB item for one session. expiresAt drives the
// table's TTL so idle sessions disappear without a sweeper.
type contextRecord struct {
	SessionID string `dynamodbav:"sessionId"`
	Payload   string `dynamodbav:"payload"`
	Version   int64  `dynamodbav:"version"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt"`
}

// DynamoContextStore keeps contexts in DynamoDB for Lambda deployments.
// Writes are conditioned on the version read, so concurrent turns of one
// session cannot overwrite each other.
type DynamoContextStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	logger    *logging.Logger
	metrics   *metrics.ChatMetrics
	now       func() time.Time
}

func NewDynamoContextStore(client dynamoAPI, tableName string, ttl time.Duration, logger *logging.Logger, m *metrics.ChatMetrics) *DynamoContextStore {
	if client == nil {
		panic("conversation: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("conversation: table name cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoContextStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *DynamoContextStore) key(sessionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"sessionId": &types.AttributeValueMemberS{Value: sessionID},
	}
}

// read returns the live context, whether an item exists at all, and the
// stored version.
func (s *DynamoContextStore) read(ctx context.Context, sessionID string) (*Context, bool, int64, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(sessionID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, 0, fmt.Errorf("conversation: failed to fetch context: %w", err)
	}
	if out.Item == nil {
		return nil, false, 0, nil
	}
	var rec contextRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, true, 0, fmt.Errorf("conversation: failed to decode context record: %w", err)
	}
	if rec.ExpiresAt > 0 && s.now().Unix() > rec.ExpiresAt {
		// DynamoDB TTL deletion lags; treat the item as gone.
		return nil, true, rec.Version, nil
	}
	var c Context
	if err := json.Unmarshal([]byte(rec.Payload), &c); err != nil {
		return nil, true, rec.Version, fmt.Errorf("conversation: failed to decode context: %w", err)
	}
	c.Version = rec.Version
	return &c, true, rec.Version, nil
}

func (s *DynamoContextStore) Update(ctx context.Context, sessionID string, fn func(*Context) error) (*Context, error) {
	if err := validSession(sessionID); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, exists, version, err := s.read(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			current = newContext(sessionID)
		}
		if err := fn(current); err != nil {
			return nil, err
		}

		now := s.now().UTC()
		current.Version = version + 1
		current.UpdatedAt = now
		payload, err := json.Marshal(current)
		if err != nil {
			return nil, fmt.Errorf("conversation: failed to marshal context: %w", err)
		}
		item, err := attributevalue.MarshalMap(contextRecord{
			SessionID: sessionID,
			Payload:   string(payload),
			Version:   current.Version,
			UpdatedAt: now.Format(time.RFC3339Nano),
			ExpiresAt: now.Add(s.ttl).Unix(),
		})
		if err != nil {
			return nil, fmt.Errorf("conversation: failed to marshal context record: %w", err)
		}

		input := &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      item,
		}
		if exists {
			input.ConditionExpression = aws.String("#version = :expected")
			input.ExpressionAttributeNames = map[string]string{"#version": "version"}
			input.ExpressionAttributeValues = map[string]types.AttributeValue{
				":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(version, 10)},
			}
		} else {
			input.ConditionExpression = aws.String("attribute_not_exists(sessionId)")
		}

		_, err = s.client.PutItem(ctx, input)
		if err == nil {
			return current, nil
		}
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			s.metrics.ObserveContextConflict("dynamodb")
			s.logger.Debug("context version conflict, retrying", "session_id", sessionID, "attempt", attempt+1)
			continue
		}
		return nil, fmt.Errorf("conversation: failed to persist context: %w", err)
	}
	return nil, ErrVersionConflict
}

func (s *DynamoContextStore) Get(ctx context.Context, sessionID string) (*Context, error) {
	if err := validSession(sessionID); err != nil {
		return nil, err
	}
	c, _, _, err := s.read(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrContextNotFound
	}
	return c, nil
}

func (s *DynamoContextStore) Delete(ctx context.Context, sessionID string) error {
	if err := validSession(sessionID); err != nil {
		return err
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(sessionID),
	})
	if err != nil {
		return fmt.Errorf("conversation: failed to delete context: %w", err)
	}
	return nil
}
