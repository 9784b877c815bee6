package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/oncall-chatbot/internal/observability/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisContextStore keeps contexts in Redis so several API instances share
// sessions. Read-modify-write runs under WATCH and is retried on conflict.
type RedisContextStore struct {
	redis   *redis.Client
	ttl     time.Duration
	tracer  trace.Tracer
	metrics *metrics.ChatMetrics
}

func NewRedisContextStore(client *redis.Client, ttl time.Duration, m *metrics.ChatMetrics) *RedisContextStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	return &RedisContextStore{
		redis:   client,
		ttl:     ttl,
		tracer:  otel.Tracer("oncall.internal.conversation.context"),
		metrics: m,
	}
}

func contextKey(sessionID string) string {
	return fmt.Sprintf("duty_context:%s", sessionID)
}

func (s *RedisContextStore) Update(ctx context.Context, sessionID string, fn func(*Context) error) (*Context, error) {
	if err := validSession(sessionID); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "conversation.update_context")
	defer span.End()

	key := contextKey(sessionID)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var updated *Context
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := s.load(ctx, tx, sessionID)
			if err != nil {
				return err
			}
			if err := fn(current); err != nil {
				return err
			}
			current.Version++
			current.UpdatedAt = time.Now().UTC()
			data, err := json.Marshal(current)
			if err != nil {
				return fmt.Errorf("conversation: failed to marshal context: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, s.ttl)
				return nil
			})
			if err != nil {
				return err
			}
			updated = current
			return nil
		}, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			s.metrics.ObserveContextConflict("redis")
			continue
		}
		span.RecordError(err)
		return nil, err
	}
	span.RecordError(ErrVersionConflict)
	return nil, ErrVersionConflict
}

func (s *RedisContextStore) load(ctx context.Context, cmd redis.Cmdable, sessionID string) (*Context, error) {
	data, err := cmd.Get(ctx, contextKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return newContext(sessionID), nil
		}
		return nil, fmt.Errorf("conversation: failed to load context: %w", err)
	}
	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("conversation: failed to decode context: %w", err)
	}
	return &c, nil
}

func (s *RedisContextStore) Get(ctx context.Context, sessionID string) (*Context, error) {
	if err := validSession(sessionID); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "conversation.get_context")
	defer span.End()

	n, err := s.redis.Exists(ctx, contextKey(sessionID)).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to check context: %w", err)
	}
	if n == 0 {
		return nil, ErrContextNotFound
	}
	return s.load(ctx, s.redis, sessionID)
}

func (s *RedisContextStore) Delete(ctx context.Context, sessionID string) error {
	if err := validSession(sessionID); err != nil {
		return err
	}
	if err := s.redis.Del(ctx, contextKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("conversation: failed to delete context: %w", err)
	}
	return nil
}
