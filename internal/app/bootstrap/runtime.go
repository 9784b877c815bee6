package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/oncall-chatbot/internal/config"
	"github.com/wolfman30/oncall-chatbot/internal/conversation"
	"github.com/wolfman30/oncall-chatbot/internal/observability/metrics"
	"github.com/wolfman30/oncall-chatbot/internal/schedule"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
)

// Context store backends selectable through CONTEXT_STORE.
const (
	ContextStoreMemory   = "memory"
	ContextStoreRedis    = "redis"
	ContextStoreDynamoDB = "dynamodb"
)

// ScheduleBackend is a schedule store that also supplies the department
// vocabulary.
type ScheduleBackend interface {
	schedule.Store
	schedule.DepartmentProvider
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildScheduleStore returns the Postgres store when a pool is given, else an
// in-memory store loaded from the seed file (or empty with the default
// departments).
func BuildScheduleStore(pool *pgxpool.Pool, cfg *appconfig.Config, logger *logging.Logger) (ScheduleBackend, error) {
	if pool != nil {
		logger.Info("schedule store: postgres")
		return schedule.NewPostgresStore(pool), nil
	}
	path := strings.TrimSpace(cfg.ScheduleSeedFile)
	if path == "" {
		logger.Warn("schedule store: memory without seed; every lookup will come back empty")
		return schedule.NewMemoryStore(nil), nil
	}
	store, err := schedule.LoadSeedFile(path, cfg.Location())
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load schedule seed: %w", err)
	}
	logger.Info("schedule store: memory", "seed", path)
	return store, nil
}

// ContextStoreDeps carries the clients an external context store needs.
type ContextStoreDeps struct {
	Redis   *redis.Client
	AWS     *aws.Config
	Metrics *metrics.ChatMetrics
}

// BuildContextStore selects the session context backend named by
// cfg.ContextStore. The returned func releases store resources.
func BuildContextStore(cfg *appconfig.Config, deps ContextStoreDeps, logger *logging.Logger) (conversation.ContextStore, func(), error) {
	switch cfg.ContextStore {
	case "", ContextStoreMemory:
		store := conversation.NewMemoryContextStore(cfg.ContextTTL, 0)
		logger.Info("context store: memory", "ttl", cfg.ContextTTL.String())
		return store, store.Close, nil
	case ContextStoreRedis:
		if deps.Redis == nil {
			return nil, nil, fmt.Errorf("bootstrap: context store %q requires redis", cfg.ContextStore)
		}
		logger.Info("context store: redis", "addr", cfg.RedisAddr, "ttl", cfg.ContextTTL.String())
		return conversation.NewRedisContextStore(deps.Redis, cfg.ContextTTL, deps.Metrics), func() {}, nil
	case ContextStoreDynamoDB:
		if deps.AWS == nil {
			return nil, nil, fmt.Errorf("bootstrap: context store %q requires aws config", cfg.ContextStore)
		}
		client := dynamodb.NewFromConfig(*deps.AWS)
		logger.Info("context store: dynamodb", "table", cfg.ContextTable, "ttl", cfg.ContextTTL.String())
		return conversation.NewDynamoContextStore(client, cfg.ContextTable, cfg.ContextTTL, logger, deps.Metrics), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown context store %q", cfg.ContextStore)
	}
}

func pingTimeout(ctx context.Context, d time.Duration, ping func(context.Context) error) error {
	if d <= 0 {
		d = 5 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return ping(pctx)
}
