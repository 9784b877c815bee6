package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/oncall-chatbot/internal/api/router"
	appconfig "github.com/wolfman30/oncall-chatbot/internal/config"
	"github.com/wolfman30/oncall-chatbot/internal/conversation"
	httpmiddleware "github.com/wolfman30/oncall-chatbot/internal/http/middleware"
	"github.com/wolfman30/oncall-chatbot/internal/observability/metrics"
	"github.com/wolfman30/oncall-chatbot/internal/webchat"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
)

// App is the wired duty chat service.
type App struct {
	Config   *appconfig.Config
	Logger   *logging.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.ChatMetrics

	Engine       *conversation.Engine
	Conversation *conversation.Handler
	WebChat      *webchat.Handler
	Limiter      *httpmiddleware.RateLimiter
	HealthChecks map[string]router.HealthCheck

	closers []func()
}

// Option adjusts Build.
type Option func(*buildOptions)

type buildOptions struct {
	loadAWS func(context.Context, *appconfig.Config) (aws.Config, error)
}

// WithAWSConfigLoader replaces LoadAWSConfig, mostly for tests.
func WithAWSConfigLoader(fn func(context.Context, *appconfig.Config) (aws.Config, error)) Option {
	return func(o *buildOptions) {
		if fn != nil {
			o.loadAWS = fn
		}
	}
}

// Build wires every component named by cfg. On error, anything already
// opened is released before returning.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts ...Option) (_ *App, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	o := buildOptions{loadAWS: LoadAWSConfig}
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Config:       cfg,
		Logger:       logger,
		Registry:     prometheus.NewRegistry(),
		HealthChecks: map[string]router.HealthCheck{},
	}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.NewChatMetrics(app.Registry)

	var awsCfg *aws.Config
	loadAWS := func(ctx context.Context) (*aws.Config, error) {
		if awsCfg != nil {
			return awsCfg, nil
		}
		loaded, err := o.loadAWS(ctx, cfg)
		if err != nil {
			return nil, err
		}
		awsCfg = &loaded
		return awsCfg, nil
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		app.HealthChecks["postgres"] = pool.Ping
	}

	scheduleStore, err := BuildScheduleStore(pool, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := ContextStoreDeps{Metrics: app.Metrics}
	switch cfg.ContextStore {
	case ContextStoreRedis:
		client := BuildRedisClient(ctx, cfg, logger, false)
		if client == nil {
			return nil, fmt.Errorf("bootstrap: context store %q requires REDIS_ADDR", cfg.ContextStore)
		}
		if err := pingTimeout(ctx, cfg.UpstreamTimeout, func(ctx context.Context) error { return client.Ping(ctx).Err() }); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("bootstrap: ping redis: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		app.HealthChecks["redis"] = redisHealth(client)
		deps.Redis = client
	case ContextStoreDynamoDB:
		if deps.AWS, err = loadAWS(ctx); err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
	}
	contexts, closeContexts, err := BuildContextStore(cfg, deps, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeContexts)

	app.Engine = conversation.NewEngine(contexts, scheduleStore, scheduleStore,
		conversation.WithLogger(logger),
		conversation.WithMetrics(app.Metrics),
		conversation.WithHistorySize(cfg.ContextHistorySize),
	)

	handlerOpts := []conversation.HandlerOption{
		conversation.WithHandlerMetrics(app.Metrics),
		conversation.WithLocation(cfg.Location()),
	}
	answerer, closeFallback, err := BuildFallback(ctx, cfg, loadAWS, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeFallback)
	if answerer != nil {
		handlerOpts = append(handlerOpts, conversation.WithFallback(answerer, cfg.FallbackTimeout))
	}

	var history webchat.HistoryStore
	if cfg.TranscriptsEnabled {
		if pool == nil {
			logger.Warn("transcripts enabled but DATABASE_URL empty; transcripts disabled")
		} else {
			sqlDB := stdlib.OpenDBFromPool(pool)
			app.closers = append(app.closers, func() { _ = sqlDB.Close() })
			transcripts := conversation.NewTranscriptStore(sqlDB)
			handlerOpts = append(handlerOpts, conversation.WithTranscripts(transcripts))
			history = transcripts
			logger.Info("transcript persistence enabled")
		}
	}

	app.Conversation = conversation.NewHandler(app.Engine, logger, handlerOpts...)
	app.WebChat = webchat.NewHandler(app.Conversation, history, logger)
	app.Limiter = httpmiddleware.NewRateLimiter(cfg.ChatRatePerSec, cfg.ChatRateBurst)
	return app, nil
}

// Router builds the HTTP handler for the app.
func (a *App) Router() http.Handler {
	return router.New(&router.Config{
		Logger:              a.Logger,
		ConversationHandler: a.Conversation,
		WebChatHandler:      a.WebChat,
		MetricsHandler:      promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		StatsGatherer:       a.Registry,
		RateLimiter:         a.Limiter,
		Metrics:             a.Metrics,
		CORSAllowedOrigins:  a.Config.CORSAllowedOrigins,
		HealthChecks:        a.HealthChecks,
	})
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if a.closers[i] != nil {
			a.closers[i]()
		}
	}
	a.closers = nil
}

func redisHealth(client *redis.Client) router.HealthCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

var _ webchat.HistoryStore = (*conversation.TranscriptStore)(nil)
