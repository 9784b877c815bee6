package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/wolfman30/oncall-chatbot/internal/conversation"
	httpmiddleware "github.com/wolfman30/oncall-chatbot/internal/http/middleware"
	"github.com/wolfman30/oncall-chatbot/internal/observability/metrics"
	"github.com/wolfman30/oncall-chatbot/internal/webchat"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	WebChatHandler      *webchat.Handler
	MetricsHandler      http.Handler
	// StatsGatherer backs GET /stats; nil disables the route.
	StatsGatherer      prometheus.Gatherer
	RateLimiter        *httpmiddleware.RateLimiter
	Metrics            *metrics.ChatMetrics
	CORSAllowedOrigins []string
	HealthChecks       map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg == nil || cfg.ConversationHandler == nil {
		panic("router: conversation handler required")
	}
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.StatsGatherer != nil {
		r.Get("/stats", statsHandler(cfg.StatsGatherer))
	}

	chat := cfg.ConversationHandler
	r.Get("/departments", chat.Departments)
	r.Route("/sessions/{sessionID}", func(s chi.Router) {
		s.Get("/context", chat.GetContext)
		s.Delete("/context", chat.DeleteContext)
	})

	r.Group(func(limited chi.Router) {
		if cfg.RateLimiter != nil {
			limited.Use(httpmiddleware.RateLimit(cfg.RateLimiter, cfg.Metrics))
		}
		limited.Post("/chat", chat.Chat)
		if cfg.WebChatHandler != nil {
			limited.Get("/chat/ws", cfg.WebChatHandler.HandleWebSocket)
			limited.Get("/chat/history", cfg.WebChatHandler.HandleHistory)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		body := map[string]any{"status": "ok", "checks": results}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		writeJSON(w, status, body)
	}
}

func statsHandler(gatherer prometheus.Gatherer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Collect(gatherer))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
