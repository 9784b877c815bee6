package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CONTEXT_STORE", "")
	t.Setenv("CONTEXT_TTL", "")
	t.Setenv("FALLBACK_PROVIDER", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.ContextStore != "memory" {
		t.Fatalf("expected memory context store, got %s", cfg.ContextStore)
	}
	if cfg.ContextTTL != 24*time.Hour {
		t.Fatalf("expected 24h context ttl, got %s", cfg.ContextTTL)
	}
	if cfg.ContextHistorySize != 10 {
		t.Fatalf("expected history size 10, got %d", cfg.ContextHistorySize)
	}
	if cfg.FallbackProvider != "none" {
		t.Fatalf("expected fallback disabled, got %s", cfg.FallbackProvider)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("CONTEXT_STORE", " Redis ")
	t.Setenv("CONTEXT_TTL", "90m")
	t.Setenv("CONTEXT_HISTORY_SIZE", "4")
	t.Setenv("FALLBACK_PROVIDER", "GEMINI")
	t.Setenv("CHAT_RATE_PER_SEC", "0.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://duty.example.com ,")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.ContextStore != "redis" {
		t.Fatalf("expected normalized context store, got %q", cfg.ContextStore)
	}
	if cfg.ContextTTL != 90*time.Minute {
		t.Fatalf("expected ttl override, got %s", cfg.ContextTTL)
	}
	if cfg.ContextHistorySize != 4 {
		t.Fatalf("expected history override, got %d", cfg.ContextHistorySize)
	}
	if cfg.FallbackProvider != "gemini" {
		t.Fatalf("expected gemini provider, got %s", cfg.FallbackProvider)
	}
	if cfg.ChatRatePerSec != 0.5 {
		t.Fatalf("expected rate override, got %v", cfg.ChatRatePerSec)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://duty.example.com" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CONTEXT_TTL", "soon")
	t.Setenv("CHAT_RATE_BURST", "many")
	cfg := Load()
	if cfg.ContextTTL != 24*time.Hour {
		t.Fatalf("expected default ttl, got %s", cfg.ContextTTL)
	}
	if cfg.ChatRateBurst != 5 {
		t.Fatalf("expected default burst, got %d", cfg.ChatRateBurst)
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Asia/Seoul"}
	if cfg.Location().String() != "Asia/Seoul" {
		t.Fatalf("expected Asia/Seoul, got %s", cfg.Location())
	}
	bad := &Config{Timezone: "Mars/Olympus"}
	if bad.Location() != time.UTC {
		t.Fatalf("expected UTC fallback")
	}
	var nilCfg *Config
	if nilCfg.Location() != time.UTC {
		t.Fatalf("expected UTC for nil config")
	}
}
