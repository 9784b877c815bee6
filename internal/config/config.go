package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string
	Timezone string

	// Schedule store
	DatabaseURL      string
	ScheduleSeedFile string

	// Conversation context store
	ContextStore       string
	ContextTTL         time.Duration
	ContextHistorySize int
	ContextTable       string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Fallback answer service
	FallbackProvider string
	FallbackTimeout  time.Duration
	GeminiAPIKey     string
	GeminiModelID    string
	BedrockModelID   string

	TranscriptsEnabled bool
	CORSAllowedOrigins []string
	ChatRatePerSec     float64
	ChatRateBurst      int
	UpstreamTimeout    time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("TIMEZONE", "Asia/Seoul"),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ScheduleSeedFile: getEnv("SCHEDULE_SEED_FILE", ""),

		ContextStore:       strings.ToLower(strings.TrimSpace(getEnv("CONTEXT_STORE", "memory"))),
		ContextTTL:         getEnvAsDuration("CONTEXT_TTL", 24*time.Hour),
		ContextHistorySize: getEnvAsInt("CONTEXT_HISTORY_SIZE", 10),
		ContextTable:       getEnv("CONTEXT_TABLE", "duty_chat_contexts"),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		FallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("FALLBACK_PROVIDER", "none"))),
		FallbackTimeout:  getEnvAsDuration("FALLBACK_TIMEOUT", 10*time.Second),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:    getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		BedrockModelID:   getEnv("BEDROCK_MODEL_ID", ""),

		TranscriptsEnabled: getEnvAsBool("TRANSCRIPTS_ENABLED", false),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		ChatRatePerSec:     getEnvAsFloat("CHAT_RATE_PER_SEC", 2),
		ChatRateBurst:      getEnvAsInt("CHAT_RATE_BURST", 5),
		UpstreamTimeout:    getEnvAsDuration("UPSTREAM_TIMEOUT", 5*time.Second),
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || strings.TrimSpace(c.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
