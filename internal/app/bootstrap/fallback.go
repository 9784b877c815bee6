package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	appconfig "github.com/wolfman30/oncall-chatbot/internal/config"
	"github.com/wolfman30/oncall-chatbot/internal/conversation"
	"github.com/wolfman30/oncall-chatbot/internal/fallback"
	"github.com/wolfman30/oncall-chatbot/pkg/logging"
)

// Fallback providers selectable through FALLBACK_PROVIDER.
const (
	FallbackNone    = "none"
	FallbackGemini  = "gemini"
	FallbackBedrock = "bedrock"
)

// BuildFallback wires the optional LLM answerer used when the schedule has no
// entry. A misconfigured provider disables the fallback rather than failing
// startup; an unknown provider name is an error.
func BuildFallback(ctx context.Context, cfg *appconfig.Config, awsCfg func(context.Context) (*aws.Config, error), logger *logging.Logger) (conversation.FallbackAnswerer, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() {}

	switch cfg.FallbackProvider {
	case "", FallbackNone:
		return nil, noop, nil
	case FallbackGemini:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			logger.Warn("gemini fallback selected but GEMINI_API_KEY empty; disabling")
			return nil, noop, nil
		}
		answerer, err := fallback.NewGeminiAnswerer(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: gemini fallback: %w", err)
		}
		logger.Info("fallback enabled", "provider", FallbackGemini, "model", cfg.GeminiModelID)
		return answerer, func() { _ = answerer.Close() }, nil
	case FallbackBedrock:
		model := strings.TrimSpace(cfg.BedrockModelID)
		if model == "" {
			logger.Warn("bedrock fallback selected but BEDROCK_MODEL_ID empty; disabling")
			return nil, noop, nil
		}
		loaded, err := awsCfg(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		logger.Info("fallback enabled", "provider", FallbackBedrock, "model", model)
		return fallback.NewBedrockAnswerer(bedrockruntime.NewFromConfig(*loaded), model), noop, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown fallback provider %q", cfg.FallbackProvider)
	}
}
