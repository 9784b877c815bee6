package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/oncall-chatbot/internal/fallback"
)

func failingAWS(context.Context) (*aws.Config, error) {
	return nil, errors.New("no credentials")
}

func staticAWS(context.Context) (*aws.Config, error) {
	return &aws.Config{Region: "us-east-1"}, nil
}

func TestBuildFallbackRequiresConfig(t *testing.T) {
	_, _, err := BuildFallback(context.Background(), nil, staticAWS, nil)
	assert.Error(t, err)
}

func TestBuildFallbackNone(t *testing.T) {
	cfg := testConfig()
	answerer, closeFn, err := BuildFallback(context.Background(), cfg, failingAWS, nil)
	require.NoError(t, err)
	assert.Nil(t, answerer)
	closeFn()
}

func TestBuildFallbackDisabledWhenUnconfigured(t *testing.T) {
	cfg := testConfig()

	cfg.FallbackProvider = FallbackGemini
	answerer, _, err := BuildFallback(context.Background(), cfg, failingAWS, nil)
	require.NoError(t, err)
	assert.Nil(t, answerer, "gemini without key")

	cfg.FallbackProvider = FallbackBedrock
	answerer, _, err = BuildFallback(context.Background(), cfg, failingAWS, nil)
	require.NoError(t, err)
	assert.Nil(t, answerer, "bedrock without model")
}

func TestBuildFallbackBedrock(t *testing.T) {
	cfg := testConfig()
	cfg.FallbackProvider = FallbackBedrock
	cfg.BedrockModelID = "anthropic.claude-3-haiku-20240307-v1:0"

	answerer, closeFn, err := BuildFallback(context.Background(), cfg, staticAWS, nil)
	require.NoError(t, err)
	require.NotNil(t, answerer)
	defer closeFn()
	assert.IsType(t, &fallback.BedrockAnswerer{}, answerer)
	assert.Equal(t, "bedrock", answerer.Name())
}

func TestBuildFallbackBedrockAWSError(t *testing.T) {
	cfg := testConfig()
	cfg.FallbackProvider = FallbackBedrock
	cfg.BedrockModelID = "anthropic.claude-3-haiku-20240307-v1:0"

	_, _, err := BuildFallback(context.Background(), cfg, failingAWS, nil)
	assert.ErrorContains(t, err, "aws config")
}

func TestBuildFallbackUnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.FallbackProvider = "openai"

	_, _, err := BuildFallback(context.Background(), cfg, staticAWS, nil)
	assert.ErrorContains(t, err, "unknown fallback provider")
}
