package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiAnswerer answers through Google's Gemini API.
type GeminiAnswerer struct {
	client    *genai.Client
	modelID   string
	maxTokens int32
}

// NewGeminiAnswerer creates a Gemini-backed answerer.
func NewGeminiAnswerer(ctx context.Context, apiKey, modelID string) (*GeminiAnswerer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("fallback: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("fallback: failed to create gemini client: %w", err)
	}
	return &GeminiAnswerer{client: client, modelID: modelID, maxTokens: 256}, nil
}

func (g *GeminiAnswerer) Name() string { return "gemini" }

// Answer sends one question with the system prompt and returns the text of
// the first candidate.
func (g *GeminiAnswerer) Answer(ctx context.Context, question, hint string) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(0.2)
	model.SetMaxOutputTokens(g.maxTokens)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt(question, hint)))
	if err != nil {
		return "", fmt.Errorf("fallback: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("fallback: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("fallback: gemini returned empty content")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	answer := strings.TrimSpace(b.String())
	if answer == "" {
		return "", errors.New("fallback: gemini returned empty content")
	}
	return answer, nil
}

// Close releases resources held by the Gemini client.
func (g *GeminiAnswerer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
