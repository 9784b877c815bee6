package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockAnswerer answers through the Bedrock Converse API.
type BedrockAnswerer struct {
	api     converseAPI
	modelID string
}

func NewBedrockAnswerer(api converseAPI, modelID string) *BedrockAnswerer {
	if api == nil {
		panic("fallback: bedrock converse client cannot be nil")
	}
	return &BedrockAnswerer{api: api, modelID: modelID}
}

func (b *BedrockAnswerer) Name() string { return "bedrock" }

func (b *BedrockAnswerer) Answer(ctx context.Context, question, hint string) (string, error) {
	if strings.TrimSpace(b.modelID) == "" {
		return "", errors.New("fallback: bedrock model id is required")
	}
	prompt := userPrompt(question, hint)
	if prompt == "" {
		return "", errors.New("fallback: empty question")
	}

	out, err := b.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.modelID),
		System: []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: systemPrompt},
		},
		Messages: []brtypes.Message{{
			Role:    brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: prompt}},
		}},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(256),
			Temperature: aws.Float32(0.2),
		},
	})
	if err != nil {
		return "", fmt.Errorf("fallback: bedrock converse failed: %w", err)
	}
	return outputText(out)
}

func outputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil || out.Output == nil {
		return "", errors.New("fallback: bedrock returned no output")
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("fallback: unexpected bedrock output %T", out.Output)
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}
	answer := strings.TrimSpace(b.String())
	if answer == "" {
		return "", errors.New("fallback: bedrock returned empty content")
	}
	return answer, nil
}
