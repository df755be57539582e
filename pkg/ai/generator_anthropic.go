package ai

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

// AnthropicGenerator calls the Claude Messages API through the official SDK.
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
}

// NewAnthropicGenerator builds an Anthropic-based Generator.
// An empty baseURL keeps the SDK default.
func NewAnthropicGenerator(apiKey, baseURL, model string) (*AnthropicGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicGenerator{
		client: anthropic.NewClient(opts...),
		model:  strings.TrimSpace(model),
	}, nil
}

// Generate implements Generator. The Messages API has no JSON mode, so
// structured requests carry the schema in the system prompt and the reply is
// trimmed to its outermost JSON object.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.model == "" {
		return "", fmt.Errorf("anthropic generation model required")
	}
	systemPrompt := req.SystemPrompt
	if req.Schema != nil {
		systemPrompt = strings.TrimSpace(systemPrompt + "\n\nOutput ONLY a JSON object matching this JSON Schema, no markdown:\n" + req.Schema.Describe())
	}
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, msg := range req.History {
		if msg.Role == RoleModel {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Text)))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text)))
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: anthropicMaxTokens,
		Messages:  messages,
	}
	if strings.TrimSpace(systemPrompt) != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	if req.Schema != nil {
		return ExtractJSON(text)
	}
	return text, nil
}

// ExtractJSON finds the outermost JSON object in s.
func ExtractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
