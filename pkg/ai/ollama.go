package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaBaseURL = "http://127.0.0.1:11434"

// OllamaClient talks to a local Ollama server.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOllamaClient constructs a client; an empty baseURL means the local default.
func NewOllamaClient(baseURL string) *OllamaClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &OllamaClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Chat runs one non-streaming /api/chat call.
func (c *OllamaClient) Chat(ctx context.Context, reqBody ollamaChatRequest) (ollamaChatResponse, error) {
	var out ollamaChatResponse
	body, err := json.Marshal(reqBody)
	if err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return out, fmt.Errorf("ollama api error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return out, fmt.Errorf("ollama api error: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode ollama response: %w", err)
	}
	return out, nil
}

// OllamaGenerator binds an OllamaClient to one model.
type OllamaGenerator struct {
	client *OllamaClient
	model  string
}

// NewOllamaGenerator builds an Ollama-based Generator.
func NewOllamaGenerator(client *OllamaClient, model string) *OllamaGenerator {
	return &OllamaGenerator{client: client, model: strings.TrimSpace(model)}
}

// Generate implements Generator. Structured requests pass the schema as the
// "format" field and run at temperature 0.
func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.model == "" {
		return "", fmt.Errorf("ollama generation model required")
	}
	messages := make([]ollamaChatMessage, 0, len(req.History)+2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, msg := range req.History {
		messages = append(messages, ollamaChatMessage{Role: chatRole(msg.Role), Content: msg.Text})
	}
	messages = append(messages, ollamaChatMessage{Role: "user", Content: req.Prompt})

	reqBody := ollamaChatRequest{Model: g.model, Messages: messages}
	if req.Schema != nil {
		reqBody.Format = req.Schema.JSONSchema()
		reqBody.Options = &ollamaOptions{Temperature: 0}
	}
	resp, err := g.client.Chat(ctx, reqBody)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Message.Content, nil
}

// chatRole maps a Message role onto the user/assistant naming used by chat APIs.
func chatRole(role string) string {
	if role == RoleModel {
		return "assistant"
	}
	return "user"
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   map[string]any      `json:"format,omitempty"`
	Options  *ollamaOptions      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
}
