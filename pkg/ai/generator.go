package ai

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one prior turn of a conversation. Role is RoleUser or RoleModel;
// providers translate RoleModel to their own assistant role name.
type Message struct {
	Role string
	Text string
}

// Request describes a single generation call.
type Request struct {
	SystemPrompt string
	History      []Message
	Prompt       string
	// Schema, when set, asks the provider for a JSON document matching it.
	Schema *Schema
}

// Generator produces text for a request.
// All LLM providers (Gemini, Ollama, OpenAI-compatible, Anthropic) implement this interface.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
