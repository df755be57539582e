package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaGeneratorMapsRolesAndFormat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]string{"role": "assistant", "content": "done"}})
	}))
	defer srv.Close()

	gen := NewOllamaGenerator(NewOllamaClient(srv.URL), "llama3")
	text, err := gen.Generate(context.Background(), Request{
		SystemPrompt: "sys",
		History:      []Message{{Role: RoleModel, Text: "earlier"}},
		Prompt:       "now",
		Schema:       Object(map[string]*Schema{"to": String()}, "to"),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "done" {
		t.Fatalf("text = %q", text)
	}
	if len(got.Messages) != 3 || got.Messages[0].Role != "system" || got.Messages[1].Role != "assistant" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	if got.Format["type"] != "object" {
		t.Fatalf("format = %+v", got.Format)
	}
	if got.Options == nil || got.Options.Temperature != 0 || got.Stream {
		t.Fatalf("structured call should be deterministic and non-streaming: %+v", got)
	}
}

func TestOllamaClientSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model \"llama3\" not found"})
	}))
	defer srv.Close()

	_, err := NewOllamaGenerator(NewOllamaClient(srv.URL), "llama3").Generate(context.Background(), Request{Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestOpenAICompatGeneratorUsesJSONMode(t *testing.T) {
	var got oaiChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": " {\"a\":1} "}}},
		})
	}))
	defer srv.Close()

	gen := NewOpenAICompatGenerator(srv.URL+"/", "sk-test", "gpt-test")
	text, err := gen.Generate(context.Background(), Request{Prompt: "p", Schema: Object(nil)})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != `{"a":1}` {
		t.Fatalf("text = %q", text)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("response_format = %+v", got.ResponseFormat)
	}
	if got.Messages[0].Role != "system" {
		t.Fatalf("schema instructions should be sent as system message: %+v", got.Messages)
	}
}

func TestOpenAICompatGeneratorEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	gen := NewOpenAICompatGenerator(srv.URL, "", "m")
	if _, err := gen.Generate(context.Background(), Request{Prompt: "p"}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestNewGeneratorProviders(t *testing.T) {
	if _, err := NewGenerator(ProviderConfig{APIKey: "k"}, "gemini-3-pro-preview"); err != nil {
		t.Fatalf("default gemini provider: %v", err)
	}
	if _, err := NewGenerator(ProviderConfig{Provider: "ollama"}, "llama3"); err != nil {
		t.Fatalf("ollama provider: %v", err)
	}
	if _, err := NewGenerator(ProviderConfig{Provider: "openai"}, "m"); err == nil {
		t.Fatalf("openai provider without base url should fail")
	}
	if _, err := NewGenerator(ProviderConfig{Provider: "anthropic", APIKey: "k"}, "claude-sonnet-4-5"); err != nil {
		t.Fatalf("anthropic provider: %v", err)
	}
	if _, err := NewGenerator(ProviderConfig{Provider: "mystery"}, "m"); err == nil {
		t.Fatalf("unknown provider should fail")
	}
	if _, err := NewGenerator(ProviderConfig{APIKey: "k"}, " "); err == nil {
		t.Fatalf("empty model should fail")
	}
}

func TestSchemaJSONSchemaLowercasesTypes(t *testing.T) {
	s := Object(map[string]*Schema{
		"tags":     ArrayOf(String()),
		"category": String("a", "b"),
	}, "tags")
	js := s.JSONSchema()
	if js["type"] != "object" {
		t.Fatalf("type = %v", js["type"])
	}
	props := js["properties"].(map[string]any)
	tags := props["tags"].(map[string]any)
	if tags["type"] != "array" || tags["items"].(map[string]any)["type"] != "string" {
		t.Fatalf("tags = %+v", tags)
	}
	if cat := props["category"].(map[string]any); len(cat["enum"].([]string)) != 2 {
		t.Fatalf("category = %+v", cat)
	}
}

func TestExtractJSON(t *testing.T) {
	got, err := ExtractJSON("Sure! ```json\n{\"to\":\"a\"}\n```")
	if err != nil || got != `{"to":"a"}` {
		t.Fatalf("ExtractJSON = %q, %v", got, err)
	}
	if _, err := ExtractJSON("no json"); err == nil {
		t.Fatalf("expected error without object")
	}
}
