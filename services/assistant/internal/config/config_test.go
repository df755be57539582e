package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func TestLoadDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("ASSISTANT_MODEL_RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("ASSISTANT_TRUSTED_PROXY_CIDRS", "10.0.0.0/8, 192.168.1.10")
	t.Setenv("ASSISTANT_SURFACE_MODEL_ERRORS", "true")

	cfg, err := Load(writeConfig(t, `
port: "8090"
logLevel: "debug"
sendLatency: "2s"
openedAfter: "10s"
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.GenerationAPIKey != "gemini-key" {
		t.Fatalf("generationAPIKey = %q, want gemini-key", cfg.GenerationAPIKey)
	}
	if cfg.GenerationProvider != "gemini" || cfg.ReasoningModel != "gemini-3-pro-preview" || cfg.DraftModel != "gemini-3-flash-preview" {
		t.Fatalf("unexpected model defaults: %+v", cfg)
	}
	if cfg.ModelRateLimitPerMinute != 30 || cfg.RedisAddr != "localhost:6380" {
		t.Fatalf("rate limit overrides not applied: %+v", cfg)
	}
	if len(cfg.TrustedProxyCIDRs) != 2 || cfg.TrustedProxyCIDRs[1] != "192.168.1.10" {
		t.Fatalf("trustedProxyCidrs = %v", cfg.TrustedProxyCIDRs)
	}
	if !cfg.SurfaceModelErrors {
		t.Fatalf("surfaceModelErrors = false, want true")
	}
	if !cfg.ShouldRefreshOnStart() {
		t.Fatalf("refreshOnStart should default to true")
	}
	timings, err := cfg.Timings()
	if err != nil {
		t.Fatalf("timings: %v", err)
	}
	if timings.SendLatency != 2*time.Second || timings.DeliveredAfter != 0 || timings.OpenedAfter != 10*time.Second {
		t.Fatalf("unexpected timings: %+v", timings)
	}
}

func TestLoadUsesAssistantConfigEnv(t *testing.T) {
	path := writeConfig(t, "port: \"8091\"\ngenerationProvider: ollama\nrefreshOnStart: false\n")
	t.Setenv("ASSISTANT_CONFIG", path)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "8091" || cfg.GenerationProvider != "ollama" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ShouldRefreshOnStart() {
		t.Fatalf("refreshOnStart: false should be honoured")
	}
}

func TestAnthropicProviderReadsAnthropicKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "wrong")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	cfg, err := Load(writeConfig(t, "port: \"8090\"\ngenerationProvider: anthropic\nreasoningModel: claude-sonnet\ndraftModel: claude-haiku\n"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.GenerationAPIKey != "sk-ant" {
		t.Fatalf("generationAPIKey = %q, want sk-ant", cfg.GenerationAPIKey)
	}
}

func TestValidateConfig(t *testing.T) {
	base := FileConfig{Port: "8090", GenerationProvider: "gemini", GenerationAPIKey: "k"}
	if err := validateConfig(base); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*FileConfig)
		want   string
	}{
		{"missing port", func(c *FileConfig) { c.Port = "" }, "port"},
		{"missing key", func(c *FileConfig) { c.GenerationAPIKey = "" }, "generationAPIKey"},
		{"unknown provider", func(c *FileConfig) { c.GenerationProvider = "palm" }, "unknown generationProvider"},
		{"openai without base url", func(c *FileConfig) { c.GenerationProvider = "openai" }, "generationBaseURL"},
		{"bad duration", func(c *FileConfig) { c.SendLatency = "fast" }, "sendLatency"},
		{"negative duration", func(c *FileConfig) { c.OpenedAfter = "-1s" }, "openedAfter"},
		{"negative rate limit", func(c *FileConfig) { c.ModelRateLimitPerMinute = -1 }, "modelRateLimitPerMinute"},
		{"rate limit without redis", func(c *FileConfig) { c.ModelRateLimitPerMinute = 10 }, "redisAddr"},
		{"stream without redis", func(c *FileConfig) { c.DispatchStream = "assistant:dispatch" }, "redisAddr"},
	}
	for _, tt := range tests {
		cfg := base
		tt.mutate(&cfg)
		err := validateConfig(cfg)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: err = %v, want mention of %q", tt.name, err, tt.want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
