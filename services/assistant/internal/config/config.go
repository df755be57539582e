package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location, overridable by ASSISTANT_CONFIG.
var ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port               string `yaml:"port"`
	LogLevel           string `yaml:"logLevel"`
	GenerationProvider string `yaml:"generationProvider"`
	GenerationBaseURL  string `yaml:"generationBaseURL"`
	GenerationAPIKey   string `yaml:"generationAPIKey"`
	ReasoningModel     string `yaml:"reasoningModel"`
	DraftModel         string `yaml:"draftModel"`
	FixturesPath       string `yaml:"fixturesPath"`
	SendLatency        string `yaml:"sendLatency"`
	DeliveredAfter     string `yaml:"deliveredAfter"`
	OpenedAfter        string `yaml:"openedAfter"`
	SurfaceModelErrors bool   `yaml:"surfaceModelErrors"`
	DailyBriefing      bool   `yaml:"dailyBriefing"`
	RefreshOnStart     *bool  `yaml:"refreshOnStart"`

	RedisAddr               string   `yaml:"redisAddr"`
	RedisPassword           string   `yaml:"redisPassword"`
	ModelRateLimitPerMinute int      `yaml:"modelRateLimitPerMinute"`
	TrustedProxyCIDRs       []string `yaml:"trustedProxyCidrs"`

	AMQPURL          string `yaml:"amqpURL"`
	DispatchExchange string `yaml:"dispatchExchange"`
	DispatchStream   string `yaml:"dispatchStream"`
}

// Timings holds the parsed dispatch simulation durations. Zero means default.
type Timings struct {
	SendLatency    time.Duration
	DeliveredAfter time.Duration
	OpenedAfter    time.Duration
}

// Load reads config from path (defaults to ASSISTANT_CONFIG, then config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = os.Getenv("ASSISTANT_CONFIG")
	}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("ASSISTANT_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("GENERATION_PROVIDER"); v != "" {
		cfg.GenerationProvider = strings.TrimSpace(v)
	}
	if v := os.Getenv("GENERATION_BASE_URL"); v != "" {
		cfg.GenerationBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("GENERATION_API_KEY"); v != "" {
		cfg.GenerationAPIKey = v
	}
	// Provider-specific keys only fill an unset key.
	if cfg.GenerationAPIKey == "" {
		switch strings.ToLower(cfg.GenerationProvider) {
		case "", "gemini":
			cfg.GenerationAPIKey = os.Getenv("GEMINI_API_KEY")
		case "anthropic":
			cfg.GenerationAPIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai", "openai-compat":
			cfg.GenerationAPIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if v := os.Getenv("ASSISTANT_REASONING_MODEL"); v != "" {
		cfg.ReasoningModel = strings.TrimSpace(v)
	}
	if v := os.Getenv("ASSISTANT_DRAFT_MODEL"); v != "" {
		cfg.DraftModel = strings.TrimSpace(v)
	}
	if v := os.Getenv("ASSISTANT_FIXTURES_PATH"); v != "" {
		cfg.FixturesPath = strings.TrimSpace(v)
	}
	if v := os.Getenv("ASSISTANT_SURFACE_MODEL_ERRORS"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.SurfaceModelErrors = b
		}
	}
	if v := os.Getenv("ASSISTANT_DAILY_BRIEFING"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.DailyBriefing = b
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("ASSISTANT_MODEL_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.ModelRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("ASSISTANT_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQPURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("ASSISTANT_DISPATCH_STREAM"); v != "" {
		cfg.DispatchStream = strings.TrimSpace(v)
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.GenerationProvider == "" {
		cfg.GenerationProvider = "gemini"
	}
	if cfg.ReasoningModel == "" {
		cfg.ReasoningModel = "gemini-3-pro-preview"
	}
	if cfg.DraftModel == "" {
		cfg.DraftModel = "gemini-3-flash-preview"
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.GenerationProvider))
	switch provider {
	case "gemini", "anthropic":
		if cfg.GenerationAPIKey == "" {
			return fmt.Errorf("config: generationAPIKey is required for %s (set in config.yaml or GENERATION_API_KEY)", provider)
		}
	case "openai", "openai-compat":
		if strings.TrimSpace(cfg.GenerationBaseURL) == "" {
			return errors.New("config: generationBaseURL is required for openai-compatible providers")
		}
	case "ollama":
	default:
		return fmt.Errorf("config: unknown generationProvider %q", cfg.GenerationProvider)
	}
	if _, err := cfg.Timings(); err != nil {
		return err
	}
	if cfg.ModelRateLimitPerMinute < 0 {
		return errors.New("config: modelRateLimitPerMinute must be >= 0")
	}
	if cfg.ModelRateLimitPerMinute > 0 && strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required when modelRateLimitPerMinute is set")
	}
	if cfg.DispatchStream != "" && strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required when dispatchStream is set")
	}
	return nil
}

// Timings parses the dispatch simulation durations.
func (cfg FileConfig) Timings() (Timings, error) {
	var out Timings
	var err error
	if out.SendLatency, err = parseDuration("sendLatency", cfg.SendLatency); err != nil {
		return Timings{}, err
	}
	if out.DeliveredAfter, err = parseDuration("deliveredAfter", cfg.DeliveredAfter); err != nil {
		return Timings{}, err
	}
	if out.OpenedAfter, err = parseDuration("openedAfter", cfg.OpenedAfter); err != nil {
		return Timings{}, err
	}
	return out, nil
}

// ShouldRefreshOnStart reports whether a briefing is requested at startup.
func (cfg FileConfig) ShouldRefreshOnStart() bool {
	return cfg.RefreshOnStart == nil || *cfg.RefreshOnStart
}

func parseDuration(name, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s duration: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must be >= 0", name)
	}
	return d, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
