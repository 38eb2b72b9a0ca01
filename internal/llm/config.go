package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config selects the tutor's model vendor and how requests to it behave.
type Config struct {
	// Provider is one of anthropic, openai, gemini, openrouter or mock.
	Provider string `yaml:"provider" validate:"omitempty,oneof=anthropic openai gemini openrouter mock"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`

	// Timeout bounds one explanation or plan, retries included.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	// BaseURL points at any OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type OpenRouterConfig struct {
	APIKey string `yaml:"api_key"`
	// Model is a vendor-prefixed OpenRouter id.
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// RetryConfig bounds WithRetry.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" validate:"gte=1,lte=10"`
	InitialWait time.Duration `yaml:"initial_wait" validate:"gte=0"`
	MaxWait     time.Duration `yaml:"max_wait" validate:"gte=0"`
	Multiplier  float64       `yaml:"multiplier" validate:"gte=1"`
}

// DefaultConfig uses the cheapest model of each vendor that explains
// SAP-C02 questions well.
func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "anthropic/claude-haiku-4.5"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 45 * time.Second,
	}
}

// section points into the part of Config one vendor owns.
type section struct {
	key, model, baseURL *string
}

// vendors is in discovery priority order. env is the infix of the
// SAPPREP_<env>_* variables; wellKnown is the vendor's own key variable.
var vendors = []struct {
	name, env, wellKnown string
	of                   func(*Config) section
}{
	{"anthropic", "ANTHROPIC", "ANTHROPIC_API_KEY", func(c *Config) section {
		return section{key: &c.Anthropic.APIKey, model: &c.Anthropic.Model}
	}},
	{"openai", "OPENAI", "OPENAI_API_KEY", func(c *Config) section {
		return section{key: &c.OpenAI.APIKey, model: &c.OpenAI.Model, baseURL: &c.OpenAI.BaseURL}
	}},
	{"gemini", "GEMINI", "GEMINI_API_KEY", func(c *Config) section {
		return section{key: &c.Gemini.APIKey, model: &c.Gemini.Model}
	}},
	{"openrouter", "OPENROUTER", "OPENROUTER_API_KEY", func(c *Config) section {
		return section{key: &c.OpenRouter.APIKey, model: &c.OpenRouter.Model, baseURL: &c.OpenRouter.BaseURL}
	}},
}

// ApplyEnv overrides cfg with the SAPPREP_* LLM variables that are set and
// non-empty.
func ApplyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" && dst != nil {
			*dst = v
		}
	}
	set(&cfg.Provider, "SAPPREP_LLM_PROVIDER")
	for _, v := range vendors {
		s := v.of(cfg)
		set(s.key, "SAPPREP_"+v.env+"_API_KEY")
		set(s.model, "SAPPREP_"+v.env+"_MODEL")
		set(s.baseURL, "SAPPREP_"+v.env+"_BASE_URL")
	}
	if d, err := time.ParseDuration(os.Getenv("SAPPREP_LLM_TIMEOUT")); err == nil {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("SAPPREP_LLM_MAX_ATTEMPTS")); err == nil && n > 0 {
		cfg.Retry.MaxAttempts = n
	}
}

// DiscoverConfig selects the first vendor whose well-known key variable
// (ANTHROPIC_API_KEY and so on) is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	for _, v := range vendors {
		if k := os.Getenv(v.wellKnown); k != "" {
			cfg.Provider = v.name
			*v.of(&cfg).key = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Model is the configured model of the selected provider.
func (c Config) Model() string {
	for _, v := range vendors {
		if v.name == c.Provider {
			return *v.of(&c).model
		}
	}
	return c.Provider
}

// HasKey reports whether the selected provider can be used.
func (c Config) HasKey() bool { return c.Validate() == nil }

// Validate checks the selected provider is known and has a key.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	for _, v := range vendors {
		if v.name != c.Provider {
			continue
		}
		if *v.of(&c).key == "" {
			return fmt.Errorf("SAPPREP_%s_API_KEY is required for the %s provider", v.env, v.name)
		}
		return nil
	}
	return fmt.Errorf("unknown LLM provider: %q", c.Provider)
}
