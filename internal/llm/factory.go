package llm

import (
	"context"
	"log/slog"

	"github.com/abhisek/sapprep/internal/store"
)

// NewProvider builds the provider cfg selects. Every attempt is recorded in
// eventRepo and the whole request is retried per cfg.Retry. A nil logger
// discards output; a nil repo skips recording.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		base = NewMockProvider()
	}
	if err != nil {
		return nil, err
	}

	// retry wraps logging so each attempt lands in the ledger.
	return WithRetry(WithLogging(base, eventRepo, cfg.Provider, logger), cfg.Retry), nil
}
