package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/abhisek/sapprep/internal/store"
)

var verdictSchema = &Schema{
	Name: "verdict",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"letter": map[string]any{"type": "string", "pattern": "^[A-F]$"},
			"reason": map[string]any{"type": "string"},
		},
		"required":             []any{"letter", "reason"},
		"additionalProperties": false,
	},
}

func TestMockProvider_ReplaysScript(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(` {"letter":"B","reason":"cheapest"} `), Usage: Usage{InputTokens: 10, OutputTokens: 5}},
		MockResponse{Err: &Error{Kind: KindRateLimited}},
	)
	ctx := WithPurpose(context.Background(), PurposeExplain)

	resp, err := mock.Generate(ctx, Request{Schema: verdictSchema})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"letter":"B","reason":"cheapest"}` || resp.Usage.InputTokens != 10 {
		t.Fatalf("unexpected reply: %+v", resp)
	}

	if _, err := mock.Generate(context.Background(), Request{}); KindOf(err) != KindRateLimited {
		t.Fatalf("expected scripted rate limit, got %v", err)
	}
	if _, err := mock.Generate(context.Background(), Request{}); KindOf(err) != KindUnavailable {
		t.Fatalf("expected exhausted script to be unavailable, got %v", err)
	}

	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.CallCount())
	}
	got := mock.Purposes()
	if got[0] != PurposeExplain || got[1] != PurposeUnknown {
		t.Fatalf("purposes = %v", got)
	}
}

func TestMockProvider_ChecksSchema(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"letter":"Z","reason":"x"}`)},
		MockResponse{Content: json.RawMessage(`not json`)},
	)
	for i := 0; i < 2; i++ {
		_, err := mock.Generate(context.Background(), Request{Schema: verdictSchema})
		var e *Error
		if !errors.As(err, &e) || e.Kind != KindInvalidResponse {
			t.Fatalf("call %d: expected invalid response, got %v", i, err)
		}
		if len(e.Content) == 0 {
			t.Fatalf("call %d: offending content not kept", i)
		}
	}
}

func TestSchema_Compile(t *testing.T) {
	if err := verdictSchema.Compile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := &Schema{Name: "bad", Definition: map[string]any{"type": 12}}
	if err := bad.Compile(); err == nil {
		t.Fatal("expected compile error for non-string type")
	}
	if err := bad.Validate(json.RawMessage(`{}`)); err == nil {
		t.Fatal("validation against a broken schema must fail")
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindRejected, Provider: "openai", Status: 401, Err: errors.New("bad key")}
	if got := err.Error(); got != "openai: request rejected (HTTP 401): bad key" {
		t.Fatalf("Error() = %q", got)
	}
	wrapped := errors.Join(errors.New("explain question 4"), err)
	if KindOf(wrapped) != KindRejected {
		t.Fatal("KindOf must see through wrapping")
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Fatal("plain errors have no kind")
	}
}

func TestPurposeContext(t *testing.T) {
	if p := PurposeFrom(context.Background()); p != PurposeUnknown {
		t.Fatalf("expected unknown, got %q", p)
	}
	ctx := WithPurpose(context.Background(), PurposeStudyPlan)
	if p := PurposeFrom(ctx); p != PurposeStudyPlan {
		t.Fatalf("expected study-plan, got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openrouter with key", Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "or-test"}}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.cfg.HasKey() == tt.wantErr {
				t.Fatalf("HasKey() disagrees with Validate()")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SAPPREP_LLM_PROVIDER", "openai")
	t.Setenv("SAPPREP_OPENAI_API_KEY", "sk-env")
	t.Setenv("SAPPREP_OPENAI_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("SAPPREP_LLM_TIMEOUT", "5s")
	t.Setenv("SAPPREP_ANTHROPIC_MODEL", "")
	t.Setenv("SAPPREP_LLM_MAX_ATTEMPTS", "6")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-env" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.OpenAI.BaseURL != "http://localhost:8080/v1" {
		t.Fatalf("base URL = %q", cfg.OpenAI.BaseURL)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v", cfg.Timeout)
	}
	if cfg.Anthropic.Model != "claude-haiku" {
		t.Fatalf("empty variable must not clear default, got %q", cfg.Anthropic.Model)
	}
	if cfg.Retry.MaxAttempts != 6 {
		t.Fatalf("max attempts = %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Model() != "gpt-4o-mini" {
		t.Fatalf("Model() = %q", cfg.Model())
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != "gemini" || cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("expected gemini to win over openrouter, got %+v", cfg)
	}
	if cfg.OpenRouter.APIKey != "" {
		t.Fatal("only the selected vendor's key is taken")
	}
}

type recordingEvents struct {
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func (r *recordingEvents) LLMUsage(context.Context) (store.LLMUsage, error) {
	return store.LLMUsage{Requests: len(r.events)}, nil
}

func (r *recordingEvents) LLMUsageByModel(context.Context) ([]store.ModelUsage, error) {
	return nil, nil
}

func TestWithLogging_RecordsEvents(t *testing.T) {
	events := &recordingEvents{}
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`), Usage: Usage{InputTokens: 12, OutputTokens: 3}},
		MockResponse{Err: &Error{Kind: KindRateLimited, Provider: "anthropic"}},
	)
	p := WithLogging(mock, events, "anthropic", nil)
	ctx := WithPurpose(context.Background(), PurposeExplain)

	if _, err := p.Generate(ctx, Request{System: "sys"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error to pass through")
	}

	if len(events.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events.events))
	}
	ok, failed := events.events[0], events.events[1]
	if !ok.Success || ok.Provider != "anthropic" || ok.Model != "mock" || ok.Purpose != "explain" {
		t.Fatalf("unexpected success event: %+v", ok)
	}
	if ok.InputTokens != 12 || ok.OutputTokens != 3 {
		t.Fatalf("tokens not recorded: %+v", ok)
	}
	if failed.Success || failed.ErrorMessage == "" {
		t.Fatalf("unexpected failure event: %+v", failed)
	}
}

func TestWithLogging_LedgerErrorDoesNotFailRequest(t *testing.T) {
	events := &recordingEvents{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), events, "", nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("repo error leaked into request: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}

	if _, err := NewProvider(context.Background(), Config{Provider: "anthropic"}, nil, nil); err == nil {
		t.Fatal("expected missing key error")
	}

	cfg := DefaultConfig()
	cfg.Provider = "openrouter"
	cfg.OpenRouter.APIKey = "sk-or-test"
	cfg.Retry.MaxAttempts = 5
	p, err = NewProvider(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, ok := p.(*retrying)
	if !ok {
		t.Fatalf("expected retry decorator outermost, got %T", p)
	}
	if r.cfg.MaxAttempts != 5 {
		t.Fatalf("retry limit not taken from config: %+v", r.cfg)
	}
	if p.ModelID() != "anthropic/claude-haiku-4.5" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		provider, name, want string
	}{
		{"anthropic", "claude-haiku", "claude-haiku-4-5-20251001"},
		{"anthropic", "claude-sonnet-4-20250514", "claude-sonnet-4-20250514"},
		{"gemini", "gemini-flash", "gemini-2.5-flash"},
		{"openai", "gpt-4o-mini", "gpt-4o-mini"},
		{"openai", "gemini-flash", "gemini-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.provider, tt.name); got != tt.want {
			t.Errorf("resolveModel(%q, %q) = %q, want %q", tt.provider, tt.name, got, tt.want)
		}
	}
}

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model string
		want  float64 // cost of 1M in + 1M out
	}{
		{"gpt-4o-mini", 0.75},
		{"gpt-4o-mini-2024-07-18", 0.75},
		{"gpt-4o", 12.5},
		{"claude-haiku", 6},
		{"claude-haiku-4-5-20251001", 6},
		{"anthropic/claude-haiku-4.5", 6},
		{"gemini-flash", 2.8},
		{"gemini-2.5-flash-lite", 0.5},
		{"gpt-4.1-mini", 2},
	}
	for _, tt := range tests {
		c := LookupCost(tt.model)
		if c == nil {
			t.Errorf("LookupCost(%q) = nil", tt.model)
			continue
		}
		if got := c.Cost(1_000_000, 1_000_000); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("LookupCost(%q).Cost = %v, want %v", tt.model, got, tt.want)
		}
	}
	if LookupCost("no-such-model") != nil {
		t.Fatal("expected nil for unknown model")
	}
}
