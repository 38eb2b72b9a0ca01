package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type chatCapture struct {
	path string
	auth string
	body map[string]any
}

func chatServer(t *testing.T, status int, reply map[string]any) (string, *chatCapture) {
	t.Helper()
	c := &chatCapture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&c.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(server.Close)
	return server.URL, c
}

func chatCompletion(model, content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 20, "total_tokens": 60},
	}
}

func TestOpenAIProvider_StructuredReply(t *testing.T) {
	url, got := chatServer(t, http.StatusOK, chatCompletion("gpt-4o-mini-2024-07-18", `{"letter":"C","reason":"Lowest cost."}`, "stop"))
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: url})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := p.Generate(context.Background(), Request{
		System:    "You are an AWS certification tutor.",
		Messages:  []Message{{Role: RoleUser, Content: "Explain question 7."}},
		Schema:    verdictSchema,
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 20 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if LookupCost(resp.Model) == nil {
		t.Fatalf("reported model %q has no price", resp.Model)
	}

	if !strings.HasSuffix(got.path, "/chat/completions") {
		t.Fatalf("path = %q", got.path)
	}
	msgs, _ := got.body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %v", got.body["messages"])
	}
	format, _ := got.body["response_format"].(map[string]any)
	schema, _ := format["json_schema"].(map[string]any)
	if format["type"] != "json_schema" || schema["name"] != "verdict" || schema["strict"] != true {
		t.Fatalf("response_format = %v", got.body["response_format"])
	}
}

func TestOpenAIProvider_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  map[string]any
		want   Kind
	}{
		{"rate limit", http.StatusTooManyRequests, map[string]any{"error": map[string]any{"message": "slow down", "type": "rate_limit"}}, KindRateLimited},
		{"server error", http.StatusServiceUnavailable, map[string]any{"error": map[string]any{"message": "down", "type": "server_error"}}, KindUnavailable},
		{"unknown model", http.StatusNotFound, map[string]any{"error": map[string]any{"message": "no such model", "type": "invalid_request_error"}}, KindRejected},
		{"truncated", http.StatusOK, chatCompletion("gpt-4o-mini", `{"letter":"C","re`, "length"), KindTruncated},
		{"no choices", http.StatusOK, map[string]any{"id": "x", "model": "gpt-4o-mini", "choices": []any{}}, KindInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, _ := chatServer(t, tt.status, tt.reply)
			p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: url})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}, Schema: verdictSchema})
			if KindOf(err) != tt.want {
				t.Fatalf("got %v, want kind %v", err, tt.want)
			}
		})
	}
}

func TestNewOpenRouterProvider(t *testing.T) {
	url, got := chatServer(t, http.StatusOK, chatCompletion("anthropic/claude-haiku-4.5", `{"letter":"A","reason":"ok"}`, "stop"))

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "anthropic/claude-haiku-4.5", BaseURL: url})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "anthropic/claude-haiku-4.5" || p.name != "openrouter" {
		t.Fatalf("got model %q name %q", p.ModelID(), p.name)
	}
	resp, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}, Schema: verdictSchema})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.body["model"] != "anthropic/claude-haiku-4.5" || got.auth != "Bearer sk-or-test" {
		t.Fatalf("request model %v auth %q", got.body["model"], got.auth)
	}
	if LookupCost(resp.Model) == nil {
		t.Fatalf("no price for %q", resp.Model)
	}

	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "anthropic/claude-haiku-4.5"}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestOpenRouterProvider_ErrorsNameOpenRouter(t *testing.T) {
	url, _ := chatServer(t, http.StatusTooManyRequests, map[string]any{"error": map[string]any{"message": "slow down"}})
	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "anthropic/claude-haiku-4.5", BaseURL: url})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	e, ok := err.(*Error)
	if !ok || e.Provider != "openrouter" || e.Kind != KindRateLimited {
		t.Fatalf("got %T %v", err, err)
	}
}
