package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// MockResponse is one scripted reply. Err, when set, is returned instead.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays a script in order and records every request. Replies
// are checked against the request schema the same way vendor replies are.
type MockProvider struct {
	mu       sync.Mutex
	script   []MockResponse
	purposes []Purpose

	Calls []Request
}

// NewMockProvider returns a provider that replies with script in order.
func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.purposes = append(m.purposes, PurposeFrom(ctx))
	if len(m.script) == 0 {
		m.mu.Unlock()
		return nil, &Error{Kind: KindUnavailable, Provider: "mock", Err: errors.New("no scripted reply left")}
	}
	next := m.script[0]
	m.script = m.script[1:]
	m.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	return reply("mock", req, string(next.Content), "mock", next.Usage, false)
}

func (m *MockProvider) ModelID() string { return "mock" }

// CallCount is the number of Generate calls so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Purposes lists the purpose each call was tagged with.
func (m *MockProvider) Purposes() []Purpose {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Purpose(nil), m.purposes...)
}
