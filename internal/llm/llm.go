// Package llm talks to the hosted models that write explanations and study
// plans. Every vendor is reached through Provider; the decorators in this
// package add retries and usage recording.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one structured reply per request.
type Provider interface {
	// Generate returns JSON conforming to req.Schema when it is set.
	Generate(ctx context.Context, req Request) (*Response, error)
	// ModelID is the vendor model id requests are sent to.
	ModelID() string
}

// Request is a single-turn prompt.
type Request struct {
	System    string
	Messages  []Message
	Schema    *Schema
	MaxTokens int
	// Temperature in [0,1]. Zero leaves the vendor default.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the sender of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response is a validated reply.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	// Model is the id the vendor reports, which may carry a snapshot date.
	Model string
}

// Usage is the token count of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Purpose labels what a request is for in logs and the usage ledger.
type Purpose string

const (
	PurposeExplain   Purpose = "explain"
	PurposeStudyPlan Purpose = "study-plan"
	PurposeUnknown   Purpose = "unknown"
)

type purposeKey struct{}

// WithPurpose tags requests made with ctx.
func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeKey{}, p)
}

// PurposeFrom returns the tag set by WithPurpose, or PurposeUnknown.
func PurposeFrom(ctx context.Context) Purpose {
	if p, ok := ctx.Value(purposeKey{}).(Purpose); ok {
		return p
	}
	return PurposeUnknown
}
