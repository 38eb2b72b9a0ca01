package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/sapprep/internal/store"
)

type recording struct {
	inner    Provider
	events   store.EventRepo
	provider string
	logger   *slog.Logger
}

// WithLogging logs every request and appends it to the usage ledger in
// events, which may be nil. Ledger write failures are logged, never
// returned.
func WithLogging(p Provider, events store.EventRepo, providerName string, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if providerName == "" {
		providerName = p.ModelID()
	}
	return &recording{inner: p, events: events, provider: providerName, logger: logger}
}

func (r *recording) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := PurposeFrom(ctx)
	if r.logger.Enabled(ctx, slog.LevelDebug) {
		r.logger.DebugContext(ctx, "llm prompt", "purpose", string(purpose), "prompt", renderPrompt(req))
	}

	start := time.Now()
	resp, err := r.inner.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:  r.provider,
		Model:     r.inner.ModelID(),
		Purpose:   string(purpose),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		ev.InputTokens, ev.OutputTokens = resp.Usage.InputTokens, resp.Usage.OutputTokens
		if resp.Model != "" {
			ev.Model = resp.Model
		}
	}

	attrs := []any{
		slog.String("provider", ev.Provider),
		slog.String("model", ev.Model),
		slog.String("purpose", ev.Purpose),
		slog.Int64("latency_ms", ev.LatencyMs),
		slog.Int("input_tokens", ev.InputTokens),
		slog.Int("output_tokens", ev.OutputTokens),
	}
	if c := LookupCost(ev.Model); c != nil {
		attrs = append(attrs, slog.Float64("cost_usd", c.Cost(ev.InputTokens, ev.OutputTokens)))
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
		attrs = append(attrs, slog.String("kind", KindOf(err).String()), slog.Any("error", err))
		r.logger.WarnContext(ctx, "llm request failed", attrs...)
	} else {
		r.logger.InfoContext(ctx, "llm request", attrs...)
	}

	if r.events != nil {
		if lerr := r.events.AppendLLMRequest(ctx, ev); lerr != nil {
			r.logger.Warn("record llm request", "error", lerr)
		}
	}
	return resp, err
}

func (r *recording) ModelID() string { return r.inner.ModelID() }

// renderPrompt flattens a request for debug logs.
func renderPrompt(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "system: %s\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		def, _ := json.Marshal(req.Schema.Definition)
		fmt.Fprintf(&b, "schema %s: %s\n", req.Schema.Name, def)
	}
	return b.String()
}
