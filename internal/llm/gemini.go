package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider sends requests to the Gemini API with a JSON response
// schema.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider returns a provider for cfg.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	return newGeminiProvider(ctx, cfg, genai.HTTPOptions{})
}

func newGeminiProvider(ctx context.Context, cfg GeminiConfig, opts genai.HTTPOptions) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &GeminiProvider{client: client, model: resolveModel("gemini", cfg.Model)}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	gcfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.Temperature > 0 {
		gcfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		gcfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		gcfg.ResponseMIMEType = "application/json"
		gcfg.ResponseJsonSchema = geminiSchema(req.Schema.Definition)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, gcfg)
	if err != nil {
		return nil, geminiError(err)
	}

	var usage Usage
	if u := result.UsageMetadata; u != nil {
		usage = Usage{InputTokens: int(u.PromptTokenCount), OutputTokens: int(u.CandidatesTokenCount)}
	}
	truncated := len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens
	model := result.ModelVersion
	if model == "" {
		model = p.model
	}
	return reply("gemini", req, result.Text(), model, usage, truncated)
}

func (p *GeminiProvider) ModelID() string { return p.model }

// geminiUnsupported are JSON Schema keywords the Gemini API refuses. They
// are dropped from the request; the reply is still validated against the
// full schema.
var geminiUnsupported = map[string]bool{"pattern": true}

func geminiSchema(def map[string]any) map[string]any {
	out := make(map[string]any, len(def))
	for k, v := range def {
		if geminiUnsupported[k] {
			continue
		}
		switch v := v.(type) {
		case map[string]any:
			if k == "properties" {
				props := make(map[string]any, len(v))
				for name, sub := range v {
					if m, ok := sub.(map[string]any); ok {
						props[name] = geminiSchema(m)
					} else {
						props[name] = sub
					}
				}
				out[k] = props
			} else {
				out[k] = geminiSchema(v)
			}
		default:
			out[k] = v
		}
	}
	return out
}

func geminiError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError("gemini", apiErr.Code, nil, err)
	}
	return statusError("gemini", 0, nil, err)
}
