// Package tutor asks an LLM to explain questions and to suggest what to
// study next.
package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/llm"
)

// Config holds generation settings.
type Config struct {
	ExplainMaxTokens int
	PlanMaxTokens    int
	Temperature      float64
	// Timeout bounds each request. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ExplainMaxTokens: 1024,
		PlanMaxTokens:    768,
		Temperature:      0.2,
		Timeout:          45 * time.Second,
	}
}

// Service generates explanations and study plans.
type Service struct {
	provider llm.Provider
	cfg      Config

	mu      sync.Mutex
	pending *Explanation
	err     error
	ready   bool
}

// NewService creates a tutor service.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

type explanationOutput struct {
	Summary    string `json:"summary"`
	WhyCorrect string `json:"why_correct"`
	WhyWrong   []struct {
		Letter string `json:"letter"`
		Reason string `json:"reason"`
	} `json:"why_wrong"`
	Misconception string   `json:"misconception"`
	KeyServices   []string `json:"key_services"`
}

// Explain returns an explanation of the question's correct answer.
func (s *Service) Explain(ctx context.Context, in ExplainInput) (*Explanation, error) {
	ctx, cancel := s.withTimeout(llm.WithPurpose(ctx, llm.PurposeExplain))
	defer cancel()

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      explainSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildExplainUserMessage(in)}},
		Schema:      ExplanationSchema,
		MaxTokens:   s.cfg.ExplainMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("explain question %d: %w", in.Question.ID, err)
	}

	var out explanationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse explanation: %w", err)
	}

	exp := &Explanation{
		QuestionID:    in.Question.ID,
		Summary:       out.Summary,
		WhyCorrect:    out.WhyCorrect,
		WhyWrong:      make(map[string]string, len(out.WhyWrong)),
		Misconception: out.Misconception,
		KeyServices:   out.KeyServices,
	}
	for _, w := range out.WhyWrong {
		// Letters the question doesn't have are dropped.
		if _, ok := in.Question.Option(w.Letter); ok {
			exp.WhyWrong[w.Letter] = w.Reason
		}
	}
	if in.Answer == "" || in.Answer == in.Question.CorrectAnswer {
		exp.Misconception = ""
	}
	return exp, nil
}

// RequestExplanation starts an explanation in the background. Only one is
// in flight at a time; a newer request replaces the pending result.
func (s *Service) RequestExplanation(ctx context.Context, in ExplainInput) {
	go func() {
		exp, err := s.Explain(ctx, in)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pending = exp
		s.err = err
		s.ready = true
	}()
}

// Result is the outcome of a background explanation.
type Result struct {
	Explanation *Explanation
	Err         error
}

// ConsumeExplanation returns the finished background explanation, if any.
// The slot is cleared on return.
func (s *Service) ConsumeExplanation() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return Result{}, false
	}
	r := Result{Explanation: s.pending, Err: s.err}
	s.pending, s.err, s.ready = nil, nil, false
	return r, true
}

type planOutput struct {
	Summary    string `json:"summary"`
	FocusAreas []struct {
		Domain string   `json:"domain"`
		Reason string   `json:"reason"`
		Topics []string `json:"topics"`
	} `json:"focus_areas"`
}

// Plan returns a study plan for the given progress.
func (s *Service) Plan(ctx context.Context, in PlanInput) (*StudyPlan, error) {
	ctx, cancel := s.withTimeout(llm.WithPurpose(ctx, llm.PurposeStudyPlan))
	defer cancel()

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      planSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildPlanUserMessage(in)}},
		Schema:      StudyPlanSchema,
		MaxTokens:   s.cfg.PlanMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("study plan: %w", err)
	}

	var out planOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse study plan: %w", err)
	}

	plan := &StudyPlan{Summary: out.Summary}
	for _, fa := range out.FocusAreas {
		d, err := domain.Parse(fa.Domain)
		if err != nil {
			continue
		}
		plan.FocusAreas = append(plan.FocusAreas, FocusArea{Domain: d, Reason: fa.Reason, Topics: fa.Topics})
	}
	return plan, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}
