package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/llm"
	"github.com/abhisek/sapprep/internal/progress"
	"github.com/abhisek/sapprep/internal/question"
)

func testQuestion() question.Question {
	return question.Question{
		ID:   42,
		Text: "A company needs to reduce cross-account networking cost while keeping centralized inspection.",
		Options: []question.Option{
			{Letter: "A", Text: "Use VPC peering between every pair of accounts."},
			{Letter: "B", Text: "Use AWS Transit Gateway with a shared inspection VPC."},
			{Letter: "C", Text: "Use a VPN from each VPC to on premises."},
		},
		CorrectAnswer: "B",
		Explanation:   "Transit Gateway centralizes routing.",
	}
}

const explanationJSON = `{
	"summary": "Centralized inspection across many accounts.",
	"why_correct": "Transit Gateway routes all VPC traffic through one inspection VPC.",
	"why_wrong": [
		{"letter": "A", "reason": "Peering is not transitive."},
		{"letter": "C", "reason": "Hairpins through on premises."},
		{"letter": "E", "reason": "No such option."}
	],
	"misconception": "Assumes peering is transitive.",
	"key_services": ["AWS Transit Gateway", "AWS Network Firewall"]
}`

func TestExplain_IncorrectAnswer(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(explanationJSON)})
	svc := NewService(mock, DefaultConfig())

	exp, err := svc.Explain(context.Background(), ExplainInput{
		Question: testQuestion(),
		Domain:   domain.CostControl,
		Answer:   "A",
		Progress: progress.QuestionProgress{Attempts: 3, CorrectAttempts: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 42, exp.QuestionID)
	assert.Equal(t, "Assumes peering is transitive.", exp.Misconception)
	assert.Len(t, exp.WhyWrong, 2, "unknown letters are dropped")
	assert.Contains(t, exp.WhyWrong, "A")
	assert.Equal(t, []string{"AWS Transit Gateway", "AWS Network Firewall"}, exp.KeyServices)

	require.Equal(t, 1, mock.CallCount())
	assert.Equal(t, []llm.Purpose{llm.PurposeExplain}, mock.Purposes())
	req := mock.Calls[0]
	assert.Same(t, ExplanationSchema, req.Schema)
	assert.Equal(t, explainSystemPrompt, req.System)
	msg := req.Messages[0].Content
	assert.Contains(t, msg, "Learner answer: A (incorrect)")
	assert.Contains(t, msg, "3 attempts, 1 correct")
	assert.Contains(t, msg, "B. Use AWS Transit Gateway")
	assert.Contains(t, msg, domain.CostControl.DisplayName())
}

func TestExplain_CorrectAnswerHasNoMisconception(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(explanationJSON)})
	svc := NewService(mock, DefaultConfig())

	exp, err := svc.Explain(context.Background(), ExplainInput{Question: testQuestion(), Answer: "B"})
	require.NoError(t, err)
	assert.Empty(t, exp.Misconception)
	assert.Contains(t, mock.Calls[0].Messages[0].Content, "(correct)")
}

func TestExplain_Errors(t *testing.T) {
	svc := NewService(llm.NewMockProvider(
		llm.MockResponse{Err: &llm.Error{Kind: llm.KindRateLimited, Provider: "anthropic"}},
		llm.MockResponse{Content: json.RawMessage(`not json`)},
		llm.MockResponse{Content: json.RawMessage(`{"summary": "missing fields"}`)},
	), Config{})

	_, err := svc.Explain(context.Background(), ExplainInput{Question: testQuestion()})
	var e *llm.Error
	require.True(t, errors.As(err, &e), "provider error is wrapped: %v", err)
	assert.Equal(t, llm.KindRateLimited, e.Kind)
	assert.Contains(t, err.Error(), "explain question 42")

	_, err = svc.Explain(context.Background(), ExplainInput{Question: testQuestion()})
	assert.Equal(t, llm.KindInvalidResponse, llm.KindOf(err))

	_, err = svc.Explain(context.Background(), ExplainInput{Question: testQuestion()})
	assert.Equal(t, llm.KindInvalidResponse, llm.KindOf(err), "replies are checked against ExplanationSchema")
}

func TestRequestExplanation_Async(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(explanationJSON)})
	svc := NewService(mock, DefaultConfig())

	_, ok := svc.ConsumeExplanation()
	assert.False(t, ok)

	svc.RequestExplanation(context.Background(), ExplainInput{Question: testQuestion(), Answer: "C"})

	var res Result
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if res, ok = svc.ConsumeExplanation(); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, ok, "explanation never arrived")
	require.NoError(t, res.Err)
	assert.Equal(t, 42, res.Explanation.QuestionID)

	_, ok = svc.ConsumeExplanation()
	assert.False(t, ok, "slot is cleared after consumption")
}

func TestPlan(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"summary": "Solid on new solutions, weak on migration.",
		"focus_areas": [
			{"domain": "migration-planning", "reason": "Lowest mastery.", "topics": ["AWS DMS", "Application Migration Service"]},
			{"domain": "cost-control", "reason": "Quick wins.", "topics": ["Savings Plans"]}
		]
	}`)})
	svc := NewService(mock, DefaultConfig())

	summary := progress.Summary{
		Total: 10, Attempted: 6, Mastered: 4, NeedsReview: 1,
		PerDomain: map[domain.Domain]progress.DomainSummary{
			domain.MigrationPlanning: {Total: 2},
		},
	}
	plan, err := svc.Plan(context.Background(), PlanInput{Summary: summary, Readiness: 37, RecentScores: []int{55, 68}})
	require.NoError(t, err)

	require.Len(t, plan.FocusAreas, 2)
	assert.Equal(t, domain.MigrationPlanning, plan.FocusAreas[0].Domain)
	assert.Equal(t, domain.CostControl, plan.FocusAreas[1].Domain)

	msg := mock.Calls[0].Messages[0].Content
	assert.Contains(t, msg, "Readiness: 37%")
	assert.Contains(t, msg, "55%, 68%")
	assert.Equal(t, 5, strings.Count(msg, "%]: "), "one line per domain")
	assert.Same(t, StudyPlanSchema, mock.Calls[0].Schema)
	assert.Equal(t, []llm.Purpose{llm.PurposeStudyPlan}, mock.Purposes())
}

func TestPlan_RejectsUnknownDomain(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"summary": "x",
		"focus_areas": [{"domain": "bogus", "reason": "x", "topics": []}]
	}`)})
	svc := NewService(mock, DefaultConfig())

	_, err := svc.Plan(context.Background(), PlanInput{})
	assert.Equal(t, llm.KindInvalidResponse, llm.KindOf(err))
}

func TestSchemasAreValidJSONSchema(t *testing.T) {
	for _, s := range []*llm.Schema{ExplanationSchema, StudyPlanSchema} {
		assert.NoError(t, s.Compile(), s.Name)
	}
	assert.NoError(t, ExplanationSchema.Validate(json.RawMessage(explanationJSON)))
	assert.Len(t, domainEnum(), 5)
}
