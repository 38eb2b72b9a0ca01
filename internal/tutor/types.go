package tutor

import (
	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/progress"
	"github.com/abhisek/sapprep/internal/question"
)

// Explanation is an LLM-written walkthrough of one question.
type Explanation struct {
	QuestionID int
	Summary    string
	// WhyCorrect explains the correct option(s).
	WhyCorrect string
	// WhyWrong explains each incorrect option, keyed by letter.
	WhyWrong map[string]string
	// Misconception describes what the learner likely misunderstood.
	// Empty when the learner answered correctly or did not answer.
	Misconception string
	KeyServices   []string
}

// ExplainInput is the context for explaining a question.
type ExplainInput struct {
	Question question.Question
	Domain   domain.Domain
	// Answer is the learner's submitted answer, "" if unanswered.
	Answer string
	// Progress is the learner's history on this question.
	Progress progress.QuestionProgress
}

// StudyPlan is a short prioritised plan built from progress data.
type StudyPlan struct {
	Summary    string
	FocusAreas []FocusArea
}

// FocusArea is one recommended study target.
type FocusArea struct {
	Domain domain.Domain
	Reason string
	Topics []string
}

// PlanInput is the context for building a study plan.
type PlanInput struct {
	Summary   progress.Summary
	Readiness int
	// RecentScores are percentages of the latest completed exams, oldest first.
	RecentScores []int
}
