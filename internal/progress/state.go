package progress

import "time"

// Status is a question's position in the mastery lifecycle.
type Status string

const (
	StatusNew         Status = "new"
	StatusPracticing  Status = "practicing"
	StatusMastered    Status = "mastered"
	StatusNeedsReview Status = "needs-review"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusPracticing, StatusMastered, StatusNeedsReview:
		return true
	}
	return false
}

// Label returns a short display label.
func (s Status) Label() string {
	switch s {
	case StatusPracticing:
		return "Practicing"
	case StatusMastered:
		return "Mastered"
	case StatusNeedsReview:
		return "Needs review"
	default:
		return "New"
	}
}

// Transition triggers.
const (
	TriggerCorrect  = "correct-answer"
	TriggerMastery  = "mastery-threshold"
	TriggerMistake  = "incorrect-answer"
	TriggerOverride = "manual-override"
)

// StateTransition records a status change for display and logging.
type StateTransition struct {
	QuestionID int
	From       Status
	To         Status
	Trigger    string
}

// QuestionProgress is the learner's record for one question.
type QuestionProgress struct {
	QuestionID      int        `json:"questionId"`
	Attempts        int        `json:"attempts"`
	CorrectAttempts int        `json:"correctAttempts"`
	LastAttempted   *time.Time `json:"lastAttempted,omitempty"`
	TimeSpent       int        `json:"timeSpent"` // seconds
	Status          Status     `json:"status"`
	Bookmarked      bool       `json:"bookmarked"`
	Note            string     `json:"note,omitempty"`
	MasteredAt      *time.Time `json:"masteredAt,omitempty"`
}

// Accuracy returns correct/attempts, or 0 when unattempted.
func (p QuestionProgress) Accuracy() float64 {
	if p.Attempts <= 0 {
		return 0
	}
	return float64(p.CorrectAttempts) / float64(p.Attempts)
}
