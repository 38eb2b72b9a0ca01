package exam

import (
	"slices"
	"time"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/question"
)

// Type distinguishes timed full exams from untimed practice sets.
type Type string

const (
	TypePractice Type = "practice"
	TypeFullExam Type = "full-exam"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

const (
	// PassingThreshold is the minimum percentage that passes.
	PassingThreshold = 72

	// FullExamDuration is the time budget of a full exam in seconds.
	FullExamDuration = 180 * 60

	// FullExamQuestions is the number of questions sampled for a full exam.
	FullExamQuestions = 75

	scaledMax = 1000
)

// DurationFor returns the time budget for a session type. Zero means untimed.
func DurationFor(t Type) int {
	if t == TypeFullExam {
		return FullExamDuration
	}
	return 0
}

// Bank resolves the questions a session refers to.
type Bank interface {
	Lookup(id int) (question.Question, bool)
	DomainOf(id int) domain.Domain
}

// DomainScore is the score for one domain.
type DomainScore struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Score is the result of a finished session.
type Score struct {
	TotalQuestions  int                           `json:"totalQuestions"`
	CorrectCount    int                           `json:"correctCount"`
	Percentage      int                           `json:"percentage"`
	ScaledScore     int                           `json:"scaledScore"`
	Passed          bool                          `json:"passed"`
	DomainBreakdown map[domain.Domain]DomainScore `json:"domainBreakdown"`
}

// Session is one exam attempt.
type Session struct {
	ID            string         `json:"id"`
	Type          Type           `json:"type"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       *time.Time     `json:"endTime,omitempty"`
	Duration      int            `json:"duration"` // seconds, 0 = untimed
	QuestionIDs   []int          `json:"questionIds"`
	Answers       map[int]string `json:"answers"`
	Flagged       []int          `json:"flagged"`
	TimeSpent     map[int]int    `json:"timeSpent"`
	Status        Status         `json:"status"`
	Score         *Score         `json:"score,omitempty"`
	CurrentIndex  int            `json:"currentIndex"`
	TimeRemaining int            `json:"timeRemaining"`
	// Recorded lists questions whose attempt has already been reported
	// to the attempt hooks.
	Recorded []int `json:"recorded,omitempty"`
}

// Timed reports whether the session has a time budget.
func (s *Session) Timed() bool {
	return s.Duration > 0
}

// Contains reports whether the question id is part of the session.
func (s *Session) Contains(id int) bool {
	return slices.Contains(s.QuestionIDs, id)
}

// IsFlagged reports whether the question is flagged.
func (s *Session) IsFlagged(id int) bool {
	return slices.Contains(s.Flagged, id)
}

// IsRecorded reports whether the question's attempt has been reported.
func (s *Session) IsRecorded(id int) bool {
	return slices.Contains(s.Recorded, id)
}

// AnsweredCount returns the number of questions with a non-empty answer.
func (s *Session) AnsweredCount() int {
	n := 0
	for _, id := range s.QuestionIDs {
		if s.Answers[id] != "" {
			n++
		}
	}
	return n
}

// CurrentQuestionID returns the id under the cursor, or false when the
// session has no questions.
func (s *Session) CurrentQuestionID() (int, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.QuestionIDs) {
		return 0, false
	}
	return s.QuestionIDs[s.CurrentIndex], true
}

// Elapsed returns the wall time between start and end (or now).
func (s *Session) Elapsed(now time.Time) time.Duration {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	return end.Sub(s.StartTime)
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.QuestionIDs = slices.Clone(s.QuestionIDs)
	c.Flagged = slices.Clone(s.Flagged)
	c.Recorded = slices.Clone(s.Recorded)
	c.Answers = make(map[int]string, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	c.TimeSpent = make(map[int]int, len(s.TimeSpent))
	for k, v := range s.TimeSpent {
		c.TimeSpent[k] = v
	}
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	if s.Score != nil {
		sc := *s.Score
		sc.DomainBreakdown = make(map[domain.Domain]DomainScore, len(s.Score.DomainBreakdown))
		for k, v := range s.Score.DomainBreakdown {
			sc.DomainBreakdown[k] = v
		}
		c.Score = &sc
	}
	return &c
}
