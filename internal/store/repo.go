package store

import (
	"context"
	"time"
)

// ProgressData is the persisted form of one question's progress record.
type ProgressData struct {
	QuestionID      int
	Attempts        int
	CorrectAttempts int
	LastAttempted   *time.Time
	TimeSpent       int // seconds
	Status          string
	Bookmarked      bool
	Note            string
	MasteredAt      *time.Time
}

// ProgressRepo persists question progress records.
type ProgressRepo interface {
	// SaveProgress inserts or replaces the record for data.QuestionID.
	SaveProgress(ctx context.Context, data ProgressData) error

	// LoadProgress returns every stored record.
	LoadProgress(ctx context.Context) ([]ProgressData, error)

	// DeleteAllProgress removes every record.
	DeleteAllProgress(ctx context.Context) error
}

// ExamSessionData is the persisted form of an exam session. Payload is
// the JSON encoding owned by the exam package; the other fields are
// indexed copies for listing.
type ExamSessionData struct {
	ID        string
	Type      string
	Status    string
	StartedAt time.Time
	EndedAt   *time.Time
	Payload   []byte
}

// ExamRepo persists the current exam session and the completed history.
type ExamRepo interface {
	// SaveCurrentExam replaces the current session.
	SaveCurrentExam(ctx context.Context, data ExamSessionData) error

	// LoadCurrentExam returns the current session, or nil if none exists.
	LoadCurrentExam(ctx context.Context) (*ExamSessionData, error)

	// ClearCurrentExam removes the current session.
	ClearCurrentExam(ctx context.Context) error

	// AppendExamHistory stores a completed session.
	AppendExamHistory(ctx context.Context, data ExamSessionData) error

	// LoadExamHistory returns completed sessions, oldest first.
	LoadExamHistory(ctx context.Context) ([]ExamSessionData, error)

	// DeleteExamHistory removes one completed session by id.
	DeleteExamHistory(ctx context.Context, id string) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// LLMUsage aggregates recorded LLM requests.
type LLMUsage struct {
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
}

// ModelUsage is LLMUsage for one provider and model.
type ModelUsage struct {
	Provider string
	Model    string
	LLMUsage
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// LLMUsage sums all recorded LLM requests.
	LLMUsage(ctx context.Context) (LLMUsage, error)

	// LLMUsageByModel sums recorded LLM requests per provider and model,
	// ordered by provider then model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}

// Backend is a storage engine that provides all repositories.
type Backend interface {
	ProgressRepo() ProgressRepo
	ExamRepo() ExamRepo
	EventRepo() EventRepo
	Close() error
}
