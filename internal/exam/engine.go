package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/sapprep/internal/store"
)

var (
	// ErrSessionInProgress is returned by Start while another session is
	// still in progress.
	ErrSessionInProgress = errors.New("an exam session is already in progress")

	// ErrNoQuestions is returned by Start for an empty question list.
	ErrNoQuestions = errors.New("exam session needs at least one question")
)

// tickPersistEvery is how many timer ticks pass between timer checkpoints.
const tickPersistEvery = 15

// Engine runs exam sessions. It holds at most one current session plus the
// history of completed sessions. Mutations against a missing or finished
// session are silently ignored.
//
// Persistence is write-through and best-effort: repo errors are logged and
// never change the in-memory outcome of an operation.
type Engine struct {
	current *Session
	history []*Session
	running bool
	ticks   int

	bank   Bank
	repo   store.ExamRepo
	now    func() time.Time
	newID  func() string
	logger    *slog.Logger
	onDone    []func(*Session)
	onAttempt []func(Graded)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCompletionHook registers f to run with a copy of every session the
// engine completes, including sessions completed by the timer or on load.
func WithCompletionHook(f func(*Session)) Option {
	return func(e *Engine) {
		if f != nil {
			e.onDone = append(e.onDone, f)
		}
	}
}

// WithAttemptHook registers f to receive each graded answer once. Practice
// answers are reported when committed with CommitAnswer, or when the
// session is abandoned. Everything still unreported is sent when a session
// completes, so full exam answers are reported only once they are final.
func WithAttemptHook(f func(Graded)) Option {
	return func(e *Engine) {
		if f != nil {
			e.onAttempt = append(e.onAttempt, f)
		}
	}
}

// NewEngine creates an engine with no session. bank is used to score
// sessions that complete without an explicit score; repo may be nil.
func NewEngine(bank Bank, repo store.ExamRepo, opts ...Option) *Engine {
	e := &Engine{
		bank:   bank,
		repo:   repo,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load creates an engine and restores its state from the repo. Records
// whose payload cannot be decoded are skipped with a warning.
func Load(ctx context.Context, bank Bank, repo store.ExamRepo, opts ...Option) (*Engine, error) {
	e := NewEngine(bank, repo, opts...)
	if repo == nil {
		return e, nil
	}

	cur, err := repo.LoadCurrentExam(ctx)
	if err != nil {
		return nil, fmt.Errorf("load current exam: %w", err)
	}
	rows, err := repo.LoadExamHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load exam history: %w", err)
	}

	var current *Session
	if cur != nil {
		current = e.decode(*cur)
	}
	var history []*Session
	for _, row := range rows {
		if s := e.decode(row); s != nil {
			history = append(history, s)
		}
	}
	e.Restore(current, history)
	return e, nil
}

func (e *Engine) decode(row store.ExamSessionData) *Session {
	var s Session
	if err := json.Unmarshal(row.Payload, &s); err != nil {
		e.logger.Warn("skip unreadable exam session", slog.String("id", row.ID), slog.Any("error", err))
		return nil
	}
	return &s
}

// Restore replaces the engine state. The timer of a restored in-progress
// session stays paused until Resume.
func (e *Engine) Restore(current *Session, history []*Session) {
	e.current = sanitize(current)
	e.history = e.history[:0]
	for _, s := range history {
		if s = sanitize(s); s != nil {
			e.history = append(e.history, s)
		}
	}
	e.running = false
	e.ticks = 0

	// Time ran out while the app was closed.
	if e.inProgress() && e.current.Timed() && e.current.TimeRemaining == 0 {
		e.Complete(nil)
	}
}

// sanitize repairs a decoded session so the engine can operate on it.
func sanitize(s *Session) *Session {
	if s == nil {
		return nil
	}
	s = s.Clone()
	if s.Answers == nil {
		s.Answers = make(map[int]string)
	}
	if s.TimeSpent == nil {
		s.TimeSpent = make(map[int]int)
	}
	if s.Duration < 0 {
		s.Duration = 0
	}
	s.TimeRemaining = max(0, min(s.TimeRemaining, s.Duration))
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.QuestionIDs) {
		s.CurrentIndex = 0
	}
	switch s.Status {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusAbandoned:
	default:
		s.Status = StatusAbandoned
	}
	return s
}

// Start begins a new session over ids. A completed session still held as
// current is discarded. Duplicate ids are dropped, keeping first
// occurrence order.
func (e *Engine) Start(t Type, ids []int) (*Session, error) {
	if e.inProgress() {
		return nil, ErrSessionInProgress
	}
	if t != TypeFullExam {
		t = TypePractice
	}

	var unique []int
	for _, id := range ids {
		if !slices.Contains(unique, id) {
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, ErrNoQuestions
	}

	duration := DurationFor(t)
	s := &Session{
		ID:            e.newID(),
		Type:          t,
		StartTime:     e.now(),
		Duration:      duration,
		QuestionIDs:   unique,
		Answers:       make(map[int]string),
		TimeSpent:     make(map[int]int),
		Status:        StatusInProgress,
		TimeRemaining: duration,
	}
	e.current = s
	e.running = duration > 0
	e.ticks = 0
	e.persistCurrent()

	e.logger.Info("exam started",
		slog.String("session", s.ID),
		slog.String("type", string(t)),
		slog.Int("questions", len(unique)))
	return s.Clone(), nil
}

// Current returns a copy of the current session, or nil.
func (e *Engine) Current() *Session {
	return e.current.Clone()
}

// History returns copies of completed sessions, oldest first.
func (e *Engine) History() []*Session {
	out := make([]*Session, len(e.history))
	for i, s := range e.history {
		out[i] = s.Clone()
	}
	return out
}

// Session returns a copy of a completed session by id.
func (e *Engine) Session(id string) (*Session, bool) {
	for _, s := range e.history {
		if s.ID == id {
			return s.Clone(), true
		}
	}
	return nil, false
}

// IsRunning reports whether the timer is counting down.
func (e *Engine) IsRunning() bool {
	return e.inProgress() && e.running
}

// TimeRemaining returns the last known remaining seconds.
func (e *Engine) TimeRemaining() int {
	if e.current == nil {
		return 0
	}
	return e.current.TimeRemaining
}

func (e *Engine) inProgress() bool {
	return e.current != nil && e.current.Status == StatusInProgress
}

// SubmitAnswer records the answer for a question, replacing any earlier
// answer, and adds timeSpent seconds to the question's time. An empty
// answer clears the question.
func (e *Engine) SubmitAnswer(id int, answer string, timeSpent int) {
	if !e.inProgress() || !e.current.Contains(id) {
		return
	}
	if answer == "" {
		delete(e.current.Answers, id)
	} else {
		e.current.Answers[id] = answer
	}
	e.current.TimeSpent[id] += max(timeSpent, 0)
	e.persistCurrent()
}

// CommitAnswer reports the current answer to a practice question to the
// attempt hooks and locks it in. It returns false for full exams, for
// unanswered or unknown questions, and for questions already reported.
func (e *Engine) CommitAnswer(id int) (Graded, bool) {
	if !e.inProgress() || e.current.Type != TypePractice || !e.current.Contains(id) {
		return Graded{}, false
	}
	g, ok := e.record(id)
	if ok {
		e.persistCurrent()
	}
	return g, ok
}

// record grades id and sends it to the attempt hooks unless it was
// already reported.
func (e *Engine) record(id int) (Graded, bool) {
	if e.bank == nil || e.current.IsRecorded(id) {
		return Graded{}, false
	}
	g, ok := gradeOne(e.current, e.bank, id)
	if !ok {
		return Graded{}, false
	}
	e.current.Recorded = append(e.current.Recorded, id)
	for _, f := range e.onAttempt {
		f(g)
	}
	return g, true
}

// recordRemaining reports every answered question not reported yet.
func (e *Engine) recordRemaining() {
	for _, id := range e.current.QuestionIDs {
		e.record(id)
	}
}

// Flag marks a question for later review.
func (e *Engine) Flag(id int) {
	if !e.inProgress() || !e.current.Contains(id) || e.current.IsFlagged(id) {
		return
	}
	e.current.Flagged = append(e.current.Flagged, id)
	e.persistCurrent()
}

// Unflag removes a question's review flag.
func (e *Engine) Unflag(id int) {
	if !e.inProgress() || !e.current.IsFlagged(id) {
		return
	}
	e.current.Flagged = slices.DeleteFunc(e.current.Flagged, func(x int) bool { return x == id })
	e.persistCurrent()
}

// ToggleFlag flags or unflags a question and returns the new state.
func (e *Engine) ToggleFlag(id int) bool {
	if e.current != nil && e.current.IsFlagged(id) {
		e.Unflag(id)
	} else {
		e.Flag(id)
	}
	return e.current != nil && e.current.IsFlagged(id)
}

// Navigate moves the cursor. It reports whether the move happened.
func (e *Engine) Navigate(index int) bool {
	if !e.inProgress() || index < 0 || index >= len(e.current.QuestionIDs) {
		return false
	}
	e.current.CurrentIndex = index
	e.persistCurrent()
	return true
}

// Next moves the cursor forward by one.
func (e *Engine) Next() bool {
	if e.current == nil {
		return false
	}
	return e.Navigate(e.current.CurrentIndex + 1)
}

// Prev moves the cursor back by one.
func (e *Engine) Prev() bool {
	if e.current == nil {
		return false
	}
	return e.Navigate(e.current.CurrentIndex - 1)
}

// Pause stops the timer. Answers are untouched.
func (e *Engine) Pause() {
	if !e.inProgress() || !e.running {
		return
	}
	e.running = false
	e.persistCurrent()
}

// Resume restarts the timer of a timed session.
func (e *Engine) Resume() {
	if !e.inProgress() || e.running || !e.current.Timed() {
		return
	}
	e.running = true
}

// Tick advances the timer by one second. When the remaining time reaches
// zero the session is completed and Tick returns true; that happens at
// most once per session.
func (e *Engine) Tick() bool {
	if !e.IsRunning() || e.current.TimeRemaining <= 0 {
		return false
	}
	e.current.TimeRemaining--
	if e.current.TimeRemaining == 0 {
		e.logger.Info("exam time expired", slog.String("session", e.current.ID))
		e.Complete(nil)
		return true
	}
	e.ticks++
	if e.ticks%tickPersistEvery == 0 {
		e.persistCurrent()
	}
	return false
}

// CalculateScore scores the current session against bank. It returns nil
// when there is no current session.
func (e *Engine) CalculateScore(bank Bank) *Score {
	if e.current == nil {
		return nil
	}
	sc := CalculateScore(e.current, bank)
	return &sc
}

// Complete finishes the current session and appends it to history. The
// stored score is score if given, else a score already on the session,
// else one computed from the engine's bank. It returns a copy of the
// finished session, or nil when no session was in progress.
func (e *Engine) Complete(score *Score) *Session {
	if !e.inProgress() {
		return nil
	}
	s := e.current

	switch {
	case score != nil:
		sc := *score
		s.Score = &sc
	case s.Score == nil:
		sc := CalculateScore(s, e.bank)
		s.Score = &sc
	}
	e.recordRemaining()
	end := e.now()
	s.EndTime = &end
	s.Status = StatusCompleted
	e.running = false

	done := s.Clone()
	e.history = append(e.history, done)
	e.persistCurrent()
	e.persistHistory(done)

	e.logger.Info("exam completed",
		slog.String("session", s.ID),
		slog.Int("percentage", s.Score.Percentage),
		slog.Bool("passed", s.Score.Passed))
	for _, f := range e.onDone {
		f(done.Clone())
	}
	return done.Clone()
}

// Reset discards the current session. An in-progress session is marked
// abandoned first; answers already given in a practice session are still
// reported to the attempt hooks. History is untouched.
func (e *Engine) Reset() {
	if e.current == nil {
		return
	}
	if e.current.Status == StatusInProgress {
		if e.current.Type == TypePractice {
			e.recordRemaining()
		}
		e.current.Status = StatusAbandoned
		e.logger.Info("exam abandoned", slog.String("session", e.current.ID))
	}
	e.current = nil
	e.running = false
	if e.repo != nil {
		if err := e.repo.ClearCurrentExam(context.Background()); err != nil {
			e.logger.Warn("clear current exam failed", slog.Any("error", err))
		}
	}
}

// DeleteSession removes a completed session from history. It reports
// whether a session was removed. The current session is never affected.
func (e *Engine) DeleteSession(id string) bool {
	idx := slices.IndexFunc(e.history, func(s *Session) bool { return s.ID == id })
	if idx < 0 {
		return false
	}
	e.history = slices.Delete(e.history, idx, idx+1)
	if e.repo != nil {
		if err := e.repo.DeleteExamHistory(context.Background(), id); err != nil {
			e.logger.Warn("delete exam failed", slog.String("session", id), slog.Any("error", err))
		}
	}
	return true
}

func (e *Engine) persistCurrent() {
	if e.repo == nil || e.current == nil {
		return
	}
	data, err := toData(e.current)
	if err == nil {
		err = e.repo.SaveCurrentExam(context.Background(), data)
	}
	if err != nil {
		e.logger.Warn("save current exam failed", slog.String("session", e.current.ID), slog.Any("error", err))
	}
}

func (e *Engine) persistHistory(s *Session) {
	if e.repo == nil {
		return
	}
	data, err := toData(s)
	if err == nil {
		err = e.repo.AppendExamHistory(context.Background(), data)
	}
	if err != nil {
		e.logger.Warn("save exam history failed", slog.String("session", s.ID), slog.Any("error", err))
	}
}

func toData(s *Session) (store.ExamSessionData, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return store.ExamSessionData{}, fmt.Errorf("marshal session: %w", err)
	}
	return store.ExamSessionData{
		ID:        s.ID,
		Type:      string(s.Type),
		Status:    string(s.Status),
		StartedAt: s.StartTime,
		EndedAt:   s.EndTime,
		Payload:   payload,
	}, nil
}
