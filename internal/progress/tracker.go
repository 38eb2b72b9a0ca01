package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/abhisek/sapprep/internal/store"
)

// DefaultMasteryThreshold is the number of prior correct attempts after
// which another correct answer masters a question.
const DefaultMasteryThreshold = 2

// ErrInvalidOverride is returned by SetStatus for statuses that cannot be
// set manually.
var ErrInvalidOverride = errors.New("status can only be set to mastered or needs-review")

// Tracker owns the progress records of every question the learner has
// touched. Records are written through to the repo on every change; write
// failures are logged and never block the caller.
type Tracker struct {
	records   map[int]*QuestionProgress
	repo      store.ProgressRepo
	now       func() time.Time
	logger    *slog.Logger
	threshold int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithMasteryThreshold overrides the number of prior correct attempts
// required for mastery. Values below 1 are ignored.
func WithMasteryThreshold(n int) Option {
	return func(t *Tracker) {
		if n >= 1 {
			t.threshold = n
		}
	}
}

// NewTracker creates an empty tracker. repo may be nil.
func NewTracker(repo store.ProgressRepo, opts ...Option) *Tracker {
	t := &Tracker{
		records:   make(map[int]*QuestionProgress),
		repo:      repo,
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		threshold: DefaultMasteryThreshold,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load creates a tracker populated from the repo. Malformed records are
// repaired rather than rejected.
func Load(ctx context.Context, repo store.ProgressRepo, opts ...Option) (*Tracker, error) {
	t := NewTracker(repo, opts...)
	if repo == nil {
		return t, nil
	}
	rows, err := repo.LoadProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	for _, row := range rows {
		p := Sanitize(row)
		t.records[p.QuestionID] = &p
	}
	return t, nil
}

// Sanitize converts a stored row into a record that satisfies the
// counter invariants.
func Sanitize(d store.ProgressData) QuestionProgress {
	p := QuestionProgress{
		QuestionID:      d.QuestionID,
		Attempts:        max(d.Attempts, 0),
		CorrectAttempts: max(d.CorrectAttempts, 0),
		LastAttempted:   d.LastAttempted,
		TimeSpent:       max(d.TimeSpent, 0),
		Status:          Status(d.Status),
		Bookmarked:      d.Bookmarked,
		Note:            d.Note,
		MasteredAt:      d.MasteredAt,
	}
	p.CorrectAttempts = min(p.CorrectAttempts, p.Attempts)
	if !p.Status.Valid() {
		p.Status = StatusNew
	}
	return p
}

// Get returns the record for a question, or a default record when the
// question has never been touched. The default is not stored.
func (t *Tracker) Get(id int) QuestionProgress {
	if p, ok := t.records[id]; ok {
		return *p
	}
	return QuestionProgress{QuestionID: id, Status: StatusNew}
}

func (t *Tracker) getOrCreate(id int) *QuestionProgress {
	if p, ok := t.records[id]; ok {
		return p
	}
	p := &QuestionProgress{QuestionID: id, Status: StatusNew}
	t.records[id] = p
	return p
}

// RecordAttempt applies one answer to a question's record. It returns a
// StateTransition if the status changed, nil otherwise.
func (t *Tracker) RecordAttempt(id int, correct bool, timeSpent int) *StateTransition {
	p := t.getOrCreate(id)
	from := p.Status
	prior := p.CorrectAttempts

	now := t.now()
	p.Attempts++
	if correct {
		p.CorrectAttempts++
	}
	p.TimeSpent += max(timeSpent, 0)
	p.LastAttempted = &now

	trigger := TriggerMistake
	switch {
	case correct && (prior >= t.threshold || p.Status == StatusMastered):
		p.Status = StatusMastered
		trigger = TriggerMastery
		if p.MasteredAt == nil {
			p.MasteredAt = &now
		}
	case correct:
		p.Status = StatusPracticing
		trigger = TriggerCorrect
	default:
		p.Status = StatusNeedsReview
	}

	t.persist(p)

	if p.Status == from {
		return nil
	}
	tr := &StateTransition{QuestionID: id, From: from, To: p.Status, Trigger: trigger}
	t.logger.Debug("progress transition",
		slog.Int("question", id),
		slog.String("from", string(from)),
		slog.String("to", string(p.Status)),
		slog.String("trigger", trigger))
	return tr
}

// SetStatus forces a question into mastered or needs-review without
// touching its attempt counters.
func (t *Tracker) SetStatus(id int, status Status) (*StateTransition, error) {
	if status != StatusMastered && status != StatusNeedsReview {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOverride, status)
	}
	p := t.getOrCreate(id)
	from := p.Status
	p.Status = status
	if status == StatusMastered && p.MasteredAt == nil {
		now := t.now()
		p.MasteredAt = &now
	}
	t.persist(p)

	if from == status {
		return nil, nil
	}
	return &StateTransition{QuestionID: id, From: from, To: status, Trigger: TriggerOverride}, nil
}

// ToggleBookmark flips the bookmark flag and returns the new value.
func (t *Tracker) ToggleBookmark(id int) bool {
	p := t.getOrCreate(id)
	p.Bookmarked = !p.Bookmarked
	t.persist(p)
	return p.Bookmarked
}

// SetNote replaces the learner's note on a question.
func (t *Tracker) SetNote(id int, note string) {
	p := t.getOrCreate(id)
	p.Note = strings.TrimSpace(note)
	t.persist(p)
}

// All returns copies of every stored record ordered by question id.
func (t *Tracker) All() []QuestionProgress {
	out := make([]QuestionProgress, 0, len(t.records))
	for _, p := range t.records {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

// Bookmarked returns the ids of bookmarked questions in ascending order.
func (t *Tracker) Bookmarked() []int {
	return t.ids(func(p *QuestionProgress) bool { return p.Bookmarked })
}

// NeedsReview returns the ids of questions in needs-review in ascending order.
func (t *Tracker) NeedsReview() []int {
	return t.ids(func(p *QuestionProgress) bool { return p.Status == StatusNeedsReview })
}

func (t *Tracker) ids(keep func(*QuestionProgress) bool) []int {
	var out []int
	for id, p := range t.records {
		if keep(p) {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// Reset discards every record.
func (t *Tracker) Reset(ctx context.Context) error {
	t.records = make(map[int]*QuestionProgress)
	if t.repo == nil {
		return nil
	}
	if err := t.repo.DeleteAllProgress(ctx); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}

func (t *Tracker) persist(p *QuestionProgress) {
	if t.repo == nil {
		return
	}
	err := t.repo.SaveProgress(context.Background(), store.ProgressData{
		QuestionID:      p.QuestionID,
		Attempts:        p.Attempts,
		CorrectAttempts: p.CorrectAttempts,
		LastAttempted:   p.LastAttempted,
		TimeSpent:       p.TimeSpent,
		Status:          string(p.Status),
		Bookmarked:      p.Bookmarked,
		Note:            p.Note,
		MasteredAt:      p.MasteredAt,
	})
	if err != nil {
		t.logger.Warn("save progress failed", slog.Int("question", p.QuestionID), slog.Any("error", err))
	}
}
