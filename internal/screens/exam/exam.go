// Package exam is the screen that runs an exam or practice session.
package exam

import (
	"context"
	"log/slog"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sapprep/internal/catalog"
	engine "github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/logging"
	"github.com/abhisek/sapprep/internal/progress"
	"github.com/abhisek/sapprep/internal/question"
	"github.com/abhisek/sapprep/internal/router"
	"github.com/abhisek/sapprep/internal/screen"
	"github.com/abhisek/sapprep/internal/screens/results"
	"github.com/abhisek/sapprep/internal/tutor"
	"github.com/abhisek/sapprep/internal/ui/components"
	"github.com/abhisek/sapprep/internal/ui/layout"
)

const explainPollInterval = 200 * time.Millisecond

// Deps are the services the exam screens share.
type Deps struct {
	Engine  *engine.Engine
	Tracker *progress.Tracker
	Catalog *catalog.Catalog
	Tutor   *tutor.Service // nil when no LLM is configured
	Logger  *slog.Logger
	// ReportDir is where the results screen exports PDF reports.
	ReportDir string
}

type mode int

const (
	modeAnswering mode = iota
	modeConfirmFinish
	modeConfirmLeave
	modeNote
)

// ExamScreen implements screen.Screen for the current exam session.
type ExamScreen struct {
	deps    Deps
	session *engine.Session
	mode    mode

	question question.Question
	options  components.OptionList
	note     components.TextInput
	started  time.Time
	now      func() time.Time

	// Practice sessions reveal the key once an answer is confirmed.
	revealed map[int]bool

	ticking     bool
	explaining  bool
	explanation *tutor.Explanation
	explainErr  string
	errMsg      string
}

var _ screen.Screen = (*ExamScreen)(nil)
var _ screen.KeyHintProvider = (*ExamScreen)(nil)
var _ screen.StatusProvider = (*ExamScreen)(nil)
var _ screen.EscapeHandler = (*ExamScreen)(nil)

// New creates the screen for the engine's current session.
func New(deps Deps) *ExamScreen {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	s := &ExamScreen{
		deps:     deps,
		now:      time.Now,
		revealed: make(map[int]bool),
	}
	s.refresh()
	if s.session == nil || s.session.Status != engine.StatusInProgress {
		s.errMsg = "No exam in progress."
		return s
	}
	s.loadQuestion()
	return s
}

func (s *ExamScreen) Init() tea.Cmd {
	if s.errMsg != "" {
		return nil
	}
	s.deps.Engine.Resume()
	s.started = s.now()
	return s.startTicking()
}

func (s *ExamScreen) Title() string {
	if s.session != nil && s.session.Type == engine.TypeFullExam {
		return "Full Exam"
	}
	return "Practice"
}

// Status shows the remaining time of a timed session.
func (s *ExamScreen) Status() string {
	if s.session == nil || !s.session.Timed() {
		return "untimed"
	}
	clock := formatClock(s.deps.Engine.TimeRemaining())
	if !s.deps.Engine.IsRunning() {
		return "paused " + clock
	}
	return "⏱ " + clock
}

// HandlesEscape reports that Esc opens the leave prompt instead of popping.
func (s *ExamScreen) HandlesEscape() bool {
	return s.errMsg == ""
}

func (s *ExamScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.mode == modeConfirmFinish:
		return []layout.KeyHint{{Key: "Y", Description: "Finish and score"}, {Key: "N", Description: "Keep going"}}
	case s.mode == modeConfirmLeave:
		return []layout.KeyHint{{Key: "Y", Description: "Leave (resume later)"}, {Key: "N", Description: "Stay"}}
	case s.mode == modeNote:
		return []layout.KeyHint{{Key: "Enter", Description: "Save note"}, {Key: "Esc", Description: "Cancel"}}
	case s.paused():
		return []layout.KeyHint{{Key: "Space", Description: "Resume"}, {Key: "Esc", Description: "Leave"}}
	}
	hints := []layout.KeyHint{
		{Key: "A-F", Description: "Select"},
		{Key: "Enter", Description: "Confirm"},
		{Key: "n/p", Description: "Next/Prev"},
		{Key: "m", Description: "Mark"},
		{Key: "s", Description: "Finish"},
	}
	if s.session != nil && s.session.Timed() {
		hints = append(hints, layout.KeyHint{Key: "Space", Description: "Pause"})
	}
	if s.isRevealed() && s.deps.Tutor != nil {
		hints = append(hints, layout.KeyHint{Key: "?", Description: "Explain"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Leave"})
}

func (s *ExamScreen) View(width, height int) string {
	if s.errMsg != "" {
		return renderError(width, height, s.errMsg)
	}
	switch {
	case s.mode == modeConfirmFinish:
		return s.renderFinishConfirm(width, height)
	case s.mode == modeConfirmLeave:
		return renderLeaveConfirm(width, height, s.session.Timed())
	case s.paused():
		return renderPaused(width, height, s.session)
	}
	return s.renderQuestion(width, height)
}

func (s *ExamScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		return s.handleTick()
	case explainPollMsg:
		return s.handleExplainPoll()
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	if s.mode == modeNote {
		var cmd tea.Cmd
		s.note, cmd = s.note.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *ExamScreen) handleTick() (screen.Screen, tea.Cmd) {
	if s.session == nil || !s.deps.Engine.IsRunning() {
		s.ticking = false
		return s, nil
	}
	if s.deps.Engine.TimeRemaining() == 1 {
		// Last second: the on-screen selection must reach the engine
		// before the timer completes the session.
		s.commitSelection()
	}
	if s.deps.Engine.Tick() {
		// The engine completed the session when the clock hit zero.
		s.ticking = false
		return s, s.showResults()
	}
	return s, tickCmd()
}

func (s *ExamScreen) handleExplainPoll() (screen.Screen, tea.Cmd) {
	if !s.explaining || s.deps.Tutor == nil {
		return s, nil
	}
	res, ok := s.deps.Tutor.ConsumeExplanation()
	if !ok {
		return s, explainPollCmd()
	}
	s.explaining = false
	if res.Err != nil {
		s.explainErr = res.Err.Error()
		s.deps.Logger.Warn("explanation failed", slog.Int("question", s.question.ID), slog.Any("error", res.Err))
		return s, nil
	}
	if res.Explanation != nil && res.Explanation.QuestionID == s.question.ID {
		s.explanation = res.Explanation
	}
	return s, nil
}

func (s *ExamScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	switch s.mode {
	case modeConfirmFinish:
		switch key {
		case "y", "Y":
			s.mode = modeAnswering
			return s, s.finish()
		case "n", "N", "esc":
			s.mode = modeAnswering
		}
		return s, nil

	case modeConfirmLeave:
		switch key {
		case "y", "Y":
			s.mode = modeAnswering
			return s, s.leave()
		case "n", "N", "esc":
			s.mode = modeAnswering
		}
		return s, nil

	case modeNote:
		switch key {
		case "enter":
			s.deps.Tracker.SetNote(s.question.ID, s.note.Value())
			s.mode = modeAnswering
			return s, nil
		case "esc":
			s.mode = modeAnswering
			return s, nil
		}
		var cmd tea.Cmd
		s.note, cmd = s.note.Update(msg)
		return s, cmd
	}

	if s.paused() {
		switch key {
		case "space", " ":
			return s, s.resume()
		case "esc":
			s.mode = modeConfirmLeave
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.mode = modeConfirmLeave
		return s, nil
	case "enter":
		return s, s.confirm()
	case "n", "right", "l":
		s.move(s.deps.Engine.Next)
		return s, nil
	case "p", "left", "h":
		s.move(s.deps.Engine.Prev)
		return s, nil
	case "u":
		s.jumpToUnanswered()
		return s, nil
	case "m":
		s.deps.Engine.ToggleFlag(s.question.ID)
		s.refresh()
		return s, nil
	case "*":
		s.deps.Tracker.ToggleBookmark(s.question.ID)
		return s, nil
	case "w":
		note := s.deps.Tracker.Get(s.question.ID).Note
		s.note = components.NewTextInput("Note", "What to remember about this question", note, 280)
		s.mode = modeNote
		return s, s.note.Init()
	case "s":
		s.commitSelection()
		s.mode = modeConfirmFinish
		return s, nil
	case "space", " ":
		if s.session.Timed() {
			s.commitTime()
			s.deps.Engine.Pause()
			s.refresh()
		}
		return s, nil
	case "?":
		return s, s.requestExplanation()
	}

	if s.isRevealed() {
		return s, nil
	}
	var cmd tea.Cmd
	s.options, cmd = s.options.Update(msg)
	return s, cmd
}

// confirm saves the selection. Practice sessions reveal the key first;
// otherwise the cursor advances.
func (s *ExamScreen) confirm() tea.Cmd {
	if s.session.Type == engine.TypePractice && !s.isRevealed() {
		if s.options.Selection == "" {
			return nil
		}
		s.commitSelection()
		if g, ok := s.deps.Engine.CommitAnswer(s.question.ID); ok {
			s.deps.Logger.Debug("practice answer recorded",
				slog.Int("question", g.QuestionID), slog.Bool("correct", g.Correct))
		}
		s.refresh()
		s.revealed[s.question.ID] = true
		s.options.Reveal = true
		return nil
	}
	s.commitSelection()
	if !s.deps.Engine.Next() {
		s.mode = modeConfirmFinish
	}
	s.refresh()
	s.loadQuestion()
	return nil
}

func (s *ExamScreen) move(step func() bool) {
	s.commitSelection()
	step()
	s.refresh()
	s.loadQuestion()
}

func (s *ExamScreen) jumpToUnanswered() {
	s.commitSelection()
	s.refresh()
	n := len(s.session.QuestionIDs)
	for i := 1; i <= n; i++ {
		idx := (s.session.CurrentIndex + i) % n
		if s.session.Answers[s.session.QuestionIDs[idx]] == "" {
			s.deps.Engine.Navigate(idx)
			break
		}
	}
	s.refresh()
	s.loadQuestion()
}

// commitSelection writes the current selection and the time spent on the
// question to the engine.
func (s *ExamScreen) commitSelection() {
	if s.session == nil {
		return
	}
	s.deps.Engine.SubmitAnswer(s.question.ID, s.options.Selection, s.elapsed())
	s.started = s.now()
	s.refresh()
}

func (s *ExamScreen) commitTime() {
	if s.session == nil {
		return
	}
	if secs := s.elapsed(); secs > 0 {
		s.deps.Engine.SubmitAnswer(s.question.ID, s.session.Answers[s.question.ID], secs)
	}
	s.started = s.now()
	s.refresh()
}

func (s *ExamScreen) elapsed() int {
	if s.started.IsZero() {
		return 0
	}
	return int(s.now().Sub(s.started).Seconds())
}

func (s *ExamScreen) resume() tea.Cmd {
	s.deps.Engine.Resume()
	s.started = s.now()
	s.refresh()
	return s.startTicking()
}

func (s *ExamScreen) startTicking() tea.Cmd {
	if s.ticking || !s.deps.Engine.IsRunning() {
		return nil
	}
	s.ticking = true
	return tickCmd()
}

func (s *ExamScreen) finish() tea.Cmd {
	s.commitSelection()
	score := s.deps.Engine.CalculateScore(s.deps.Catalog)
	if s.deps.Engine.Complete(score) == nil {
		return nil
	}
	return s.showResults()
}

// leave pauses the session and returns to the previous screen. The
// session stays current and can be resumed.
func (s *ExamScreen) leave() tea.Cmd {
	s.commitSelection()
	s.deps.Engine.Pause()
	return func() tea.Msg { return router.PopScreenMsg{} }
}

func (s *ExamScreen) showResults() tea.Cmd {
	done := s.deps.Engine.Current()
	if done == nil {
		return func() tea.Msg { return router.PopScreenMsg{} }
	}
	next := results.New(done, results.Deps{
		Tracker:   s.deps.Tracker,
		Catalog:   s.deps.Catalog,
		Tutor:     s.deps.Tutor,
		ReportDir: s.deps.ReportDir,
	})
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *ExamScreen) requestExplanation() tea.Cmd {
	if s.deps.Tutor == nil || !s.isRevealed() || s.explaining {
		return nil
	}
	s.explaining = true
	s.explanation = nil
	s.explainErr = ""
	s.deps.Tutor.RequestExplanation(context.Background(), tutor.ExplainInput{
		Question: s.question,
		Domain:   s.deps.Catalog.DomainOf(s.question.ID),
		Answer:   s.session.Answers[s.question.ID],
		Progress: s.deps.Tracker.Get(s.question.ID),
	})
	return explainPollCmd()
}

func (s *ExamScreen) refresh() {
	s.session = s.deps.Engine.Current()
}

// loadQuestion rebuilds per-question state for the question under the cursor.
func (s *ExamScreen) loadQuestion() {
	if s.session == nil {
		return
	}
	id, ok := s.session.CurrentQuestionID()
	if !ok {
		return
	}
	q, ok := s.deps.Catalog.Lookup(id)
	if !ok {
		q = question.Question{ID: id, Text: "This question is no longer in the loaded banks."}
	}
	s.question = q
	s.options = components.NewOptionList(q, s.session.Answers[id])
	s.options.Reveal = s.isRevealed()
	s.explanation = nil
	s.explainErr = ""
	s.explaining = false
	s.started = s.now()
}

func (s *ExamScreen) paused() bool {
	return s.session != nil && s.session.Timed() && !s.deps.Engine.IsRunning()
}

// isRevealed also covers answers committed before the session was resumed.
func (s *ExamScreen) isRevealed() bool {
	id := s.question.ID
	return s.revealed[id] || (s.session != nil && s.session.Type == engine.TypePractice && s.session.IsRecorded(id))
}

// tickCmd returns a 1-second tick command.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}

func explainPollCmd() tea.Cmd {
	return tea.Tick(explainPollInterval, func(time.Time) tea.Msg {
		return explainPollMsg{}
	})
}
