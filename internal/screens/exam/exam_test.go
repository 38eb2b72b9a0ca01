package exam

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sapprep/internal/catalog"
	"github.com/abhisek/sapprep/internal/domain"
	engine "github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/progress"
	"github.com/abhisek/sapprep/internal/question"
	"github.com/abhisek/sapprep/internal/router"
	"github.com/abhisek/sapprep/internal/screen"
	"github.com/abhisek/sapprep/internal/screens/results"
)

func testQuestions() []question.Question {
	opts := []question.Option{
		{Letter: "A", Text: "AWS Organizations with SCPs"},
		{Letter: "B", Text: "AWS Transit Gateway"},
		{Letter: "C", Text: "Amazon S3 Glacier"},
		{Letter: "D", Text: "AWS Control Tower"},
	}
	return []question.Question{
		{ID: 1, Text: "Which service centralizes routing?", Options: opts, CorrectAnswer: "B", Explanation: "Transit Gateway is a hub."},
		{ID: 2, Text: "Pick two governance services.", Options: opts, CorrectAnswer: "AD"},
		{ID: 3, Text: "Which tier archives cheaply?", Options: opts, CorrectAnswer: "C"},
	}
}

func newDeps(t *testing.T) Deps {
	t.Helper()
	cat, err := catalog.New(testQuestions(), func(q question.Question) domain.Domain {
		return domain.All()[q.ID%5]
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	tracker := progress.NewTracker(nil)
	eng := engine.NewEngine(cat, nil, engine.WithAttemptHook(func(g engine.Graded) {
		tracker.RecordAttempt(g.QuestionID, g.Correct, g.TimeSpent)
	}))
	return Deps{Engine: eng, Tracker: tracker, Catalog: cat}
}

func start(t *testing.T, deps Deps, typ engine.Type) *ExamScreen {
	t.Helper()
	if _, err := deps.Engine.Start(typ, []int{1, 2, 3}); err != nil {
		t.Fatalf("start: %v", err)
	}
	s := New(deps)
	s.Init()
	return s
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func send(s screen.Screen, msgs ...tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	for _, m := range msgs {
		s, cmd = s.Update(m)
	}
	return s, cmd
}

func TestExamScreen_NoSession(t *testing.T) {
	s := New(newDeps(t))
	if s.errMsg == "" {
		t.Fatal("expected error without a current session")
	}
	_, cmd := s.Update(keyPress('x'))
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", cmd())
	}
}

func TestExamScreen_PracticeRevealsThenAdvances(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypePractice)

	send(s, keyPress('b'), tea.KeyPressMsg{Code: tea.KeyEnter})

	cur := deps.Engine.Current()
	if cur.Answers[1] != "B" {
		t.Errorf("answer = %q, want B", cur.Answers[1])
	}
	if !s.isRevealed() {
		t.Fatal("expected key to be revealed after confirming")
	}
	if !strings.Contains(s.View(100, 40), "Correct!") {
		t.Error("expected feedback in view")
	}

	// Letters are ignored once revealed.
	send(s, keyPress('c'))
	if s.options.Selection != "B" {
		t.Errorf("selection changed after reveal: %q", s.options.Selection)
	}

	send(s, tea.KeyPressMsg{Code: tea.KeyEnter})
	if got := deps.Engine.Current().CurrentIndex; got != 1 {
		t.Errorf("CurrentIndex = %d, want 1", got)
	}
}

func TestExamScreen_PracticeRevealRecordsAttempt(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypePractice)

	send(s, keyPress('a'), tea.KeyPressMsg{Code: tea.KeyEnter})
	p := deps.Tracker.Get(1)
	if p.Attempts != 1 || p.CorrectAttempts != 0 || p.Status != progress.StatusNeedsReview {
		t.Fatalf("progress after reveal = %+v", p)
	}

	// Moving on and back keeps the reveal without recording twice.
	send(s, tea.KeyPressMsg{Code: tea.KeyEnter}, keyPress('p'))
	if !s.isRevealed() {
		t.Error("reveal lost after navigating back")
	}
	if got := deps.Tracker.Get(1).Attempts; got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestExamScreen_AbandonedPracticeKeepsAttempts(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypePractice)

	// q1 revealed, q2 answered without confirming.
	send(s, keyPress('b'), tea.KeyPressMsg{Code: tea.KeyEnter}, tea.KeyPressMsg{Code: tea.KeyEnter})
	send(s, keyPress('a'), keyPress('d'), keyPress('n'))
	deps.Engine.Reset()

	if p := deps.Tracker.Get(1); p.Attempts != 1 || p.CorrectAttempts != 1 {
		t.Errorf("q1 progress = %+v", p)
	}
	if p := deps.Tracker.Get(2); p.Attempts != 1 || p.CorrectAttempts != 1 {
		t.Errorf("q2 progress = %+v", p)
	}
	if p := deps.Tracker.Get(3); p.Attempts != 0 {
		t.Errorf("q3 progress = %+v", p)
	}
}

func TestExamScreen_PracticeEnterWithoutSelection(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypePractice)

	send(s, tea.KeyPressMsg{Code: tea.KeyEnter})
	if s.isRevealed() {
		t.Error("empty selection should not reveal")
	}
}

func TestExamScreen_MultiSelectToggles(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypeFullExam)

	send(s, keyPress('n'), keyPress('d'), keyPress('a'), keyPress('c'), keyPress('c'))
	if s.options.Selection != "AD" {
		t.Fatalf("selection = %q, want AD", s.options.Selection)
	}

	send(s, keyPress('p'))
	if got := deps.Engine.Current().Answers[2]; got != "AD" {
		t.Errorf("answer saved on navigation = %q, want AD", got)
	}
	if got := deps.Engine.Current().CurrentIndex; got != 0 {
		t.Errorf("CurrentIndex = %d, want 0", got)
	}
}

func TestExamScreen_MarkForReview(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypeFullExam)

	send(s, keyPress('m'))
	if !deps.Engine.Current().IsFlagged(1) {
		t.Error("expected question 1 flagged")
	}
	send(s, keyPress('m'))
	if deps.Engine.Current().IsFlagged(1) {
		t.Error("expected question 1 unflagged")
	}
}

func TestExamScreen_TimerAndPause(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypeFullExam)

	if !deps.Engine.IsRunning() {
		t.Fatal("timer should run after Init")
	}
	_, cmd := s.Update(timerTickMsg(time.Now()))
	if cmd == nil {
		t.Error("expected next tick to be scheduled")
	}
	if got := deps.Engine.TimeRemaining(); got != engine.FullExamDuration-1 {
		t.Errorf("TimeRemaining = %d, want %d", got, engine.FullExamDuration-1)
	}

	send(s, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	if deps.Engine.IsRunning() {
		t.Fatal("expected paused timer")
	}
	if !strings.Contains(s.View(100, 40), "Paused") {
		t.Error("expected paused view")
	}
	if !strings.HasPrefix(s.Status(), "paused") {
		t.Errorf("Status = %q", s.Status())
	}

	_, cmd = s.Update(timerTickMsg(time.Now()))
	if cmd != nil {
		t.Error("tick while paused should not reschedule")
	}
	if got := deps.Engine.TimeRemaining(); got != engine.FullExamDuration-1 {
		t.Errorf("TimeRemaining changed while paused: %d", got)
	}

	// Letters are ignored while paused.
	send(s, keyPress('a'))
	if s.options.Selection != "" {
		t.Error("selection changed while paused")
	}

	_, cmd = send(s, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	if !deps.Engine.IsRunning() || cmd == nil {
		t.Error("expected resume to restart ticking")
	}
}

func TestExamScreen_TimerExpiryShowsResults(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypeFullExam)
	send(s, keyPress('b'), keyPress('n'))

	for deps.Engine.TimeRemaining() > 1 {
		deps.Engine.Tick()
	}
	_, cmd := s.Update(timerTickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected results command")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", cmd())
	}
	if _, ok := msg.Screen.(*results.ResultsScreen); !ok {
		t.Errorf("expected results screen, got %T", msg.Screen)
	}
	if got := deps.Engine.Current().Status; got != engine.StatusCompleted {
		t.Errorf("status = %s, want completed", got)
	}
	if p := deps.Tracker.Get(1); p.Attempts != 1 || p.CorrectAttempts != 1 {
		t.Errorf("progress for q1 = %+v", p)
	}
}

func TestExamScreen_TimerExpiryKeepsPendingSelection(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypeFullExam)
	send(s, keyPress('c'))

	for deps.Engine.TimeRemaining() > 1 {
		deps.Engine.Tick()
	}
	s.Update(timerTickMsg(time.Now()))

	hist := deps.Engine.History()
	if len(hist) != 1 {
		t.Fatalf("history len = %d, want 1", len(hist))
	}
	if got := hist[0].Answers[1]; got != "C" {
		t.Errorf("answer = %q, want C", got)
	}
	if p := deps.Tracker.Get(1); p.Attempts != 1 || p.Status != progress.StatusNeedsReview {
		t.Errorf("progress for q1 = %+v", p)
	}
}

func TestExamScreen_FinishConfirm(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypeFullExam)

	send(s, keyPress('a'), keyPress('s'))
	if s.mode != modeConfirmFinish {
		t.Fatal("expected finish confirmation")
	}
	if !strings.Contains(s.View(100, 40), "1 answered, 2 unanswered") {
		t.Error("expected answer counts in confirmation")
	}

	send(s, keyPress('n'))
	if s.mode != modeAnswering {
		t.Fatal("expected to return to answering")
	}

	_, cmd := send(s, keyPress('s'), keyPress('y'))
	if cmd == nil {
		t.Fatal("expected results command")
	}
	if _, ok := cmd().(router.ReplaceScreenMsg); !ok {
		t.Errorf("expected ReplaceScreenMsg, got %T", cmd())
	}

	hist := deps.Engine.History()
	if len(hist) != 1 {
		t.Fatalf("history len = %d, want 1", len(hist))
	}
	if hist[0].Score.CorrectCount != 0 {
		t.Errorf("CorrectCount = %d, want 0", hist[0].Score.CorrectCount)
	}
	if got := deps.Tracker.Get(1).Status; got != progress.StatusNeedsReview {
		t.Errorf("q1 status = %s, want needs-review", got)
	}
}

func TestExamScreen_LeaveKeepsSession(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypeFullExam)

	if !s.HandlesEscape() {
		t.Fatal("exam screen should handle Esc")
	}
	send(s, keyPress('c'), tea.KeyPressMsg{Code: tea.KeyEscape})
	if s.mode != modeConfirmLeave {
		t.Fatal("expected leave confirmation")
	}
	_, cmd := send(s, keyPress('y'))
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", cmd())
	}

	cur := deps.Engine.Current()
	if cur.Status != engine.StatusInProgress {
		t.Errorf("status = %s, want in-progress", cur.Status)
	}
	if cur.Answers[1] != "C" {
		t.Errorf("answer = %q, want C", cur.Answers[1])
	}
	if deps.Engine.IsRunning() {
		t.Error("timer should be paused after leaving")
	}
}

func TestExamScreen_BookmarkAndNote(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypePractice)

	send(s, keyPress('*'))
	if !deps.Tracker.Get(1).Bookmarked {
		t.Error("expected bookmark")
	}

	send(s, keyPress('w'))
	if s.mode != modeNote {
		t.Fatal("expected note mode")
	}
	s.note.Model.SetValue("hub and spoke")
	send(s, tea.KeyPressMsg{Code: tea.KeyEnter})
	if got := deps.Tracker.Get(1).Note; got != "hub and spoke" {
		t.Errorf("note = %q", got)
	}
	if s.mode != modeAnswering {
		t.Error("expected answering mode after saving note")
	}
}

func TestExamScreen_JumpToUnanswered(t *testing.T) {
	deps := newDeps(t)
	s := start(t, deps, engine.TypeFullExam)

	send(s, keyPress('a'), keyPress('n'), keyPress('a'), keyPress('u'))
	if got := deps.Engine.Current().CurrentIndex; got != 2 {
		t.Errorf("CurrentIndex = %d, want 2", got)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "0:00:00"},
		{59, "0:00:59"},
		{engine.FullExamDuration, "3:00:00"},
		{3725, "1:02:05"},
		{-5, "0:00:00"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.secs); got != tt.want {
			t.Errorf("formatClock(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
