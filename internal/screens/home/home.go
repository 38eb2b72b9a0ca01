package home

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/progress"
	"github.com/abhisek/sapprep/internal/question"
	"github.com/abhisek/sapprep/internal/router"
	"github.com/abhisek/sapprep/internal/sampler"
	"github.com/abhisek/sapprep/internal/screen"
	examscreen "github.com/abhisek/sapprep/internal/screens/exam"
	"github.com/abhisek/sapprep/internal/screens/history"
	"github.com/abhisek/sapprep/internal/screens/results"
	"github.com/abhisek/sapprep/internal/ui/components"
	"github.com/abhisek/sapprep/internal/ui/theme"
)

// DefaultPracticeQuestions is the size of a practice set started from home.
const DefaultPracticeQuestions = 20

// Options sizes the sets started from the home screen.
type Options struct {
	ExamQuestions     int
	PracticeQuestions int
}

// HomeScreen is the main home screen of the application.
type HomeScreen struct {
	deps    examscreen.Deps
	sampler *sampler.Sampler
	opts    Options

	menu      components.Menu
	summary   progress.Summary
	readiness int
	errMsg    string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.StatusProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps examscreen.Deps, smp *sampler.Sampler, opts Options) *HomeScreen {
	if opts.ExamQuestions <= 0 {
		opts.ExamQuestions = exam.FullExamQuestions
	}
	if opts.PracticeQuestions <= 0 {
		opts.PracticeQuestions = DefaultPracticeQuestions
	}
	h := &HomeScreen{deps: deps, sampler: smp, opts: opts}
	h.refresh()
	return h
}

// Init refreshes the dashboard. It runs again whenever the screen is
// uncovered.
func (h *HomeScreen) Init() tea.Cmd {
	h.refresh()
	return nil
}

func (h *HomeScreen) Title() string {
	return "Home"
}

// Status shows the readiness score in the header.
func (h *HomeScreen) Status() string {
	return fmt.Sprintf("readiness %d%%", h.readiness)
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		h.errMsg = ""
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := contentWidth(width)

	sections := []string{
		renderTitle(cw),
		renderReadiness(h.readiness, h.summary, cw),
		renderDomains(h.summary, cw),
		h.menu.View(),
	}
	if h.errMsg != "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.Error).
			Width(cw).
			Align(lipgloss.Center).
			Render(h.errMsg))
	}
	return renderFrame(strings.Join(sections, "\n\n"), width, height)
}

// refresh recomputes the dashboard and rebuilds the menu.
func (h *HomeScreen) refresh() {
	h.summary = h.deps.Tracker.Summary(h.deps.Catalog.Domains())
	h.readiness = h.summary.Readiness()

	selected := h.menu.Selected
	h.menu = components.NewMenu(h.menuItems())
	if selected > 0 && selected < len(h.menu.Items) && !h.menu.Items[selected].Disabled {
		h.menu.Selected = selected
	}
}

func (h *HomeScreen) menuItems() []components.MenuItem {
	cur := h.deps.Engine.Current()
	inProgress := cur != nil && cur.Status == exam.StatusInProgress
	review := len(h.reviewIDs())
	bookmarked := len(h.bookmarkedIDs())

	var items []components.MenuItem
	if inProgress {
		hint := fmt.Sprintf("%d/%d answered", cur.AnsweredCount(), len(cur.QuestionIDs))
		if cur.Timed() {
			hint += fmt.Sprintf(", %d min left", cur.TimeRemaining/60)
		}
		items = append(items,
			components.MenuItem{Label: "Resume session", Hint: hint, Action: h.resume},
			components.MenuItem{Label: "Abandon session", Action: h.abandon},
		)
	}
	items = append(items,
		components.MenuItem{
			Label:    "Full exam",
			Hint:     fmt.Sprintf("%d questions, %d min", h.opts.ExamQuestions, exam.FullExamDuration/60),
			Action:   h.startFullExam,
			Disabled: inProgress,
		},
		components.MenuItem{
			Label:    "Practice set",
			Hint:     fmt.Sprintf("%d questions, untimed", h.opts.PracticeQuestions),
			Action:   h.startPractice,
			Disabled: inProgress,
		},
		components.MenuItem{
			Label:    "Review mistakes",
			Hint:     fmt.Sprintf("%d questions", review),
			Action:   func() tea.Cmd { return h.start(exam.TypePractice, h.reviewIDs()) },
			Disabled: inProgress || review == 0,
		},
		components.MenuItem{
			Label:    "Bookmarked",
			Hint:     fmt.Sprintf("%d questions", bookmarked),
			Action:   func() tea.Cmd { return h.start(exam.TypePractice, h.bookmarkedIDs()) },
			Disabled: inProgress || bookmarked == 0,
		},
		components.MenuItem{
			Label:  "History",
			Hint:   fmt.Sprintf("%d sessions", len(h.deps.Engine.History())),
			Action: h.showHistory,
		},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	)
	return items
}

func (h *HomeScreen) startFullExam() tea.Cmd {
	qs := h.sampler.Sample(h.deps.Catalog.Pool(), h.opts.ExamQuestions)
	return h.start(exam.TypeFullExam, ids(qs))
}

func (h *HomeScreen) startPractice() tea.Cmd {
	qs := h.sampler.Sample(h.deps.Catalog.Pool(), h.opts.PracticeQuestions)
	return h.start(exam.TypePractice, ids(qs))
}

func (h *HomeScreen) start(t exam.Type, questionIDs []int) tea.Cmd {
	if _, err := h.deps.Engine.Start(t, questionIDs); err != nil {
		if errors.Is(err, exam.ErrNoQuestions) {
			h.errMsg = "No questions available. Check the configured question banks."
		} else {
			h.errMsg = err.Error()
		}
		return nil
	}
	return h.resume()
}

func (h *HomeScreen) resume() tea.Cmd {
	next := examscreen.New(h.deps)
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (h *HomeScreen) showHistory() tea.Cmd {
	next := history.New(h.deps.Engine, results.Deps{
		Tracker:   h.deps.Tracker,
		Catalog:   h.deps.Catalog,
		Tutor:     h.deps.Tutor,
		ReportDir: h.deps.ReportDir,
	})
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (h *HomeScreen) abandon() tea.Cmd {
	h.deps.Engine.Reset()
	h.refresh()
	return nil
}

// reviewIDs returns needs-review questions that exist in the catalog.
func (h *HomeScreen) reviewIDs() []int {
	return h.inCatalog(h.deps.Tracker.NeedsReview())
}

func (h *HomeScreen) bookmarkedIDs() []int {
	return h.inCatalog(h.deps.Tracker.Bookmarked())
}

func (h *HomeScreen) inCatalog(in []int) []int {
	var out []int
	for _, id := range in {
		if _, ok := h.deps.Catalog.Lookup(id); ok {
			out = append(out, id)
		}
	}
	return out
}

func ids(qs []question.Question) []int {
	out := make([]int, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}
