// Package results shows the score of a finished session and walks through
// the questions that were missed.
package results

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sapprep/internal/catalog"
	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/progress"
	"github.com/abhisek/sapprep/internal/report"
	"github.com/abhisek/sapprep/internal/router"
	"github.com/abhisek/sapprep/internal/screen"
	"github.com/abhisek/sapprep/internal/tutor"
	"github.com/abhisek/sapprep/internal/ui/components"
	"github.com/abhisek/sapprep/internal/ui/layout"
	"github.com/abhisek/sapprep/internal/ui/theme"
)

// Deps are the services the results screen reads from. Tracker and
// Catalog are required.
type Deps struct {
	Tracker *progress.Tracker
	Catalog *catalog.Catalog
	Tutor   *tutor.Service // optional
	// ReportDir is where PDF exports are written. Empty disables export.
	ReportDir string
}

type explainDoneMsg struct{}

// ResultsScreen displays the score of a completed session.
type ResultsScreen struct {
	session *exam.Session
	deps    Deps
	missed  []report.Missed

	reviewing bool
	cursor    int

	explaining  bool
	explanation *tutor.Explanation
	status      string
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)
var _ screen.StatusProvider = (*ResultsScreen)(nil)
var _ screen.EscapeHandler = (*ResultsScreen)(nil)

// New creates a results screen for a completed session.
func New(s *exam.Session, deps Deps) *ResultsScreen {
	r := &ResultsScreen{session: s, deps: deps}
	if s != nil {
		r.missed = report.MissedQuestions(s, deps.Catalog)
	}
	return r
}

func (r *ResultsScreen) Init() tea.Cmd {
	return nil
}

func (r *ResultsScreen) Title() string {
	if r.reviewing {
		return "Review"
	}
	return "Results"
}

// Status shows pass or fail in the header.
func (r *ResultsScreen) Status() string {
	if sc := r.score(); sc != nil {
		if sc.Passed {
			return fmt.Sprintf("PASS %d", sc.ScaledScore)
		}
		return fmt.Sprintf("FAIL %d", sc.ScaledScore)
	}
	return ""
}

// HandlesEscape keeps Esc inside the review walk-through.
func (r *ResultsScreen) HandlesEscape() bool {
	return r.reviewing
}

func (r *ResultsScreen) KeyHints() []layout.KeyHint {
	if r.reviewing {
		hints := []layout.KeyHint{
			{Key: "n/p", Description: "Next/Prev"},
			{Key: "*", Description: "Bookmark"},
		}
		if r.deps.Tutor != nil {
			hints = append(hints, layout.KeyHint{Key: "?", Description: "Explain"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	}
	hints := []layout.KeyHint{{Key: "Enter", Description: "Home"}}
	if len(r.missed) > 0 {
		hints = append(hints, layout.KeyHint{Key: "r", Description: "Review missed"})
	}
	if r.deps.ReportDir != "" {
		hints = append(hints, layout.KeyHint{Key: "x", Description: "Export PDF"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Home"})
}

func (r *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case explainDoneMsg:
		return r.pollExplanation()
	case tea.KeyMsg:
		return r.handleKey(msg.String())
	}
	return r, nil
}

func (r *ResultsScreen) handleKey(key string) (screen.Screen, tea.Cmd) {
	if r.reviewing {
		switch key {
		case "esc":
			r.reviewing = false
		case "n", "right", "j", "down":
			r.step(1)
		case "p", "left", "k", "up":
			r.step(-1)
		case "*":
			m := r.missed[r.cursor]
			r.deps.Tracker.ToggleBookmark(m.Question.ID)
		case "?":
			return r, r.explain()
		}
		return r, nil
	}

	switch key {
	case "enter", "esc":
		return r, func() tea.Msg { return router.PopToRootMsg{} }
	case "r":
		if len(r.missed) > 0 {
			r.reviewing = true
			r.cursor = 0
			r.explanation = nil
		}
	case "x":
		r.export()
	}
	return r, nil
}

func (r *ResultsScreen) step(delta int) {
	next := r.cursor + delta
	if next < 0 || next >= len(r.missed) {
		return
	}
	r.cursor = next
	r.explanation = nil
	r.explaining = false
	r.status = ""
}

func (r *ResultsScreen) export() {
	if r.deps.ReportDir == "" || r.session == nil {
		return
	}
	path := filepath.Join(r.deps.ReportDir, fmt.Sprintf("sapprep-%s-%s.pdf",
		r.session.StartTime.Local().Format("20060102-1504"), shortID(r.session.ID)))
	if err := report.WriteFile(path, r.session, r.deps.Catalog); err != nil {
		r.status = "Export failed: " + err.Error()
		return
	}
	r.status = "Saved " + path
}

func (r *ResultsScreen) explain() tea.Cmd {
	if r.deps.Tutor == nil || r.explaining {
		return nil
	}
	m := r.missed[r.cursor]
	r.explaining = true
	r.explanation = nil
	r.status = ""
	r.deps.Tutor.RequestExplanation(context.Background(), tutor.ExplainInput{
		Question: m.Question,
		Domain:   m.Domain,
		Answer:   m.Answer,
		Progress: r.deps.Tracker.Get(m.Question.ID),
	})
	return pollCmd()
}

func (r *ResultsScreen) pollExplanation() (screen.Screen, tea.Cmd) {
	if !r.explaining {
		return r, nil
	}
	res, ok := r.deps.Tutor.ConsumeExplanation()
	if !ok {
		return r, pollCmd()
	}
	r.explaining = false
	switch {
	case res.Err != nil:
		r.status = "Tutor unavailable: " + res.Err.Error()
	case res.Explanation != nil && res.Explanation.QuestionID == r.missed[r.cursor].Question.ID:
		r.explanation = res.Explanation
	}
	return r, nil
}

func pollCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg { return explainDoneMsg{} })
}

func (r *ResultsScreen) score() *exam.Score {
	if r.session == nil {
		return nil
	}
	if r.session.Score != nil {
		return r.session.Score
	}
	sc := exam.CalculateScore(r.session, r.deps.Catalog)
	return &sc
}

func (r *ResultsScreen) View(width, height int) string {
	if r.session == nil {
		return ""
	}
	if r.reviewing {
		return r.renderReview(width, height)
	}
	return r.renderSummary(width)
}

func (r *ResultsScreen) renderSummary(width int) string {
	sc := r.score()
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	var b strings.Builder

	b.WriteString("\n")
	if sc.Passed {
		b.WriteString(center.Foreground(theme.Success).Bold(true).Render("PASS"))
	} else {
		b.WriteString(center.Foreground(theme.Error).Bold(true).Render("NOT YET"))
	}
	b.WriteString("\n\n")
	b.WriteString(center.Foreground(theme.Text).Bold(true).Render(
		fmt.Sprintf("%d / 1000", sc.ScaledScore)))
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.TextDim).Render(
		fmt.Sprintf("%d of %d correct (%d%%)   passing: %d%%   time: %s",
			sc.CorrectCount, sc.TotalQuestions, sc.Percentage, exam.PassingThreshold, r.duration())))
	b.WriteString("\n\n")

	barWidth := min(width-8, 76)
	for _, d := range domain.All() {
		ds := sc.DomainBreakdown[d]
		bar := components.NewProgressBar(d.DisplayName(), float64(ds.Percentage)/100, true, barWidth)
		bar.LabelWidth = 34
		bar.Fill = theme.Success
		if ds.Percentage < exam.PassingThreshold {
			bar.Fill = theme.Error
		}
		if ds.Total == 0 {
			bar.Fill = theme.Border
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
		b.WriteString("\n")
	}

	var mastered, review int
	for _, id := range r.session.QuestionIDs {
		switch r.deps.Tracker.Get(id).Status {
		case progress.StatusMastered:
			mastered++
		case progress.StatusNeedsReview:
			review++
		}
	}
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.TextDim).Render(
		fmt.Sprintf("Of these questions: %d mastered, %d need review", mastered, review)))
	b.WriteString("\n")

	if r.status != "" {
		b.WriteString("\n")
		b.WriteString(center.Foreground(theme.Accent).Render(r.status))
	}
	return b.String()
}

func (r *ResultsScreen) renderReview(width, height int) string {
	m := r.missed[r.cursor]
	q := m.Question
	textWidth := min(width-6, 100)
	pad := lipgloss.NewStyle().PaddingLeft(2)

	var b strings.Builder
	b.WriteString(pad.Foreground(theme.Secondary).Bold(true).Render(
		fmt.Sprintf("Missed %d/%d  Q%d  %s", r.cursor+1, len(r.missed), q.ID, m.Domain.DisplayName())))
	if r.deps.Tracker.Get(q.ID).Bookmarked {
		b.WriteString("  " + theme.Flagged.Render("★"))
	}
	b.WriteString("\n\n")
	b.WriteString(pad.Width(textWidth + 2).Foreground(theme.Text).Bold(true).Render(q.Text))
	b.WriteString("\n\n")

	opts := components.NewOptionList(q, m.Answer)
	opts.Reveal = true
	b.WriteString(pad.Render(opts.View(textWidth)))

	answer := m.Answer
	if answer == "" {
		answer = "none"
	}
	b.WriteString("\n")
	b.WriteString(pad.Foreground(theme.TextDim).Render(
		fmt.Sprintf("Your answer: %s   Correct: %s", answer, q.CorrectAnswer)))
	b.WriteString("\n")
	if q.Explanation != "" && !layout.IsCompactHeight(height) {
		b.WriteString(pad.Width(textWidth + 2).Foreground(theme.Text).Render(q.Explanation))
		b.WriteString("\n")
	}

	switch {
	case r.explaining:
		b.WriteString(pad.Render(theme.Hint.Render("Asking the tutor...")))
	case r.explanation != nil:
		b.WriteString(pad.Render(components.ExplanationView(r.explanation, textWidth)))
	case r.status != "":
		b.WriteString(pad.Foreground(theme.Error).Render(r.status))
	}
	return b.String()
}

func (r *ResultsScreen) duration() string {
	if r.session.EndTime == nil {
		return "-"
	}
	return r.session.EndTime.Sub(r.session.StartTime).Round(time.Second).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
