package exam

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	engine "github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/question"
	"github.com/abhisek/sapprep/internal/ui/components"
	"github.com/abhisek/sapprep/internal/ui/layout"
	"github.com/abhisek/sapprep/internal/ui/theme"
)

// renderQuestion renders the active question display.
func (s *ExamScreen) renderQuestion(width, height int) string {
	sess := s.session
	q := s.question
	var b strings.Builder

	// Info line.
	d := s.deps.Catalog.DomainOf(q.ID)
	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  Q %d/%d  %s", sess.CurrentIndex+1, len(sess.QuestionIDs), d.DisplayName()))

	var tags []string
	if sess.IsFlagged(q.ID) {
		tags = append(tags, theme.Flagged.Render("⚑ marked"))
	}
	if s.deps.Tracker.Get(q.ID).Bookmarked {
		tags = append(tags, theme.Flagged.Render("★ bookmarked"))
	}
	tags = append(tags, lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("answered %d/%d", sess.AnsweredCount(), len(sess.QuestionIDs))))
	infoRight := strings.Join(tags, "  ")

	infoLine := infoLeft
	rightPad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4
	if rightPad > 0 {
		infoLine += strings.Repeat(" ", rightPad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	textWidth := min(width-6, 100)
	b.WriteString(indent(lipgloss.NewStyle().
		Width(textWidth).
		Foreground(theme.Text).
		Bold(true).
		Render(q.Text)))
	b.WriteString("\n")
	if q.IsMultiSelect() {
		b.WriteString(indent(theme.Hint.Render(fmt.Sprintf("(Select %d)", q.SelectCount()))))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(indent(s.options.View(textWidth)))

	if s.isRevealed() {
		b.WriteString("\n")
		b.WriteString(indent(s.renderFeedback(textWidth, layout.IsCompactHeight(height))))
	}

	if s.mode == modeNote {
		b.WriteString("\n")
		b.WriteString(indent(s.note.View()))
	} else if note := s.deps.Tracker.Get(q.ID).Note; note != "" {
		b.WriteString("\n")
		b.WriteString(indent(theme.Hint.Render("Note: " + note)))
	}

	b.WriteString("\n\n")
	b.WriteString(indent(renderNavigator(sess, width-6)))
	return b.String()
}

// renderFeedback renders the answer key and explanations for a revealed
// practice question.
func (s *ExamScreen) renderFeedback(width int, compact bool) string {
	q := s.question
	var b strings.Builder

	if question.CheckAnswer(s.session.Answers[q.ID], &q) {
		b.WriteString(theme.Correct.Render("Correct!"))
	} else {
		b.WriteString(theme.Incorrect.Render("Not quite."))
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  Correct answer: %s", q.CorrectAnswer)))
	}
	b.WriteString("\n")

	body := lipgloss.NewStyle().Width(width).Foreground(theme.Text)
	if q.Explanation != "" && !compact {
		b.WriteString(body.Render(q.Explanation))
		b.WriteString("\n")
	}
	if q.Tips != "" && !compact {
		b.WriteString(theme.Hint.Width(width).Render("Tip: " + q.Tips))
		b.WriteString("\n")
	}

	switch {
	case s.explaining:
		b.WriteString(theme.Hint.Render("Asking the tutor..."))
	case s.explainErr != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("Tutor unavailable: " + s.explainErr))
	case s.explanation != nil:
		b.WriteString(components.ExplanationView(s.explanation, width))
	}
	return b.String()
}

// renderNavigator renders one cell per question: answered, marked, and
// the cursor are distinguishable at a glance.
func renderNavigator(sess *engine.Session, width int) string {
	const cell = 4
	perLine := max(width/cell, 1)

	var b strings.Builder
	for i, id := range sess.QuestionIDs {
		label := fmt.Sprintf("%3d", i+1)
		style := lipgloss.NewStyle().Foreground(theme.Border)
		switch {
		case i == sess.CurrentIndex:
			style = lipgloss.NewStyle().Foreground(theme.BgDark).Background(theme.Primary).Bold(true)
		case sess.IsFlagged(id):
			style = theme.Flagged
		case sess.Answers[id] != "":
			style = lipgloss.NewStyle().Foreground(theme.Secondary)
		}
		b.WriteString(style.Render(label))
		if (i+1)%perLine == 0 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func (s *ExamScreen) renderFinishConfirm(width, height int) string {
	sess := s.session
	answered := sess.AnsweredCount()
	unanswered := len(sess.QuestionIDs) - answered

	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(centered(width).Foreground(theme.Text).Bold(true).Render("Finish and score this session?"))
	b.WriteString("\n")
	b.WriteString(centered(width).Foreground(theme.TextDim).Render(
		fmt.Sprintf("%d answered, %d unanswered, %d marked for review", answered, unanswered, len(sess.Flagged))))
	b.WriteString("\n\n")
	b.WriteString(centered(width).Foreground(theme.Success).Render("[Y] Yes, finish"))
	b.WriteString("\n")
	b.WriteString(centered(width).Foreground(theme.Primary).Render("[N] No, keep going"))
	return b.String()
}

func renderLeaveConfirm(width, height int, timed bool) string {
	sub := "Your answers are saved. Resume from the home screen."
	if timed {
		sub = "Your answers are saved and the timer is paused."
	}

	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(centered(width).Foreground(theme.Text).Bold(true).Render("Leave this session?"))
	b.WriteString("\n")
	b.WriteString(centered(width).Foreground(theme.TextDim).Render(sub))
	b.WriteString("\n\n")
	b.WriteString(centered(width).Foreground(theme.Success).Render("[Y] Yes, leave"))
	b.WriteString("\n")
	b.WriteString(centered(width).Foreground(theme.Primary).Render("[N] No, stay"))
	return b.String()
}

func renderPaused(width, height int, sess *engine.Session) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(centered(width).Foreground(theme.Accent).Bold(true).Render("Paused"))
	b.WriteString("\n")
	b.WriteString(centered(width).Foreground(theme.TextDim).Render(
		fmt.Sprintf("%s left  |  %d of %d answered", formatClock(sess.TimeRemaining), sess.AnsweredCount(), len(sess.QuestionIDs))))
	b.WriteString("\n\n")
	b.WriteString(centered(width).Foreground(theme.Primary).Render("Press Space to resume"))
	return b.String()
}

// renderError renders an error message.
func renderError(width, height int, errMsg string) string {
	return centered(width).
		Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\n  %s\n\n  Press any key to go back.", errMsg))
}

func centered(width int) lipgloss.Style {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}

// formatClock renders seconds as h:mm:ss.
func formatClock(secs int) string {
	secs = max(secs, 0)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
