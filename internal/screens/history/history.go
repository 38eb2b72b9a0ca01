package history

import (
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/router"
	"github.com/abhisek/sapprep/internal/screen"
	"github.com/abhisek/sapprep/internal/screens/results"
	"github.com/abhisek/sapprep/internal/ui/layout"
	"github.com/abhisek/sapprep/internal/ui/theme"
)

// HistoryScreen lists completed sessions, newest first.
type HistoryScreen struct {
	engine        *exam.Engine
	deps          results.Deps
	sessions      []*exam.Session
	selected      int
	confirmDelete bool
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(engine *exam.Engine, deps results.Deps) *HistoryScreen {
	s := &HistoryScreen{engine: engine, deps: deps}
	s.load()
	return s
}

func (s *HistoryScreen) Init() tea.Cmd {
	s.load()
	return nil
}

func (s *HistoryScreen) load() {
	s.sessions = s.engine.History()
	slices.Reverse(s.sessions)
	if s.selected >= len(s.sessions) {
		s.selected = max(len(s.sessions)-1, 0)
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	if s.confirmDelete {
		return []layout.KeyHint{
			{Key: "Y", Description: "Delete"},
			{Key: "N", Description: "Keep"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "d", Description: "Delete"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	if s.confirmDelete {
		switch kmsg.String() {
		case "y", "Y":
			s.engine.DeleteSession(s.sessions[s.selected].ID)
			s.load()
		}
		s.confirmDelete = false
		return s, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.sessions)-1 {
			s.selected++
		}
	case "d":
		if len(s.sessions) > 0 {
			s.confirmDelete = true
		}
	case "enter":
		if len(s.sessions) > 0 {
			next := results.New(s.sessions[s.selected], s.deps)
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if len(s.sessions) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No finished sessions yet. Take a practice set!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, sess := range s.sessions {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		kind := "Practice "
		if sess.Type == exam.TypeFullExam {
			kind = "Full exam"
		}
		var score, verdict string
		if sess.Score != nil {
			score = fmt.Sprintf("%3d%%  %4d/1000", sess.Score.Percentage, sess.Score.ScaledScore)
			verdict = "fail"
			if sess.Score.Passed {
				verdict = "pass"
			}
		}
		line := fmt.Sprintf("%s%s  %s  %3d questions  %s  %s",
			prefix, sess.StartTime.Local().Format("Jan 02, 2006 15:04"), kind, len(sess.QuestionIDs), score, verdict)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}

	if s.confirmDelete {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render("Delete the selected session? [y/N]"))
	}
	return b.String()
}
