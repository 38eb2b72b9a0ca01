package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/sapprep/internal/tutor"
	"github.com/abhisek/sapprep/internal/ui/theme"
)

// ExplanationView renders a tutor explanation wrapped to width.
func ExplanationView(exp *tutor.Explanation, width int) string {
	if exp == nil {
		return ""
	}
	body := lipgloss.NewStyle().Width(width).Foreground(theme.Text)
	head := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)

	var b strings.Builder
	b.WriteString(head.Render("Tutor"))
	b.WriteString("\n")
	b.WriteString(body.Render(exp.Summary))
	b.WriteString("\n")
	b.WriteString(body.Render(exp.WhyCorrect))
	b.WriteString("\n")
	for _, letter := range []string{"A", "B", "C", "D", "E", "F"} {
		if reason, ok := exp.WhyWrong[letter]; ok {
			b.WriteString(body.Render(fmt.Sprintf("%s: %s", letter, reason)))
			b.WriteString("\n")
		}
	}
	if exp.Misconception != "" {
		b.WriteString(theme.Hint.Width(width).Render("Watch out: " + exp.Misconception))
		b.WriteString("\n")
	}
	if len(exp.KeyServices) > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Width(width).
			Render("Services: " + strings.Join(exp.KeyServices, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}
