package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/progress"
	"github.com/abhisek/sapprep/internal/readiness"
	"github.com/abhisek/sapprep/internal/ui/components"
	"github.com/abhisek/sapprep/internal/ui/theme"
)

const titleText = "AWS Solutions Architect Professional  ·  SAP-C02"

// contentWidth returns the uniform inner width used for all sections.
func contentWidth(frameWidth int) int {
	return max(min(frameWidth-6, 72), 20)
}

func renderTitle(cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render(titleText)
}

// renderReadiness renders the readiness score and band in a bordered box.
func renderReadiness(pct int, sum progress.Summary, cw int) string {
	band := readiness.BandFor(pct)
	color := theme.Error
	switch band {
	case readiness.BandReady:
		color = theme.Success
	case readiness.BandGettingClose:
		color = theme.Accent
	}

	score := lipgloss.NewStyle().Foreground(color).Bold(true).
		Render(fmt.Sprintf("READINESS %d%%  %s", pct, strings.ToUpper(band.Label())))
	stats := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("%d questions  ·  %d attempted  ·  %d mastered  ·  %d to review",
			sum.Total, sum.Attempted, sum.Mastered, sum.NeedsReview))

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(score + "\n" + stats)
}

// renderDomains renders one mastery bar per exam domain.
func renderDomains(sum progress.Summary, cw int) string {
	var b strings.Builder
	for _, d := range domain.All() {
		ds := sum.PerDomain[d]
		pct := 0.0
		if ds.Total > 0 {
			pct = float64(ds.Mastered) / float64(ds.Total)
		}
		bar := components.NewProgressBar(fmt.Sprintf("%-24s %2d%%", shortName(d), d.WeightPercent()), pct, true, cw)
		bar.LabelWidth = 28
		b.WriteString(bar.View())
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortName(d domain.Domain) string {
	switch d {
	case domain.OrganizationalComplexity:
		return "Org. complexity"
	case domain.NewSolutions:
		return "New solutions"
	case domain.MigrationPlanning:
		return "Migration"
	case domain.CostControl:
		return "Cost control"
	case domain.ContinuousImprovement:
		return "Continuous improvement"
	}
	return string(d)
}

// renderFrame wraps content in a rounded frame, centered in the area.
func renderFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(width - 2).
		Height(height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
