package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/readiness"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show readiness and per-domain progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		sum := e.tracker.Summary(e.catalog.Domains())
		pct := sum.Readiness()

		fmt.Printf("Readiness: %d%% (%s)\n", pct, readiness.BandFor(pct).Label())
		fmt.Printf("Questions: %d total, %d attempted, %d mastered, %d need review, %d bookmarked\n\n",
			sum.Total, sum.Attempted, sum.Mastered, sum.NeedsReview, sum.Bookmarked)

		fmt.Printf("%-36s  %6s  %6s  %8s  %8s  %6s\n",
			"Domain", "Weight", "Total", "Attempt", "Mastered", "Review")
		fmt.Println(strings.Repeat("─", 82))
		for _, d := range domain.All() {
			ds := sum.PerDomain[d]
			fmt.Printf("%-36s  %5d%%  %6d  %8d  %8d  %6d\n",
				d.DisplayName(), d.WeightPercent(), ds.Total, ds.Attempted, ds.Mastered, ds.NeedsReview)
		}

		hist := e.engine.History()
		if len(hist) > 0 {
			var scores []string
			var passed int
			for _, s := range hist[max(len(hist)-5, 0):] {
				if s.Score == nil {
					continue
				}
				scores = append(scores, fmt.Sprintf("%d%%", s.Score.Percentage))
			}
			for _, s := range hist {
				if s.Score != nil && s.Score.Passed {
					passed++
				}
			}
			fmt.Println()
			fmt.Printf("Sessions: %d finished, %d passed\n", len(hist), passed)
			if len(scores) > 0 {
				fmt.Printf("Recent scores: %s\n", strings.Join(scores, ", "))
			}
		}

		usage, err := e.backend.EventRepo().LLMUsage(cmd.Context())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if usage.Requests > 0 {
			fmt.Println()
			fmt.Printf("Tutor: %d requests (%d failed), %d input / %d output tokens\n",
				usage.Requests, usage.Failures, usage.InputTokens, usage.OutputTokens)
		}
		return nil
	},
}
