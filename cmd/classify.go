package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/sampler"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [id...]",
	Short: "Show how the loaded questions are classified into exam domains",
	Long: "Without arguments prints the domain distribution of the loaded banks next to the " +
		"exam weights and the per-domain targets of a full exam draw. With question ids, " +
		"prints which classifier tier decided and the keyword scores.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		if len(args) > 0 {
			for _, a := range args {
				id, err := parseQuestionID(a)
				if err != nil {
					return err
				}
				q, ok := e.catalog.Lookup(id)
				if !ok {
					return fmt.Errorf("question %d not found", id)
				}
				res := e.classifier.Explain(q)
				fmt.Printf("Q%d  %s  (tier: %s)\n", id, res.Domain.DisplayName(), res.Tier)
				if q.Category != "" {
					fmt.Printf("  tag:    %s\n", q.Category)
				}
				if res.Scores != nil {
					var parts []string
					for _, d := range domain.All() {
						parts = append(parts, fmt.Sprintf("%s=%d", d, res.Scores[d]))
					}
					fmt.Printf("  scores: %s\n", strings.Join(parts, " "))
					if res.Swept {
						fmt.Println("  no strong winner, coarse sweep applied")
					}
				}
			}
			return nil
		}

		counts := e.catalog.DomainCounts()
		total := e.catalog.Len()
		targets := sampler.Allocation(e.cfg.ExamQuestions)

		fmt.Printf("%-36s  %6s  %6s  %6s  %6s\n", "Domain", "Count", "Share", "Weight", "Target")
		fmt.Println(strings.Repeat("─", 70))
		for _, d := range domain.All() {
			share := 0.0
			if total > 0 {
				share = float64(counts[d]) / float64(total) * 100
			}
			flag := ""
			if counts[d] < targets[d] {
				flag = "  short"
			}
			fmt.Printf("%-36s  %6d  %5.1f%%  %5d%%  %6d%s\n",
				d.DisplayName(), counts[d], share, d.WeightPercent(), targets[d], flag)
		}
		fmt.Println(strings.Repeat("─", 70))
		fmt.Printf("%-36s  %6d\n", "TOTAL", total)
		return nil
	},
}
