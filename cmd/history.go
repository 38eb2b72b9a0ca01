package cmd

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and inspect finished sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListCmd.RunE(cmd, args)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List finished sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		hist := e.engine.History()
		if len(hist) == 0 {
			fmt.Println("No finished sessions yet.")
			return nil
		}
		slices.Reverse(hist)

		fmt.Printf("%-8s  %-16s  %-9s  %5s  %5s  %6s  %s\n",
			"ID", "Started", "Type", "Qs", "Score", "Scaled", "Result")
		fmt.Println(strings.Repeat("─", 72))
		for _, s := range hist {
			pct, scaled, result := "-", "-", "-"
			if s.Score != nil {
				pct = fmt.Sprintf("%d%%", s.Score.Percentage)
				scaled = fmt.Sprintf("%d", s.Score.ScaledScore)
				result = "fail"
				if s.Score.Passed {
					result = "pass"
				}
			}
			fmt.Printf("%-8s  %-16s  %-9s  %5d  %5s  %6s  %s\n",
				shortID(s.ID),
				s.StartTime.Local().Format("2006-01-02 15:04"),
				s.Type,
				len(s.QuestionIDs),
				pct, scaled, result)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the score breakdown and missed questions of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := findSession(e.engine, args[0])
		if err != nil {
			return err
		}
		sc := s.Score
		if sc == nil {
			calc := exam.CalculateScore(s, e.catalog)
			sc = &calc
		}

		result := "FAIL"
		if sc.Passed {
			result = "PASS"
		}
		fmt.Printf("Session:   %s (%s)\n", s.ID, s.Type)
		fmt.Printf("Started:   %s\n", s.StartTime.Local().Format("2006-01-02 15:04:05"))
		if s.EndTime != nil {
			fmt.Printf("Duration:  %s\n", s.EndTime.Sub(s.StartTime).Round(time.Second))
		}
		fmt.Printf("Result:    %s %d/1000 (%d%%, %d of %d correct)\n\n",
			result, sc.ScaledScore, sc.Percentage, sc.CorrectCount, sc.TotalQuestions)

		for _, d := range domain.All() {
			ds := sc.DomainBreakdown[d]
			fmt.Printf("  %-36s  %3d/%-3d  %3d%%\n", d.DisplayName(), ds.Correct, ds.Total, ds.Percentage)
		}

		missed := report.MissedQuestions(s, e.catalog)
		if len(missed) > 0 {
			fmt.Printf("\nMissed (%d):\n", len(missed))
			for _, m := range missed {
				ans := m.Answer
				if ans == "" {
					ans = "-"
				}
				fmt.Printf("  Q%-5d  yours %-4s correct %-4s  %s\n",
					m.Question.ID, ans, m.Question.CorrectAnswer, truncate(m.Question.Text, 60))
			}
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a finished session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := findSession(e.engine, args[0])
		if err != nil {
			return err
		}
		e.engine.DeleteSession(s.ID)
		fmt.Printf("Deleted session %s.\n", s.ID)
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a session score report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("pdf")

		e, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := findSession(e.engine, args[0])
		if err != nil {
			return err
		}
		if out == "" {
			out = filepath.Join(e.reportDir(), fmt.Sprintf("sapprep-%s-%s.pdf",
				s.StartTime.Local().Format("20060102-1504"), shortID(s.ID)))
		}
		if err := report.WriteFile(out, s, e.catalog); err != nil {
			return fmt.Errorf("export report: %w", err)
		}
		fmt.Println("Wrote", out)
		return nil
	},
}

// findSession resolves a full id or a unique id prefix.
func findSession(eng *exam.Engine, id string) (*exam.Session, error) {
	if s, ok := eng.Session(id); ok {
		return s, nil
	}
	var match *exam.Session
	for _, s := range eng.History() {
		if strings.HasPrefix(s.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("session id %q is ambiguous", id)
			}
			match = s
		}
	}
	if match == nil {
		return nil, fmt.Errorf("session %q not found", id)
	}
	return match, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func init() {
	historyExportCmd.Flags().String("pdf", "", "Output PDF path (default in the data directory)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyExportCmd)
}
