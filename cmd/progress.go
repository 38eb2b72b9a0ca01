package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sapprep/internal/progress"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or adjust per-question progress",
}

var progressShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show progress for one question, or list tracked questions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if len(args) == 1 {
			id, err := parseQuestionID(args[0])
			if err != nil {
				return err
			}
			printProgress(e, e.tracker.Get(id))
			return nil
		}

		records := e.tracker.All()
		fmt.Printf("%-6s  %-13s  %8s  %7s  %6s  %s\n", "ID", "Status", "Attempts", "Correct", "Time", "")
		fmt.Println(strings.Repeat("─", 56))
		shown := 0
		for _, p := range records {
			if status != "" && string(p.Status) != status {
				continue
			}
			mark := ""
			if p.Bookmarked {
				mark = "★"
			}
			fmt.Printf("%-6d  %-13s  %8d  %7d  %5ds  %s\n",
				p.QuestionID, p.Status.Label(), p.Attempts, p.CorrectAttempts, p.TimeSpent, mark)
			shown++
		}
		if shown == 0 {
			fmt.Println("No matching questions.")
		}
		return nil
	},
}

var progressMarkCmd = &cobra.Command{
	Use:       "mark <id> <mastered|needs-review>",
	Short:     "Override a question's status",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(progress.StatusMastered), string(progress.StatusNeedsReview)},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseQuestionID(args[0])
		if err != nil {
			return err
		}

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		tr, err := e.tracker.SetStatus(id, progress.Status(args[1]))
		if err != nil {
			return err
		}
		if tr == nil {
			fmt.Printf("Question %d is already %s.\n", id, args[1])
			return nil
		}
		fmt.Printf("Question %d: %s → %s\n", id, tr.From.Label(), tr.To.Label())
		return nil
	},
}

var progressBookmarkCmd = &cobra.Command{
	Use:   "bookmark <id>",
	Short: "Toggle a question bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseQuestionID(args[0])
		if err != nil {
			return err
		}

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if e.tracker.ToggleBookmark(id) {
			fmt.Printf("Bookmarked question %d.\n", id)
		} else {
			fmt.Printf("Removed bookmark from question %d.\n", id)
		}
		return nil
	},
}

var progressNoteCmd = &cobra.Command{
	Use:   "note <id> [text...]",
	Short: "Set or clear the note on a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseQuestionID(args[0])
		if err != nil {
			return err
		}

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		note := strings.Join(args[1:], " ")
		e.tracker.SetNote(id, note)
		if strings.TrimSpace(note) == "" {
			fmt.Printf("Cleared note on question %d.\n", id)
		} else {
			fmt.Printf("Saved note on question %d.\n", id)
		}
		return nil
	},
}

func printProgress(e *env, p progress.QuestionProgress) {
	fmt.Printf("Question:  %d\n", p.QuestionID)
	if q, ok := e.catalog.Lookup(p.QuestionID); ok {
		fmt.Printf("Domain:    %s\n", e.catalog.DomainOf(q.ID).DisplayName())
		fmt.Printf("Text:      %s\n", truncate(q.Text, 100))
	}
	fmt.Printf("Status:    %s\n", p.Status.Label())
	fmt.Printf("Attempts:  %d (%d correct, %.0f%%)\n", p.Attempts, p.CorrectAttempts, p.Accuracy()*100)
	fmt.Printf("Time:      %ds\n", p.TimeSpent)
	if p.LastAttempted != nil {
		fmt.Printf("Last seen: %s\n", p.LastAttempted.Local().Format("2006-01-02 15:04"))
	}
	if p.MasteredAt != nil {
		fmt.Printf("Mastered:  %s\n", p.MasteredAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Printf("Bookmark:  %v\n", p.Bookmarked)
	if p.Note != "" {
		fmt.Printf("Note:      %s\n", p.Note)
	}
}

func parseQuestionID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(s), "Q"))
	if err != nil {
		return 0, fmt.Errorf("invalid question id %q", s)
	}
	return id, nil
}

func init() {
	progressShowCmd.Flags().String("status", "", "Only list questions with this status (new, practicing, mastered, needs-review)")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressMarkCmd)
	progressCmd.AddCommand(progressBookmarkCmd)
	progressCmd.AddCommand(progressNoteCmd)
}
