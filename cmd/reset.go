package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner data",
	Long: "Clears per-question progress and abandons the in-progress session. " +
		"Finished sessions are kept unless --history is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		withHistory, _ := cmd.Flags().GetBool("history")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		what := "all question progress"
		if withHistory {
			what += " and exam history"
		}
		if !yes && !confirm(fmt.Sprintf("Delete %s?", what)) {
			fmt.Println("Aborted.")
			return nil
		}

		if err := e.tracker.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("reset progress: %w", err)
		}
		e.engine.Reset()

		deleted := 0
		if withHistory {
			for _, s := range e.engine.History() {
				if e.engine.DeleteSession(s.ID) {
					deleted++
				}
			}
		}
		e.logger.Info("learner data reset", "history_deleted", deleted)

		fmt.Println("Progress cleared.")
		if withHistory {
			fmt.Printf("Deleted %d session(s).\n", deleted)
		}
		return nil
	},
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	resetCmd.Flags().Bool("history", false, "Also delete finished sessions")
}
