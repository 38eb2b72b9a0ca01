package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sapprep/internal/question"
	"github.com/abhisek/sapprep/internal/tutor"
)

var explainCmd = &cobra.Command{
	Use:   "explain <id>",
	Short: "Ask the tutor to explain a question",
	Long: "Asks the configured LLM to explain the correct answer of a question. The learner " +
		"answer defaults to the one given in the most recent finished session that contained it.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		answer, _ := cmd.Flags().GetString("answer")
		id, err := parseQuestionID(args[0])
		if err != nil {
			return err
		}

		e, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		q, ok := e.catalog.Lookup(id)
		if !ok {
			return fmt.Errorf("question %d not found", id)
		}
		svc, err := e.tutor(cmd.Context())
		if err != nil {
			return fmt.Errorf("tutor unavailable: %w", err)
		}

		if answer == "" {
			answer = lastAnswer(e, id)
		}
		exp, err := svc.Explain(cmd.Context(), tutor.ExplainInput{
			Question: q,
			Domain:   e.catalog.DomainOf(id),
			Answer:   question.NormalizeAnswer(answer),
			Progress: e.tracker.Get(id),
		})
		if err != nil {
			return err
		}
		printExplanation(q, exp)
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Ask the tutor for a study plan based on your progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		svc, err := e.tutor(cmd.Context())
		if err != nil {
			return fmt.Errorf("tutor unavailable: %w", err)
		}

		sum := e.tracker.Summary(e.catalog.Domains())
		var recent []int
		for _, s := range e.engine.History() {
			if s.Score != nil {
				recent = append(recent, s.Score.Percentage)
			}
		}
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}

		plan, err := svc.Plan(cmd.Context(), tutor.PlanInput{
			Summary:      sum,
			Readiness:    sum.Readiness(),
			RecentScores: recent,
		})
		if err != nil {
			return err
		}

		fmt.Println(plan.Summary)
		fmt.Println()
		for i, fa := range plan.FocusAreas {
			fmt.Printf("%d. %s (%d%% of exam)\n", i+1, fa.Domain.DisplayName(), fa.Domain.WeightPercent())
			fmt.Printf("   %s\n", fa.Reason)
			if len(fa.Topics) > 0 {
				fmt.Printf("   Study: %s\n", strings.Join(fa.Topics, ", "))
			}
		}
		return nil
	},
}

// lastAnswer returns the answer given to id in the newest finished session
// that contained it.
func lastAnswer(e *env, id int) string {
	hist := e.engine.History()
	slices.Reverse(hist)
	for _, s := range hist {
		if s.Contains(id) {
			return s.Answers[id]
		}
	}
	return ""
}

func printExplanation(q question.Question, exp *tutor.Explanation) {
	sep := strings.Repeat("─", 60)
	fmt.Printf("Q%d  correct: %s\n", q.ID, q.CorrectAnswer)
	fmt.Println(sep)
	fmt.Println(exp.Summary)
	fmt.Println()
	fmt.Println(exp.WhyCorrect)
	if len(exp.WhyWrong) > 0 {
		fmt.Println()
		for _, o := range q.Options {
			if reason, ok := exp.WhyWrong[o.Letter]; ok {
				fmt.Printf("%s: %s\n", o.Letter, reason)
			}
		}
	}
	if exp.Misconception != "" {
		fmt.Println()
		fmt.Println("Watch out:", exp.Misconception)
	}
	if len(exp.KeyServices) > 0 {
		fmt.Println()
		fmt.Println("Services:", strings.Join(exp.KeyServices, ", "))
	}
}

func init() {
	explainCmd.Flags().StringP("answer", "a", "", "Your answer, e.g. B or AD")
}

