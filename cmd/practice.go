package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/question"
	"github.com/abhisek/sapprep/internal/screen"
	examscreen "github.com/abhisek/sapprep/internal/screens/exam"
	"github.com/abhisek/sapprep/internal/screens/home"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start an untimed practice set",
	Long: "Starts an untimed practice set that reveals the answer after each question. " +
		"By default questions are drawn across all domains by exam weight.",
	Example: `  sapprep practice --domain cost-control -n 10
  sapprep practice --review
  sapprep practice --bookmarked`,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		seed, _ := cmd.Flags().GetUint64("seed")
		bookmarked, _ := cmd.Flags().GetBool("bookmarked")
		review, _ := cmd.Flags().GetBool("review")
		domainFlag, _ := cmd.Flags().GetString("domain")

		var only domain.Domain
		if domainFlag != "" {
			d, err := domain.Parse(domainFlag)
			if err != nil {
				return err
			}
			only = d
		}

		return runApp(cmd, func(e *env, deps examscreen.Deps) (screen.Screen, error) {
			if resumed(e) {
				return examscreen.New(deps), nil
			}

			var qs []question.Question
			switch {
			case bookmarked || review:
				var ids []int
				if bookmarked {
					ids = append(ids, e.tracker.Bookmarked()...)
				}
				if review {
					ids = append(ids, e.tracker.NeedsReview()...)
				}
				for _, q := range e.catalog.Select(ids) {
					if only == "" || e.catalog.DomainOf(q.ID) == only {
						qs = append(qs, q)
					}
				}
				if count > 0 && len(qs) > count {
					qs = qs[:count]
				}
			default:
				pool := e.catalog.Pool()
				if only != "" {
					pool = e.catalog.Filter(only)
				}
				if count <= 0 {
					count = home.DefaultPracticeQuestions
				}
				qs = newSampler(e, seed).Sample(pool, count)
			}

			if err := startSession(e, exam.TypePractice, qs); err != nil {
				return nil, err
			}
			return examscreen.New(deps), nil
		})
	},
}

func init() {
	f := practiceCmd.Flags()
	f.IntP("count", "n", 0, "Number of questions (default 20; all matching for --review/--bookmarked)")
	f.StringP("domain", "d", "", "Limit to one domain (e.g. cost-control)")
	f.Bool("bookmarked", false, "Practice bookmarked questions")
	f.Bool("review", false, "Practice questions that need review")
	f.Uint64("seed", 0, "Seed for a reproducible question draw")
}
