package cmd

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/question"
	"github.com/abhisek/sapprep/internal/sampler"
	"github.com/abhisek/sapprep/internal/screen"
	examscreen "github.com/abhisek/sapprep/internal/screens/exam"
)

var examCmd = &cobra.Command{
	Use:   "exam",
	Short: "Take a timed full-length practice exam",
	Long: "Samples a full exam weighted by the SAP-C02 domain ratios and starts the 180 minute timer. " +
		"An exam already in progress is resumed instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		seed, _ := cmd.Flags().GetUint64("seed")

		return runApp(cmd, func(e *env, deps examscreen.Deps) (screen.Screen, error) {
			if resumed(e) {
				return examscreen.New(deps), nil
			}
			if count <= 0 {
				count = e.cfg.ExamQuestions
			}
			qs := newSampler(e, seed).Sample(e.catalog.Pool(), count)
			if err := startSession(e, exam.TypeFullExam, qs); err != nil {
				return nil, err
			}
			return examscreen.New(deps), nil
		})
	},
}

// resumed reports whether a session is already in progress, telling the
// user it will be resumed.
func resumed(e *env) bool {
	cur := e.engine.Current()
	if cur == nil || cur.Status != exam.StatusInProgress {
		return false
	}
	fmt.Fprintf(os.Stderr, "Resuming %s session %s (%d/%d answered).\n",
		cur.Type, shortID(cur.ID), cur.AnsweredCount(), len(cur.QuestionIDs))
	return true
}

func newSampler(e *env, seed uint64) *sampler.Sampler {
	var src rand.Source
	if seed != 0 {
		src = rand.NewPCG(seed, seed)
	}
	return sampler.New(e.catalog.Classify, src)
}

func startSession(e *env, t exam.Type, qs []question.Question) error {
	ids := make([]int, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	if _, err := e.engine.Start(t, ids); err != nil {
		if errors.Is(err, exam.ErrNoQuestions) {
			return errors.New("no questions match the selection")
		}
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	examCmd.Flags().IntP("count", "n", 0, "Number of questions (default from config, 75)")
	examCmd.Flags().Uint64("seed", 0, "Seed for a reproducible question draw")
}
