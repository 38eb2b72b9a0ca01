package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/abhisek/sapprep/internal/app"
	"github.com/abhisek/sapprep/internal/sampler"
	"github.com/abhisek/sapprep/internal/screen"
	examscreen "github.com/abhisek/sapprep/internal/screens/exam"
	"github.com/abhisek/sapprep/internal/screens/home"
)

// startFunc prepares a screen to show on top of home, or returns nil to
// open on the home screen.
type startFunc func(e *env, deps examscreen.Deps) (screen.Screen, error)

// runApp opens the environment, builds the screen dependencies, and
// launches the TUI.
func runApp(cmd *cobra.Command, start startFunc) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return errors.New("the exam interface needs an interactive terminal")
	}

	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	deps := examscreen.Deps{
		Engine:    e.engine,
		Tracker:   e.tracker,
		Catalog:   e.catalog,
		Logger:    e.logger,
		ReportDir: e.reportDir(),
	}
	if t, err := e.tutor(cmd.Context()); err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Tutor explanations will be unavailable.")
	} else {
		deps.Tutor = t
	}

	smp := sampler.New(e.catalog.Classify, nil)
	root := home.New(deps, smp, home.Options{ExamQuestions: e.cfg.ExamQuestions})

	var pushed []screen.Screen
	if start != nil {
		s, err := start(e, deps)
		if err != nil {
			return err
		}
		if s != nil {
			pushed = append(pushed, s)
		}
	}

	if err := app.Run(root, pushed...); err != nil {
		return err
	}
	// A running timer is paused on exit so the clock stops while away.
	e.engine.Pause()
	return nil
}
