package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/sapprep/internal/catalog"
	"github.com/abhisek/sapprep/internal/classifier"
	"github.com/abhisek/sapprep/internal/config"
	"github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/llm"
	"github.com/abhisek/sapprep/internal/logging"
	"github.com/abhisek/sapprep/internal/progress"
	"github.com/abhisek/sapprep/internal/store"
	"github.com/abhisek/sapprep/internal/store/badgerkv"
	"github.com/abhisek/sapprep/internal/tutor"
)

var errNoBanks = errors.New("no question banks configured: pass --bank or set banks in the config file")

// env is everything a command needs, opened from config and flags.
type env struct {
	cfg        config.Config
	dataDir    string
	logger     *slog.Logger
	backend    store.Backend
	classifier *classifier.Classifier
	catalog    *catalog.Catalog
	tracker    *progress.Tracker
	engine     *exam.Engine

	closers []io.Closer
}

// loadConfig reads the config file and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Backend = v
	}
	if v, _ := cmd.Flags().GetStringSlice("bank"); len(v) > 0 {
		cfg.Banks = v
	}
	return cfg, cfg.Validate()
}

// openEnv opens logging, storage, the question catalog, the progress
// tracker and the exam engine. With needBanks unset a missing bank
// configuration yields an empty catalog instead of an error.
func openEnv(cmd *cobra.Command, needBanks bool) (_ *env, err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dataDir, err := store.DataDir()
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, dataDir: dataDir}
	defer func() {
		if err != nil {
			e.Close()
		}
	}()

	if e.cfg.Log.File == "" {
		e.cfg.Log.File = logging.DefaultConfig(dataDir).File
	}
	logger, closer, err := logging.New(e.cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	e.logger = logger
	e.closers = append(e.closers, closer)

	if e.backend, err = openBackend(e.cfg, dataDir, logger); err != nil {
		return nil, err
	}
	e.closers = append(e.closers, e.backend)

	e.classifier = classifier.New(e.cfg.Classifier)
	switch {
	case len(e.cfg.Banks) > 0:
		e.catalog, err = catalog.LoadFiles(ctx, e.cfg.Banks, e.classifier.Classify)
		if err != nil {
			return nil, fmt.Errorf("load question banks: %w", err)
		}
	case needBanks:
		return nil, errNoBanks
	default:
		e.catalog, _ = catalog.New(nil, e.classifier.Classify)
	}

	e.tracker, err = progress.Load(ctx, e.backend.ProgressRepo(),
		progress.WithMasteryThreshold(e.cfg.MasteryThreshold),
		progress.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	e.engine, err = exam.Load(ctx, e.catalog, e.backend.ExamRepo(),
		exam.WithLogger(logger),
		exam.WithAttemptHook(e.recordAttempt))
	if err != nil {
		return nil, err
	}

	logger.Debug("environment ready",
		slog.String("backend", e.cfg.Backend),
		slog.Int("questions", e.catalog.Len()))
	return e, nil
}

func openBackend(cfg config.Config, dataDir string, logger *slog.Logger) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		path := cfg.DBPath
		if path == "" {
			path = filepath.Join(dataDir, "badger")
		}
		b, err := badgerkv.Open(badgerkv.Config{Path: path, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return b, nil
	default:
		path := cfg.DBPath
		if path == "" {
			p, err := store.DefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("resolve DB path: %w", err)
			}
			path = p
		} else if err := store.EnsureDir(path); err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		s, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return s, nil
	}
}

// recordAttempt feeds one graded answer into the progress tracker. The
// engine reports practice answers as they are revealed and exam answers
// when the exam ends.
func (e *env) recordAttempt(g exam.Graded) {
	if tr := e.tracker.RecordAttempt(g.QuestionID, g.Correct, g.TimeSpent); tr != nil {
		e.logger.Debug("question status changed",
			slog.Int("question", tr.QuestionID),
			slog.String("from", string(tr.From)),
			slog.String("to", string(tr.To)),
			slog.String("trigger", tr.Trigger))
	}
}

// tutor builds the explanation service. Credentials from the config win;
// otherwise the well-known vendor API key variables are tried. Retry and
// timeout settings always come from the config.
func (e *env) tutor(ctx context.Context) (*tutor.Service, error) {
	cfg := e.cfg.LLM
	if !cfg.HasKey() {
		discovered, ok := llm.DiscoverConfig()
		if !ok {
			return nil, cfg.Validate()
		}
		discovered.Retry, discovered.Timeout = cfg.Retry, cfg.Timeout
		cfg = discovered
	}
	provider, err := llm.NewProvider(ctx, cfg, e.backend.EventRepo(), e.logger)
	if err != nil {
		return nil, err
	}
	tcfg := tutor.DefaultConfig()
	if cfg.Timeout > 0 {
		tcfg.Timeout = cfg.Timeout
	}
	return tutor.NewService(provider, tcfg), nil
}

func (e *env) reportDir() string {
	return filepath.Join(e.dataDir, "reports")
}

// Close releases the store and the log file.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	return errors.Join(errs...)
}
