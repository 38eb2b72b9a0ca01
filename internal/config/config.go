// Package config loads application settings. Sources are layered, later
// ones winning: built-in defaults, the YAML config file, a .env file in the
// working directory, then SAPPREP_* environment variables. Command-line
// flags are applied by the caller on top of the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/sapprep/internal/classifier"
	"github.com/abhisek/sapprep/internal/llm"
	"github.com/abhisek/sapprep/internal/logging"
	"github.com/abhisek/sapprep/internal/progress"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config is the full application configuration.
type Config struct {
	// Backend selects the storage engine.
	Backend string `yaml:"backend" validate:"oneof=sqlite badger"`
	// DBPath is the SQLite file, or the badger directory.
	DBPath string `yaml:"db_path"`
	// Banks lists question bank files or directories.
	Banks []string `yaml:"banks" validate:"dive,required"`

	// MasteryThreshold is the number of prior correct attempts after which
	// another correct answer marks a question mastered.
	MasteryThreshold int `yaml:"mastery_threshold" validate:"gte=1,lte=20"`
	// ExamQuestions is the size of a sampled full exam.
	ExamQuestions int `yaml:"exam_questions" validate:"gte=1,lte=500"`

	Classifier classifier.Config `yaml:"classifier"`
	Log        logging.Config    `yaml:"log"`
	LLM        llm.Config        `yaml:"llm"`
}

// Default returns the built-in configuration. Paths are resolved by the
// caller when left empty.
func Default() Config {
	return Config{
		Backend:          BackendSQLite,
		MasteryThreshold: progress.DefaultMasteryThreshold,
		ExamQuestions:    75,
		Classifier:       classifier.DefaultConfig(),
		Log:              logging.DefaultConfig(""),
		LLM:              llm.DefaultConfig(),
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/sapprep/config.yaml.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "sapprep", "config.yaml"), nil
}

// Load builds the configuration. An explicit path must exist; the default
// path is optional.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	if err := loadFile(path, &cfg, explicit); err != nil {
		return cfg, err
	}

	// A missing .env is normal; variables already set are not overwritten.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SAPPREP_BACKEND"); v != "" {
		cfg.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SAPPREP_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SAPPREP_BANKS"); v != "" {
		cfg.Banks = filepath.SplitList(v)
	}
	if v := os.Getenv("SAPPREP_MASTERY_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MasteryThreshold = n
		}
	}
	if v := os.Getenv("SAPPREP_EXAM_QUESTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ExamQuestions = n
		}
	}
	if v := os.Getenv("SAPPREP_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("SAPPREP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	llm.ApplyEnv(&cfg.LLM)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints. LLM credentials are not required
// here; they are checked when an explanation is requested.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes cfg as YAML to path, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
