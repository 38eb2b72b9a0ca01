package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

// SupportedMajor is the bank format major version this build reads.
const SupportedMajor = "v1"

// ErrInvalidBank is returned (wrapped) for any bank that fails validation.
var ErrInvalidBank = errors.New("invalid question bank")

const bankSchemaURL = "schema://question-bank.json"

// bankSchema describes the bank file layout. Semantic checks that JSON
// Schema cannot express (letters referenced by the answer key, uniqueness)
// live in Validate.
const bankSchema = `{
  "type": "object",
  "required": ["version", "questions"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "question", "options", "correctAnswer"],
        "properties": {
          "id": {"type": "integer"},
          "question": {"type": "string", "minLength": 1},
          "options": {
            "type": "array",
            "minItems": 2,
            "maxItems": 6,
            "items": {
              "type": "object",
              "required": ["letter", "text"],
              "properties": {
                "letter": {"type": "string", "pattern": "^[A-F]$"},
                "text": {"type": "string"}
              }
            }
          },
          "correctAnswer": {"type": "string", "pattern": "^[A-F]{1,6}$"},
          "explanation": {"type": "string"},
          "tips": {"type": "string"},
          "category": {"type": "string"}
        }
      }
    }
  }
}`

var (
	compiledOnce sync.Once
	compiled     *jsonschema.Schema
	compileErr   error
)

func bankValidator() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		var doc any
		if err := json.Unmarshal([]byte(bankSchema), &doc); err != nil {
			compileErr = fmt.Errorf("parse bank schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(bankSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add bank schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(bankSchemaURL)
	})
	return compiled, compileErr
}

// LoadFile reads and validates a bank file.
func LoadFile(path string) (*Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank %s: %w", path, err)
	}
	bank, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bank, nil
}

// Parse decodes and validates a bank from raw JSON.
func Parse(raw []byte) (*Bank, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrInvalidBank, err)
	}

	schema, err := bankValidator()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBank, err)
	}

	var bank Bank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBank, err)
	}
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	return &bank, nil
}

// Validate checks version compatibility and per-question invariants.
func (b *Bank) Validate() error {
	v := b.Version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: version %q is not semver", ErrInvalidBank, b.Version)
	}
	if semver.Major(v) != SupportedMajor {
		return fmt.Errorf("%w: version %s not supported (want %s.x)", ErrInvalidBank, b.Version, SupportedMajor)
	}

	ids := make(map[int]bool, len(b.Questions))
	for i := range b.Questions {
		q := &b.Questions[i]
		if ids[q.ID] {
			return fmt.Errorf("%w: duplicate question id %d", ErrInvalidBank, q.ID)
		}
		ids[q.ID] = true
		if err := ValidateQuestion(q); err != nil {
			return err
		}
	}
	return nil
}

// ValidateQuestion checks that option letters are unique and that the
// answer key is in canonical form and names only existing options.
func ValidateQuestion(q *Question) error {
	letters := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if len(o.Letter) != 1 || o.Letter[0] < 'A' || o.Letter[0] > 'F' {
			return fmt.Errorf("%w: question %d: bad option letter %q", ErrInvalidBank, q.ID, o.Letter)
		}
		if letters[o.Letter] {
			return fmt.Errorf("%w: question %d: duplicate option %s", ErrInvalidBank, q.ID, o.Letter)
		}
		letters[o.Letter] = true
	}
	if q.CorrectAnswer == "" {
		return fmt.Errorf("%w: question %d: empty answer key", ErrInvalidBank, q.ID)
	}
	for _, r := range q.CorrectAnswer {
		if !letters[string(r)] {
			return fmt.Errorf("%w: question %d: answer letter %c has no option", ErrInvalidBank, q.ID, r)
		}
	}
	// Answers are compared as exact strings against normalized input, so
	// the key must already be sorted and free of repeats.
	if want := NormalizeAnswer(q.CorrectAnswer); want != q.CorrectAnswer {
		return fmt.Errorf("%w: question %d: answer key %q must be written %q",
			ErrInvalidBank, q.ID, q.CorrectAnswer, want)
	}
	return nil
}
