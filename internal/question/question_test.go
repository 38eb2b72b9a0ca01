package question

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBank = `{
  "version": "v1.2.0",
  "title": "Sample",
  "questions": [
    {
      "id": 1,
      "question": "Which service centrally manages multiple AWS accounts?",
      "options": [
        {"letter": "A", "text": "AWS Organizations"},
        {"letter": "B", "text": "Amazon S3"}
      ],
      "correctAnswer": "A",
      "explanation": "Organizations manages accounts.",
      "category": "design-solutions"
    },
    {
      "id": 2,
      "question": "Pick two cost levers.",
      "options": [
        {"letter": "A", "text": "Savings Plans"},
        {"letter": "B", "text": "Spot Instances"},
        {"letter": "C", "text": "Bigger instances"}
      ],
      "correctAnswer": "AB"
    }
  ]
}`

func TestParse_Valid(t *testing.T) {
	bank, err := Parse([]byte(validBank))
	require.NoError(t, err)
	assert.Equal(t, "Sample", bank.Title)
	require.Len(t, bank.Questions, 2)
	assert.Equal(t, "design-solutions", bank.Questions[0].Category)
	assert.True(t, bank.Questions[1].IsMultiSelect())
	assert.Equal(t, 2, bank.Questions[1].SelectCount())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"missing questions", `{"version": "v1.0.0"}`},
		{"bad letter", `{"version":"v1.0.0","questions":[{"id":1,"question":"q","options":[{"letter":"G","text":"x"},{"letter":"A","text":"y"}],"correctAnswer":"A"}]}`},
		{"answer without option", `{"version":"v1.0.0","questions":[{"id":1,"question":"q","options":[{"letter":"A","text":"x"},{"letter":"B","text":"y"}],"correctAnswer":"C"}]}`},
		{"duplicate letters", `{"version":"v1.0.0","questions":[{"id":1,"question":"q","options":[{"letter":"A","text":"x"},{"letter":"A","text":"y"}],"correctAnswer":"A"}]}`},
		{"duplicate ids", `{"version":"v1.0.0","questions":[{"id":1,"question":"q","options":[{"letter":"A","text":"x"},{"letter":"B","text":"y"}],"correctAnswer":"A"},{"id":1,"question":"q","options":[{"letter":"A","text":"x"},{"letter":"B","text":"y"}],"correctAnswer":"B"}]}`},
		{"unsorted answer key", `{"version":"v1.0.0","questions":[{"id":1,"question":"q","options":[{"letter":"A","text":"w"},{"letter":"B","text":"x"},{"letter":"C","text":"y"},{"letter":"D","text":"z"}],"correctAnswer":"DB"}]}`},
		{"repeated answer letter", `{"version":"v1.0.0","questions":[{"id":1,"question":"q","options":[{"letter":"A","text":"x"},{"letter":"B","text":"y"}],"correctAnswer":"AA"}]}`},
		{"lowercase answer key", `{"version":"v1.0.0","questions":[{"id":1,"question":"q","options":[{"letter":"A","text":"x"},{"letter":"B","text":"y"}],"correctAnswer":"a"}]}`},
		{"unsupported major", `{"version":"v2.0.0","questions":[]}`},
		{"not semver", `{"version":"latest","questions":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidBank), "want ErrInvalidBank, got %v", err)
		})
	}
}

func TestParse_VersionWithoutPrefix(t *testing.T) {
	_, err := Parse([]byte(`{"version":"1.4.2","questions":[]}`))
	assert.NoError(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	require.NoError(t, os.WriteFile(path, []byte(validBank), 0o644))

	bank, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, bank.Questions, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a", "A"},
		{"cb", "BC"},
		{"D,B", "BD"},
		{"BB", "B"},
		{"xyz", ""},
		{"fea", "AEF"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAnswer(tt.in), "NormalizeAnswer(%q)", tt.in)
	}
}

func TestCheckAnswer_ExactMatchOnly(t *testing.T) {
	q := &Question{CorrectAnswer: "BC"}
	assert.True(t, CheckAnswer("BC", q))
	assert.False(t, CheckAnswer("CB", q))
	assert.False(t, CheckAnswer("", q))
	assert.False(t, CheckAnswer("BC", nil))
}

func TestToggleLetter(t *testing.T) {
	sel := ToggleLetter("", "c")
	assert.Equal(t, "C", sel)
	sel = ToggleLetter(sel, "A")
	assert.Equal(t, "AC", sel)
	sel = ToggleLetter(sel, "C")
	assert.Equal(t, "A", sel)
}
