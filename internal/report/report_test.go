package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/question"
)

type mapBank map[int]question.Question

func (b mapBank) Lookup(id int) (question.Question, bool) {
	q, ok := b[id]
	return q, ok
}

func (b mapBank) DomainOf(id int) domain.Domain {
	return domain.All()[id%5]
}

func fixture() (*exam.Session, mapBank) {
	bank := mapBank{
		1: {ID: 1, Text: "Which service centralizes account governance?", CorrectAnswer: "A"},
		2: {ID: 2, Text: "Pick two cost controls: résumé of “savings” options.", CorrectAnswer: "BD"},
		3: {ID: 3, Text: strings.Repeat("long stem ", 60), CorrectAnswer: "C"},
	}
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(95 * time.Minute)
	s := &exam.Session{
		ID:          "sess-1",
		Type:        exam.TypeFullExam,
		StartTime:   start,
		EndTime:     &end,
		QuestionIDs: []int{1, 2, 3, 99},
		Answers:     map[int]string{1: "A", 2: "DB"},
		Status:      exam.StatusCompleted,
	}
	return s, bank
}

func TestMissedQuestions(t *testing.T) {
	s, bank := fixture()
	missed := MissedQuestions(s, bank)

	require.Len(t, missed, 2)
	assert.Equal(t, 2, missed[0].Question.ID, "wrong letter order is still wrong")
	assert.Equal(t, "DB", missed[0].Answer)
	assert.Equal(t, 3, missed[1].Question.ID)
	assert.Empty(t, missed[1].Answer)
	assert.Equal(t, domain.MigrationPlanning, missed[0].Domain)
}

func TestWrite_ProducesPDF(t *testing.T) {
	s, bank := fixture()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s, bank))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestWrite_UsesStoredScore(t *testing.T) {
	s, bank := fixture()
	sc := exam.CalculateScore(s, bank)
	sc.Passed = true
	s.Score = &sc

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s, bank))
}

func TestWrite_RejectsUnfinishedSession(t *testing.T) {
	s, bank := fixture()
	s.Status = exam.StatusInProgress

	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, s, bank), ErrNotCompleted)
	assert.ErrorIs(t, Write(&buf, nil, bank), ErrNotCompleted)
	assert.Zero(t, buf.Len())
}

func TestWriteFile(t *testing.T) {
	s, bank := fixture()
	path := filepath.Join(t.TempDir(), "reports", "sess-1.pdf")

	require.NoError(t, WriteFile(path, s, bank))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
