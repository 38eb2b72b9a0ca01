// Package report renders a finished exam session as a PDF score report.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/exam"
	"github.com/abhisek/sapprep/internal/question"
)

// ErrNotCompleted is returned for sessions that have not finished.
var ErrNotCompleted = errors.New("session is not completed")

const (
	pageWidth   = 210.0 // A4, mm
	marginX     = 15.0
	barMaxWidth = 90.0
	textLimit   = 220
)

// Missed is one incorrectly answered or unanswered question.
type Missed struct {
	Question question.Question
	Domain   domain.Domain
	Answer   string
}

// MissedQuestions lists the session's wrong and unanswered questions in
// session order. Questions unknown to the bank are skipped.
func MissedQuestions(s *exam.Session, bank exam.Bank) []Missed {
	var out []Missed
	for _, id := range s.QuestionIDs {
		q, ok := bank.Lookup(id)
		if !ok {
			continue
		}
		ans := s.Answers[id]
		if question.CheckAnswer(ans, &q) {
			continue
		}
		out = append(out, Missed{Question: q, Domain: bank.DomainOf(id), Answer: ans})
	}
	return out
}

// Write renders the report for a completed session to w.
func Write(w io.Writer, s *exam.Session, bank exam.Bank) error {
	if s == nil || s.Status != exam.StatusCompleted {
		return ErrNotCompleted
	}
	score := s.Score
	if score == nil {
		sc := exam.CalculateScore(s, bank)
		score = &sc
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginX, 15, marginX)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("SAP-C02 score report", false)
	pdf.AddPage()

	writeHeader(pdf, s, score)
	writeBreakdown(pdf, score)
	writeMissed(pdf, tr, MissedQuestions(s, bank))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// WriteFile renders the report to path, creating parent directories.
func WriteFile(path string, s *exam.Session, bank exam.Bank) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, s, bank)
}

func writeHeader(pdf *gofpdf.Fpdf, s *exam.Session, score *exam.Score) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "AWS SAP-C02 Score Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	kind := "Practice set"
	if s.Type == exam.TypeFullExam {
		kind = "Full exam"
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("%s  |  Session %s", kind, s.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Started "+s.StartTime.Local().Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if s.EndTime != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Time taken %s", s.EndTime.Sub(s.StartTime).Round(time.Second)),
			"", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	result := "FAIL"
	if score.Passed {
		pdf.SetTextColor(22, 128, 61)
		result = "PASS"
	} else {
		pdf.SetTextColor(185, 28, 28)
	}
	pdf.CellFormat(0, 8, fmt.Sprintf("%s  %d / 1000  (%d%%, %d of %d correct)",
		result, score.ScaledScore, score.Percentage, score.CorrectCount, score.TotalQuestions),
		"", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Passing threshold: %d%%", exam.PassingThreshold), "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

func writeBreakdown(pdf *gofpdf.Fpdf, score *exam.Score) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Domain breakdown", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, d := range domain.All() {
		ds := score.DomainBreakdown[d]
		y := pdf.GetY()
		pdf.CellFormat(70, 7, fmt.Sprintf("%s (%d%%)", d.DisplayName(), d.WeightPercent()), "", 0, "L", false, 0, "")

		x := pdf.GetX()
		pdf.SetFillColor(229, 231, 235)
		pdf.Rect(x, y+1.5, barMaxWidth, 4, "F")
		if ds.Total > 0 {
			if ds.Percentage >= exam.PassingThreshold {
				pdf.SetFillColor(34, 197, 94)
			} else {
				pdf.SetFillColor(249, 115, 22)
			}
			pdf.Rect(x, y+1.5, barMaxWidth*float64(ds.Percentage)/100, 4, "F")
		}
		pdf.SetX(x + barMaxWidth + 3)
		pdf.CellFormat(0, 7, fmt.Sprintf("%d/%d  %d%%", ds.Correct, ds.Total, ds.Percentage), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func writeMissed(pdf *gofpdf.Fpdf, tr func(string) string, missed []Missed) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Questions to review (%d)", len(missed)), "", 1, "L", false, 0, "")

	if len(missed) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, "None. Every question was answered correctly.", "", 1, "L", false, 0, "")
		return
	}

	width := pageWidth - 2*marginX
	for _, m := range missed {
		pdf.SetFont("Helvetica", "B", 9)
		answer := m.Answer
		if answer == "" {
			answer = "-"
		}
		pdf.CellFormat(0, 5, fmt.Sprintf("Q%d  [%s]  your answer: %s  correct: %s",
			m.Question.ID, m.Domain.DisplayName(), answer, m.Question.CorrectAnswer), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(width, 4.5, tr(truncate(m.Question.Text, textLimit)), "", "L", false)
		pdf.Ln(2)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
