package exam

import (
	"math"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/question"
)

// CalculateScore scores a session against the bank. Answers are compared
// to the stored answer key as exact strings. Questions the bank does not
// know are left out of the totals; unanswered questions count as wrong.
func CalculateScore(s *Session, bank Bank) Score {
	score := Score{DomainBreakdown: make(map[domain.Domain]DomainScore, 5)}
	for _, d := range domain.All() {
		score.DomainBreakdown[d] = DomainScore{}
	}
	if s == nil || bank == nil {
		return score
	}

	for _, id := range s.QuestionIDs {
		q, ok := bank.Lookup(id)
		if !ok {
			continue
		}
		d := bank.DomainOf(id)
		ds := score.DomainBreakdown[d]
		ds.Total++
		score.TotalQuestions++
		if question.CheckAnswer(s.Answers[id], &q) {
			ds.Correct++
			score.CorrectCount++
		}
		score.DomainBreakdown[d] = ds
	}

	for d, ds := range score.DomainBreakdown {
		ds.Percentage = ratio(ds.Correct, ds.Total, 100)
		score.DomainBreakdown[d] = ds
	}
	score.Percentage = ratio(score.CorrectCount, score.TotalQuestions, 100)
	score.ScaledScore = ratio(score.CorrectCount, score.TotalQuestions, scaledMax)
	score.Passed = score.Percentage >= PassingThreshold
	return score
}

// ratio returns round(n/d*scale), or 0 when d is 0.
func ratio(n, d, scale int) int {
	if d <= 0 {
		return 0
	}
	v := math.Round(float64(n) / float64(d) * float64(scale))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(v)
}

// Graded is one answered question of a session.
type Graded struct {
	QuestionID int
	Correct    bool
	TimeSpent  int // seconds
}

// Grade lists the answered questions of a session in session order.
// Unanswered questions and questions the bank does not know are skipped.
func Grade(s *Session, bank Bank) []Graded {
	if s == nil || bank == nil {
		return nil
	}
	var out []Graded
	for _, id := range s.QuestionIDs {
		if g, ok := gradeOne(s, bank, id); ok {
			out = append(out, g)
		}
	}
	return out
}

func gradeOne(s *Session, bank Bank, id int) (Graded, bool) {
	ans := s.Answers[id]
	if ans == "" {
		return Graded{}, false
	}
	q, ok := bank.Lookup(id)
	if !ok {
		return Graded{}, false
	}
	return Graded{
		QuestionID: id,
		Correct:    question.CheckAnswer(ans, &q),
		TimeSpent:  s.TimeSpent[id],
	}, true
}
