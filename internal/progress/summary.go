package progress

import (
	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/readiness"
)

// DomainSummary aggregates progress for one domain.
type DomainSummary struct {
	Total       int
	Attempted   int
	Mastered    int
	NeedsReview int
}

// Summary aggregates progress over a question catalog.
type Summary struct {
	Total       int
	Attempted   int
	Mastered    int
	NeedsReview int
	Bookmarked  int
	PerDomain   map[domain.Domain]DomainSummary
}

// Summary aggregates the tracker's records over the given catalog, which
// maps question id to domain. Records for questions outside the catalog
// are ignored.
func (t *Tracker) Summary(catalog map[int]domain.Domain) Summary {
	s := Summary{
		Total:     len(catalog),
		PerDomain: make(map[domain.Domain]DomainSummary, 5),
	}
	for id, d := range catalog {
		ds := s.PerDomain[d]
		ds.Total++

		if p, ok := t.records[id]; ok {
			if p.Attempts > 0 {
				ds.Attempted++
				s.Attempted++
			}
			switch p.Status {
			case StatusMastered:
				ds.Mastered++
				s.Mastered++
			case StatusNeedsReview:
				ds.NeedsReview++
				s.NeedsReview++
			}
			if p.Bookmarked {
				s.Bookmarked++
			}
		}
		s.PerDomain[d] = ds
	}
	return s
}

// ReadinessInput converts the summary into readiness calculator input.
func (s Summary) ReadinessInput() readiness.Input {
	in := readiness.Input{
		TotalQuestions:    s.Total,
		MasteredQuestions: s.Mastered,
		PerDomain:         make(map[domain.Domain]readiness.DomainCount, len(s.PerDomain)),
	}
	for d, ds := range s.PerDomain {
		in.PerDomain[d] = readiness.DomainCount{Mastered: ds.Mastered, Total: ds.Total}
	}
	return in
}

// Readiness computes the readiness percentage for the summary.
func (s Summary) Readiness() int {
	return readiness.Compute(s.ReadinessInput())
}
