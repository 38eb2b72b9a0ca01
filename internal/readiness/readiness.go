// Package readiness blends overall and per-domain mastery into a single
// exam readiness percentage.
package readiness

import (
	"math"

	"github.com/abhisek/sapprep/internal/domain"
)

const (
	overallWeight = 0.6
	domainWeight  = 0.4
)

// DomainCount is the mastered/total count for one domain.
type DomainCount struct {
	Mastered int
	Total    int
}

// Ratio returns mastered/total, or 0 when the domain has no questions.
func (c DomainCount) Ratio() float64 {
	if c.Total <= 0 {
		return 0
	}
	return finite(float64(c.Mastered) / float64(c.Total))
}

// Input is the aggregated progress the score is computed from.
type Input struct {
	TotalQuestions    int
	MasteredQuestions int
	PerDomain         map[domain.Domain]DomainCount
}

// Compute returns readiness in [0, 100]. Every domain counts equally in
// the domain average, including domains with no questions.
func Compute(in Input) int {
	overall := finite(float64(in.MasteredQuestions) / float64(max(in.TotalQuestions, 1)))

	var sum float64
	all := domain.All()
	for _, d := range all {
		sum += in.PerDomain[d].Ratio()
	}
	avg := sum / float64(len(all))

	score := finite(math.Round((overall*overallWeight + avg*domainWeight) * 100))
	return int(math.Max(0, math.Min(100, score)))
}

// Band is a coarse readiness label for display.
type Band string

const (
	BandNotReady     Band = "not-ready"
	BandGettingClose Band = "getting-close"
	BandReady        Band = "ready"
)

// BandFor maps a readiness percentage to its band.
func BandFor(pct int) Band {
	switch {
	case pct >= 80:
		return BandReady
	case pct >= 60:
		return BandGettingClose
	default:
		return BandNotReady
	}
}

// Label returns a display label for the band.
func (b Band) Label() string {
	switch b {
	case BandReady:
		return "Ready"
	case BandGettingClose:
		return "Getting close"
	default:
		return "Not ready"
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
