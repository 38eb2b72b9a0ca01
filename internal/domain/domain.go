package domain

import "fmt"

// Domain is one of the five content areas of the SAP-C02 exam guide.
type Domain string

const (
	OrganizationalComplexity Domain = "organizational-complexity"
	NewSolutions             Domain = "new-solutions"
	MigrationPlanning        Domain = "migration-planning"
	CostControl              Domain = "cost-control"
	ContinuousImprovement    Domain = "continuous-improvement"
)

// weights are the official exam weightings in percent. They sum to 100.
var weights = map[Domain]int{
	OrganizationalComplexity: 26,
	NewSolutions:             29,
	MigrationPlanning:        8,
	CostControl:              12,
	ContinuousImprovement:    25,
}

// All returns the five domains in their canonical order. The order is used
// wherever a deterministic walk over domains is needed (tie-breaks, id
// fallback, report rows).
func All() []Domain {
	return []Domain{
		OrganizationalComplexity,
		NewSolutions,
		MigrationPlanning,
		CostControl,
		ContinuousImprovement,
	}
}

// Parse converts a string into a Domain.
func Parse(s string) (Domain, error) {
	d := Domain(s)
	if d.Valid() {
		return d, nil
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

// Valid reports whether d is one of the five known domains.
func (d Domain) Valid() bool {
	_, ok := weights[d]
	return ok
}

// WeightPercent returns the exam weighting of the domain in percent.
func (d Domain) WeightPercent() int {
	return weights[d]
}

// Weight returns the exam weighting as a fraction in [0, 1].
func (d Domain) Weight() float64 {
	return float64(weights[d]) / 100
}

// DisplayName returns a human-readable label for the domain.
func (d Domain) DisplayName() string {
	switch d {
	case OrganizationalComplexity:
		return "Organizational Complexity"
	case NewSolutions:
		return "New Solutions"
	case MigrationPlanning:
		return "Migration Planning"
	case CostControl:
		return "Cost Control"
	case ContinuousImprovement:
		return "Continuous Improvement"
	default:
		return string(d)
	}
}

// Index returns the position of d in All(), or -1.
func (d Domain) Index() int {
	for i, x := range All() {
		if x == d {
			return i
		}
	}
	return -1
}
