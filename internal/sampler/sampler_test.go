package sampler

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/question"
)

func makePool(n int) []question.Question {
	pool := make([]question.Question, n)
	for i := range pool {
		pool[i] = question.Question{ID: i + 1, Text: "q", CorrectAnswer: "A"}
	}
	return pool
}

// byID spreads questions evenly across domains.
func byID(q question.Question) domain.Domain {
	return domain.All()[q.ID%5]
}

func seeded(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

func TestAllocation(t *testing.T) {
	got := Allocation(75)
	assert.Equal(t, 20, got[domain.OrganizationalComplexity])
	assert.Equal(t, 22, got[domain.NewSolutions])
	assert.Equal(t, 6, got[domain.MigrationPlanning])
	assert.Equal(t, 9, got[domain.CostControl])
	assert.Equal(t, 19, got[domain.ContinuousImprovement])

	for _, v := range Allocation(0) {
		assert.Zero(t, v)
	}
}

func TestDraw_RatioOnEvenPool(t *testing.T) {
	s := New(byID, seeded(1))
	draw := s.Draw(makePool(250), 75)

	targets := Allocation(75)
	for _, d := range domain.All() {
		assert.InDelta(t, targets[d], draw.Picked[d], 1, "domain %s", d)
	}
	assert.Zero(t, draw.Backfilled, "backfill must not run when every bucket covers its target")
	assert.Len(t, draw.Questions, 75)
}

func TestSample_NoDuplicates(t *testing.T) {
	s := New(byID, seeded(2))
	got := s.Sample(makePool(250), 75)
	seen := make(map[int]bool)
	for _, q := range got {
		require.False(t, seen[q.ID], "duplicate id %d", q.ID)
		seen[q.ID] = true
	}
}

func TestDraw_BackfillsSparseDomains(t *testing.T) {
	allNew := func(question.Question) domain.Domain { return domain.NewSolutions }
	s := New(allNew, seeded(3))
	draw := s.Draw(makePool(100), 75)

	assert.Equal(t, 22, draw.Picked[domain.NewSolutions])
	assert.Equal(t, 0, draw.Picked[domain.MigrationPlanning])
	assert.Equal(t, 53, draw.Backfilled)
	assert.Len(t, draw.Questions, 75)
}

func TestSample_SizeIsMinOfNAndPool(t *testing.T) {
	tests := []struct {
		pool, n, want int
	}{
		{10, 75, 10},
		{75, 75, 75},
		{300, 75, 75},
		{300, 1, 1},
		{300, 0, 0},
		{0, 10, 0},
	}
	for _, tt := range tests {
		got := New(byID, seeded(4)).Sample(makePool(tt.pool), tt.n)
		if len(got) != tt.want {
			t.Errorf("Sample(pool=%d, n=%d) len = %d, want %d", tt.pool, tt.n, len(got), tt.want)
		}
	}
}

func TestSample_SeededIsReproducible(t *testing.T) {
	pool := makePool(200)
	a := New(byID, seeded(42)).Sample(pool, 30)
	b := New(byID, seeded(42)).Sample(pool, 30)
	assert.Equal(t, a, b)
}

func TestSample_NilSource(t *testing.T) {
	got := New(byID, nil).Sample(makePool(50), 20)
	assert.Len(t, got, 20)
}
