package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightsSumTo100(t *testing.T) {
	sum := 0
	for _, d := range All() {
		sum += d.WeightPercent()
	}
	assert.Equal(t, 100, sum)
}

func TestAll_FiveDistinct(t *testing.T) {
	seen := make(map[Domain]bool)
	for _, d := range All() {
		assert.True(t, d.Valid())
		seen[d] = true
	}
	assert.Len(t, seen, 5)
}

func TestParse(t *testing.T) {
	d, err := Parse("cost-control")
	require.NoError(t, err)
	assert.Equal(t, CostControl, d)

	_, err = Parse("design-solutions")
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	assert.Equal(t, 0, OrganizationalComplexity.Index())
	assert.Equal(t, 4, ContinuousImprovement.Index())
	assert.Equal(t, -1, Domain("nope").Index())
}
