package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textile-backend/internal/floor"
)

func TestCalculateProgress(t *testing.T) {
	tests := []struct {
		name      string
		planned   int
		completed int
		want      int
	}{
		{"nothing planned", 0, 10, 0},
		{"nothing done", 200, 0, 0},
		{"third", 3, 1, 33},
		{"two thirds rounds up", 3, 2, 67},
		{"half rounds away from zero", 8, 1, 13},
		{"exact", 200, 50, 25},
		{"overproduction clamps", 100, 130, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newArticle(t, floor.HandLinking, max(tt.planned, 1))
			a.PlannedQuantity = tt.planned
			a.Ledger(floor.Knitting).Completed = tt.completed
			assert.Equal(t, tt.want, CalculateProgress(a))
		})
	}
}

func TestCalculateProgressCountsOnlyGoodUnitsOnInspection(t *testing.T) {
	a := checkingWith(t, 100)
	a.PlannedQuantity = 400
	_, _, err := ApplyQualityCategories(a, floor.Checking, QualityInput{M1: intp(60), M3: intp(40)})
	require.NoError(t, err)

	// knitting 100 + linking 100 + checking M1 60
	assert.Equal(t, 65, CalculateProgress(a))

	// floors past the current one do not count
	a.Ledger(floor.Washing).Completed = 100
	assert.Equal(t, 65, CalculateProgress(a))
}

func TestProgressIsMonotonic(t *testing.T) {
	a := newArticle(t, floor.AutoLinking, 250)
	last := RecomputeProgress(a)
	for total := 10; total <= 300; total += 10 {
		_, _, err := ApplyCompletedQuantity(a, floor.Knitting, total)
		require.NoError(t, err)
		p := RecomputeProgress(a)
		assert.GreaterOrEqual(t, p, last)
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 100)
		last = p
	}
	assert.Equal(t, 100, last)
}

func TestCalculateProgressDoesNotWrap(t *testing.T) {
	a := newArticle(t, floor.HandLinking, 100)
	huge := math.MaxInt64/2 + 10
	a.Ledger(floor.Knitting).Completed = huge
	a.Ledger(floor.Linking).Received = huge
	a.Ledger(floor.Linking).Completed = huge
	a.CurrentFloor = floor.Linking
	assert.Equal(t, 100, CalculateProgress(a))
}
