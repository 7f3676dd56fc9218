package ledger

import (
	"github.com/shopspring/decimal"

	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CalculateProgress sums the good output of every floor up to and including
// the current one (M1 on inspection floors, completed elsewhere) as a share
// of the planned quantity, rounded half away from zero into [0, 100].
func CalculateProgress(a *models.Article) int {
	if a.PlannedQuantity <= 0 {
		return 0
	}
	seq, err := a.Floors()
	if err != nil {
		return 0
	}
	last := floor.Index(seq, a.CurrentFloor)
	if last < 0 {
		last = 0
	}

	done := decimal.Zero
	for _, f := range seq[:last+1] {
		l, ok := a.FloorQuantities[f]
		if !ok || l == nil {
			continue
		}
		if f.IsInspection() {
			done = done.Add(decimal.NewFromInt(int64(l.M1Quantity)))
		} else {
			done = done.Add(decimal.NewFromInt(int64(l.Completed)))
		}
	}

	pct := done.
		Mul(hundred).
		Div(decimal.NewFromInt(int64(a.PlannedQuantity))).
		Round(0)
	switch {
	case pct.IsNegative():
		return 0
	case pct.GreaterThan(hundred):
		return 100
	}
	return int(pct.IntPart())
}

// RecomputeProgress stores CalculateProgress on the article.
func RecomputeProgress(a *models.Article) int {
	a.Progress = CalculateProgress(a)
	return a.Progress
}
