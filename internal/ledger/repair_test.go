package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

// assertConsistent checks the ledger invariants RepairLedgers guarantees.
func assertConsistent(t *testing.T, a *models.Article) {
	t.Helper()
	seq, err := a.Floors()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, floor.Index(seq, a.CurrentFloor), 0, "current floor in sequence")
	for i, f := range seq {
		l := a.FloorQuantities[f]
		require.NotNil(t, l, f)
		assert.LessOrEqual(t, l.Transferred, l.Completed, "%s transferred <= completed", f)
		if i == 0 {
			assert.LessOrEqual(t, l.M4Quantity, l.Completed, "%s defects <= completed", f)
		}
		if i > 0 {
			assert.LessOrEqual(t, l.Completed, l.Received, "%s completed <= received", f)
			assert.LessOrEqual(t, l.Received, a.FloorQuantities[seq[i-1]].Transferred, "%s received <= previous transferred", f)
		}
		assert.Equal(t, max(0, l.Received-l.Completed), l.Remaining, "%s remaining", f)
		if f.IsInspection() {
			assert.LessOrEqual(t, l.QualityTotal(), l.Completed, "%s quality total", f)
			assert.Equal(t, l.Transferred, l.M1Transferred, "%s m1 transferred", f)
			assert.LessOrEqual(t, l.M1Transferred, l.M1Quantity, "%s m1 transferred <= m1", f)
		}
	}
	assert.Equal(t, CalculateProgress(a), a.Progress)
}

func corrupted(t *testing.T) *models.Article {
	a := newArticle(t, floor.HandLinking, 1000)
	set := func(f floor.Floor, r, c, tr int) {
		l := a.Ledger(f)
		l.Received, l.Completed, l.Transferred = r, c, tr
	}
	set(floor.Knitting, 1000, 500, 700)
	set(floor.Linking, 900, 950, 0)
	set(floor.Checking, 800, 600, 500)
	c := a.Ledger(floor.Checking)
	c.M1Quantity, c.M2Quantity, c.M3Quantity, c.M4Quantity = 600, 200, 100, 100
	c.M1Transferred = 550
	c.WrittenOff = 900
	set(floor.Washing, 1200, -3, 0)
	b := a.Ledger(floor.Boarding)
	b.M1Quantity = 5
	delete(a.FloorQuantities, floor.Branding)
	a.CurrentFloor = "Moon"
	a.Progress = 77
	return a
}

func TestRepairLedgersRestoresInvariants(t *testing.T) {
	a := corrupted(t)

	corrections := RepairLedgers(a)
	require.NotEmpty(t, corrections)
	assertConsistent(t, a)

	assert.Equal(t, floor.Knitting, a.CurrentFloor)
	assert.Contains(t, a.FloorQuantities, floor.Branding)
	assert.Equal(t, 500, a.FloorQuantities[floor.Knitting].Transferred)
	assert.Equal(t, 500, a.FloorQuantities[floor.Linking].Received)
	assert.Equal(t, 500, a.FloorQuantities[floor.Linking].Completed)
	assert.Equal(t, 0, a.FloorQuantities[floor.Checking].Received, "linking never transferred anything")
	assert.Zero(t, a.FloorQuantities[floor.Boarding].M1Quantity)
	assert.Zero(t, a.FloorQuantities[floor.Washing].Completed)
}

func TestRepairLedgersIsIdempotent(t *testing.T) {
	a := corrupted(t)
	RepairLedgers(a)
	snapshot := a.Clone()

	assert.Empty(t, RepairLedgers(a))
	assert.Equal(t, snapshot, a)
}

func TestRepairLedgersLeavesHealthyArticleAlone(t *testing.T) {
	a := newArticle(t, floor.HandLinking, 1000)
	_, err := UpdateProgress(a, floor.Knitting, ProgressUpdate{Completed: 1050}, now)
	require.NoError(t, err)
	_, err = UpdateProgress(a, floor.Linking, ProgressUpdate{Completed: 1050}, now)
	require.NoError(t, err)

	assert.Empty(t, RepairLedgers(a))
}

func TestRepairRaisesKnittingTransferredToWhatLinkingHolds(t *testing.T) {
	a := newArticle(t, floor.HandLinking, 100)
	k := a.Ledger(floor.Knitting)
	k.Completed, k.Transferred = 120, 90
	a.Ledger(floor.Linking).Received = 110

	RepairLedgers(a)

	assert.Equal(t, 110, k.Transferred)
	assert.Equal(t, 110, a.FloorQuantities[floor.Linking].Received)
	assertConsistent(t, a)
}

func TestRepairCapsKnittingDefects(t *testing.T) {
	a := newArticle(t, floor.AutoLinking, 100)
	k := a.Ledger(floor.Knitting)
	k.Completed, k.M4Quantity = 30, 45

	corrections := RepairLedgers(a)

	assert.Contains(t, corrections, Correction{Floor: floor.Knitting, Field: "m4Quantity", Previous: 45, New: 30, Reason: "defects exceed completed"})
	assert.Equal(t, 30, k.M4Quantity)
	assertConsistent(t, a)
}

func TestRepairScalesQualityBuckets(t *testing.T) {
	a := checkingWith(t, 100)
	c := a.Ledger(floor.Checking)
	c.M1Quantity, c.M2Quantity, c.M3Quantity, c.M4Quantity = 100, 50, 30, 20

	RepairLedgers(a)

	assert.Equal(t, 100, c.QualityTotal())
	assert.Equal(t, []int{50, 25, 15, 10}, []int{c.M1Quantity, c.M2Quantity, c.M3Quantity, c.M4Quantity})
}

func TestScaleDown(t *testing.T) {
	tests := []struct {
		in    [4]int
		limit int
		want  [4]int
	}{
		{[4]int{10, 10, 10, 0}, 40, [4]int{10, 10, 10, 0}},
		{[4]int{200, 100, 50, 50}, 200, [4]int{100, 50, 25, 25}},
		{[4]int{1, 1, 1, 0}, 2, [4]int{1, 1, 0, 0}},
		{[4]int{7, 0, 0, 0}, 0, [4]int{0, 0, 0, 0}},
		{[4]int{5, 3, 2, 1}, 7, [4]int{3, 2, 1, 1}},
	}
	for _, tt := range tests {
		got := scaleDown(tt.in, tt.limit)
		assert.Equal(t, tt.want, got, "scaleDown(%v, %d)", tt.in, tt.limit)
		sum := got[0] + got[1] + got[2] + got[3]
		assert.Equal(t, min(tt.limit, tt.in[0]+tt.in[1]+tt.in[2]+tt.in[3]), sum)
	}
}

func TestDiagnoseDoesNotMutate(t *testing.T) {
	a := corrupted(t)
	before := a.Clone()

	corrections := Diagnose(a)
	assert.NotEmpty(t, corrections)
	assert.Equal(t, before, a)
	for _, c := range corrections {
		assert.NotEmpty(t, c.String())
	}
}
