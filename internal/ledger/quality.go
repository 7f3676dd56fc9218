package ledger

import (
	"fmt"

	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

// QualityInput carries the categories reported by an inspector. Nil fields
// are left as they are; supplied values replace the live bucket.
type QualityInput struct {
	M1            *int                 `json:"m1Quantity"`
	M2            *int                 `json:"m2Quantity"`
	M3            *int                 `json:"m3Quantity"`
	M4            *int                 `json:"m4Quantity"`
	RepairStatus  *models.RepairStatus `json:"repairStatus"`
	RepairRemarks *string              `json:"repairRemarks"`
}

// QualitySnapshot is the categorization state of one inspection floor.
type QualitySnapshot struct {
	M1            int                 `json:"m1Quantity"`
	M2            int                 `json:"m2Quantity"`
	M3            int                 `json:"m3Quantity"`
	M4            int                 `json:"m4Quantity"`
	RepairStatus  models.RepairStatus `json:"repairStatus"`
	RepairRemarks string              `json:"repairRemarks"`
}

func (s QualitySnapshot) Total() int { return s.M1 + s.M2 + s.M3 + s.M4 }

func snapshotOf(l *models.FloorLedger) QualitySnapshot {
	return QualitySnapshot{
		M1:            l.M1Quantity,
		M2:            l.M2Quantity,
		M3:            l.M3Quantity,
		M4:            l.M4Quantity,
		RepairStatus:  l.RepairStatus,
		RepairRemarks: l.RepairRemarks,
	}
}

// ShiftInput moves repaired M2 units into the other grades.
type ShiftInput struct {
	FromM2 int `json:"fromM2"`
	ToM1   int `json:"toM1"`
	ToM3   int `json:"toM3"`
	ToM4   int `json:"toM4"`
}

var bucketFields = [4]string{"m1Quantity", "m2Quantity", "m3Quantity", "m4Quantity"}

// ApplyQualityCategories replaces the M1-M4 buckets of an inspection floor.
// The new total may not exceed the floor's completed quantity, and M1 may
// not drop below what has already been forwarded. It returns the snapshot
// from before the update.
func ApplyQualityCategories(a *models.Article, f floor.Floor, in QualityInput) (QualitySnapshot, []Change, error) {
	_, l, err := resolveInspection(a, f)
	if err != nil {
		return QualitySnapshot{}, nil, err
	}

	prev := snapshotOf(l)
	next := prev
	for _, v := range []struct {
		in  *int
		dst *int
		tag string
	}{
		{in.M1, &next.M1, "M1"},
		{in.M2, &next.M2, "M2"},
		{in.M3, &next.M3, "M3"},
		{in.M4, &next.M4, "M4"},
	} {
		if v.in == nil {
			continue
		}
		if *v.in < 0 {
			return QualitySnapshot{}, nil, newError(KindInvalidQuantity, f, 0, *v.in,
				"%s quantity cannot be negative (got %d)", v.tag, *v.in)
		}
		*v.dst = *v.in
	}
	if in.RepairStatus != nil {
		if !in.RepairStatus.Valid() {
			return QualitySnapshot{}, nil, newError(KindInvalidRepairStatus, f, 0, 0,
				"unknown repair status %q", string(*in.RepairStatus))
		}
		next.RepairStatus = *in.RepairStatus
	}
	if in.RepairRemarks != nil {
		next.RepairRemarks = *in.RepairRemarks
	}

	if total := next.Total(); total > l.Completed {
		return QualitySnapshot{}, nil, newError(KindQualityExceedsCapacity, f, l.Completed, total,
			"quality total %d on %s exceeds completed quantity %d", total, f.Label(), l.Completed)
	}
	if next.M1 < l.M1Transferred {
		return QualitySnapshot{}, nil, newError(KindQualityBelowTransferred, f, l.M1Transferred, next.M1,
			"M1 quantity %d on %s is below the %d units already transferred", next.M1, f.Label(), l.M1Transferred)
	}

	l.M1Quantity, l.M2Quantity, l.M3Quantity, l.M4Quantity = next.M1, next.M2, next.M3, next.M4
	l.RepairStatus = next.RepairStatus
	l.RepairRemarks = next.RepairRemarks
	if defects := l.M3Quantity + l.M4Quantity; l.WrittenOff > defects {
		l.WrittenOff = defects
	}

	changes := bucketChanges(f, prev, next)
	changes = append(changes, Change{
		Action:   models.ActionQualityInspection,
		Floor:    f,
		Quantity: next.Total() - prev.Total(),
		Previous: prev.Total(),
		New:      next.Total(),
		Remarks: fmt.Sprintf("M1=%d M2=%d M3=%d M4=%d repair=%q %s",
			next.M1, next.M2, next.M3, next.M4, string(next.RepairStatus), next.RepairRemarks),
	})
	return prev, changes, nil
}

// ShiftM2Items redistributes reworked M2 units. The shifted amount must be
// available in M2 and must be fully accounted for by the destinations.
func ShiftM2Items(a *models.Article, f floor.Floor, in ShiftInput) ([]Change, error) {
	_, l, err := resolveInspection(a, f)
	if err != nil {
		return nil, err
	}
	if in.FromM2 <= 0 || in.ToM1 < 0 || in.ToM3 < 0 || in.ToM4 < 0 {
		return nil, newError(KindInvalidQuantity, f, 0, in.FromM2,
			"shift quantities must be non-negative and fromM2 must be positive")
	}
	if in.FromM2 > l.M2Quantity {
		return nil, newError(KindShiftMismatch, f, l.M2Quantity, in.FromM2,
			"cannot shift %d units out of M2, only %d available on %s", in.FromM2, l.M2Quantity, f.Label())
	}
	if to := in.ToM1 + in.ToM3 + in.ToM4; to != in.FromM2 {
		return nil, newError(KindShiftMismatch, f, in.FromM2, to,
			"shift destinations total %d but %d units leave M2", to, in.FromM2)
	}

	prev := snapshotOf(l)
	l.M2Quantity -= in.FromM2
	l.M1Quantity += in.ToM1
	l.M3Quantity += in.ToM3
	l.M4Quantity += in.ToM4

	changes := bucketChanges(f, prev, snapshotOf(l))
	changes = append(changes, Change{
		Action:   models.ActionM2Shifted,
		Floor:    f,
		Field:    "m2Quantity",
		Quantity: in.FromM2,
		Previous: prev.M2,
		New:      l.M2Quantity,
		Remarks:  fmt.Sprintf("M2 -%d: M1 +%d, M3 +%d, M4 +%d", in.FromM2, in.ToM1, in.ToM3, in.ToM4),
	})
	return changes, nil
}

// WriteOffDefects marks the current M3 and M4 units of f as disposed so
// they no longer hold the article on this floor.
func WriteOffDefects(a *models.Article, f floor.Floor) ([]Change, error) {
	_, l, err := resolveInspection(a, f)
	if err != nil {
		return nil, err
	}
	defects := l.M3Quantity + l.M4Quantity
	pending := defects - l.WrittenOff
	if pending <= 0 {
		return nil, newError(KindNothingToWriteOff, f, 0, 0, "no M3/M4 units pending disposition on %s", f.Label())
	}
	prev := l.WrittenOff
	l.WrittenOff = defects
	return []Change{{
		Action:   models.ActionDefectsWrittenOff,
		Floor:    f,
		Field:    "writtenOff",
		Quantity: pending,
		Previous: prev,
		New:      defects,
	}}, nil
}

// ConfirmFinalQuality sets the article's final quality flag once every
// completed unit on Final Checking has been categorized.
func ConfirmFinalQuality(a *models.Article, f floor.Floor) ([]Change, error) {
	if f != floor.FinalChecking {
		return nil, newError(KindInvalidFloorForQuality, f, 0, 0,
			"final quality can only be confirmed on Final Checking, not %s", f.Label())
	}
	_, l, err := resolve(a, f)
	if err != nil {
		return nil, err
	}
	total := l.QualityTotal()
	if l.Completed == 0 || total != l.Completed {
		return nil, newError(KindFinalQualityNotReady, f, l.Completed, total,
			"final quality needs all %d completed units categorized, %d are", l.Completed, total)
	}
	if a.FinalQualityConfirmed {
		return nil, nil
	}
	a.FinalQualityConfirmed = true
	return []Change{{
		Action:   models.ActionFinalQualityConfirmed,
		Floor:    f,
		Quantity: l.M1Quantity,
		Previous: 0,
		New:      1,
		Remarks:  fmt.Sprintf("M1=%d M2=%d M3=%d M4=%d", l.M1Quantity, l.M2Quantity, l.M3Quantity, l.M4Quantity),
	}}, nil
}

func bucketChanges(f floor.Floor, prev, next QualitySnapshot) []Change {
	pairs := [][2]int{{prev.M1, next.M1}, {prev.M2, next.M2}, {prev.M3, next.M3}, {prev.M4, next.M4}}
	var out []Change
	for i, p := range pairs {
		if p[0] == p[1] {
			continue
		}
		out = append(out, Change{
			Action:   models.ActionQualityCategory,
			Floor:    f,
			Field:    bucketFields[i],
			Quantity: p[1] - p[0],
			Previous: p[0],
			New:      p[1],
		})
	}
	return out
}
