package ledger

import (
	"math"

	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

// QuantityUpdate is the outcome of a completed-quantity update on one floor.
type QuantityUpdate struct {
	Floor    floor.Floor `json:"floor"`
	Previous int         `json:"previous"`
	New      int         `json:"new"`
	Delta    int         `json:"delta"`
}

// ResolveCompleted turns a reported value into the new absolute completed
// total. Callers send both increments and running totals: a value below the
// current total is an increment, anything else is the new total.
func ResolveCompleted(current, value int) int {
	if value < current {
		return current + value
	}
	return value
}

const (
	// MaxQuantity bounds every quantity a ledger holds.
	MaxQuantity = math.MaxInt32
	// OverproductionFactor caps first-floor output at this multiple of what
	// the floor received.
	OverproductionFactor = 10
)

// OverproductionCeiling is the most the first floor may complete.
func OverproductionCeiling(received int) int {
	if received > MaxQuantity/OverproductionFactor {
		return MaxQuantity
	}
	return received * OverproductionFactor
}

// ApplyCompletedQuantity records completed work on f. Only the first floor
// of the sequence may report more than it received (machine overproduction),
// up to OverproductionCeiling.
func ApplyCompletedQuantity(a *models.Article, f floor.Floor, value int) (QuantityUpdate, []Change, error) {
	seq, l, err := resolve(a, f)
	if err != nil {
		return QuantityUpdate{}, nil, err
	}
	if value < 0 {
		return QuantityUpdate{}, nil, newError(KindInvalidQuantity, f, 0, value,
			"completed quantity on %s cannot be negative (got %d)", f.Label(), value)
	}

	if value > MaxQuantity {
		return QuantityUpdate{}, nil, newError(KindInvalidQuantity, f, MaxQuantity, value,
			"completed quantity %d on %s is out of range", value, f.Label())
	}

	next := ResolveCompleted(l.Completed, value)
	if seq[0] != f && next > l.Received {
		return QuantityUpdate{}, nil, newError(KindQuantityExceedsReceived, f, l.Received, next,
			"completed quantity %d on %s exceeds received quantity %d", next, f.Label(), l.Received)
	}
	if ceiling := OverproductionCeiling(l.Received); seq[0] == f && next > ceiling {
		return QuantityUpdate{}, nil, newError(KindInvalidQuantity, f, ceiling, next,
			"completed quantity %d on %s exceeds %d times the received quantity %d",
			next, f.Label(), OverproductionFactor, l.Received)
	}

	upd := QuantityUpdate{Floor: f, Previous: l.Completed, New: next, Delta: next - l.Completed}
	l.Completed = next
	l.RecomputeRemaining()

	if upd.Delta == 0 {
		return upd, nil, nil
	}
	return upd, []Change{{
		Action:   models.ActionQuantityUpdated,
		Floor:    f,
		Field:    "completed",
		Quantity: upd.Delta,
		Previous: upd.Previous,
		New:      upd.New,
	}}, nil
}

// RecordDefects replaces the knitting defect counter. It never exceeds
// knitting's completed quantity.
func RecordDefects(a *models.Article, f floor.Floor, defects int) ([]Change, error) {
	_, l, err := resolve(a, f)
	if err != nil {
		return nil, err
	}
	if err := validateDefects(f, defects, l.Completed); err != nil {
		return nil, err
	}
	if l.M4Quantity == defects {
		return nil, nil
	}
	prev := l.M4Quantity
	l.M4Quantity = defects
	return []Change{{
		Action:   models.ActionDefectsRecorded,
		Floor:    f,
		Field:    "m4Quantity",
		Quantity: defects - prev,
		Previous: prev,
		New:      defects,
	}}, nil
}

func validateDefects(f floor.Floor, defects, completed int) error {
	if f != floor.Knitting {
		return newError(KindInvalidFloor, f, 0, 0, "defect counts are only kept on Knitting, not %s", f.Label())
	}
	if defects < 0 {
		return newError(KindInvalidQuantity, f, 0, defects, "defect count cannot be negative (got %d)", defects)
	}
	if defects > completed {
		return newError(KindInvalidQuantity, f, completed, defects,
			"defect count %d exceeds completed quantity %d on %s", defects, completed, f.Label())
	}
	return nil
}
