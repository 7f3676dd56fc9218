package ledger

import (
	"fmt"
	"sort"

	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

// Correction is one field rewritten by RepairLedgers.
type Correction struct {
	Floor    floor.Floor `json:"floor,omitempty"`
	Field    string      `json:"field"`
	Previous int         `json:"previous"`
	New      int         `json:"new"`
	Reason   string      `json:"reason"`
}

func (c Correction) String() string {
	return fmt.Sprintf("%s.%s %d -> %d (%s)", c.Floor, c.Field, c.Previous, c.New, c.Reason)
}

type repairer struct {
	out []Correction
}

func (r *repairer) set(f floor.Floor, field string, p *int, want int, reason string) {
	if *p == want {
		return
	}
	r.out = append(r.out, Correction{Floor: f, Field: field, Previous: *p, New: want, Reason: reason})
	*p = want
}

func (r *repairer) atLeastZero(f floor.Floor, field string, p *int) {
	if *p < 0 {
		r.set(f, field, p, 0, "negative quantity")
	}
}

// RepairLedgers brings the article's ledgers back in line with the ledger
// invariants and returns what it changed. It never fails: whatever state it
// is given, the result satisfies the invariants, and a second run on its
// output changes nothing.
//
// Floors are visited in sequence order so a clamp on one floor is seen by the
// cross-floor check of the next.
func RepairLedgers(a *models.Article) []Correction {
	seq, err := a.Floors()
	if err != nil {
		return nil
	}
	r := &repairer{}

	for _, f := range seq {
		if l, ok := a.FloorQuantities[f]; !ok || l == nil {
			a.Ledger(f)
			r.out = append(r.out, Correction{Floor: f, Field: "ledger", Reason: "missing ledger initialized"})
		}
	}
	if floor.Index(seq, a.CurrentFloor) < 0 {
		r.out = append(r.out, Correction{
			Field:    "currentFloor",
			Previous: -1,
			New:      0,
			Reason:   fmt.Sprintf("current floor %q is not part of the sequence, reset to %s", string(a.CurrentFloor), seq[0].Label()),
		})
		a.CurrentFloor = seq[0]
	}

	for i, f := range seq {
		l := a.Ledger(f)
		for _, fld := range []struct {
			name string
			p    *int
		}{
			{"received", &l.Received},
			{"completed", &l.Completed},
			{"transferred", &l.Transferred},
			{"m1Quantity", &l.M1Quantity},
			{"m2Quantity", &l.M2Quantity},
			{"m3Quantity", &l.M3Quantity},
			{"m4Quantity", &l.M4Quantity},
			{"m1Transferred", &l.M1Transferred},
			{"writtenOff", &l.WrittenOff},
		} {
			r.atLeastZero(f, fld.name, fld.p)
		}

		if i > 0 {
			r.crossFloor(seq[i-1], i-1 == 0, a.Ledger(seq[i-1]), f, l)
			if l.Completed > l.Received {
				r.set(f, "completed", &l.Completed, l.Received, "completed exceeds received")
			}
		}
		if l.Transferred > l.Completed {
			r.set(f, "transferred", &l.Transferred, l.Completed, "transferred exceeds completed")
		}

		if f.IsInspection() {
			r.inspection(f, l)
		} else if f != seq[0] {
			r.set(f, "m1Quantity", &l.M1Quantity, 0, "quality buckets only exist on inspection floors")
			r.set(f, "m2Quantity", &l.M2Quantity, 0, "quality buckets only exist on inspection floors")
			r.set(f, "m3Quantity", &l.M3Quantity, 0, "quality buckets only exist on inspection floors")
			r.set(f, "m4Quantity", &l.M4Quantity, 0, "quality buckets only exist on inspection floors")
			r.set(f, "m1Transferred", &l.M1Transferred, 0, "quality buckets only exist on inspection floors")
			r.set(f, "writtenOff", &l.WrittenOff, 0, "quality buckets only exist on inspection floors")
		} else if l.M4Quantity > l.Completed {
			r.set(f, "m4Quantity", &l.M4Quantity, l.Completed, "defects exceed completed")
		}

		r.set(f, "remaining", &l.Remaining, max(0, l.Received-l.Completed), "remaining recomputed as received - completed")
	}

	if p := CalculateProgress(a); p != a.Progress {
		r.out = append(r.out, Correction{Field: "progress", Previous: a.Progress, New: p, Reason: "progress recomputed"})
		a.Progress = p
	}
	return r.out
}

// crossFloor keeps received on floor f within what the previous floor has
// handed on. For the first floor the bound is its completed quantity; if the
// next floor already holds more than knitting recorded as transferred, the
// transferred counter is raised instead so the units are not sent twice.
func (r *repairer) crossFloor(prev floor.Floor, prevFirst bool, pl *models.FloorLedger, f floor.Floor, l *models.FloorLedger) {
	if prevFirst {
		if l.Received > pl.Completed {
			r.set(f, "received", &l.Received, pl.Completed,
				fmt.Sprintf("received exceeds %s completed", prev.Label()))
		}
		if l.Received > pl.Transferred {
			r.set(prev, "transferred", &pl.Transferred, l.Received,
				fmt.Sprintf("%s already received %d", f.Label(), l.Received))
		}
		return
	}
	if l.Received > pl.Transferred {
		r.set(f, "received", &l.Received, pl.Transferred,
			fmt.Sprintf("received exceeds %s transferred", prev.Label()))
	}
}

func (r *repairer) inspection(f floor.Floor, l *models.FloorLedger) {
	if total := l.QualityTotal(); total > l.Completed {
		scaled := scaleDown([4]int{l.M1Quantity, l.M2Quantity, l.M3Quantity, l.M4Quantity}, l.Completed)
		reason := fmt.Sprintf("quality total %d exceeds completed %d, scaled proportionally", total, l.Completed)
		r.set(f, "m1Quantity", &l.M1Quantity, scaled[0], reason)
		r.set(f, "m2Quantity", &l.M2Quantity, scaled[1], reason)
		r.set(f, "m3Quantity", &l.M3Quantity, scaled[2], reason)
		r.set(f, "m4Quantity", &l.M4Quantity, scaled[3], reason)
	}
	// Only M1 leaves an inspection floor, so both counters must agree.
	moved := min(l.Transferred, l.M1Transferred, l.M1Quantity)
	r.set(f, "m1Transferred", &l.M1Transferred, moved, "M1 transferred out of step with M1 and transferred")
	r.set(f, "transferred", &l.Transferred, moved, "transferred out of step with M1 transferred")
	if defects := l.M3Quantity + l.M4Quantity; l.WrittenOff > defects {
		r.set(f, "writtenOff", &l.WrittenOff, defects, "written off exceeds M3+M4")
	}
}

// scaleDown shrinks the buckets proportionally so they sum to exactly limit,
// using largest-remainder rounding. No bucket grows.
func scaleDown(b [4]int, limit int) [4]int {
	total := 0
	for _, v := range b {
		total += v
	}
	if total <= limit || total == 0 {
		return b
	}
	var (
		out  [4]int
		rems [4]int64
		sum  int
	)
	for i, v := range b {
		n := int64(v) * int64(limit)
		out[i] = int(n / int64(total))
		rems[i] = n % int64(total)
		sum += out[i]
	}
	order := []int{0, 1, 2, 3}
	sort.SliceStable(order, func(x, y int) bool { return rems[order[x]] > rems[order[y]] })
	for _, i := range order {
		if sum >= limit {
			break
		}
		if rems[i] > 0 {
			out[i]++
			sum++
		}
	}
	return out
}

// Diagnose reports what RepairLedgers would change without touching a.
func Diagnose(a *models.Article) []Correction {
	return RepairLedgers(a.Clone())
}
