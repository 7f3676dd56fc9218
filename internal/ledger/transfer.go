package ledger

import (
	"errors"
	"fmt"

	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

// TransferResult describes one hop of quantity between adjacent floors.
type TransferResult struct {
	FromFloor floor.Floor `json:"fromFloor"`
	ToFloor   floor.Floor `json:"toFloor"`
	Quantity  int         `json:"quantity"`
}

// Transferable returns how much of f can be forwarded right now.
//
// On inspection floors only good units move: the forwardable amount is
// m1 - m1Transferred, and only once every completed unit is categorized.
// Everywhere else it is completed - transferred; on the first floor that
// includes any overproduction above received.
func Transferable(a *models.Article, f floor.Floor) (int, error) {
	_, l, err := resolve(a, f)
	if err != nil {
		return 0, err
	}
	return transferable(f, l)
}

func transferable(f floor.Floor, l *models.FloorLedger) (int, error) {
	if f.IsInspection() {
		if total := l.QualityTotal(); total != l.Completed {
			return 0, newError(KindQualityInspectionIncomplete, f, l.Completed, total,
				"quality inspection on %s is incomplete: %d of %d completed units categorized", f.Label(), total, l.Completed)
		}
		return l.M1Quantity - l.M1Transferred, nil
	}
	return l.Completed - l.Transferred, nil
}

// TransferForward moves quantity from one floor into the next floor's
// received bucket. With explicit == nil everything forwardable moves.
// Received on the destination is always increased additively.
func TransferForward(a *models.Article, from floor.Floor, explicit *int) (TransferResult, []Change, error) {
	seq, l, err := resolve(a, from)
	if err != nil {
		return TransferResult{}, nil, err
	}
	to, ok := floor.Next(seq, from)
	if !ok {
		return TransferResult{}, nil, newError(KindNoNextFloor, from, 0, 0, "%s is the last floor, nothing comes after it", from.Label())
	}

	available, err := transferable(from, l)
	if err != nil {
		return TransferResult{}, nil, err
	}
	if available <= 0 {
		return TransferResult{}, nil, newError(KindNothingToTransfer, from, 0, 0,
			"no completed work on %s is waiting to be transferred", from.Label())
	}

	qty := available
	if explicit != nil {
		if *explicit <= 0 {
			return TransferResult{}, nil, newError(KindInvalidQuantity, from, 0, *explicit,
				"transfer quantity must be positive (got %d)", *explicit)
		}
		if *explicit > available {
			return TransferResult{}, nil, newError(KindTransferExceedsAvailable, from, available, *explicit,
				"cannot transfer %d from %s, only %d available", *explicit, from.Label(), available)
		}
		qty = *explicit
	}

	l.Transferred += qty
	if from.IsInspection() {
		l.M1Transferred += qty
	}
	l.RecomputeRemaining()

	dst := a.Ledger(to)
	prevReceived := dst.Received
	dst.Received += qty
	dst.RecomputeRemaining()

	res := TransferResult{FromFloor: from, ToFloor: to, Quantity: qty}
	changes := []Change{{
		Action:   models.ActionTransferred,
		Floor:    from,
		ToFloor:  to,
		Field:    "received",
		Quantity: qty,
		Previous: prevReceived,
		New:      dst.Received,
		Remarks: fmt.Sprintf("%s transferred %d/%d completed, remaining %d; %s received %d, remaining %d",
			from.Label(), l.Transferred, l.Completed, l.Remaining, to.Label(), dst.Received, dst.Remaining),
	}}
	changes = append(changes, AdvanceCurrentFloor(a)...)
	return res, changes, nil
}

// AdvanceCurrentFloor moves the article's current-floor pointer forward for
// as long as the floor it points at has no outstanding work.
func AdvanceCurrentFloor(a *models.Article) []Change {
	seq, err := a.Floors()
	if err != nil {
		return nil
	}
	var changes []Change
	for {
		cur := a.CurrentFloor
		next, ok := floor.Next(seq, cur)
		if !ok || !floorDone(cur, cur == seq[0], a.Ledger(cur)) {
			return changes
		}
		a.CurrentFloor = next
		enterFloor(a, next)
		changes = append(changes, Change{
			Action:  models.ActionFloorAdvanced,
			Floor:   cur,
			ToFloor: next,
			Field:   "currentFloor",
			Remarks: fmt.Sprintf("article moved from %s to %s", cur.Label(), next.Label()),
		})
	}
}

// floorDone reports whether everything that reached f has been finished and
// handed on (or, on inspection floors, disposed of).
func floorDone(f floor.Floor, first bool, l *models.FloorLedger) bool {
	if l.Received == 0 && !(first && l.Completed > 0) {
		return false
	}
	if l.Completed < l.Received {
		return false
	}
	if f.IsInspection() {
		return l.QualityTotal() == l.Completed &&
			l.M1Transferred == l.M1Quantity &&
			l.M2Quantity == 0 &&
			l.M3Quantity+l.M4Quantity <= l.WrittenOff
	}
	return l.Transferred == l.Completed
}

// enterFloor resets bookkeeping when the article arrives on f.
func enterFloor(a *models.Article, f floor.Floor) {
	if a.Status == models.ArticleStatusPending {
		a.Status = models.ArticleStatusInProgress
	}
	if f.IsInspection() {
		return
	}
	l := a.Ledger(f)
	l.M1Quantity, l.M2Quantity, l.M3Quantity, l.M4Quantity = 0, 0, 0, 0
	l.M1Transferred, l.WrittenOff = 0, 0
	l.RepairStatus, l.RepairRemarks = models.RepairStatusNone, ""
}

// Cascade forwards outstanding work on every floor before upTo, earliest
// first. Supervisors can update an older floor after the article moved on;
// this catches those units up.
func Cascade(a *models.Article, upTo floor.Floor) ([]TransferResult, []Change, error) {
	seq, err := a.Floors()
	if err != nil {
		return nil, nil, newError(KindUnknownLinkingType, "", 0, 0, "article %d: %v", a.ID, err)
	}
	end := floor.Index(seq, upTo)
	if end < 0 {
		return nil, nil, newError(KindInvalidFloor, upTo, 0, 0, "floor %q is not part of the %s sequence", string(upTo), a.LinkingType)
	}

	var (
		results []TransferResult
		changes []Change
	)
	for _, f := range seq[:end] {
		res, ch, err := autoTransfer(a, f)
		if err != nil {
			return results, changes, err
		}
		if res != nil {
			results = append(results, *res)
			changes = append(changes, ch...)
		}
	}
	return results, changes, nil
}

// autoTransfer forwards whatever f has ready. Having nothing ready, an
// unfinished inspection or sitting on the last floor are not failures here.
func autoTransfer(a *models.Article, f floor.Floor) (*TransferResult, []Change, error) {
	res, changes, err := TransferForward(a, f, nil)
	switch {
	case err == nil:
		return &res, changes, nil
	case errors.Is(err, ErrNothingToTransfer),
		errors.Is(err, ErrQualityInspectionIncomplete),
		errors.Is(err, ErrNoNextFloor):
		return nil, nil, nil
	default:
		return nil, nil, err
	}
}
