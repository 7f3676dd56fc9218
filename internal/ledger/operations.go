package ledger

import (
	"fmt"
	"time"

	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

// Outcome collects everything a floor operation did to an article.
type Outcome struct {
	Changes       []Change             `json:"-"`
	Transfers     []TransferResult     `json:"transfers"`
	Quantity      *QuantityUpdate      `json:"quantity,omitempty"`
	PreviousQC    *QualitySnapshot     `json:"previousQuality,omitempty"`
	PreviousFloor floor.Floor          `json:"previousFloor"`
	CurrentFloor  floor.Floor          `json:"currentFloor"`
	Progress      int                  `json:"progress"`
	Status        models.ArticleStatus `json:"status"`
}

// Advanced reports whether the article's current floor moved.
func (o *Outcome) Advanced() bool {
	return o.PreviousFloor != o.CurrentFloor
}

func (o *Outcome) addTransfer(res TransferResult, changes []Change) {
	o.Transfers = append(o.Transfers, res)
	o.Changes = append(o.Changes, changes...)
}

// InitArticle prepares a new article: every floor of its sequence gets a
// zeroed ledger, the first floor receives the planned quantity and the
// article starts there as Pending.
func InitArticle(a *models.Article) ([]Change, error) {
	if a.PlannedQuantity <= 0 || a.PlannedQuantity > MaxQuantity {
		return nil, newError(KindInvalidQuantity, "", MaxQuantity, a.PlannedQuantity,
			"planned quantity must be between 1 and %d (got %d)", MaxQuantity, a.PlannedQuantity)
	}
	seq, err := a.Floors()
	if err != nil {
		return nil, newError(KindUnknownLinkingType, "", 0, 0, "article %s: %v", a.ArticleNumber, err)
	}
	a.FloorQuantities = make(models.FloorQuantities, len(seq))
	for _, f := range seq {
		a.Ledger(f)
	}
	first := a.Ledger(seq[0])
	first.Received = a.PlannedQuantity
	first.RecomputeRemaining()
	a.CurrentFloor = seq[0]
	a.Status = models.ArticleStatusPending
	a.Progress = 0
	return []Change{{
		Action:   models.ActionArticleCreated,
		Floor:    seq[0],
		Field:    "received",
		Quantity: a.PlannedQuantity,
		New:      a.PlannedQuantity,
		Remarks:  fmt.Sprintf("%s route: %s", a.LinkingType, floor.Describe(seq)),
	}}, nil
}

// ProgressUpdate is the payload of a completed-quantity report.
type ProgressUpdate struct {
	Completed int
	// Defects replaces the knitting defect counter when set.
	Defects *int
}

// UpdateProgress applies a completed-quantity report to f, forwards the new
// work, catches up earlier floors and refreshes progress and status.
func UpdateProgress(a *models.Article, f floor.Floor, in ProgressUpdate, now time.Time) (*Outcome, error) {
	if in.Defects != nil {
		_, l, err := resolve(a, f)
		if err != nil {
			return nil, err
		}
		if err := validateDefects(f, *in.Defects, ResolveCompleted(l.Completed, in.Completed)); err != nil {
			return nil, err
		}
	}
	out := &Outcome{PreviousFloor: a.CurrentFloor}

	upd, changes, err := ApplyCompletedQuantity(a, f, in.Completed)
	if err != nil {
		return nil, err
	}
	out.Quantity = &upd
	out.Changes = append(out.Changes, changes...)

	if in.Defects != nil {
		changes, err := RecordDefects(a, f, *in.Defects)
		if err != nil {
			return nil, err
		}
		out.Changes = append(out.Changes, changes...)
	}

	RecomputeProgress(a)
	if err := forward(a, f, out); err != nil {
		return nil, err
	}
	return finish(a, out, now), nil
}

// Transfer is the manual transfer trigger for f. Unlike the automatic
// forwarding done by the other operations it reports why nothing moved.
func Transfer(a *models.Article, f floor.Floor, quantity *int, now time.Time) (*Outcome, error) {
	out := &Outcome{PreviousFloor: a.CurrentFloor}
	res, changes, err := TransferForward(a, f, quantity)
	if err != nil {
		return nil, err
	}
	out.addTransfer(res, changes)
	if err := cascade(a, f, out); err != nil {
		return nil, err
	}
	return finish(a, out, now), nil
}

// QualityInspection records M1-M4 categories on an inspection floor and
// forwards newly approved M1 units when the inspection is complete.
func QualityInspection(a *models.Article, f floor.Floor, in QualityInput, now time.Time) (*Outcome, error) {
	out := &Outcome{PreviousFloor: a.CurrentFloor}
	prev, changes, err := ApplyQualityCategories(a, f, in)
	if err != nil {
		return nil, err
	}
	out.PreviousQC = &prev
	out.Changes = append(out.Changes, changes...)
	if err := forward(a, f, out); err != nil {
		return nil, err
	}
	return finish(a, out, now), nil
}

// ShiftM2 moves reworked M2 units and forwards any that became M1.
func ShiftM2(a *models.Article, f floor.Floor, in ShiftInput, now time.Time) (*Outcome, error) {
	out := &Outcome{PreviousFloor: a.CurrentFloor}
	changes, err := ShiftM2Items(a, f, in)
	if err != nil {
		return nil, err
	}
	out.Changes = append(out.Changes, changes...)
	if err := forward(a, f, out); err != nil {
		return nil, err
	}
	return finish(a, out, now), nil
}

// WriteOff disposes of pending M3/M4 units on an inspection floor.
func WriteOff(a *models.Article, f floor.Floor, now time.Time) (*Outcome, error) {
	out := &Outcome{PreviousFloor: a.CurrentFloor}
	changes, err := WriteOffDefects(a, f)
	if err != nil {
		return nil, err
	}
	out.Changes = append(out.Changes, changes...)
	return finish(a, out, now), nil
}

// ConfirmFinal sets the final quality flag.
func ConfirmFinal(a *models.Article, f floor.Floor, now time.Time) (*Outcome, error) {
	out := &Outcome{PreviousFloor: a.CurrentFloor}
	changes, err := ConfirmFinalQuality(a, f)
	if err != nil {
		return nil, err
	}
	out.Changes = append(out.Changes, changes...)
	return finish(a, out, now), nil
}

func forward(a *models.Article, f floor.Floor, out *Outcome) error {
	res, changes, err := autoTransfer(a, f)
	if err != nil {
		return err
	}
	if res != nil {
		out.addTransfer(*res, changes)
	}
	return cascade(a, f, out)
}

func cascade(a *models.Article, f floor.Floor, out *Outcome) error {
	results, changes, err := Cascade(a, f)
	if err != nil {
		return err
	}
	out.Transfers = append(out.Transfers, results...)
	out.Changes = append(out.Changes, changes...)
	return nil
}

func finish(a *models.Article, out *Outcome, now time.Time) *Outcome {
	out.Changes = append(out.Changes, AdvanceCurrentFloor(a)...)
	RefreshStatus(a, now)
	RecomputeProgress(a)
	out.CurrentFloor = a.CurrentFloor
	out.Progress = a.Progress
	out.Status = a.Status
	return out
}

// RefreshStatus moves the article through Pending, In Progress and
// Completed. It never moves backwards.
func RefreshStatus(a *models.Article, now time.Time) {
	if a.Status == "" {
		a.Status = models.ArticleStatusPending
	}
	if a.Status == models.ArticleStatusPending && anyCompleted(a) {
		a.Status = models.ArticleStatusInProgress
	}
	if a.Status == models.ArticleStatusInProgress && a.StartedAt == nil {
		t := now
		a.StartedAt = &t
	}
	if a.Status != models.ArticleStatusCompleted && lastFloorDone(a) {
		a.Status = models.ArticleStatusCompleted
		t := now
		a.CompletedAt = &t
	}
}

func anyCompleted(a *models.Article) bool {
	for _, l := range a.FloorQuantities {
		if l != nil && l.Completed > 0 {
			return true
		}
	}
	return false
}

func lastFloorDone(a *models.Article) bool {
	seq, err := a.Floors()
	if err != nil || len(seq) == 0 {
		return false
	}
	last := seq[len(seq)-1]
	if a.CurrentFloor != last {
		return false
	}
	l := a.Ledger(last)
	return l.Received > 0 && l.Completed >= l.Received
}
