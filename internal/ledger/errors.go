// Package ledger implements the per-floor quantity ledger of an article: the
// completed-quantity processor, quality categorization, floor-to-floor
// transfers, progress and invariant repair. Everything here works on an
// in-memory models.Article and performs no I/O; callers persist the article
// and turn the returned []Change into audit rows.
package ledger

import (
	"fmt"

	"textile-backend/internal/floor"
)

// Kind is the machine-readable class of a rejected operation.
type Kind string

const (
	// validation
	KindInvalidFloor             Kind = "InvalidFloor"
	KindInvalidQuantity          Kind = "InvalidQuantity"
	KindQuantityExceedsReceived  Kind = "QuantityExceedsReceived"
	KindInvalidFloorForQuality   Kind = "InvalidFloorForQuality"
	KindQualityExceedsCapacity   Kind = "QualityExceedsCapacity"
	KindQualityBelowTransferred  Kind = "QualityBelowTransferred"
	KindInvalidRepairStatus      Kind = "InvalidRepairStatus"
	KindShiftMismatch            Kind = "ShiftMismatch"
	KindTransferExceedsAvailable Kind = "TransferExceedsAvailable"
	KindUnknownLinkingType       Kind = "UnknownLinkingType"

	// state
	KindNoNextFloor                 Kind = "NoNextFloor"
	KindNothingToTransfer           Kind = "NothingToTransfer"
	KindNothingToWriteOff           Kind = "NothingToWriteOff"
	KindQualityInspectionIncomplete Kind = "QualityInspectionIncomplete"
	KindFinalQualityNotReady        Kind = "FinalQualityNotReady"
)

// IsValidation reports whether the kind is caused by bad input, as opposed
// to an operation that is not allowed in the article's current state.
func (k Kind) IsValidation() bool {
	switch k {
	case KindNoNextFloor, KindNothingToTransfer, KindNothingToWriteOff,
		KindQualityInspectionIncomplete, KindFinalQualityNotReady:
		return false
	}
	return true
}

// Error is returned for every rejected ledger operation. The article is left
// untouched whenever an Error is returned.
type Error struct {
	Kind   Kind
	Floor  floor.Floor
	Limit  int
	Actual int
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Floor != "" {
		return fmt.Sprintf("%s on %s", e.Kind, e.Floor.Label())
	}
	return string(e.Kind)
}

// Is matches on Kind only, so errors.Is(err, ErrShiftMismatch) works for any
// floor and bound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidFloor                = &Error{Kind: KindInvalidFloor}
	ErrInvalidQuantity             = &Error{Kind: KindInvalidQuantity}
	ErrQuantityExceedsReceived     = &Error{Kind: KindQuantityExceedsReceived}
	ErrInvalidFloorForQuality      = &Error{Kind: KindInvalidFloorForQuality}
	ErrQualityExceedsCapacity      = &Error{Kind: KindQualityExceedsCapacity}
	ErrQualityBelowTransferred     = &Error{Kind: KindQualityBelowTransferred}
	ErrInvalidRepairStatus         = &Error{Kind: KindInvalidRepairStatus}
	ErrShiftMismatch               = &Error{Kind: KindShiftMismatch}
	ErrTransferExceedsAvailable    = &Error{Kind: KindTransferExceedsAvailable}
	ErrUnknownLinkingType          = &Error{Kind: KindUnknownLinkingType}
	ErrNoNextFloor                 = &Error{Kind: KindNoNextFloor}
	ErrNothingToTransfer           = &Error{Kind: KindNothingToTransfer}
	ErrNothingToWriteOff           = &Error{Kind: KindNothingToWriteOff}
	ErrQualityInspectionIncomplete = &Error{Kind: KindQualityInspectionIncomplete}
	ErrFinalQualityNotReady        = &Error{Kind: KindFinalQualityNotReady}
)

func newError(kind Kind, f floor.Floor, limit, actual int, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		Floor:  f,
		Limit:  limit,
		Actual: actual,
		Msg:    fmt.Sprintf(format, args...),
	}
}
