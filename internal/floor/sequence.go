package floor

import (
	"errors"
	"fmt"
	"strings"
)

// LinkingType decides which floors an article visits.
type LinkingType string

const (
	// AutoLinking articles are linked on the knitting machine and skip the
	// Linking floor.
	AutoLinking  LinkingType = "Auto Linking"
	RossoLinking LinkingType = "Rosso Linking"
	HandLinking  LinkingType = "Hand Linking"
)

// ErrUnknownLinkingType is returned for linking types outside the enumeration.
var ErrUnknownLinkingType = errors.New("unknown linking type")

var withoutLinking = []Floor{
	Knitting,
	Checking,
	Washing,
	Boarding,
	FinalChecking,
	Branding,
	Warehouse,
	Dispatch,
}

// ParseLinkingType accepts any casing and separator style.
func ParseLinkingType(s string) (LinkingType, error) {
	switch normalize(s) {
	case "autolinking", "auto":
		return AutoLinking, nil
	case "rossolinking", "rosso":
		return RossoLinking, nil
	case "handlinking", "hand":
		return HandLinking, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLinkingType, s)
}

// Valid reports whether lt is one of the known linking types.
func (lt LinkingType) Valid() bool {
	switch lt {
	case AutoLinking, RossoLinking, HandLinking:
		return true
	}
	return false
}

// Sequence returns the ordered floors for lt. The returned slice is a copy.
func Sequence(lt LinkingType) ([]Floor, error) {
	var src []Floor
	switch lt {
	case AutoLinking:
		src = withoutLinking
	case RossoLinking, HandLinking:
		src = All
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLinkingType, string(lt))
	}
	out := make([]Floor, len(src))
	copy(out, src)
	return out, nil
}

// Index returns the position of f in seq, or -1.
func Index(seq []Floor, f Floor) int {
	for i, s := range seq {
		if s == f {
			return i
		}
	}
	return -1
}

// Next returns the floor after f in seq. ok is false at the terminal floor or
// when f is not part of seq.
func Next(seq []Floor, f Floor) (Floor, bool) {
	i := Index(seq, f)
	if i < 0 || i+1 >= len(seq) {
		return "", false
	}
	return seq[i+1], true
}

// Previous returns the floor before f in seq.
func Previous(seq []Floor, f Floor) (Floor, bool) {
	i := Index(seq, f)
	if i <= 0 {
		return "", false
	}
	return seq[i-1], true
}

// Describe renders a sequence as "Knitting → Checking → ...".
func Describe(seq []Floor) string {
	parts := make([]string, len(seq))
	for i, f := range seq {
		parts[i] = f.Label()
	}
	return strings.Join(parts, " → ")
}
