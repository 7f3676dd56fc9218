// Package floor holds the closed set of production floors an article moves
// through and resolves the ordered floor sequence for each linking type.
package floor

import (
	"fmt"
	"strings"
)

// Floor is a production stage. The string value doubles as the ledger key
// inside Article.FloorQuantities.
type Floor string

const (
	Knitting      Floor = "knitting"
	Linking       Floor = "linking"
	Checking      Floor = "checking"
	Washing       Floor = "washing"
	Boarding      Floor = "boarding"
	FinalChecking Floor = "finalChecking"
	Branding      Floor = "branding"
	Warehouse     Floor = "warehouse"
	Dispatch      Floor = "dispatch"
)

// All lists every floor in full-sequence order.
var All = []Floor{
	Knitting,
	Linking,
	Checking,
	Washing,
	Boarding,
	FinalChecking,
	Branding,
	Warehouse,
	Dispatch,
}

var labels = map[Floor]string{
	Knitting:      "Knitting",
	Linking:       "Linking",
	Checking:      "Checking",
	Washing:       "Washing",
	Boarding:      "Boarding",
	FinalChecking: "Final Checking",
	Branding:      "Branding",
	Warehouse:     "Warehouse",
	Dispatch:      "Dispatch",
}

// aliases maps a normalized spelling to its floor. Normalization lowercases
// and drops spaces, dashes and underscores, so "Final Checking",
// "final-checking" and "FinalChecking" all land on the same key.
var aliases = map[string]Floor{
	"knitting":      Knitting,
	"knit":          Knitting,
	"linking":       Linking,
	"checking":      Checking,
	"check":         Checking,
	"washing":       Washing,
	"wash":          Washing,
	"boarding":      Boarding,
	"finalchecking": FinalChecking,
	"finalcheck":    FinalChecking,
	"branding":      Branding,
	"warehouse":     Warehouse,
	"dispatch":      Dispatch,
}

// Label returns the human readable floor name.
func (f Floor) Label() string {
	if l, ok := labels[f]; ok {
		return l
	}
	return string(f)
}

func (f Floor) String() string { return string(f) }

// Valid reports whether f is one of the known floors.
func (f Floor) Valid() bool {
	_, ok := labels[f]
	return ok
}

// IsInspection reports whether quality categorization (M1-M4) happens on f.
func (f Floor) IsInspection() bool {
	return f == Checking || f == FinalChecking
}

// Parse is the one place floor names coming from callers are turned into a
// Floor value.
func Parse(s string) (Floor, error) {
	key := normalize(s)
	if f, ok := aliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown floor %q", s)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
