package record

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of s used by every case-insensitive
// comparison in the engine.
func Fold(s string) string {
	// cases.Caser is stateful; one per call.
	return cases.Fold().String(s)
}

// ParseNumber parses v as an exact decimal. Surrounding spaces are ignored.
func ParseNumber(v string) (decimal.Decimal, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// IsNumeric reports whether v parses as a number.
func IsNumeric(v string) bool {
	_, ok := ParseNumber(v)
	return ok
}

// CompareValues is the pairwise comparison used by predicates and ORDER BY:
// numeric when both sides parse as numbers, case-insensitive text otherwise.
func CompareValues(a, b string) int {
	if da, ok := ParseNumber(a); ok {
		if db, ok := ParseNumber(b); ok {
			return da.Cmp(db)
		}
	}
	return strings.Compare(Fold(a), Fold(b))
}

// EqualValues is case-insensitive string equality.
func EqualValues(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Collate is a total order over stored values: numbers first (numerically),
// then text by case folding. On a column whose values are all numeric or all
// text it agrees with CompareValues.
func Collate(a, b string) int {
	da, aNum := ParseNumber(a)
	db, bNum := ParseNumber(b)
	switch {
	case aNum && bNum:
		return da.Cmp(db)
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(Fold(a), Fold(b))
}

// Canonical maps v to a string that is equal for two values exactly when
// Collate reports them equal.
func Canonical(v string) string {
	if d, ok := ParseNumber(v); ok {
		return "n:" + d.String()
	}
	return "t:" + Fold(v)
}
