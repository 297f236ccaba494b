// Package money converts between user-entered amount strings and the int64
// cents stored on expenses and budgets.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that are non-numeric, zero or negative.
var ErrInvalidAmount = errors.New("invalid amount")

// MaxCents is the largest amount a single expense or budget may carry,
// 100 billion in major units.
const MaxCents int64 = 1e13

var maxCents = decimal.NewFromInt(MaxCents)

// ParseAmount parses a positive decimal amount of at most MaxCents into cents,
// rounding half away from zero on the third decimal place.
// Both "12.34" and "12,34" are accepted; "1,234.56" treats the comma as a
// thousands separator.
func ParseAmount(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return 0, ErrInvalidAmount
	}

	if strings.Contains(clean, ".") {
		clean = strings.ReplaceAll(clean, ",", "")
	} else {
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	cents := d.Shift(2).Round(0)
	if !cents.IsPositive() || cents.GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}

	return cents.IntPart(), nil
}

// ParseEuropeanAmount parses a signed amount in "1.234,56" notation into cents.
// Unlike ParseAmount, zero and negative values are returned as-is.
func ParseEuropeanAmount(s string) (int64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	return d.Shift(2).Round(0).IntPart(), nil
}

// Add sums two amounts, failing with ErrInvalidAmount instead of wrapping
// around on int64 overflow.
func Add(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrInvalidAmount
	}

	return a + b, nil
}

// Format renders cents as a plain two-decimal string, e.g. 1234 -> "12.34".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
