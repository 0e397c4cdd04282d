// Package money converts between the decimal amount strings used on the wire
// and the int64 minor units used by the calculator. All arithmetic inside the
// engine stays in integers; decimals exist only at this boundary.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Exponent is the number of fractional digits accepted on the wire. Fixed at
// two, which covers the currencies the app supports.
const Exponent = 2

var (
	ErrTooPrecise  = errors.New("amount has more than two decimal places")
	ErrNotPositive = errors.New("amount must be positive")
	ErrNegative    = errors.New("amount must not be negative")
)

// Parse converts a decimal string like "12.34" to minor units (1234).
// It rejects amounts with more than two fractional digits rather than
// rounding them, and rejects zero or negative amounts.
func Parse(s string) (int64, error) {
	minor, err := parse(s)
	if err != nil {
		return 0, err
	}
	if minor <= 0 {
		return 0, fmt.Errorf("invalid amount %q: %w", s, ErrNotPositive)
	}
	return minor, nil
}

// ParseShare is Parse for per-member share amounts, which may be zero.
func ParseShare(s string) (int64, error) {
	minor, err := parse(s)
	if err != nil {
		return 0, err
	}
	if minor < 0 {
		return 0, fmt.Errorf("invalid amount %q: %w", s, ErrNegative)
	}
	return minor, nil
}

func parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	shifted := d.Shift(Exponent)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("invalid amount %q: %w", s, ErrTooPrecise)
	}
	return shifted.IntPart(), nil
}

// Format renders minor units as a decimal string with two fractional digits:
// 1234 -> "12.34", -50 -> "-0.50".
func Format(minor int64) string {
	return decimal.New(minor, -Exponent).StringFixed(Exponent)
}
