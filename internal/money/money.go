// Package money represents currency amounts as an exact count of minor
// units (cents). Arithmetic never touches binary floating point.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// MaxMinor caps a single parsed amount well below int64 overflow territory.
const MaxMinor int64 = 9_999_999_999 // 99,999,999.99

// Money is an amount in minor units. Comparison is plain int64 ordering.
type Money int64

// Parse converts a decimal string ("10.15") into minor units.
// It fails with ErrInvalidAmount when the input is not a number, is zero or
// negative, carries more than 2 fractional digits, or exceeds MaxMinor.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}

	if d.Exponent() < -2 {
		return 0, fmt.Errorf("%w: at most 2 decimal places", ErrInvalidAmount)
	}

	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: at most 2 decimal places", ErrInvalidAmount)
	}

	// Range-check before IntPart: on values outside int64 IntPart wraps
	// silently instead of failing.
	if minor.Sign() <= 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}

	if minor.Cmp(decimal.NewFromInt(MaxMinor)) > 0 {
		return 0, fmt.Errorf("%w: exceeds maximum", ErrInvalidAmount)
	}

	return Money(minor.IntPart()), nil
}

// FromMinor wraps a raw minor-unit count, e.g. a balance column.
func FromMinor(v int64) Money {
	return Money(v)
}

func (m Money) Minor() int64 {
	return int64(m)
}

func (m Money) Add(o Money) Money {
	return m + o
}

func (m Money) Sub(o Money) Money {
	return m - o
}

// String renders the amount with exactly 2 decimal places.
func (m Money) String() string {
	return decimal.New(int64(m), -2).StringFixed(2)
}
