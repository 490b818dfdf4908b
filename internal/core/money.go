// Money parsing and handling utilities.
//
// Amounts are stored as positive int64 cents; the sign of a movement is
// implied by the transaction type. Floating point only appears at the
// boundary, where it is checked for finiteness before conversion.
package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is a currency amount in cents.
type Money struct {
	Cents int64
}

var ErrInvalidAmount = errors.New("invalid amount")

// maxSafeCents bounds conversions so cents arithmetic cannot overflow int64.
const maxSafeCents = int64(1) << 52

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the amount in currency units for display purposes.
// Use cents for all calculations.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot and comma separators are
// accepted. Only positive amounts are valid.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if iv > maxSafeCents/100 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// CentsFromFloat converts a currency-unit float into cents. NaN, infinities
// and out-of-range magnitudes are rejected here so the engine can assume
// every amount it sees is finite.
func CentsFromFloat(units float64) (int64, error) {
	if math.IsNaN(units) || math.IsInf(units, 0) {
		return 0, fmt.Errorf("%w: amount must be a finite number", ErrInvalidAmount)
	}
	cents := math.Round(units * 100)
	if math.Abs(cents) > float64(maxSafeCents) {
		return 0, fmt.Errorf("%w: amount out of range", ErrInvalidAmount)
	}
	return int64(cents), nil
}

// DuplicateToleranceCents is the amount tolerance used when matching a
// projected occurrence against a manually recorded transaction. Amounts
// that agree to the currency unit count as the same entry.
const DuplicateToleranceCents int64 = 100

// AmountsMatch reports whether two amounts fall within the duplicate
// tolerance of each other.
func AmountsMatch(a, b Money) bool {
	d := a.Cents - b.Cents
	if d < 0 {
		d = -d
	}
	return d < DuplicateToleranceCents
}
