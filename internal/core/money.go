// Package core provides money parsing and handling utilities.
//
// Amounts are kept as exact decimals so that sums over a ledger never drift,
// while still encoding as plain JSON numbers for compatibility with backups.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-negative monetary amount in the ledger currency.
//
// Decoding is lenient: a value that is not a number (or a numeric string)
// decodes to zero and is marked invalid instead of failing the whole document.
type Money struct {
	d       decimal.Decimal
	invalid bool
}

// NewMoney builds a Money from a float, mostly for tests and defaults.
func NewMoney(v float64) Money {
	return Money{d: decimal.NewFromFloat(v)}
}

// MoneyFromDecimal wraps an existing decimal.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// ParseAmount parses user input such as "12.34" or "12,34".
//
// Only positive values are accepted; signs, thousands separators and
// anything non-numeric are rejected with ErrInvalidAmount.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return Money{}, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// Decimal returns the exact value; invalid amounts count as zero.
func (m Money) Decimal() decimal.Decimal {
	if m.invalid {
		return decimal.Zero
	}
	return m.d
}

// Float64 returns the value for display and percentage math.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// Valid is false when the amount could not be decoded.
func (m Money) Valid() bool { return !m.invalid }

func (m Money) IsZero() bool     { return m.Decimal().IsZero() }
func (m Money) IsPositive() bool { return m.Decimal().IsPositive() }
func (m Money) IsNegative() bool { return m.Decimal().IsNegative() }

// Equal compares numeric values, so 1000 equals 1000.00.
func (m Money) Equal(o Money) bool {
	return m.Decimal().Equal(o.Decimal())
}

func (m Money) String() string {
	return m.Decimal().String()
}

// MarshalJSON encodes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON never fails: malformed or negative amounts become an
// invalid zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*m = Money{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.invalid = true
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			m.invalid = true
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		m.invalid = true
		return nil
	}
	m.d = d
	return nil
}
