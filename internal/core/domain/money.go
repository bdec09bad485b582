package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// moneyScale is the number of fractional digits carried by every amount.
const moneyScale = 2

// Money is an exact fixed-point monetary amount with two fractional digits.
// All balance arithmetic and comparison in the system routes through this
// type; binary floats are never used where money is computed or compared.
type Money struct {
	value decimal.Decimal
}

// ZeroMoney returns the zero amount.
func ZeroMoney() Money {
	return Money{value: decimal.Zero}
}

// NewMoney parses a decimal string (e.g. "100.00") into a Money value.
// Amounts with more than two fractional digits are rejected.
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.Exponent() < -moneyScale {
		return Money{}, fmt.Errorf("amount %q exceeds scale %d", s, moneyScale)
	}
	return Money{value: d}, nil
}

// MustMoney parses a decimal string and panics on failure. Test helper.
func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromDecimal wraps an already-validated decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{value: d}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{value: m.value.Add(o.value)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{value: m.value.Sub(o.value)}
}

// Cmp compares m against o: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.value.Cmp(o.value)
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m.value.IsPositive()
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.value.IsNegative()
}

// Equal reports whether m and o represent the same amount.
func (m Money) Equal(o Money) bool {
	return m.value.Equal(o.value)
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.value.StringFixed(moneyScale)
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.value
}

// MarshalJSON renders the amount as a JSON string to avoid float rounding.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON parses a JSON string or bare number into a Money value.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := NewMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
