// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents so repeated aggregation never drifts.
// Decimal conversion goes through shopspring/decimal.
package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// ParseAmount converts user input to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to cents. Zero, negative and non-numeric values are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
//	ParseAmount("-1")     -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d to cents and rejects values that are not > 0.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	cents, err := toCents(d)
	if err != nil || cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

// toCents rounds d half-up to cents, failing when the result does not fit
// in an int64.
func toCents(d decimal.Decimal) (int64, error) {
	if d.IsZero() {
		return 0, nil
	}
	// 10^(mag-1) <= |d| < 10^mag
	mag := int64(d.NumDigits()) + int64(d.Exponent())
	if mag > 17 {
		return 0, ErrInvalidAmount
	}
	if mag < -2 {
		return 0, nil
	}
	c := d.Mul(hundred).Round(0)
	if c.Abs().GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return c.IntPart(), nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// Decimal returns the exact value in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two decimals, e.g. "1050.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float64 is for chart rendering only. Use Cents for arithmetic.
func (m Money) Float64() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a JSON number or a decimal string. Sign is left to
// Validate; only values that cannot be held in cents are rejected here.
func (m *Money) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return ErrInvalidAmount
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
	case json.Number:
		s = v.String()
	default:
		return ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	cents, err := toCents(d)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

// PercentChange returns (current-previous)/previous*100 rounded to two places.
// When previous is zero the result is 100 if current is positive, else 0.
func PercentChange(current, previous Money) float64 {
	if previous.Cents == 0 {
		if current.Cents > 0 {
			return 100
		}
		return 0
	}
	diff := decimal.NewFromInt(current.Cents - previous.Cents)
	pct := diff.Div(decimal.NewFromInt(previous.Cents)).Mul(hundred).Round(2)
	return pct.InexactFloat64()
}
