// Package core provides the budget domain model and its derived metrics.
//
// This file contains the decimal-backed Money type and the parser for the
// amount expressions accepted by the input form ("+23.69+23.87").
package core

import (
	"bytes"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. The zero value is 0.
// It serializes to a bare JSON number so documents written by older
// versions of the tracker (plain floats) load unchanged.
type Money struct {
	d decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromInt returns a whole amount.
func MoneyFromInt(v int64) Money {
	return Money{d: decimal.NewFromInt(v)}
}

// MoneyFromFloat converts a float; used for values coming from charts and tests.
func MoneyFromFloat(f float64) Money {
	return Money{d: decimal.NewFromFloat(f)}
}

// ParseMoney parses a plain non-negative decimal ("12.34" or "12,34").
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{d: d}, nil
}

// MustParseMoney is ParseMoney for literals; it panics on malformed input.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic("core: invalid money literal " + s)
	}
	return m
}

func (m Money) Add(o Money) Money        { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money        { return Money{d: m.d.Sub(o.d)} }
func (m Money) Cmp(o Money) int          { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool       { return m.d.Equal(o.d) }
func (m Money) IsZero() bool             { return m.d.IsZero() }
func (m Money) IsPositive() bool         { return m.d.IsPositive() }
func (m Money) IsNegative() bool         { return m.d.IsNegative() }
func (m Money) Decimal() decimal.Decimal { return m.d }

// MulRatio scales the amount by a decimal ratio such as "0.8".
func (m Money) MulRatio(ratio string) Money {
	return Money{d: m.d.Mul(decimal.RequireFromString(ratio))}
}

// Float64 returns the amount for display and percentage math.
func (m Money) Float64() float64 {
	return m.d.InexactFloat64()
}

// String returns the amount with two decimals, e.g. "1900.00".
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// Format renders a dollar amount with thousands separators, e.g. "$1,900.00".
func (m Money) Format() string {
	f := m.d.Round(2).InexactFloat64()
	if f < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -f)
	}
	return "$" + humanize.FormatFloat("#,###.##", f)
}

// MarshalJSON writes the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

// UnmarshalJSON accepts numbers, quoted numbers and null.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		m.d = decimal.Zero
		return nil
	}
	return m.d.UnmarshalJSON(b)
}

// percentOf returns part/whole*100 as a float; whole must be non-zero.
func percentOf(part, whole Money) float64 {
	return part.d.Div(whole.d).Mul(hundred).InexactFloat64()
}

// EvalAmountExpr evaluates an amount expression made of decimal numbers
// joined by '+' and '-'. A leading sign is allowed, so "+23.69+23.87" and
// "100 - 12,50" are valid. The result must not be negative.
func EvalAmountExpr(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, ErrInvalidExpression
	}

	total := decimal.Zero
	first := true
	i := skipSpaces(s, 0)
	for i < len(s) {
		neg := false
		switch s[i] {
		case '+', '-':
			neg = s[i] == '-'
			i = skipSpaces(s, i+1)
		default:
			if !first {
				return Money{}, ErrInvalidExpression
			}
		}

		start := i
		for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
			i++
		}
		term, ok := parseTerm(s[start:i])
		if !ok {
			return Money{}, ErrInvalidExpression
		}
		if neg {
			term = term.Neg()
		}
		total = total.Add(term)
		first = false
		i = skipSpaces(s, i)
	}

	if total.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{d: total}, nil
}

// parseTerm accepts digits['.'digits] or '.'digits.
func parseTerm(t string) (decimal.Decimal, bool) {
	if t == "" || t == "." || strings.HasSuffix(t, ".") || strings.Count(t, ".") > 1 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(t)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
