package pricelog

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value in a display currency.
//
// The analytics engine works on bare decimals in the ledger's base currency;
// Money only exists at presentation time, after the Converter multiplier has
// been applied.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// M returns a Money of value in currency.
func M(value decimal.Decimal, currency string) Money {
	return Money{value: value, cur: currency}
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(dec.IntPart())
}

func (m Money) Currency() string              { return m.cur }
func (m Money) Value() decimal.Decimal        { return m.value }
func (m Money) Equal(n Money) bool            { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                  { return m.value.IsZero() }
func (m Money) IsNegative() bool              { return m.value.IsNegative() }
func (m Money) Add(n Money) Money             { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money             { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }
func (m Money) Scale(r decimal.Decimal) Money { return Money{value: m.value.Mul(r), cur: m.cur} }

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch" + A.cur + "!=" + B.cur)
	}
	return A.cur
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-"
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}
