package pricelog

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Presence tells how a symbol appears in a sample.
type Presence int

const (
	// Absent means the symbol is not part of the sample at all.
	Absent Presence = iota
	// Unavailable means the symbol was sampled but the source failed to
	// return a price (persisted as null).
	Unavailable
	// Observed means the sample carries a price for the symbol.
	Observed
)

func (p Presence) String() string {
	switch p {
	case Absent:
		return "absent"
	case Unavailable:
		return "unavailable"
	case Observed:
		return "observed"
	default:
		return fmt.Sprintf("presence(%d)", int(p))
	}
}

// Quote is the price of one symbol in a sample, or the record that it was
// unavailable.
type Quote struct {
	value decimal.Decimal
	ok    bool
}

// Price returns an observed quote.
func Price(v decimal.Decimal) Quote { return Quote{value: v, ok: true} }

// NoPrice returns an unavailable quote.
func NoPrice() Quote { return Quote{} }

// Value returns the price and true if the quote is observed.
func (q Quote) Value() (decimal.Decimal, bool) { return q.value, q.ok }

func (q Quote) String() string {
	if !q.ok {
		return "null"
	}
	return q.value.String()
}

// Prices is a sparse mapping from symbol to quote. A missing key is Absent,
// which is not the same as an Unavailable quote.
type Prices map[string]Quote

// Lookup returns the price of symbol and how it is present in p.
func (p Prices) Lookup(symbol string) (decimal.Decimal, Presence) {
	q, exists := p[symbol]
	if !exists {
		return decimal.Decimal{}, Absent
	}
	if v, ok := q.Value(); ok {
		return v, Observed
	}
	return decimal.Decimal{}, Unavailable
}

// Set records an observed price for symbol.
func (p Prices) Set(symbol string, v decimal.Decimal) { p[symbol] = Price(v) }

// SetUnavailable records that symbol was sampled without success.
func (p Prices) SetUnavailable(symbol string) { p[symbol] = NoPrice() }

// Symbols returns the symbols present in p, sorted.
func (p Prices) Symbols() []string { return slices.Sorted(maps.Keys(p)) }

// Observed counts the observed quotes.
func (p Prices) Observed() int {
	n := 0
	for _, q := range p {
		if q.ok {
			n++
		}
	}
	return n
}

// Sample is one observation of prices at an instant. Samples are immutable
// once stored: corrections are appended as new samples.
type Sample struct {
	Time   time.Time
	Prices Prices
}

// NewSample returns a validated sample.
func NewSample(t time.Time, prices Prices) (Sample, error) {
	s := Sample{Time: t, Prices: maps.Clone(prices)}
	if s.Prices == nil {
		s.Prices = make(Prices)
	}
	return s, s.Validate()
}

// Validate checks that symbols are non empty and observed prices are not negative.
func (s Sample) Validate() error {
	if s.Time.IsZero() {
		return fmt.Errorf("sample has no timestamp")
	}
	for symbol, q := range s.Prices {
		if symbol == "" {
			return fmt.Errorf("sample at %s has an empty symbol", s.Time.Format(TimestampFormat))
		}
		if v, ok := q.Value(); ok && v.IsNegative() {
			return fmt.Errorf("sample at %s has a negative price %s for %q", s.Time.Format(TimestampFormat), v, symbol)
		}
	}
	return nil
}

// clone returns a copy of s that does not share its prices map.
func (s Sample) clone() Sample {
	return Sample{Time: s.Time, Prices: maps.Clone(s.Prices)}
}
