package pricelog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// ts parses a ledger timestamp in UTC, for tests.
func ts(s string) time.Time {
	t, err := time.ParseInLocation(TimestampFormat, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// D is a helper for tests to create a decimal from a float const.
func D(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// P builds observed prices from float constants.
func P(prices map[string]float64) Prices {
	p := make(Prices, len(prices))
	for symbol, v := range prices {
		p.Set(symbol, D(v))
	}
	return p
}

// S builds a sample at a ledger timestamp.
func S(on string, prices map[string]float64) Sample {
	return Sample{Time: ts(on), Prices: P(prices)}
}

// H builds holdings from (symbol, quantity) pairs, in order.
func H(pairs ...any) Holdings {
	var h Holdings
	for i := 0; i+1 < len(pairs); i += 2 {
		h = append(h, Holding{Symbol: pairs[i].(string), Quantity: decimal.NewFromFloat(pairs[i+1].(float64))})
	}
	return h
}

// exampleSeries is the three samples ledger of the documentation:
// holdings A:2 B:1, B missing from the last sample.
func exampleEngine(t *testing.T) *Engine {
	t.Helper()
	samples := []Sample{
		S("2024-01-01 10:00:00", map[string]float64{"A": 10, "B": 100}),
		S("2024-01-02 10:00:00", map[string]float64{"A": 12, "B": 90}),
		S("2024-01-03 10:00:00", map[string]float64{"A": 11}),
	}
	return NewEngine(samples, H("A", 2.0, "B", 1.0), Periods{AnchorDay: 10, Location: time.UTC})
}

func totals(s AlignedSeries) []string {
	out := make([]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		out = append(out, row.Total.String())
	}
	return out
}
