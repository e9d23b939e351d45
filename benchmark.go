package pricelog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// growthBase is the value every series is rebased to at the common start.
const growthBase = 100

// WithBenchmark aligns the samples of symbol as the benchmark of e, and
// returns e. An empty symbol clears the benchmark.
func (e *Engine) WithBenchmark(samples []Sample, symbol string) *Engine {
	if symbol == "" {
		e.Benchmark = AlignedSeries{}
		return e
	}
	e.Benchmark = Align(samples, Holdings{{Symbol: symbol, Quantity: decimal.NewFromInt(1)}})
	return e
}

// GrowthPoint is the portfolio total and the benchmark price at one row,
// both rebased to 100 at the comparison start.
type GrowthPoint struct {
	Time      time.Time
	Portfolio float64
	Benchmark float64
}

// BenchmarkComparison compares the portfolio growth with the benchmark over
// the same span.
type BenchmarkComparison struct {
	Symbol   string
	From, To time.Time

	Portfolio Percent
	Benchmark Percent
	// Excess is Portfolio - Benchmark, in percentage points.
	Excess Percent

	Growth []GrowthPoint
}

// CompareBenchmark rebases the portfolio total and the benchmark price to 100
// at the first portfolio row where both are known and non zero, and compares
// their growth up to the last portfolio row. The benchmark price at a row is
// its last known price at or before that row.
//
// It fails with ErrInsufficientHistory when there is no benchmark, or when
// fewer than two rows share both values.
func (e *Engine) CompareBenchmark() (BenchmarkComparison, error) {
	if len(e.Benchmark.Symbols) == 0 {
		return BenchmarkComparison{}, fmt.Errorf("%w: no benchmark", ErrInsufficientHistory)
	}
	symbol := e.Benchmark.Symbols[0]
	c := BenchmarkComparison{Symbol: symbol}

	hundred := decimal.NewFromInt(growthBase)
	var baseTotal, basePrice, lastTotal, lastPrice decimal.Decimal
	started := false
	j := -1 // last benchmark row at or before the current portfolio row
	for _, row := range e.Series.Rows {
		for j+1 < len(e.Benchmark.Rows) && !e.Benchmark.Rows[j+1].Time.After(row.Time) {
			j++
		}
		if j < 0 {
			continue
		}
		price, ok := e.Benchmark.Rows[j].Price(symbol)
		if !ok {
			continue
		}
		if !started {
			if row.Total.IsZero() || price.IsZero() {
				continue
			}
			baseTotal, basePrice, started = row.Total, price, true
			c.From = row.Time
		}
		lastTotal, lastPrice, c.To = row.Total, price, row.Time
		c.Growth = append(c.Growth, GrowthPoint{
			Time:      row.Time,
			Portfolio: row.Total.Div(baseTotal).Mul(hundred).InexactFloat64(),
			Benchmark: price.Div(basePrice).Mul(hundred).InexactFloat64(),
		})
	}
	if len(c.Growth) < 2 {
		return c, fmt.Errorf("%w: less than two samples with both the portfolio and %s", ErrInsufficientHistory, symbol)
	}
	c.Portfolio = percentOf(lastTotal, baseTotal)
	c.Benchmark = percentOf(lastPrice, basePrice)
	c.Excess = c.Portfolio - c.Benchmark
	return c, nil
}
