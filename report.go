package pricelog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyWindows is the number of trailing anchored periods in a Report.
const MonthlyWindows = 12

// Window is a named trailing duration, like "7d".
type Window struct {
	Name     string
	Duration time.Duration
}

// DefaultWindows are the daily, weekly and monthly trailing windows.
func DefaultWindows() []Window {
	return []Window{
		{Name: "1d", Duration: 24 * time.Hour},
		{Name: "7d", Duration: 7 * 24 * time.Hour},
		{Name: "30d", Duration: 30 * 24 * time.Hour},
	}
}

// ParseWindow parses "<n>d" (days), "<n>w" (weeks) or any time.ParseDuration
// format.
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(s)
	unit := time.Duration(0)
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	}
	if unit > 0 {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil || n <= 0 {
			return Window{}, fmt.Errorf("invalid window %q", s)
		}
		return Window{Name: s, Duration: time.Duration(n) * unit}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return Window{}, fmt.Errorf("invalid window %q", s)
	}
	return Window{Name: s, Duration: d}, nil
}

// WindowChange is the trailing change over one window.
type WindowChange struct {
	Window
	Change
	Defined bool
}

// MonthlyReturn is the return over one completed anchored period.
type MonthlyReturn struct {
	PeriodReturn
	Defined bool
}

// Report is the structured result handed to renderers.
type Report struct {
	Now time.Time

	// Value is the total value at the last row.
	Value     decimal.Decimal
	ValueTime time.Time

	Lifetime        Percent
	LifetimeDefined bool

	Trailing []WindowChange

	MaxDrawdown        Percent
	MaxDrawdownDefined bool

	Best, Worst Performer
	Ranked      bool

	CurrentPeriod  PeriodReturn
	CurrentDefined bool
	Monthly        []MonthlyReturn
	SinceAnchor    []HoldingChange

	Benchmark        BenchmarkComparison
	BenchmarkDefined bool

	Positions  []Position
	Indicators []Indicators
	Issues     []Issue

	Series AlignedSeries
}

// Report computes every metric as of now.
func (e *Engine) Report(now time.Time, windows []Window) Report {
	r := Report{Now: now, Series: e.Series, Issues: e.Series.Issues}
	if last, ok := e.Series.Last(); ok {
		r.Value, r.ValueTime = last.Total, last.Time
	}

	if p, err := e.LifetimeReturn(); err == nil {
		r.Lifetime, r.LifetimeDefined = p, true
	}
	for _, w := range windows {
		c, err := e.TrailingChange(w.Duration)
		r.Trailing = append(r.Trailing, WindowChange{Window: w, Change: c, Defined: err == nil})
	}
	if dd, err := e.MaxDrawdown(); err == nil {
		r.MaxDrawdown, r.MaxDrawdownDefined = dd, true
	}
	r.Best, r.Worst, r.Ranked = e.BestWorstPerformer()

	current := e.Periods.Current(now)
	if ret, err := ReturnOver(e.Series, current); err == nil {
		r.CurrentPeriod, r.CurrentDefined = ret, true
	} else {
		r.CurrentPeriod = PeriodReturn{Boundary: current}
	}
	for _, b := range e.Periods.Trailing(now, MonthlyWindows) {
		ret, err := ReturnOver(e.Series, b)
		r.Monthly = append(r.Monthly, MonthlyReturn{PeriodReturn: ret, Defined: err == nil})
	}
	r.SinceAnchor = e.HoldingsSince(current.Start)

	if c, err := e.CompareBenchmark(); err == nil {
		r.Benchmark, r.BenchmarkDefined = c, true
	} else if len(e.Benchmark.Symbols) > 0 {
		r.Benchmark.Symbol = e.Benchmark.Symbols[0]
	}

	r.Positions = e.Positions()
	r.Indicators = ComputeIndicators(e.Series)
	return r
}
