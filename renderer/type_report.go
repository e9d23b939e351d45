package renderer

import (
	"fmt"
	"time"

	"github.com/etnz/pricelog"
	"github.com/shopspring/decimal"
)

// na is displayed in place of an undefined metric.
const na = "n/a"

// dateFormat of anchored period boundaries.
const dateFormat = "2006-01-02"

// Report is a struct to represent the report data for rendering.
type Report struct {
	AsOf        string
	FirstSample string
	LastSample  string
	Samples     int

	Value       pricelog.Money
	Lifetime    string
	MaxDrawdown string

	Ranked      bool
	Best, Worst Performer

	Trailing    []Change
	Current     Period
	Monthly     []Period
	SinceAnchor []HoldingChange
	Benchmark   *Benchmark
	Positions   []Position
	Indicators  []Indicator
	Issues      []string
}

// Performer is a best or worst symbol.
type Performer struct {
	Symbol string
	Return string
}

// Change is a trailing window row.
type Change struct {
	Name    string
	Amount  string
	Percent string
	Since   string
}

// Period is an anchored period row.
type Period struct {
	Name    string
	Start   string
	Gain    string
	Percent string
}

// Benchmark compares the portfolio growth with the benchmark.
type Benchmark struct {
	Symbol    string
	Since     string
	Portfolio string
	Benchmark string
	Excess    string
	// Indexed values at the last row, 100 at Since.
	PortfolioIndex string
	BenchmarkIndex string
}

// HoldingChange is a row of the "since anchor" table.
type HoldingChange struct {
	Symbol     string
	Quantity   string
	StartPrice pricelog.Money
	Price      pricelog.Money
	Gain       string
	Percent    string
}

// Position is a row of the positions table.
type Position struct {
	Symbol     string
	Quantity   string
	Price      pricelog.Money
	Value      pricelog.Money
	Weight     string
	Unrealized string
}

// Indicator is a row of the indicators table.
type Indicator struct {
	Symbol    string
	Points    int
	ZScore    string
	Valuation string
	Momentum  string
	RSI       string
	Signal    string
}

// NewReport prepares r for rendering, amounts are converted with d and
// timestamps displayed in loc.
func NewReport(r pricelog.Report, d pricelog.Display, loc *time.Location) *Report {
	if loc == nil {
		loc = time.Local
	}
	stamp := func(t time.Time) string { return t.In(loc).Format(pricelog.TimestampFormat) }
	day := func(t time.Time) string { return t.In(loc).Format(dateFormat) }
	money := func(v decimal.Decimal) pricelog.Money { return d.Money(v) }

	out := &Report{
		AsOf:        stamp(r.Now),
		FirstSample: na,
		LastSample:  na,
		Samples:     r.Series.Len(),
		Value:       money(r.Value),
		Lifetime:    na,
		MaxDrawdown: na,
		Ranked:      r.Ranked,
	}
	if first, ok := r.Series.First(); ok {
		out.FirstSample = stamp(first.Time)
		out.LastSample = stamp(r.ValueTime)
	}
	if r.MaxDrawdownDefined {
		out.MaxDrawdown = r.MaxDrawdown.String()
	}
	if r.LifetimeDefined {
		out.Lifetime = r.Lifetime.SignedString()
	}
	if r.Ranked {
		out.Best = Performer{Symbol: r.Best.Symbol, Return: r.Best.Return.SignedString()}
		out.Worst = Performer{Symbol: r.Worst.Symbol, Return: r.Worst.Return.SignedString()}
	}

	for _, w := range r.Trailing {
		c := Change{Name: w.Name, Amount: na, Percent: na, Since: na}
		if w.Defined {
			c.Amount = money(w.Amount).SignedString()
			c.Percent = w.Percent.SignedString()
			c.Since = stamp(w.From.Time)
			if w.Inception {
				c.Since += " (inception)"
			}
		}
		out.Trailing = append(out.Trailing, c)
	}

	out.Current = Period{
		Name:    fmt.Sprintf("since %s", day(r.CurrentPeriod.Boundary.Start)),
		Start:   day(r.CurrentPeriod.Boundary.Start),
		Gain:    na,
		Percent: na,
	}
	if r.CurrentDefined {
		out.Current.Gain = money(r.CurrentPeriod.Gain).SignedString()
		out.Current.Percent = r.CurrentPeriod.Percent.SignedString()
	}
	for _, m := range r.Monthly {
		p := Period{
			Name:    fmt.Sprintf("%s to %s", day(m.Boundary.Start), day(m.Boundary.End)),
			Start:   day(m.Boundary.Start),
			Gain:    na,
			Percent: na,
		}
		if m.Defined {
			p.Gain = money(m.Gain).SignedString()
			p.Percent = m.Percent.SignedString()
		}
		out.Monthly = append(out.Monthly, p)
	}

	for _, h := range r.SinceAnchor {
		out.SinceAnchor = append(out.SinceAnchor, HoldingChange{
			Symbol:     h.Symbol,
			Quantity:   h.Quantity.String(),
			StartPrice: money(h.StartPrice),
			Price:      money(h.Price),
			Gain:       money(h.Gain).SignedString(),
			Percent:    percentOrNA(h.Percent, h.Defined),
		})
	}

	switch {
	case r.BenchmarkDefined:
		b := r.Benchmark
		last := b.Growth[len(b.Growth)-1]
		out.Benchmark = &Benchmark{
			Symbol:         b.Symbol,
			Since:          stamp(b.From),
			Portfolio:      b.Portfolio.SignedString(),
			Benchmark:      b.Benchmark.SignedString(),
			Excess:         fmt.Sprintf("%+.2f pts", float64(b.Excess)),
			PortfolioIndex: fmt.Sprintf("%.2f", last.Portfolio),
			BenchmarkIndex: fmt.Sprintf("%.2f", last.Benchmark),
		}
	case r.Benchmark.Symbol != "":
		out.Benchmark = &Benchmark{
			Symbol:         r.Benchmark.Symbol,
			Since:          na,
			Portfolio:      na,
			Benchmark:      na,
			Excess:         na,
			PortfolioIndex: na,
			BenchmarkIndex: na,
		}
	}

	for _, p := range r.Positions {
		row := Position{
			Symbol:     p.Symbol,
			Quantity:   p.Quantity.String(),
			Price:      money(p.Price),
			Value:      money(p.Value),
			Weight:     p.Weight.String(),
			Unrealized: na,
		}
		if p.Unrealized.Valid {
			row.Unrealized = money(p.Unrealized.Decimal).SignedString()
		}
		out.Positions = append(out.Positions, row)
	}

	for _, ind := range r.Indicators {
		row := Indicator{
			Symbol:    ind.Symbol,
			Points:    ind.Points,
			ZScore:    fmt.Sprintf("%+.2f", ind.ZScore),
			Valuation: ind.Valuation.String(),
			Momentum:  ind.Momentum.String(),
			RSI:       na,
			Signal:    ind.Signal.String(),
		}
		if ind.RSIValid {
			row.RSI = fmt.Sprintf("%.1f", ind.RSI)
		}
		out.Indicators = append(out.Indicators, row)
	}

	for _, issue := range r.Issues {
		if issue.LastObserved.IsZero() {
			out.Issues = append(out.Issues, fmt.Sprintf("%s: %s, excluded from totals", issue.Symbol, issue.Kind))
			continue
		}
		out.Issues = append(out.Issues, fmt.Sprintf("%s: %s, last observed %s", issue.Symbol, issue.Kind, stamp(issue.LastObserved)))
	}
	return out
}

func percentOrNA(p pricelog.Percent, defined bool) string {
	if !defined {
		return na
	}
	return p.SignedString()
}
