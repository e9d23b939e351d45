package pricelog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Engine derives portfolio metrics from an AlignedSeries. It only works on
// data already in the series: it does no I/O and never retries anything.
type Engine struct {
	Series   AlignedSeries
	Holdings Holdings
	Periods  Periods
	// Benchmark is the aligned series of a single benchmark symbol, with a
	// unit quantity. It is empty unless WithBenchmark was called.
	Benchmark AlignedSeries
}

// NewEngine aligns samples for holdings and returns the engine over them.
func NewEngine(samples []Sample, holdings Holdings, periods Periods) *Engine {
	return &Engine{Series: Align(samples, holdings), Holdings: holdings, Periods: periods}
}

// LifetimeReturn is the change of the total value from the first to the last row.
func (e *Engine) LifetimeReturn() (Percent, error) {
	if e.Series.Len() < 2 {
		return 0, fmt.Errorf("%w: lifetime return needs two samples, got %d", ErrInsufficientHistory, e.Series.Len())
	}
	first, _ := e.Series.First()
	last, _ := e.Series.Last()
	if first.Total.IsZero() {
		return 0, fmt.Errorf("%w: zero value at %s", ErrInsufficientHistory, first.Time.Format(TimestampFormat))
	}
	return percentOf(last.Total, first.Total), nil
}

// Change is the difference of the total value between two rows.
type Change struct {
	Window   time.Duration
	From, To Row
	Amount   decimal.Decimal
	Percent  Percent
	// Inception is true when the history is shorter than the window and From
	// is the first row.
	Inception bool
}

// TrailingChange compares the last row with the latest row at least d older.
// When the history is shorter than d it falls back to the first row. A zero
// starting value leaves the return undefined: the change is returned with an
// ErrInsufficientHistory.
func (e *Engine) TrailingChange(d time.Duration) (Change, error) {
	last, ok := e.Series.Last()
	if !ok {
		return Change{Window: d}, fmt.Errorf("%w: empty series", ErrInsufficientHistory)
	}
	cutoff := last.Time.Add(-d)
	c := Change{Window: d, To: last, From: e.Series.Rows[0], Inception: true}
	for i := len(e.Series.Rows) - 1; i >= 0; i-- {
		if row := e.Series.Rows[i]; !row.Time.After(cutoff) {
			c.From, c.Inception = row, false
			break
		}
	}
	c.Amount = c.To.Total.Sub(c.From.Total)
	if c.From.Total.IsZero() {
		return c, fmt.Errorf("%w: zero value at %s", ErrInsufficientHistory, c.From.Time.Format(TimestampFormat))
	}
	c.Percent = percentOf(c.To.Total, c.From.Total)
	return c, nil
}

// MaxDrawdown is the most negative decline from the running peak of the total
// value, as a percentage. A series that never declines has a zero drawdown.
func (e *Engine) MaxDrawdown() (Percent, error) {
	if e.Series.Len() == 0 {
		return 0, fmt.Errorf("%w: empty series", ErrInsufficientHistory)
	}
	var peak decimal.Decimal
	var worst Percent
	for _, row := range e.Series.Rows {
		if row.Total.GreaterThan(peak) {
			peak = row.Total
		}
		if peak.IsZero() {
			continue
		}
		if dd := percentOf(row.Total, peak); dd < worst {
			worst = dd
		}
	}
	return worst, nil
}

// Performer is the return of a single symbol over its own observed span.
type Performer struct {
	Symbol      string
	First, Last time.Time
	Return      Percent
}

// Performers returns, in holdings order, the return of every held symbol
// with at least two observed prices, computed between its first and last
// observation.
func (e *Engine) Performers() []Performer {
	var performers []Performer
	for _, symbol := range e.Holdings.Symbols() {
		var first, last Row
		n := 0
		for _, row := range e.Series.Rows {
			if !row.Observed(symbol) {
				continue
			}
			if n == 0 {
				first = row
			}
			last = row
			n++
		}
		if n < 2 {
			continue
		}
		p0, p1 := first.Prices[symbol], last.Prices[symbol]
		if p0.IsZero() {
			continue
		}
		performers = append(performers, Performer{
			Symbol: symbol,
			First:  first.Time,
			Last:   last.Time,
			Return: percentOf(p1, p0),
		})
	}
	return performers
}

// BestWorstPerformer returns the held symbols with the highest and lowest
// return over their own lifetime. Ties go to the symbol held first. ok is
// false when no symbol has two observations.
func (e *Engine) BestWorstPerformer() (best, worst Performer, ok bool) {
	performers := e.Performers()
	if len(performers) == 0 {
		return Performer{}, Performer{}, false
	}
	best, worst = performers[0], performers[0]
	for _, p := range performers[1:] {
		if p.Return > best.Return {
			best = p
		}
		if p.Return < worst.Return {
			worst = p
		}
	}
	return best, worst, true
}

// HoldingChange is the change of one holding's value since a starting point.
type HoldingChange struct {
	Holding
	From, To   time.Time
	StartPrice decimal.Decimal
	Price      decimal.Decimal
	Gain       decimal.Decimal // (Price - StartPrice) × Quantity
	Percent    Percent
	// Defined is false when StartPrice is zero and Percent is meaningless.
	Defined bool
}

// HoldingsSince returns, for every holding known at both ends, the change of
// its price between the first row at or after start and the last row.
func (e *Engine) HoldingsSince(start time.Time) []HoldingChange {
	last, ok := e.Series.Last()
	if !ok {
		return nil
	}
	base := -1
	for i, row := range e.Series.Rows {
		if !row.Time.Before(start) {
			base = i
			break
		}
	}
	if base < 0 {
		return nil
	}
	from := e.Series.Rows[base]

	var changes []HoldingChange
	for _, h := range e.Holdings {
		p0, ok0 := from.Price(h.Symbol)
		p1, ok1 := last.Price(h.Symbol)
		if !ok0 || !ok1 {
			continue
		}
		c := HoldingChange{
			Holding:    h,
			From:       from.Time,
			To:         last.Time,
			StartPrice: p0,
			Price:      p1,
			Gain:       p1.Sub(p0).Mul(h.Quantity),
		}
		if !p0.IsZero() {
			c.Percent, c.Defined = percentOf(p1, p0), true
		}
		changes = append(changes, c)
	}
	return changes
}

// Position is the latest valuation of a holding.
type Position struct {
	Holding
	Price decimal.Decimal
	Value decimal.Decimal
	// Weight of the position in the total value, in percent.
	Weight Percent
	// Cost and Unrealized are only valid when the holding has an average cost.
	Cost       decimal.NullDecimal
	Unrealized decimal.NullDecimal
}

// Positions values every holding with a known price at the last row.
func (e *Engine) Positions() []Position {
	last, ok := e.Series.Last()
	if !ok {
		return nil
	}
	var positions []Position
	for _, h := range e.Holdings {
		price, ok := last.Price(h.Symbol)
		if !ok {
			continue
		}
		p := Position{Holding: h, Price: price, Value: price.Mul(h.Quantity)}
		if !last.Total.IsZero() {
			p.Weight = Percent(p.Value.Div(last.Total).Mul(decimal.NewFromInt(100)).InexactFloat64())
		}
		if h.AverageCost.Valid {
			cost := h.AverageCost.Decimal.Mul(h.Quantity)
			p.Cost = decimal.NewNullDecimal(cost)
			p.Unrealized = decimal.NewNullDecimal(p.Value.Sub(cost))
		}
		positions = append(positions, p)
	}
	return positions
}
