package pricelog

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one timestamp of an AlignedSeries.
type Row struct {
	Time time.Time
	// Prices holds, for every held symbol already known at this row, its
	// observed or forward-filled price. Symbols never observed yet are absent.
	Prices map[string]decimal.Decimal
	// Total is the sum of quantity × price over Prices.
	Total    decimal.Decimal
	observed map[string]bool
}

// Price returns the (possibly forward-filled) price of symbol at this row.
func (r Row) Price(symbol string) (decimal.Decimal, bool) {
	v, ok := r.Prices[symbol]
	return v, ok
}

// Observed reports whether symbol was actually sampled at this row, as opposed
// to forward-filled.
func (r Row) Observed(symbol string) bool { return r.observed[symbol] }

// IssueKind classifies a data-quality condition.
type IssueKind int

const (
	// NeverObserved: a held symbol has no price anywhere in the ledger and is
	// excluded from every total.
	NeverObserved IssueKind = iota
	// IssueUnavailable: the latest sample recorded the symbol as unavailable,
	// its value is forward-filled.
	IssueUnavailable
	// Stale: the latest sample does not carry the symbol, its value is
	// forward-filled.
	Stale
)

func (k IssueKind) String() string {
	switch k {
	case NeverObserved:
		return "never observed"
	case IssueUnavailable:
		return "unavailable"
	case Stale:
		return "stale"
	default:
		return fmt.Sprintf("issue(%d)", int(k))
	}
}

// Issue is a data-quality condition on a held symbol. Totals undercount or
// lag the real holdings while an issue is open.
type Issue struct {
	Symbol string
	Kind   IssueKind
	// LastObserved is the time of the last observed price, zero if none.
	LastObserved time.Time
}

func (i Issue) String() string {
	if i.LastObserved.IsZero() {
		return fmt.Sprintf("%s: %s", i.Symbol, i.Kind)
	}
	return fmt.Sprintf("%s: %s since %s", i.Symbol, i.Kind, i.LastObserved.Format(TimestampFormat))
}

// AlignedSeries is the dense, forward-filled view of the ledger restricted to
// held symbols.
type AlignedSeries struct {
	Symbols []string
	Rows    []Row
	Issues  []Issue
}

// Len returns the number of rows.
func (s AlignedSeries) Len() int { return len(s.Rows) }

// First returns the earliest row.
func (s AlignedSeries) First() (Row, bool) {
	if len(s.Rows) == 0 {
		return Row{}, false
	}
	return s.Rows[0], true
}

// Last returns the latest row.
func (s AlignedSeries) Last() (Row, bool) {
	if len(s.Rows) == 0 {
		return Row{}, false
	}
	return s.Rows[len(s.Rows)-1], true
}

// Samples converts the rows back into samples carrying every known price.
func (s AlignedSeries) Samples() []Sample {
	samples := make([]Sample, 0, len(s.Rows))
	for _, row := range s.Rows {
		prices := make(Prices, len(row.Prices))
		for symbol, v := range row.Prices {
			prices.Set(symbol, v)
		}
		samples = append(samples, Sample{Time: row.Time, Prices: prices})
	}
	return samples
}

// Align builds the aligned series of samples for holdings.
//
// Samples sharing a timestamp are merged into one row, later samples winning.
// A symbol absent or unavailable at a row inherits its last observed price.
// A symbol not observed yet is excluded from the row and from its total, so a
// newly added holding does not change the totals that precede its first price.
// Leading rows where no held symbol is known yet are dropped.
func Align(samples []Sample, holdings Holdings) AlignedSeries {
	samples = slices.Clone(samples)
	slices.SortStableFunc(samples, func(a, b Sample) int { return a.Time.Compare(b.Time) })

	series := AlignedSeries{Symbols: holdings.Symbols()}
	last := make(map[string]decimal.Decimal)
	lastObserved := make(map[string]time.Time)
	var latest map[string]Presence // presence of symbols in the latest row

	for i := 0; i < len(samples); {
		on := samples[i].Time
		presence := make(map[string]Presence)
		observed := make(map[string]decimal.Decimal)
		for ; i < len(samples) && samples[i].Time.Equal(on); i++ {
			for _, symbol := range series.Symbols {
				v, p := samples[i].Prices.Lookup(symbol)
				switch p {
				case Observed:
					observed[symbol] = v
					presence[symbol] = Observed
				case Unavailable:
					if presence[symbol] != Observed {
						presence[symbol] = Unavailable
					}
				}
			}
		}
		latest = presence

		row := Row{Time: on, Prices: make(map[string]decimal.Decimal), observed: make(map[string]bool)}
		for _, h := range holdings {
			if v, ok := observed[h.Symbol]; ok {
				last[h.Symbol] = v
				lastObserved[h.Symbol] = on
				row.observed[h.Symbol] = true
			}
			v, known := last[h.Symbol]
			if !known {
				continue
			}
			row.Prices[h.Symbol] = v
			row.Total = row.Total.Add(h.Quantity.Mul(v))
		}
		if len(row.Prices) == 0 {
			continue
		}
		series.Rows = append(series.Rows, row)
	}

	for _, symbol := range series.Symbols {
		seen, ok := lastObserved[symbol]
		switch {
		case !ok:
			series.Issues = append(series.Issues, Issue{Symbol: symbol, Kind: NeverObserved})
		case latest[symbol] == Unavailable:
			series.Issues = append(series.Issues, Issue{Symbol: symbol, Kind: IssueUnavailable, LastObserved: seen})
		case latest[symbol] == Absent:
			series.Issues = append(series.Issues, Issue{Symbol: symbol, Kind: Stale, LastObserved: seen})
		}
	}
	return series
}
