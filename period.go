package pricelog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultAnchorDay is the day of the month periods start on.
const DefaultAnchorDay = 10

// Boundary is a time window; Start is never after End.
type Boundary struct {
	Start, End time.Time
}

func (b Boundary) String() string {
	return fmt.Sprintf("%s..%s", b.Start.Format(TimestampFormat), b.End.Format(TimestampFormat))
}

// Periods computes periods anchored on a fixed day of the month.
type Periods struct {
	// AnchorDay is within 1..28, so that every month has one.
	AnchorDay int
	// Location of the anchor midnight. nil means the location of "now".
	Location *time.Location
}

// NewPeriods returns Periods anchored on day, which must be within 1..28.
func NewPeriods(day int, loc *time.Location) (Periods, error) {
	if day < 1 || day > 28 {
		return Periods{}, fmt.Errorf("%w: anchor day %d is not within 1..28", ErrConfiguration, day)
	}
	return Periods{AnchorDay: day, Location: loc}, nil
}

func (p Periods) anchorDay() int {
	if p.AnchorDay == 0 {
		return DefaultAnchorDay
	}
	return p.AnchorDay
}

func (p Periods) location(now time.Time) *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return now.Location()
}

// anchor returns the anchor instant of month m of year y. Months out of
// 1..12 roll over the year explicitly.
func (p Periods) anchor(y int, m time.Month, loc *time.Location) time.Time {
	for m < time.January {
		m += 12
		y--
	}
	for m > time.December {
		m -= 12
		y++
	}
	return time.Date(y, m, p.anchorDay(), 0, 0, 0, 0, loc)
}

// CurrentPeriodStart returns the start of the period containing now: the
// anchor day of now's month when it is reached, or the anchor day of the
// previous month.
func (p Periods) CurrentPeriodStart(now time.Time) time.Time {
	loc := p.location(now)
	now = now.In(loc)
	if now.Day() >= p.anchorDay() {
		return p.anchor(now.Year(), now.Month(), loc)
	}
	return p.anchor(now.Year(), now.Month()-1, loc)
}

// Boundaries returns the i-th prior completed period: it ends on the anchor
// i months before the current period start, and starts one month earlier.
func (p Periods) Boundaries(now time.Time, i int) Boundary {
	current := p.CurrentPeriodStart(now)
	y, m, loc := current.Year(), current.Month(), current.Location()
	return Boundary{
		Start: p.anchor(y, m-time.Month(i)-1, loc),
		End:   p.anchor(y, m-time.Month(i), loc),
	}
}

// Current returns the period in progress, from its start to now.
//
// At the anchor instant itself the period has just begun and Start equals
// End, so no return can be computed over it yet.
func (p Periods) Current(now time.Time) Boundary {
	return Boundary{Start: p.CurrentPeriodStart(now), End: now}
}

// Trailing returns the n last completed periods, most recent first.
func (p Periods) Trailing(now time.Time, n int) []Boundary {
	boundaries := make([]Boundary, 0, n)
	for i := range n {
		boundaries = append(boundaries, p.Boundaries(now, i))
	}
	return boundaries
}

// PeriodReturn is the change of the total value across a Boundary.
type PeriodReturn struct {
	Boundary Boundary
	From, To Row
	Gain     decimal.Decimal
	Percent  Percent
}

// ReturnOver computes the return between the first row at or after b.Start
// and the last row at or before b.End.
//
// It fails with ErrInsufficientHistory when fewer than two rows qualify, or
// when the starting value is zero.
func ReturnOver(series AlignedSeries, b Boundary) (PeriodReturn, error) {
	first, last := -1, -1
	for i, row := range series.Rows {
		if row.Time.Before(b.Start) || row.Time.After(b.End) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 || first == last {
		return PeriodReturn{Boundary: b}, fmt.Errorf("%w: less than two samples in %s", ErrInsufficientHistory, b)
	}
	from, to := series.Rows[first], series.Rows[last]
	if from.Total.IsZero() {
		return PeriodReturn{Boundary: b}, fmt.Errorf("%w: zero value at %s", ErrInsufficientHistory, from.Time.Format(TimestampFormat))
	}
	return PeriodReturn{
		Boundary: b,
		From:     from,
		To:       to,
		Gain:     to.Total.Sub(from.Total),
		Percent:  percentOf(to.Total, from.Total),
	}, nil
}
