package pricelog

import (
	"context"

	"github.com/etnz/pricelog/date"
	"github.com/shopspring/decimal"
)

// Source supplies prices. Both methods fail with an error wrapping
// ErrDataUnavailable; a failure concerns that symbol only.
//
// Source implementations do not retry, the caller bounds each call with a
// context deadline.
type Source interface {
	// SpotPrice returns the current price of symbol.
	SpotPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	// DailyHistory returns the daily closes of symbol between from and to,
	// both included.
	DailyHistory(ctx context.Context, symbol string, from, to date.Date) (*date.History[decimal.Decimal], error)
}
