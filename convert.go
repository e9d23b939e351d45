package pricelog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Converter supplies the multiplier from the ledger's base currency to a
// display currency. It is applied at presentation time only.
type Converter interface {
	Rate(ctx context.Context) (decimal.Decimal, error)
}

// StaticRate is a fixed conversion rate.
type StaticRate decimal.Decimal

// Rate implements Converter.
func (r StaticRate) Rate(context.Context) (decimal.Decimal, error) {
	rate := decimal.Decimal(r)
	if !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: invalid static rate %s", ErrDataUnavailable, rate)
	}
	return rate, nil
}

// MissingRate is the converter of a display currency that has neither a
// static rate nor a rate symbol. Its Rate always fails with ErrConfiguration.
type MissingRate string

// Rate implements Converter.
func (r MissingRate) Rate(context.Context) (decimal.Decimal, error) {
	return decimal.Decimal{}, fmt.Errorf("%w: no rate configured for currency %s", ErrConfiguration, string(r))
}

// SourceRate reads the rate as the spot price of a currency pair symbol,
// like "ILS=X".
type SourceRate struct {
	Source  Source
	Symbol  string
	Timeout time.Duration
}

// Rate implements Converter.
func (r SourceRate) Rate(ctx context.Context) (decimal.Decimal, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	rate, err := r.Source.SpotPrice(ctx, r.Symbol)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("rate %s: %w", r.Symbol, err)
	}
	if !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: rate %s is %s", ErrDataUnavailable, r.Symbol, rate)
	}
	return rate, nil
}

// Display converts base currency amounts into display Money.
type Display struct {
	Currency string
	Rate     decimal.Decimal
}

// Money returns v converted into the display currency.
func (d Display) Money(v decimal.Decimal) Money {
	rate := d.Rate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	return M(v.Mul(rate), d.Currency)
}

// ResolveDisplay asks conv for the rate into currency. When conv is nil, or
// fails, amounts are displayed in the base currency; a failure is logged.
func ResolveDisplay(ctx context.Context, conv Converter, base, currency string, log zerolog.Logger) Display {
	identity := Display{Currency: base, Rate: decimal.NewFromInt(1)}
	if conv == nil || currency == "" || currency == base {
		return identity
	}
	rate, err := conv.Rate(ctx)
	if err != nil {
		log.Warn().Err(err).Str("currency", currency).Msg("conversion rate unavailable, displaying base currency")
		return identity
	}
	return Display{Currency: currency, Rate: rate}
}
