package pricelog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/etnz/pricelog/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// This file contains the sampling run: load the ledger, backfill it when
// empty, append the current prices, prune and save.

// Default sampling options.
const (
	DefaultBenchmark    = "SPY"
	DefaultBackfillDays = 365
	DefaultTimeout      = 10 * time.Second
)

// UpdateOptions configures an Updater.
type UpdateOptions struct {
	// Benchmark is sampled together with the holdings. Empty disables it.
	Benchmark string
	// BackfillDays is the depth of daily history fetched into an empty ledger.
	BackfillDays int
	// Timeout bounds every single call to the Source.
	Timeout time.Duration
}

// DefaultUpdateOptions returns the SPY benchmark, one year of backfill and a
// ten seconds timeout.
func DefaultUpdateOptions() UpdateOptions {
	return UpdateOptions{Benchmark: DefaultBenchmark, BackfillDays: DefaultBackfillDays, Timeout: DefaultTimeout}
}

// Updater runs one sampling pass.
type Updater struct {
	Source   Source
	Backend  Backend
	Holdings Holdings
	Options  UpdateOptions
	Location *time.Location
	Logger   zerolog.Logger
}

// UpdateStats summarizes a sampling run.
type UpdateStats struct {
	// Recovered is true when the persisted ledger was corrupt and replaced.
	Recovered bool
	// Backfilled is the number of daily samples added by the backfill.
	Backfilled int
	// Sampled is the number of symbols observed in the live sample.
	Sampled int
	// Unavailable lists symbols whose spot price could not be obtained.
	Unavailable []string
	// Failures joins every per-symbol error of the run.
	Failures error
	Pruned   int
	Rows     int
}

// Symbols returns the tracked symbols: holdings in order, then the benchmark.
func (u *Updater) Symbols() []string {
	symbols := u.Holdings.Symbols()
	if b := u.Options.Benchmark; b != "" && !slices.Contains(symbols, b) {
		symbols = append(symbols, b)
	}
	return symbols
}

func (u *Updater) location() *time.Location {
	if u.Location != nil {
		return u.Location
	}
	return time.Local
}

func (u *Updater) timeout() time.Duration {
	if u.Options.Timeout > 0 {
		return u.Options.Timeout
	}
	return DefaultTimeout
}

// Run loads the ledger, backfills it if empty, appends a sample taken at now,
// prunes it and saves it.
//
// Failures on a single symbol are logged and never abort the run. A corrupt
// ledger is logged and replaced by an empty one.
func (u *Updater) Run(ctx context.Context, now time.Time) (UpdateStats, error) {
	var stats UpdateStats

	store, err := u.Backend.Load(ctx)
	switch {
	case errors.Is(err, ErrCorruptState):
		u.Logger.Error().Err(err).Msg("ledger is corrupt, starting from an empty ledger")
		stats.Recovered = true
	case err != nil:
		return stats, fmt.Errorf("could not load ledger: %w", err)
	}
	if store == nil {
		store = NewStore(DefaultStoreOptions())
	}

	var backfillErr error
	if store.Len() == 0 {
		stats.Backfilled, backfillErr = u.Backfill(ctx, store, now)
	}

	sample, unavailable, sampleErr := u.SampleNow(ctx, now)
	stats.Unavailable = unavailable
	stats.Failures = errors.Join(backfillErr, sampleErr)
	stats.Sampled = sample.Prices.Observed()
	if stats.Sampled > 0 {
		if err := store.Append(sample); err != nil {
			return stats, fmt.Errorf("could not append sample: %w", err)
		}
	} else {
		u.Logger.Warn().Time("at", now).Msg("no price available, no sample recorded")
	}

	stats.Pruned = store.Prune(store.Options().MaxRows)
	stats.Rows = store.Len()

	if err := u.Backend.Save(ctx, store); err != nil {
		return stats, fmt.Errorf("could not save ledger: %w", err)
	}
	u.Logger.Info().
		Int("rows", stats.Rows).
		Int("sampled", stats.Sampled).
		Int("unavailable", len(stats.Unavailable)).
		Int("backfilled", stats.Backfilled).
		Int("pruned", stats.Pruned).
		Msg("ledger updated")
	return stats, nil
}

// Backfill appends the daily history of every tracked symbol into store, one
// sample per day at midnight. It returns the number of days added, and the
// per-symbol failures.
func (u *Updater) Backfill(ctx context.Context, store *Store, now time.Time) (int, error) {
	days := u.Options.BackfillDays
	if days <= 0 {
		days = DefaultBackfillDays
	}
	to := date.Of(now.In(u.location()))
	from := to.Add(-days)

	symbols := u.Symbols()
	histories := make([]*date.History[decimal.Decimal], 0, len(symbols))
	bySymbol := make(map[string]*date.History[decimal.Decimal])
	var errs []error
	for _, symbol := range symbols {
		cctx, cancel := context.WithTimeout(ctx, u.timeout())
		h, err := u.Source.DailyHistory(cctx, symbol, from, to)
		cancel()
		if err != nil {
			u.Logger.Warn().Err(err).Str("symbol", symbol).Msg("backfill failed")
			errs = append(errs, fmt.Errorf("backfill %s: %w", symbol, err))
			continue
		}
		if h.Len() == 0 {
			u.Logger.Warn().Str("symbol", symbol).Stringer("from", from).Stringer("to", to).Msg("no history to backfill")
			continue
		}
		histories = append(histories, h)
		bySymbol[symbol] = h
	}

	n := 0
	for day := range date.Iterate(histories...) {
		prices := make(Prices)
		for _, symbol := range symbols {
			if h, ok := bySymbol[symbol]; ok {
				if v, ok := h.Get(day); ok {
					prices.Set(symbol, v)
				}
			}
		}
		if err := store.Append(Sample{Time: day.In(u.location()), Prices: prices}); err != nil {
			u.Logger.Warn().Err(err).Stringer("day", day).Msg("invalid backfill sample skipped")
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// SampleNow takes the spot price of every tracked symbol. Symbols that fail,
// or time out, are recorded as unavailable in the sample and returned with
// their joined errors.
func (u *Updater) SampleNow(ctx context.Context, now time.Time) (Sample, []string, error) {
	sample := Sample{Time: now.In(u.location()).Truncate(time.Second), Prices: make(Prices)}
	var unavailable []string
	var errs []error
	for _, symbol := range u.Symbols() {
		cctx, cancel := context.WithTimeout(ctx, u.timeout())
		v, err := u.Source.SpotPrice(cctx, symbol)
		cancel()
		if err != nil {
			u.Logger.Warn().Err(err).Str("symbol", symbol).
				Bool("timeout", errors.Is(err, context.DeadlineExceeded)).
				Msg("spot price unavailable")
			sample.Prices.SetUnavailable(symbol)
			unavailable = append(unavailable, symbol)
			errs = append(errs, fmt.Errorf("spot price %s: %w", symbol, err))
			continue
		}
		sample.Prices.Set(symbol, v)
	}
	return sample, unavailable, errors.Join(errs...)
}
