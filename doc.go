// Package pricelog maintains a time-ordered ledger of multi-asset price
// observations and derives portfolio valuation, anchored-period returns and
// risk statistics from it.
//
// The core functionalities include:
//   - Sample Store: an append-only, deduplicated, time-sorted collection of
//     price samples with bounded retention, persisted wholesale as a JSON
//     file (or any other Backend).
//   - Series Alignment: a dense per-symbol price table built by forward-fill,
//     and the derived total portfolio value series.
//   - Periods: boundaries of periods anchored on a fixed day of the month,
//     and the return across any pair of boundaries.
//   - Analytics Engine: lifetime return, trailing changes, maximum drawdown
//     and best/worst performing holding, gathered into a Report.
//   - Sampling: the Updater pulls spot prices and daily histories from a
//     Source and appends them to the store.
//
// The package does no I/O of its own beyond the ledger and holdings files;
// price sources, currency converters and renderers are plugged in by the
// caller.
package pricelog
