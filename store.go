package pricelog

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DefaultMaxRows bounds the store when no retention is configured.
const DefaultMaxRows = 10000

// Mode is the ingestion mode of a Store. It drives the deduplication key.
type Mode int

const (
	// Snapshot stores one sample per sampling instant with every symbol in it.
	// Two samples collide when their timestamps fall in the same granule.
	Snapshot Mode = iota
	// PerSymbol stores one sample per (instant, symbol). Two samples collide
	// when they are in the same granule and carry the same symbol.
	PerSymbol
)

func (m Mode) String() string {
	switch m {
	case Snapshot:
		return "snapshot"
	case PerSymbol:
		return "per-symbol"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the textual form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "snapshot":
		return Snapshot, nil
	case "per-symbol", "per_symbol", "symbol":
		return PerSymbol, nil
	default:
		return Snapshot, fmt.Errorf("unknown ingestion mode %q", s)
	}
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Granularity is the deduplication granule: timestamps are truncated to
	// it before comparison. Zero means exact timestamps.
	Granularity time.Duration
	Mode        Mode
	// MaxRows is the retention applied by Updater after each run.
	MaxRows int
}

// DefaultStoreOptions returns per-minute deduplication in Snapshot mode with
// DefaultMaxRows retention.
func DefaultStoreOptions() StoreOptions {
	return StoreOptions{Granularity: time.Minute, Mode: Snapshot, MaxRows: DefaultMaxRows}
}

// key is the deduplication key of a sample.
type key struct {
	t      int64 // truncated unix nano
	symbol string
}

// Store is an append-only, deduplicated collection of samples sorted by
// timestamp.
type Store struct {
	opts    StoreOptions
	samples []Sample
	index   map[key]int
}

// NewStore returns an empty store.
func NewStore(opts StoreOptions) *Store {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	return &Store{opts: opts, index: make(map[key]int)}
}

// Options returns the options the store was created with.
func (s *Store) Options() StoreOptions { return s.opts }

// Len returns the number of samples in the store.
func (s *Store) Len() int { return len(s.samples) }

// All returns the samples in ascending timestamp order.
//
// Samples are shared with the store and must not be modified.
func (s *Store) All() []Sample { return slices.Clone(s.samples) }

// Latest returns the most recent sample.
func (s *Store) Latest() (Sample, bool) {
	if len(s.samples) == 0 {
		return Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Symbols returns every symbol present in the store, in first-seen order.
func (s *Store) Symbols() []string {
	var symbols []string
	seen := make(map[string]bool)
	for _, sample := range s.samples {
		for _, symbol := range sample.Prices.Symbols() {
			if !seen[symbol] {
				seen[symbol] = true
				symbols = append(symbols, symbol)
			}
		}
	}
	return symbols
}

func (s *Store) keyOf(sample Sample) key {
	k := key{t: sample.Time.Truncate(s.opts.Granularity).UnixNano()}
	if s.opts.Mode == PerSymbol {
		// there is exactly one symbol in per-symbol samples.
		for symbol := range sample.Prices {
			k.symbol = symbol
		}
	}
	return k
}

// Append inserts a sample. A sample whose deduplication key collides with a
// stored one replaces it: the newest write wins.
//
// In PerSymbol mode the sample is split into one sample per symbol.
func (s *Store) Append(sample Sample) error {
	if err := sample.Validate(); err != nil {
		return err
	}
	if s.opts.Mode != PerSymbol {
		s.insert(sample.clone())
		return nil
	}
	for _, symbol := range sample.Prices.Symbols() {
		s.insert(Sample{Time: sample.Time, Prices: Prices{symbol: sample.Prices[symbol]}})
	}
	return nil
}

func (s *Store) insert(sample Sample) {
	k := s.keyOf(sample)
	if i, found := s.index[k]; found {
		s.samples[i] = sample
		if !s.sortedAround(i) {
			s.sort()
		}
		return
	}
	s.samples = append(s.samples, sample)
	last := len(s.samples) - 1
	s.index[k] = last
	if !s.sortedAround(last) {
		// out of order, typically a backfill merged with live samples.
		s.sort()
	}
}

// sortedAround reports whether sample i is in order with its neighbours.
func (s *Store) sortedAround(i int) bool {
	t := s.samples[i].Time
	if i > 0 && s.samples[i-1].Time.After(t) {
		return false
	}
	if i < len(s.samples)-1 && t.After(s.samples[i+1].Time) {
		return false
	}
	return true
}

func (s *Store) sort() {
	slices.SortStableFunc(s.samples, func(a, b Sample) int { return a.Time.Compare(b.Time) })
	s.reindex()
}

func (s *Store) reindex() {
	clear(s.index)
	for i, sample := range s.samples {
		s.index[s.keyOf(sample)] = i
	}
}

// Prune retains the maxRows most recent samples and returns the number of
// samples evicted. Eviction is oldest first, regardless of symbols.
func (s *Store) Prune(maxRows int) int {
	if maxRows < 0 || len(s.samples) <= maxRows {
		return 0
	}
	evicted := len(s.samples) - maxRows
	s.samples = slices.Clone(s.samples[evicted:])
	s.reindex()
	return evicted
}
