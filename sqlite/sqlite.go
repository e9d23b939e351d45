// Package sqlite persists the price ledger in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/etnz/pricelog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Backend implements pricelog.Backend. Every Save replaces the whole ledger
// in a single transaction.
type Backend struct {
	db       *sql.DB
	opts     pricelog.StoreOptions
	location *time.Location
}

var _ pricelog.Backend = (*Backend)(nil)

// Open opens, or creates, the database at path.
func Open(path string, opts pricelog.StoreOptions, loc *time.Location) (*Backend, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create directory for %q: %w", path, err)
		}
	}
	if loc == nil {
		loc = time.Local
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	b := &Backend{db: db, opts: opts, location: loc}
	if err := b.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not initialize %q: %w", path, err)
	}
	return b, nil
}

// Close closes the database.
func (b *Backend) Close() error { return b.db.Close() }

func (b *Backend) migrate(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS samples (
  id INTEGER PRIMARY KEY,
  ts TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_ts ON samples(ts);

CREATE TABLE IF NOT EXISTS prices (
  sample_id INTEGER NOT NULL REFERENCES samples(id),
  symbol TEXT NOT NULL,
  price TEXT,
  PRIMARY KEY(sample_id, symbol)
);
`)
	return err
}

// Load implements pricelog.Backend.
func (b *Backend) Load(ctx context.Context) (*pricelog.Store, error) {
	s := pricelog.NewStore(b.opts)
	rows, err := b.db.QueryContext(ctx, `
SELECT s.id, s.ts, p.symbol, p.price
FROM samples s LEFT JOIN prices p ON p.sample_id = s.id
ORDER BY s.id`)
	if err != nil {
		return s, fmt.Errorf("%w: %w", pricelog.ErrCorruptState, err)
	}
	defer rows.Close()

	var samples []pricelog.Sample
	lastID := int64(-1)
	for rows.Next() {
		var (
			id     int64
			ts     string
			symbol sql.NullString
			price  sql.NullString
		)
		if err := rows.Scan(&id, &ts, &symbol, &price); err != nil {
			return pricelog.NewStore(b.opts), fmt.Errorf("%w: %w", pricelog.ErrCorruptState, err)
		}
		if id != lastID {
			on, err := time.ParseInLocation(pricelog.TimestampFormat, ts, b.location)
			if err != nil {
				return pricelog.NewStore(b.opts), fmt.Errorf("%w: sample %d: %w", pricelog.ErrCorruptState, id, err)
			}
			samples = append(samples, pricelog.Sample{Time: on, Prices: make(pricelog.Prices)})
			lastID = id
		}
		if !symbol.Valid {
			continue
		}
		prices := samples[len(samples)-1].Prices
		if !price.Valid {
			prices.SetUnavailable(symbol.String)
			continue
		}
		v, err := decimal.NewFromString(price.String)
		if err != nil {
			return pricelog.NewStore(b.opts), fmt.Errorf("%w: sample %d: price of %q: %w", pricelog.ErrCorruptState, id, symbol.String, err)
		}
		prices.Set(symbol.String, v)
	}
	if err := rows.Err(); err != nil {
		return pricelog.NewStore(b.opts), fmt.Errorf("%w: %w", pricelog.ErrCorruptState, err)
	}

	for _, sample := range samples {
		if err := s.Append(sample); err != nil {
			return pricelog.NewStore(b.opts), fmt.Errorf("%w: %w", pricelog.ErrCorruptState, err)
		}
	}
	return s, nil
}

// Save implements pricelog.Backend.
func (b *Backend) Save(ctx context.Context, s *pricelog.Store) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prices`); err != nil {
		return fmt.Errorf("could not clear prices: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM samples`); err != nil {
		return fmt.Errorf("could not clear samples: %w", err)
	}

	insertSample, err := tx.PrepareContext(ctx, `INSERT INTO samples(id, ts) VALUES(?, ?)`)
	if err != nil {
		return err
	}
	defer insertSample.Close()
	insertPrice, err := tx.PrepareContext(ctx, `INSERT INTO prices(sample_id, symbol, price) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertPrice.Close()

	for i, sample := range s.All() {
		id := int64(i + 1)
		if _, err := insertSample.ExecContext(ctx, id, sample.Time.In(b.location).Format(pricelog.TimestampFormat)); err != nil {
			return fmt.Errorf("could not insert sample: %w", err)
		}
		for _, symbol := range sample.Prices.Symbols() {
			var price sql.NullString
			if v, ok := sample.Prices[symbol].Value(); ok {
				price = sql.NullString{String: v.String(), Valid: true}
			}
			if _, err := insertPrice.ExecContext(ctx, id, symbol, price); err != nil {
				return fmt.Errorf("could not insert price of %q: %w", symbol, err)
			}
		}
	}
	return tx.Commit()
}
