package pricelog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampFormat is the on-disk format of sample timestamps, in the
// ledger's location.
const TimestampFormat = "2006-01-02 15:04:05"

// Backend persists a Store wholesale between runs.
type Backend interface {
	// Load returns the persisted store. A missing ledger is an empty store.
	// An unreadable ledger returns an empty store and an error wrapping
	// ErrCorruptState.
	Load(ctx context.Context) (*Store, error)
	// Save replaces the persisted ledger with s. A failed Save leaves the
	// previous ledger untouched.
	Save(ctx context.Context, s *Store) error
}

// jsample is the json representation of a Sample.
type jsample struct {
	Timestamp string                     `json:"timestamp"`
	Prices    map[string]json.RawMessage `json:"prices"`
}

var jsonNull = []byte("null")

// DecodeStore decodes a ledger. Input does not need to be sorted.
//
// On malformed input it returns the (empty) store anyway, together with an
// error wrapping ErrCorruptState.
func DecodeStore(r io.Reader, opts StoreOptions, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return NewStore(opts), fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	s := NewStore(opts)
	if len(bytes.TrimSpace(content)) == 0 {
		return s, nil
	}

	var jsamples []jsample
	if err := json.Unmarshal(content, &jsamples); err != nil {
		return s, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	for i, js := range jsamples {
		sample, err := js.decode(loc)
		if err != nil {
			return NewStore(opts), fmt.Errorf("%w: sample #%d: %w", ErrCorruptState, i, err)
		}
		if err := s.Append(sample); err != nil {
			return NewStore(opts), fmt.Errorf("%w: sample #%d: %w", ErrCorruptState, i, err)
		}
	}
	return s, nil
}

func (js jsample) decode(loc *time.Location) (Sample, error) {
	on, err := time.ParseInLocation(TimestampFormat, js.Timestamp, loc)
	if err != nil {
		return Sample{}, fmt.Errorf("invalid timestamp %q: %w", js.Timestamp, err)
	}
	prices := make(Prices, len(js.Prices))
	for symbol, raw := range js.Prices {
		if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
			prices.SetUnavailable(symbol)
			continue
		}
		var v decimal.Decimal
		if err := v.UnmarshalJSON(raw); err != nil {
			return Sample{}, fmt.Errorf("invalid price for %q: %w", symbol, err)
		}
		prices.Set(symbol, v)
	}
	return NewSample(on, prices)
}

// EncodeStore writes the store as a sorted, indented json array.
func EncodeStore(w io.Writer, s *Store, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	jsamples := make([]jsample, 0, s.Len())
	for _, sample := range s.All() {
		js := jsample{
			Timestamp: sample.Time.In(loc).Format(TimestampFormat),
			Prices:    make(map[string]json.RawMessage, len(sample.Prices)),
		}
		for symbol, q := range sample.Prices {
			if v, ok := q.Value(); ok {
				js.Prices[symbol] = json.RawMessage(v.String())
			} else {
				js.Prices[symbol] = jsonNull
			}
		}
		jsamples = append(jsamples, js)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(jsamples)
}

// FileBackend persists the store as a single json file.
type FileBackend struct {
	Path     string
	Options  StoreOptions
	Location *time.Location
}

// Load implements Backend.
func (b *FileBackend) Load(_ context.Context) (*Store, error) {
	f, err := os.Open(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewStore(b.Options), nil
	}
	if err != nil {
		return NewStore(b.Options), fmt.Errorf("%w: could not open ledger %q: %w", ErrCorruptState, b.Path, err)
	}
	defer f.Close()
	s, err := DecodeStore(f, b.Options, b.Location)
	if err != nil {
		return s, fmt.Errorf("ledger %q: %w", b.Path, err)
	}
	return s, nil
}

// Save implements Backend. The ledger is written to a temporary file in the
// same directory, then renamed over the previous one.
func (b *FileBackend) Save(_ context.Context, s *Store) (err error) {
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create directory for ledger %q: %w", b.Path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary ledger: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err := EncodeStore(w, s, b.Location); err != nil {
		return fmt.Errorf("could not encode ledger: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("could not write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("could not sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.Path); err != nil {
		return fmt.Errorf("could not replace ledger %q: %w", b.Path, err)
	}
	return nil
}
