package pricelog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/shopspring/decimal"
)

// Holding is a quantity of a symbol, optionally with its average cost.
type Holding struct {
	Symbol      string
	Quantity    decimal.Decimal
	AverageCost decimal.NullDecimal
}

// Holdings is the list of holdings in configuration order. That order is the
// tie-break order of rankings.
type Holdings []Holding

// Symbols returns the held symbols in order.
func (h Holdings) Symbols() []string {
	symbols := make([]string, 0, len(h))
	for _, holding := range h {
		symbols = append(symbols, holding.Symbol)
	}
	return symbols
}

// Get returns the holding for symbol.
func (h Holdings) Get(symbol string) (Holding, bool) {
	for _, holding := range h {
		if holding.Symbol == symbol {
			return holding, true
		}
	}
	return Holding{}, false
}

// LoadHoldings reads the holdings file. A missing, unreadable or empty file is
// an ErrConfiguration.
func LoadHoldings(path string) (Holdings, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: holdings file %q does not exist", ErrConfiguration, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: could not open holdings file %q: %w", ErrConfiguration, path, err)
	}
	defer f.Close()
	h, err := DecodeHoldings(f)
	if err != nil {
		return nil, fmt.Errorf("holdings file %q: %w", path, err)
	}
	return h, nil
}

// DecodeHoldings decodes a json object mapping symbols to either a bare
// quantity, or an object {"amount": quantity, "avg_price": cost}.
//
// The file order of symbols is preserved.
func DecodeHoldings(r io.Reader) (Holdings, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: holdings are empty", ErrConfiguration)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrConfiguration, ErrCorruptState, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: %w: holdings must be a json object", ErrConfiguration, ErrCorruptState)
	}

	var holdings Holdings
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %w", ErrConfiguration, ErrCorruptState, err)
		}
		symbol, _ := tok.(string)
		if symbol == "" {
			return nil, fmt.Errorf("%w: empty symbol in holdings", ErrConfiguration)
		}
		if seen[symbol] {
			return nil, fmt.Errorf("%w: symbol %q is held twice", ErrConfiguration, symbol)
		}
		seen[symbol] = true

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w: holding %q: %w", ErrConfiguration, ErrCorruptState, symbol, err)
		}
		h, err := decodeHolding(symbol, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: holding %q: %w", ErrConfiguration, symbol, err)
		}
		holdings = append(holdings, h)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrConfiguration, ErrCorruptState, err)
	}
	if len(holdings) == 0 {
		return nil, fmt.Errorf("%w: holdings are empty", ErrConfiguration)
	}
	return holdings, nil
}

func decodeHolding(symbol string, raw json.RawMessage) (Holding, error) {
	h := Holding{Symbol: symbol}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var jh struct {
			Amount   *decimal.Decimal    `json:"amount"`
			AvgPrice decimal.NullDecimal `json:"avg_price"`
		}
		if err := json.Unmarshal(raw, &jh); err != nil {
			return h, err
		}
		if jh.Amount == nil {
			return h, errors.New("missing amount")
		}
		h.Quantity, h.AverageCost = *jh.Amount, jh.AvgPrice
	} else if bytes.Equal(raw, jsonNull) {
		return h, errors.New("missing amount")
	} else if err := h.Quantity.UnmarshalJSON(raw); err != nil {
		return h, err
	}
	if h.Quantity.IsNegative() {
		return h, fmt.Errorf("negative quantity %s", h.Quantity)
	}
	if h.AverageCost.Valid && h.AverageCost.Decimal.IsNegative() {
		return h, fmt.Errorf("negative average cost %s", h.AverageCost.Decimal)
	}
	return h, nil
}
