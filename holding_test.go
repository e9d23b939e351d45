package pricelog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecodeHoldings(t *testing.T) {
	h, err := DecodeHoldings(strings.NewReader(`{"VTI": 10, "AAPL": {"amount": 2.5, "avg_price": 150}, "BND": {"amount": 4}}`))
	if err != nil {
		t.Fatalf("DecodeHoldings() unexpected error: %v", err)
	}
	if got := strings.Join(h.Symbols(), ","); got != "VTI,AAPL,BND" {
		t.Errorf("Symbols() = %s, want file order VTI,AAPL,BND", got)
	}
	aapl, ok := h.Get("AAPL")
	if !ok {
		t.Fatalf("Get(AAPL) not found")
	}
	if !aapl.Quantity.Equal(D(2.5)) || !aapl.AverageCost.Valid || !aapl.AverageCost.Decimal.Equal(D(150)) {
		t.Errorf("AAPL = %v @ %v, want 2.5 @ 150", aapl.Quantity, aapl.AverageCost)
	}
	if bnd, _ := h.Get("BND"); bnd.AverageCost.Valid {
		t.Errorf("BND should not have an average cost")
	}
}

func TestDecodeHoldings_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		corrupt bool
	}{
		{"empty input", "", false},
		{"empty object", "{}", false},
		{"array", "[1, 2]", true},
		{"malformed", `{"VTI": 1,`, true},
		{"negative", `{"VTI": -1}`, false},
		{"null", `{"VTI": null}`, false},
		{"missing amount", `{"VTI": {"avg_price": 1}}`, false},
		{"duplicate", `{"VTI": 1, "VTI": 2}`, false},
		{"text amount", `{"VTI": "ten"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHoldings(strings.NewReader(tt.input))
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("DecodeHoldings() error = %v, want ErrConfiguration", err)
			}
			if got := errors.Is(err, ErrCorruptState); got != tt.corrupt {
				t.Errorf("errors.Is(err, ErrCorruptState) = %v, want %v", got, tt.corrupt)
			}
		})
	}
}

func TestLoadHoldings(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadHoldings(filepath.Join(dir, "missing.json")); !errors.Is(err, ErrConfiguration) {
		t.Errorf("LoadHoldings() of a missing file error = %v, want ErrConfiguration", err)
	}

	path := filepath.Join(dir, "holdings.json")
	if err := os.WriteFile(path, []byte(`{"A": 2, "B": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	h, err := LoadHoldings(path)
	if err != nil {
		t.Fatalf("LoadHoldings() unexpected error: %v", err)
	}
	if len(h) != 2 {
		t.Errorf("LoadHoldings() = %d holdings, want 2", len(h))
	}
}
