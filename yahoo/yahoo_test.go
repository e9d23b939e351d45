package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/pricelog"
	"github.com/etnz/pricelog/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const spotResponse = `{"chart":{"result":[{"meta":{"symbol":"AAPL","regularMarketPrice":187.44,"gmtoffset":-18000}}],"error":null}}`

const historyResponse = `{"chart":{"result":[{
	"meta":{"symbol":"AAPL","gmtoffset":-18000},
	"timestamp":[1704724200,1704810600,1704897000],
	"indicators":{"quote":[{"close":[185.56,null,186.19]}]}
}],"error":null}}`

const notFoundResponse = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

// newTestServer serves AAPL charts and counts history requests.
func newTestServer(t *testing.T, historyCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v8/finance/chart/SLOW":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		case r.URL.Path != "/v8/finance/chart/AAPL":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(notFoundResponse))
		case r.URL.Query().Get("interval") == "1d":
			historyCalls.Add(1)
			w.Write([]byte(historyResponse))
		default:
			w.Write([]byte(spotResponse))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_SpotPrice(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, &calls)
	c := New(Options{BaseURL: srv.URL, CacheDir: t.TempDir(), Logger: zerolog.Nop()})

	got, err := c.SpotPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("SpotPrice() unexpected error: %v", err)
	}
	if want := decimal.RequireFromString("187.44"); !got.Equal(want) {
		t.Errorf("SpotPrice() = %v, want %v", got, want)
	}

	_, err = c.SpotPrice(context.Background(), "NOPE")
	if !errors.Is(err, pricelog.ErrDataUnavailable) {
		t.Errorf("SpotPrice(NOPE) error = %v, want ErrDataUnavailable", err)
	}
	if err != nil && !strings.Contains(err.Error(), "delisted") {
		t.Errorf("SpotPrice(NOPE) error = %v, want the api description", err)
	}
}

func TestClient_SpotPrice_Timeout(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, &calls)
	c := New(Options{BaseURL: srv.URL, CacheDir: t.TempDir(), Logger: zerolog.Nop()})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.SpotPrice(ctx, "SLOW"); !errors.Is(err, pricelog.ErrDataUnavailable) {
		t.Errorf("SpotPrice(SLOW) error = %v, want ErrDataUnavailable", err)
	}
}

func TestClient_DailyHistory(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, &calls)
	c := New(Options{BaseURL: srv.URL, CacheDir: t.TempDir(), Logger: zerolog.Nop()})
	from, to := date.New(2024, time.January, 1), date.New(2024, time.January, 10)

	h, err := c.DailyHistory(context.Background(), "AAPL", from, to)
	if err != nil {
		t.Fatalf("DailyHistory() unexpected error: %v", err)
	}
	if h.Len() != 2 {
		t.Fatalf("DailyHistory() = %d days, want 2 (one null close)", h.Len())
	}
	if v, ok := h.Get(date.New(2024, time.January, 8)); !ok || !v.Equal(decimal.RequireFromString("185.56")) {
		t.Errorf("close on 2024-01-08 = %v, want 185.56", v)
	}
	if _, ok := h.Get(date.New(2024, time.January, 9)); ok {
		t.Errorf("2024-01-09 has a null close and should be skipped")
	}

	// the second call is served by the cache.
	if _, err := c.DailyHistory(context.Background(), "AAPL", from, to); err != nil {
		t.Fatalf("DailyHistory() unexpected error: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server got %d history requests, want 1", n)
	}

	if _, err := c.DailyHistory(context.Background(), "NOPE", from, to); !errors.Is(err, pricelog.ErrDataUnavailable) {
		t.Errorf("DailyHistory(NOPE) error = %v, want ErrDataUnavailable", err)
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in      any
		want    string
		wantErr bool
	}{
		{1.5, "1.5", false},
		{[]any{2.25}, "2.25", false},
		{nil, "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		got, err := number(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("number(%v) error = %v, want error %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got.String() != tt.want {
			t.Errorf("number(%v) = %v, want %s", tt.in, got, tt.want)
		}
	}
}
