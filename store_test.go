package pricelog

import (
	"testing"
	"time"
)

func TestStore_AppendDeduplicates(t *testing.T) {
	tests := []struct {
		name string
		opts StoreOptions
		in   []Sample
		want []string // timestamp:price of A
	}{
		{
			name: "same minute replaces",
			opts: DefaultStoreOptions(),
			in: []Sample{
				S("2024-01-01 10:00:05", map[string]float64{"A": 1}),
				S("2024-01-01 10:00:40", map[string]float64{"A": 2}),
			},
			want: []string{"2024-01-01 10:00:40:2"},
		},
		{
			name: "next minute is kept",
			opts: DefaultStoreOptions(),
			in: []Sample{
				S("2024-01-01 10:00:05", map[string]float64{"A": 1}),
				S("2024-01-01 10:01:05", map[string]float64{"A": 2}),
			},
			want: []string{"2024-01-01 10:00:05:1", "2024-01-01 10:01:05:2"},
		},
		{
			name: "exact granularity",
			opts: StoreOptions{},
			in: []Sample{
				S("2024-01-01 10:00:05", map[string]float64{"A": 1}),
				S("2024-01-01 10:00:40", map[string]float64{"A": 2}),
				S("2024-01-01 10:00:40", map[string]float64{"A": 3}),
			},
			want: []string{"2024-01-01 10:00:05:1", "2024-01-01 10:00:40:3"},
		},
		{
			name: "out of order is sorted",
			opts: DefaultStoreOptions(),
			in: []Sample{
				S("2024-01-03 10:00:00", map[string]float64{"A": 3}),
				S("2024-01-01 10:00:00", map[string]float64{"A": 1}),
				S("2024-01-02 10:00:00", map[string]float64{"A": 2}),
			},
			want: []string{"2024-01-01 10:00:00:1", "2024-01-02 10:00:00:2", "2024-01-03 10:00:00:3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.opts)
			for _, sample := range tt.in {
				if err := s.Append(sample); err != nil {
					t.Fatalf("Append() unexpected error: %v", err)
				}
			}
			var got []string
			for _, sample := range s.All() {
				v, _ := sample.Prices.Lookup("A")
				got = append(got, sample.Time.Format(TimestampFormat)+":"+v.String())
			}
			if len(got) != len(tt.want) {
				t.Fatalf("All() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("All()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStore_PerSymbol(t *testing.T) {
	s := NewStore(StoreOptions{Granularity: time.Minute, Mode: PerSymbol})
	if err := s.Append(S("2024-01-01 10:00:00", map[string]float64{"A": 1, "B": 2})); err != nil {
		t.Fatalf("Append() unexpected error: %v", err)
	}
	// A is replaced, B is kept.
	if err := s.Append(S("2024-01-01 10:00:30", map[string]float64{"A": 3})); err != nil {
		t.Fatalf("Append() unexpected error: %v", err)
	}
	if got := s.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	series := Align(s.All(), H("A", 1.0, "B", 1.0))
	last, _ := series.Last()
	if !last.Total.Equal(D(5)) {
		t.Errorf("last total = %v, want 5", last.Total)
	}
}

func TestStore_AppendInvalid(t *testing.T) {
	s := NewStore(DefaultStoreOptions())
	tests := []struct {
		name   string
		sample Sample
	}{
		{"no time", Sample{Prices: P(map[string]float64{"A": 1})}},
		{"negative", S("2024-01-01 10:00:00", map[string]float64{"A": -1})},
		{"empty symbol", S("2024-01-01 10:00:00", map[string]float64{"": 1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Append(tt.sample); err == nil {
				t.Errorf("Append() expected an error")
			}
		})
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after invalid appends, want 0", s.Len())
	}
}

func TestStore_Prune(t *testing.T) {
	s := NewStore(DefaultStoreOptions())
	start := ts("2024-01-01 00:00:00")
	for i := range 10 {
		sample := Sample{Time: start.Add(time.Duration(i) * time.Hour), Prices: P(map[string]float64{"A": float64(i)})}
		if err := s.Append(sample); err != nil {
			t.Fatalf("Append() unexpected error: %v", err)
		}
	}

	if got := s.Prune(20); got != 0 {
		t.Errorf("Prune(20) = %d, want 0", got)
	}
	if got := s.Prune(4); got != 6 {
		t.Errorf("Prune(4) = %d, want 6", got)
	}
	if got := s.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}
	first := s.All()[0]
	if want := start.Add(6 * time.Hour); !first.Time.Equal(want) {
		t.Errorf("first sample at %v, want %v", first.Time, want)
	}
	// the index is still consistent after pruning.
	if err := s.Append(Sample{Time: start.Add(9 * time.Hour), Prices: P(map[string]float64{"A": 99})}); err != nil {
		t.Fatalf("Append() unexpected error: %v", err)
	}
	latest, _ := s.Latest()
	if v, _ := latest.Prices.Lookup("A"); !v.Equal(D(99)) || s.Len() != 4 {
		t.Errorf("latest A = %v with %d samples, want 99 with 4", v, s.Len())
	}
}

func TestStore_Symbols(t *testing.T) {
	s := NewStore(DefaultStoreOptions())
	s.Append(S("2024-01-01 10:00:00", map[string]float64{"B": 1}))
	s.Append(S("2024-01-02 10:00:00", map[string]float64{"A": 1, "B": 2}))
	got := s.Symbols()
	if len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Errorf("Symbols() = %v, want [B A]", got)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Snapshot, false},
		{"Snapshot", Snapshot, false},
		{"per-symbol", PerSymbol, false},
		{"bogus", Snapshot, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v, error %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
