package pricelog

import (
	"errors"
	"testing"
	"time"
)

func TestPeriods_CurrentPeriodStart(t *testing.T) {
	p := Periods{AnchorDay: 10, Location: time.UTC}
	tests := []struct {
		now  string
		want string
	}{
		{"2024-01-05 12:00:00", "2023-12-10 00:00:00"},
		{"2024-01-15 12:00:00", "2024-01-10 00:00:00"},
		{"2024-01-10 00:00:00", "2024-01-10 00:00:00"},
		{"2024-01-09 23:59:59", "2023-12-10 00:00:00"},
		{"2024-03-01 08:00:00", "2024-02-10 00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.now, func(t *testing.T) {
			got := p.CurrentPeriodStart(ts(tt.now))
			if want := ts(tt.want); !got.Equal(want) {
				t.Errorf("CurrentPeriodStart(%s) = %v, want %v", tt.now, got, want)
			}
		})
	}
}

func TestPeriods_Boundaries(t *testing.T) {
	p := Periods{AnchorDay: 10, Location: time.UTC}
	now := ts("2024-02-15 12:00:00")
	tests := []struct {
		i          int
		start, end string
	}{
		{0, "2024-01-10 00:00:00", "2024-02-10 00:00:00"},
		{1, "2023-12-10 00:00:00", "2024-01-10 00:00:00"},
		{2, "2023-11-10 00:00:00", "2023-12-10 00:00:00"},
		{13, "2022-12-10 00:00:00", "2023-01-10 00:00:00"},
	}
	for _, tt := range tests {
		b := p.Boundaries(now, tt.i)
		if !b.Start.Equal(ts(tt.start)) || !b.End.Equal(ts(tt.end)) {
			t.Errorf("Boundaries(%d) = %v, want %s..%s", tt.i, b, tt.start, tt.end)
		}
	}
	if got := p.Trailing(now, 3); len(got) != 3 || !got[2].Start.Equal(ts("2023-11-10 00:00:00")) {
		t.Errorf("Trailing(3) = %v", got)
	}
}

func TestNewPeriods(t *testing.T) {
	for _, day := range []int{0, 29, 31, -1} {
		if _, err := NewPeriods(day, time.UTC); !errors.Is(err, ErrConfiguration) {
			t.Errorf("NewPeriods(%d) error = %v, want ErrConfiguration", day, err)
		}
	}
	for _, day := range []int{1, 10, 28} {
		if _, err := NewPeriods(day, time.UTC); err != nil {
			t.Errorf("NewPeriods(%d) unexpected error: %v", day, err)
		}
	}
}

func TestReturnOver(t *testing.T) {
	series := Align([]Sample{
		S("2024-01-09 10:00:00", map[string]float64{"A": 50}),
		S("2024-01-10 10:00:00", map[string]float64{"A": 100}),
		S("2024-01-20 10:00:00", map[string]float64{"A": 105}),
		S("2024-02-09 10:00:00", map[string]float64{"A": 110}),
		S("2024-02-11 10:00:00", map[string]float64{"A": 200}),
	}, H("A", 1.0))
	b := Boundary{Start: ts("2024-01-10 00:00:00"), End: ts("2024-02-10 00:00:00")}

	got, err := ReturnOver(series, b)
	if err != nil {
		t.Fatalf("ReturnOver() unexpected error: %v", err)
	}
	if !got.Percent.Equal(10) {
		t.Errorf("ReturnOver() = %v, want 10%%", got.Percent)
	}
	if !got.Gain.Equal(D(10)) {
		t.Errorf("ReturnOver() gain = %v, want 10", got.Gain)
	}

	short := Boundary{Start: ts("2024-01-15 00:00:00"), End: ts("2024-02-01 00:00:00")}
	if _, err := ReturnOver(series, short); !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("ReturnOver() with one sample error = %v, want ErrInsufficientHistory", err)
	}
}

func TestPeriods_Current_AtAnchor(t *testing.T) {
	p := Periods{AnchorDay: 10, Location: time.UTC}
	now := ts("2024-01-10 00:00:00")
	b := p.Current(now)
	if !b.Start.Equal(now) || !b.End.Equal(now) {
		t.Fatalf("Current(%v) = %v, want an empty window at now", now, b)
	}
	series := Align([]Sample{
		S("2024-01-10 00:00:00", map[string]float64{"A": 100}),
		S("2024-01-11 00:00:00", map[string]float64{"A": 110}),
	}, H("A", 1.0))
	if _, err := ReturnOver(series, b); !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("ReturnOver(empty window) error = %v, want ErrInsufficientHistory", err)
	}
}
