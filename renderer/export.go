package renderer

import (
	"fmt"
	"io"
	"time"

	"github.com/etnz/pricelog"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the spreadsheet export.
const (
	SeriesSheet    = "Series"
	PositionsSheet = "Positions"
	GrowthSheet    = "Growth"
)

// Export writes the aligned series and the positions of r as an xlsx
// workbook. Amounts are converted with d, timestamps are displayed in loc.
//
// The Series sheet has one row per aligned row: the timestamp, the price of
// every held symbol (empty while it is not known yet) and the total value.
// When the benchmark comparison is defined, the Growth sheet holds the
// portfolio and the benchmark rebased to 100.
func Export(w io.Writer, r pricelog.Report, d pricelog.Display, loc *time.Location) (err error) {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", SeriesSheet); err != nil {
		return err
	}
	header := []any{"Timestamp"}
	for _, symbol := range r.Series.Symbols {
		header = append(header, symbol)
	}
	header = append(header, fmt.Sprintf("Total (%s)", d.Currency))
	if err := f.SetSheetRow(SeriesSheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range r.Series.Rows {
		values := []any{row.Time.In(loc).Format(pricelog.TimestampFormat)}
		for _, symbol := range r.Series.Symbols {
			if v, ok := row.Price(symbol); ok {
				values = append(values, d.Money(v).Value().InexactFloat64())
			} else {
				values = append(values, nil)
			}
		}
		values = append(values, d.Money(row.Total).Value().InexactFloat64())
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SeriesSheet, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SeriesSheet, "A", "A", 20); err != nil {
		return err
	}

	if _, err := f.NewSheet(PositionsSheet); err != nil {
		return err
	}
	header = []any{"Symbol", "Quantity", "Price", "Value", "Weight (%)"}
	if err := f.SetSheetRow(PositionsSheet, "A1", &header); err != nil {
		return err
	}
	for i, p := range r.Positions {
		values := []any{
			p.Symbol,
			p.Quantity.InexactFloat64(),
			d.Money(p.Price).Value().InexactFloat64(),
			d.Money(p.Value).Value().InexactFloat64(),
			float64(p.Weight),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(PositionsSheet, cell, &values); err != nil {
			return err
		}
	}

	if r.BenchmarkDefined {
		if err := exportGrowth(f, r.Benchmark, loc); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func exportGrowth(f *excelize.File, c pricelog.BenchmarkComparison, loc *time.Location) error {
	if _, err := f.NewSheet(GrowthSheet); err != nil {
		return err
	}
	header := []any{"Timestamp", "Portfolio", c.Symbol}
	if err := f.SetSheetRow(GrowthSheet, "A1", &header); err != nil {
		return err
	}
	for i, p := range c.Growth {
		values := []any{p.Time.In(loc).Format(pricelog.TimestampFormat), p.Portfolio, p.Benchmark}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(GrowthSheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(GrowthSheet, "A", "A", 20)
}
