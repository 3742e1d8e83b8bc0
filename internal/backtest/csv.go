package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"quant-enginev1/internal/model"
)

// ReadCSV loads a price series from a CSV file with columns
// date,open,high,low,close,volume. A header row is detected and skipped.
// Dates are YYYY-MM-DD. The returned series is validated.
func ReadCSV(path string) (model.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	var series model.PriceSeries
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		line++

		// Header row: first line with a non-date first field
		if line == 1 {
			if _, err := time.Parse("2006-01-02", rec[0]); err != nil {
				continue
			}
		}

		bar, err := parseBar(rec)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		series = append(series, bar)
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}
	return series, nil
}

func parseBar(rec []string) (model.PriceBar, error) {
	date, err := time.Parse("2006-01-02", rec[0])
	if err != nil {
		return model.PriceBar{}, fmt.Errorf("bad date %q: %w", rec[0], err)
	}
	vals := make([]float64, 4)
	for i, field := range rec[1:5] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return model.PriceBar{}, fmt.Errorf("bad price %q: %w", field, err)
		}
		vals[i] = v
	}
	volume, err := strconv.ParseInt(rec[5], 10, 64)
	if err != nil {
		return model.PriceBar{}, fmt.Errorf("bad volume %q: %w", rec[5], err)
	}
	return model.PriceBar{
		Date:   date.UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: volume,
	}, nil
}

// WriteTradesCSV exports completed round trips for offline analysis.
func WriteTradesCSV(trades []model.Trade, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv create: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"entry_date", "exit_date", "entry_price", "exit_price",
		"shares", "pnl", "return_pct",
	}); err != nil {
		return err
	}
	for _, t := range trades {
		if err := w.Write([]string{
			t.EntryDate.Format("2006-01-02"),
			t.ExitDate.Format("2006-01-02"),
			formatF(t.EntryPrice), formatF(t.ExitPrice),
			formatF(t.Shares), formatF(t.PnL), formatF(t.ReturnPct),
		}); err != nil {
			return err
		}
	}
	return nil
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
