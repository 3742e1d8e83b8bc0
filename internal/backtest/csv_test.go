package backtest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quant-enginev1/internal/model"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestReadCSV_WithHeader(t *testing.T) {
	path := writeTemp(t, "prices.csv", strings.Join([]string{
		"date,open,high,low,close,volume",
		"2024-01-02,100,105,99,104,15000",
		"2024-01-03,104,108,103,107,12000",
		"2024-01-04,107,107.5,101,102,18000",
	}, "\n"))

	series, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("len(series) = %d, want 3", len(series))
	}
	if series[0].Close != 104 || series[0].Volume != 15000 {
		t.Errorf("bar 0 = %+v", series[0])
	}
	if got := series[2].Date.Format("2006-01-02"); got != "2024-01-04" {
		t.Errorf("bar 2 date = %s", got)
	}
}

func TestReadCSV_NoHeader(t *testing.T) {
	path := writeTemp(t, "bare.csv", strings.Join([]string{
		"2024-01-02,100,105,99,104,15000",
		"2024-01-03,104,108,103,107,12000",
	}, "\n"))

	series, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("len(series) = %d, want 2 (first line is data, not header)", len(series))
	}
}

func TestReadCSV_BadRow(t *testing.T) {
	path := writeTemp(t, "bad.csv", strings.Join([]string{
		"2024-01-02,100,105,99,104,15000",
		"2024-01-03,104,108,103,abc,12000",
	}, "\n"))

	if _, err := ReadCSV(path); err == nil {
		t.Fatal("expected error for non-numeric close")
	}
}

func TestReadCSV_OutOfOrderDates(t *testing.T) {
	path := writeTemp(t, "unordered.csv", strings.Join([]string{
		"2024-01-03,104,108,103,107,12000",
		"2024-01-02,100,105,99,104,15000",
	}, "\n"))

	if _, err := ReadCSV(path); !errors.Is(err, model.ErrInvalidSeries) {
		t.Fatalf("got %v, want ErrInvalidSeries", err)
	}
}

func TestReadCSV_MissingFile(t *testing.T) {
	if _, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriteTradesCSV(t *testing.T) {
	trades := []model.Trade{
		{
			EntryIndex: 0, ExitIndex: 2,
			EntryDate: day(0), ExitDate: day(2),
			EntryPrice: 100, ExitPrice: 110,
			Shares: 100, PnL: 1000, ReturnPct: 10,
		},
	}
	path := filepath.Join(t.TempDir(), "trades.csv")
	if err := WriteTradesCSV(trades, path); err != nil {
		t.Fatalf("WriteTradesCSV: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 trade", len(lines))
	}
	if !strings.HasPrefix(lines[0], "entry_date,exit_date") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "2024-01-01") || !strings.Contains(lines[1], "1000") {
		t.Errorf("trade row = %q", lines[1])
	}
}
