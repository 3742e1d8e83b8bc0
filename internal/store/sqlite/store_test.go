package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"quant-enginev1/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSeries(n int) model.PriceSeries {
	s := make(model.PriceSeries, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range s {
		c := 100.0 + float64(i)
		s[i] = model.PriceBar{
			Date:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c + 2,
			Low:    c - 2,
			Close:  c + 1,
			Volume: int64(1000 + i),
		}
	}
	return s
}

func TestSaveLoadSeries_RoundTrip(t *testing.T) {
	store := openTemp(t)
	want := sampleSeries(5)

	if err := store.SaveSeries("krx_005930", want); err != nil {
		t.Fatalf("SaveSeries: %v", err)
	}
	got, err := store.LoadSeries("krx_005930")
	if err != nil {
		t.Fatalf("LoadSeries: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Date.Equal(want[i].Date) || got[i].Close != want[i].Close || got[i].Volume != want[i].Volume {
			t.Errorf("bar %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSaveSeries_ReplacesExistingBars(t *testing.T) {
	store := openTemp(t)
	if err := store.SaveSeries("s", sampleSeries(3)); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// Same dates, new closes. INSERT OR REPLACE keeps one row per date.
	updated := sampleSeries(3)
	for i := range updated {
		updated[i].Close = 500 + float64(i)
		updated[i].High = 510 + float64(i)
	}
	if err := store.SaveSeries("s", updated); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.LoadSeries("s")
	if err != nil {
		t.Fatalf("LoadSeries: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (no duplicates)", len(got))
	}
	if got[0].Close != 500 {
		t.Errorf("bar 0 close = %v, want 500", got[0].Close)
	}
}

func TestSaveSeries_RejectsInvalid(t *testing.T) {
	store := openTemp(t)
	if err := store.SaveSeries("bad", nil); !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("got %v, want ErrEmptySeries", err)
	}
}

func TestLoadSeries_Unknown(t *testing.T) {
	store := openTemp(t)
	if _, err := store.LoadSeries("missing"); !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("got %v, want ErrEmptySeries", err)
	}
}

func TestListSeries(t *testing.T) {
	store := openTemp(t)
	if err := store.SaveSeries("alpha", sampleSeries(3)); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSeries("beta", sampleSeries(5)); err != nil {
		t.Fatal(err)
	}

	list, err := store.ListSeries()
	if err != nil {
		t.Fatalf("ListSeries: %v", err)
	}
	if len(list) != 2 || list["alpha"] != 3 || list["beta"] != 5 {
		t.Errorf("ListSeries = %v", list)
	}
}

func TestRunJournal(t *testing.T) {
	store := openTemp(t)

	for i := 0; i < 3; i++ {
		err := store.RecordRun(RunRecord{
			Strategy:       "golden_cross",
			Params:         `{"fast_period":5,"slow_period":20}`,
			InitialCapital: 10000,
			FinalCapital:   11000 + float64(i),
			TotalReturnPct: 10,
			TradeCount:     2,
			Result:         `{}`,
		})
		if err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
	}

	recs, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2 (limit applied)", len(recs))
	}
	// Most recent first.
	if recs[0].FinalCapital != 11002 {
		t.Errorf("newest FinalCapital = %v, want 11002", recs[0].FinalCapital)
	}
	if recs[0].Strategy != "golden_cross" || recs[0].TradeCount != 2 {
		t.Errorf("record = %+v", recs[0])
	}

	// Zero limit falls back to the default.
	all, err := store.RecentRuns(0)
	if err != nil {
		t.Fatalf("RecentRuns(0): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}
}
