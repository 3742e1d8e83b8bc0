package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"quant-enginev1/internal/model"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func seriesOf(closes ...float64) model.PriceSeries {
	s := make(model.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = model.PriceBar{
			Date:   day(i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return s
}

func buy(index int, price float64) model.Signal {
	return model.Signal{Type: model.SignalBuy, Index: index, Date: day(index), Price: price}
}

func sell(index int, price float64) model.Signal {
	return model.Signal{Type: model.SignalSell, Index: index, Date: day(index), Price: price}
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f", label, got, want)
	}
}

func mustSim(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	sim, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sim
}

func TestRun_SingleRoundTrip(t *testing.T) {
	// 10000 in, buy at 100, sell at 110: 100 shares, out with 11000.
	sim := mustSim(t, Config{InitialCapital: 10000})
	series := seriesOf(100, 105, 110, 108)
	signals := []model.Signal{buy(0, 100), sell(2, 110)}

	res, err := sim.Run(series, signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	assertClose(t, "FinalCapital", res.FinalCapital, 11000, 0.0001)
	assertClose(t, "TotalReturnPct", res.TotalReturnPct, 10, 0.0001)
	if res.TradeCount != 2 {
		t.Errorf("TradeCount = %d, want 2 (one buy + one sell fill)", res.TradeCount)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("len(Trades) = %d, want 1", len(res.Trades))
	}
	trade := res.Trades[0]
	assertClose(t, "Trade.Shares", trade.Shares, 100, 0.0001)
	assertClose(t, "Trade.PnL", trade.PnL, 1000, 0.0001)
	assertClose(t, "Trade.ReturnPct", trade.ReturnPct, 10, 0.0001)
	assertClose(t, "WinRatePct", res.WinRatePct, 100, 0.0001)
	assertClose(t, "MaxDrawdownPct", res.MaxDrawdownPct, 0, 0.0001)

	// Equity curve tracks the position bar by bar.
	wantEquity := []float64{10000, 10500, 11000, 11000}
	if len(res.EquityCurve) != len(series) {
		t.Fatalf("len(EquityCurve) = %d, want %d", len(res.EquityCurve), len(series))
	}
	for i, w := range wantEquity {
		assertClose(t, "EquityCurve", res.EquityCurve[i].Equity, w, 0.0001)
	}
}

func TestRun_Commission(t *testing.T) {
	// 1% commission on both fills:
	//   buy: 10000 * 0.99 / 100 = 99 shares
	//   sell: 99 * 110 * 0.99 = 10781.10
	sim := mustSim(t, Config{InitialCapital: 10000, Commission: 0.01})
	series := seriesOf(100, 110)
	res, err := sim.Run(series, []model.Signal{buy(0, 100), sell(1, 110)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertClose(t, "FinalCapital", res.FinalCapital, 10781.10, 0.0001)
	assertClose(t, "Trade.Shares", res.Trades[0].Shares, 99, 0.0001)
	// Entry cost grosses the commission back up to the full 10000 spent.
	assertClose(t, "Trade.PnL", res.Trades[0].PnL, 781.10, 0.0001)
}

func TestRun_Slippage(t *testing.T) {
	// 1% slippage worsens both fills: buy at 101, sell at 108.9.
	sim := mustSim(t, Config{InitialCapital: 10000, Slippage: 0.01})
	series := seriesOf(100, 110)
	res, err := sim.Run(series, []model.Signal{buy(0, 100), sell(1, 110)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantShares := 10000.0 / 101.0
	assertClose(t, "Trade.Shares", res.Trades[0].Shares, wantShares, 0.0001)
	assertClose(t, "FinalCapital", res.FinalCapital, wantShares*108.9, 0.0001)
}

func TestRun_OpenPositionMarkedToMarket(t *testing.T) {
	// Buy and never sell: the open position is valued at the final close,
	// but no Trade is recorded and no sell fill counted.
	sim := mustSim(t, Config{InitialCapital: 10000})
	series := seriesOf(100, 120, 90, 110)
	res, err := sim.Run(series, []model.Signal{buy(0, 100)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertClose(t, "FinalCapital", res.FinalCapital, 11000, 0.0001)
	if res.TradeCount != 1 {
		t.Errorf("TradeCount = %d, want 1", res.TradeCount)
	}
	if len(res.Trades) != 0 {
		t.Errorf("len(Trades) = %d, want 0 (round trip never completed)", len(res.Trades))
	}
	assertClose(t, "WinRatePct", res.WinRatePct, 0, 0.0001)

	// Peak 12000 at bar 1, trough 9000 at bar 2 → 25% drawdown.
	assertClose(t, "MaxDrawdownPct", res.MaxDrawdownPct, 25, 0.0001)
}

func TestRun_MismatchedSignalsIgnored(t *testing.T) {
	// SELL while flat and a second BUY while long are both dropped.
	sim := mustSim(t, Config{InitialCapital: 10000})
	series := seriesOf(100, 110, 120)
	signals := []model.Signal{sell(0, 100), buy(1, 110), buy(2, 120)}

	res, err := sim.Run(series, signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TradeCount != 1 {
		t.Errorf("TradeCount = %d, want 1 (only the first BUY fills)", res.TradeCount)
	}
	assertClose(t, "FinalCapital", res.FinalCapital, 10000.0/110.0*120.0, 0.0001)
}

func TestRun_NoSignals_FlatRun(t *testing.T) {
	sim := mustSim(t, Config{InitialCapital: 10000})
	series := seriesOf(100, 90, 110)
	res, err := sim.Run(series, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertClose(t, "FinalCapital", res.FinalCapital, 10000, 0.0001)
	assertClose(t, "TotalReturnPct", res.TotalReturnPct, 0, 0.0001)
	if res.TradeCount != 0 {
		t.Errorf("TradeCount = %d, want 0", res.TradeCount)
	}
	// Cash never draws down.
	assertClose(t, "MaxDrawdownPct", res.MaxDrawdownPct, 0, 0.0001)
}

func TestRun_SameBarRoundTrip(t *testing.T) {
	// Buy and sell on the same bar at the same price: a zero-PnL round
	// trip, both fills counted.
	sim := mustSim(t, Config{InitialCapital: 10000})
	series := seriesOf(100, 105)
	res, err := sim.Run(series, []model.Signal{buy(1, 105), sell(1, 105)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TradeCount != 2 || len(res.Trades) != 1 {
		t.Fatalf("TradeCount=%d Trades=%d, want 2/1", res.TradeCount, len(res.Trades))
	}
	assertClose(t, "Trade.PnL", res.Trades[0].PnL, 0, 0.0001)
	// Zero PnL is not a win.
	assertClose(t, "WinRatePct", res.WinRatePct, 0, 0.0001)
}

func TestRun_WinRateMixed(t *testing.T) {
	// Round trip 1: 100 → 110, a win. Round trip 2: 105 → 95, a loss.
	sim := mustSim(t, Config{InitialCapital: 10000})
	series := seriesOf(100, 110, 105, 95, 100, 90)
	signals := []model.Signal{buy(0, 100), sell(1, 110), buy(2, 105), sell(3, 95)}

	res, err := sim.Run(series, signals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) != 2 {
		t.Fatalf("len(Trades) = %d, want 2", len(res.Trades))
	}
	assertClose(t, "WinRatePct", res.WinRatePct, 50, 0.0001)
	if res.TradeCount != 4 {
		t.Errorf("TradeCount = %d, want 4", res.TradeCount)
	}
	assertClose(t, "FinalCapital", res.FinalCapital, 11000.0/105.0*95.0, 0.0001)
}

func TestRun_AnnualizedReturn(t *testing.T) {
	// One calendar year, 10% total → CAGR ≈ total return.
	sim := mustSim(t, Config{InitialCapital: 10000})
	series := model.PriceSeries{
		{Date: day(0), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1},
		{Date: day(365), Open: 110, High: 111, Low: 109, Close: 110, Volume: 1},
	}
	res, err := sim.Run(series, []model.Signal{buy(0, 100), sell(1, 110)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertClose(t, "AnnualReturnPct", res.AnnualReturnPct, 10, 0.0001)
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{InitialCapital: 0}); !errors.Is(err, ErrInvalidCapital) {
		t.Errorf("zero capital: got %v, want ErrInvalidCapital", err)
	}
	if _, err := New(Config{InitialCapital: -5}); !errors.Is(err, ErrInvalidCapital) {
		t.Errorf("negative capital: got %v, want ErrInvalidCapital", err)
	}
	if _, err := New(Config{InitialCapital: 1000, Commission: 1.5}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("commission >= 1: got %v, want ErrInvalidConfig", err)
	}
	if _, err := New(Config{InitialCapital: 1000, Slippage: -0.1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("negative slippage: got %v, want ErrInvalidConfig", err)
	}
}

func TestRun_SignalValidation(t *testing.T) {
	sim := mustSim(t, Config{InitialCapital: 10000})
	series := seriesOf(100, 110)

	if _, err := sim.Run(nil, nil); !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("empty series: got %v, want ErrEmptySeries", err)
	}
	if _, err := sim.Run(series, []model.Signal{buy(5, 100)}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("out-of-range index: got %v, want ErrInvalidConfig", err)
	}
	if _, err := sim.Run(series, []model.Signal{sell(1, 110), buy(0, 100)}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("descending indices: got %v, want ErrInvalidConfig", err)
	}
}

func TestRun_Reusable(t *testing.T) {
	// One Simulator, two runs: no state bleeds between them.
	sim := mustSim(t, Config{InitialCapital: 10000})
	series := seriesOf(100, 110)
	signals := []model.Signal{buy(0, 100), sell(1, 110)}

	a, err := sim.Run(series, signals)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	b, err := sim.Run(series, signals)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	assertClose(t, "repeat FinalCapital", b.FinalCapital, a.FinalCapital, 0.0001)
	if b.TradeCount != a.TradeCount {
		t.Errorf("TradeCount differs across runs: %d vs %d", a.TradeCount, b.TradeCount)
	}
}
