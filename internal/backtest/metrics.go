package backtest

import (
	"fmt"
	"math"

	"quant-enginev1/internal/model"
)

// fillMetrics rolls up total/annualized return, win rate, and max
// drawdown. Called once per run after the replay loop.
func fillMetrics(res *model.BacktestResult, series model.PriceSeries) {
	res.TotalReturnPct = (res.FinalCapital - res.InitialCapital) / res.InitialCapital * 100

	// CAGR over the calendar span of the series. A span under one day
	// cannot be annualized meaningfully, fall back to the total return.
	days := series.SpanDays()
	if days > 0 {
		res.AnnualReturnPct = (math.Pow(res.FinalCapital/res.InitialCapital, 365/days) - 1) * 100
	} else {
		res.AnnualReturnPct = res.TotalReturnPct
	}

	// Win rate over completed round trips. A position still open at the
	// end of the series produced no Trade and is excluded.
	if len(res.Trades) > 0 {
		wins := 0
		for _, t := range res.Trades {
			if t.PnL > 0 {
				wins++
			}
		}
		res.WinRatePct = float64(wins) / float64(len(res.Trades)) * 100
	}

	res.MaxDrawdownPct = maxDrawdown(res.EquityCurve)
}

// maxDrawdown returns the largest peak-to-trough equity decline in percent.
func maxDrawdown(curve []model.EquityPoint) float64 {
	peak := 0.0
	maxDD := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// checkFinite rejects results whose metrics degenerated into NaN or Inf,
// so numeric garbage never reaches a caller.
func checkFinite(res *model.BacktestResult) error {
	for name, v := range map[string]float64{
		"final_capital":     res.FinalCapital,
		"total_return_pct":  res.TotalReturnPct,
		"annual_return_pct": res.AnnualReturnPct,
		"win_rate_pct":      res.WinRatePct,
		"max_drawdown_pct":  res.MaxDrawdownPct,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: %w", name, ErrNonFinite)
		}
	}
	return nil
}
