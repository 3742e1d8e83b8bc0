package model

import (
	"encoding/json"
	"time"
)

// Trade is one completed round trip: a BUY entry paired with the SELL
// exit that closed it. Positions still open at the end of a run are
// marked to market in the result but do not produce a Trade.
type Trade struct {
	EntryIndex int       `json:"entry_index"`
	ExitIndex  int       `json:"exit_index"`
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Shares     float64   `json:"shares"`
	PnL        float64   `json:"pnl"`
	ReturnPct  float64   `json:"return_pct"`
}

// EquityPoint is the portfolio value marked to market at one bar.
type EquityPoint struct {
	Index  int       `json:"index"`
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// BacktestResult holds the performance metrics of one simulation run.
// Computed once per (series, strategy, parameters, capital) tuple and
// immutable afterwards.
type BacktestResult struct {
	Strategy        string        `json:"strategy"`
	InitialCapital  float64       `json:"initial_capital"`
	FinalCapital    float64       `json:"final_capital"`
	TotalReturnPct  float64       `json:"total_return_pct"`
	AnnualReturnPct float64       `json:"annual_return_pct"`
	WinRatePct      float64       `json:"win_rate_pct"`
	MaxDrawdownPct  float64       `json:"max_drawdown_pct"`
	TradeCount      int           `json:"trade_count"` // executed fills (entries + exits)
	Signals         []Signal      `json:"signals"`
	Trades          []Trade       `json:"trades"`
	EquityCurve     []EquityPoint `json:"equity_curve"`
}

// JSON returns the JSON-encoded result (ignoring errors for logging usage).
func (r *BacktestResult) JSON() []byte {
	b, _ := json.Marshal(r)
	return b
}
