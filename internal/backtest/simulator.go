// Package backtest replays trading signals against a price series with a
// single-position model and produces performance metrics.
//
// The simulator is a two-state machine: FLAT (all cash) or LONG (fully
// invested, one position, no leverage, no shorting, no partial fills).
// Signals that do not match a valid transition for the current state are
// ignored — that is the de-duplication policy for generators that emit
// raw crossing events.
package backtest

import (
	"errors"
	"fmt"

	"quant-enginev1/internal/model"
)

var (
	ErrInvalidCapital = errors.New("initial capital must be positive")
	ErrInvalidConfig  = errors.New("invalid backtest configuration")
	ErrNonFinite      = errors.New("non-finite value in backtest result")
)

// Config configures one simulation run. Commission and Slippage are
// optional extensions, expressed as fractions of notional per fill
// (e.g. 0.0005 = 5 bp); both default to zero.
type Config struct {
	InitialCapital float64
	Commission     float64
	Slippage       float64
}

// Simulator replays signals against price data. Stateless between runs —
// each Run allocates fresh position state, so one Simulator may serve
// concurrent independent requests.
type Simulator struct {
	cfg Config
}

// New validates the config and creates a Simulator.
func New(cfg Config) (*Simulator, error) {
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("%.2f: %w", cfg.InitialCapital, ErrInvalidCapital)
	}
	if cfg.Commission < 0 || cfg.Commission >= 1 {
		return nil, fmt.Errorf("commission %.4f outside [0,1): %w", cfg.Commission, ErrInvalidConfig)
	}
	if cfg.Slippage < 0 || cfg.Slippage >= 1 {
		return nil, fmt.Errorf("slippage %.4f outside [0,1): %w", cfg.Slippage, ErrInvalidConfig)
	}
	return &Simulator{cfg: cfg}, nil
}

// position state
type posState int

const (
	flat posState = iota
	long
)

// Run replays the signals against the series and computes metrics.
// Signals must be ascending by index and index-bound to the series; an
// empty signal list is valid and yields a 0% flat run. A position still
// open at the final bar is marked to market at its close — for return
// computation only, no SELL is emitted or counted.
func (s *Simulator) Run(series model.PriceSeries, signals []model.Signal) (*model.BacktestResult, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	for i := range signals {
		if signals[i].Index < 0 || signals[i].Index >= len(series) {
			return nil, fmt.Errorf("signal %d: index %d outside series of %d bars: %w",
				i, signals[i].Index, len(series), ErrInvalidConfig)
		}
		if i > 0 && signals[i].Index < signals[i-1].Index {
			return nil, fmt.Errorf("signal %d: index %d before previous %d: %w",
				i, signals[i].Index, signals[i-1].Index, ErrInvalidConfig)
		}
	}

	res := &model.BacktestResult{
		InitialCapital: s.cfg.InitialCapital,
		Signals:        signals,
		EquityCurve:    make([]model.EquityPoint, 0, len(series)),
	}

	state := flat
	capital := s.cfg.InitialCapital
	shares := 0.0

	var entry model.Signal // BUY that opened the current position
	var entryShares float64

	next := 0 // cursor into signals
	for i := range series {
		bar := series[i]

		for next < len(signals) && signals[next].Index == i {
			sig := signals[next]
			next++

			switch {
			case state == flat && sig.Type == model.SignalBuy:
				fill := sig.Price * (1 + s.cfg.Slippage)
				shares = capital * (1 - s.cfg.Commission) / fill
				capital = 0
				state = long
				entry = sig
				entryShares = shares
				res.TradeCount++

			case state == long && sig.Type == model.SignalSell:
				fill := sig.Price * (1 - s.cfg.Slippage)
				capital = shares * fill * (1 - s.cfg.Commission)
				entryCost := entry.Price * (1 + s.cfg.Slippage) * entryShares / (1 - s.cfg.Commission)
				res.Trades = append(res.Trades, model.Trade{
					EntryIndex: entry.Index,
					ExitIndex:  sig.Index,
					EntryDate:  entry.Date,
					ExitDate:   sig.Date,
					EntryPrice: entry.Price,
					ExitPrice:  sig.Price,
					Shares:     entryShares,
					PnL:        capital - entryCost,
					ReturnPct:  (capital - entryCost) / entryCost * 100,
				})
				shares = 0
				state = flat
				res.TradeCount++

			default:
				// BUY while long or SELL while flat: no valid transition, drop.
			}
		}

		equity := capital
		if state == long {
			equity = shares * bar.Close
		}
		res.EquityCurve = append(res.EquityCurve, model.EquityPoint{
			Index:  i,
			Date:   bar.Date,
			Equity: equity,
		})
	}

	if state == long {
		// Mark-to-market the open position at the final close.
		capital = shares * series[len(series)-1].Close
	}
	res.FinalCapital = capital

	fillMetrics(res, series)
	if err := checkFinite(res); err != nil {
		return nil, err
	}
	return res, nil
}
