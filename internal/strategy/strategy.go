// Package strategy provides the signal generators for the backtest engine.
//
// A Strategy receives price bars one at a time and emits trading signals
// (BUY/SELL) on indicator transitions. Strategies own their indicator
// state; each instance is good for exactly one replay over one series.
// Generators emit raw crossing events and do not deduplicate consecutive
// same-direction signals — position-aware filtering is the simulator's job.
package strategy

import (
	"errors"
	"fmt"

	"quant-enginev1/internal/model"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrInvalidParams   = errors.New("invalid strategy parameters")
)

// Strategy is the interface that all signal generators implement.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// OnBar is called for each bar of the series in order.
	// Returns a Signal if the strategy wants to act, or nil to skip.
	OnBar(i int, bar model.PriceBar) *model.Signal
}

// Params carries per-strategy tuning values keyed by parameter name.
// Missing keys fall back to the strategy's defaults.
type Params map[string]float64

func (p Params) intOr(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

func (p Params) floatOr(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// New creates a strategy instance by name. Parameter validation happens
// here so a bad request fails before any computation starts.
func New(name string, params Params) (Strategy, error) {
	switch name {
	case "golden_cross":
		return newGoldenCross(params)
	case "rsi_reversion":
		return newRSIReversion(params)
	case "bollinger_touch":
		return newBollingerTouch(params)
	case "threshold_osc":
		return newThresholdOsc(params)
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownStrategy)
	}
}

// Run replays a full series through a freshly-built strategy and collects
// its signals in bar order. Deterministic given identical inputs.
func Run(series model.PriceSeries, name string, params Params) ([]model.Signal, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	s, err := New(name, params)
	if err != nil {
		return nil, err
	}

	var signals []model.Signal
	for i := range series {
		if sig := s.OnBar(i, series[i]); sig != nil {
			signals = append(signals, *sig)
		}
	}
	return signals, nil
}
