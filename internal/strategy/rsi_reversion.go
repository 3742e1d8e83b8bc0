package strategy

import (
	"fmt"

	"quant-enginev1/internal/indicator"
	"quant-enginev1/internal/model"
)

// RSIReversion implements a mean-reversion strategy on RSI threshold
// crossings.
//
// Buy signal: RSI crosses upward through the oversold threshold
// Sell signal: RSI crosses downward through the overbought threshold
//
// Both the previous and current bar's RSI must be defined, so the first
// ready bar only seeds the detector.
type RSIReversion struct {
	rsi        *indicator.RSI
	oversold   float64
	overbought float64

	prevRSI float64
	seeded  bool
}

func newRSIReversion(params Params) (*RSIReversion, error) {
	period := params.intOr("rsi_period", indicator.DefaultRSIPeriod)
	oversold := params.floatOr("oversold", 30)
	overbought := params.floatOr("overbought", 70)
	if period <= 0 {
		return nil, fmt.Errorf("rsi_reversion: non-positive period: %w", ErrInvalidParams)
	}
	if oversold <= 0 || overbought >= 100 || oversold >= overbought {
		return nil, fmt.Errorf("rsi_reversion: thresholds %.1f/%.1f out of order: %w",
			oversold, overbought, ErrInvalidParams)
	}
	return &RSIReversion{
		rsi:        indicator.NewRSI(period),
		oversold:   oversold,
		overbought: overbought,
	}, nil
}

func (r *RSIReversion) Name() string { return "rsi_reversion" }

func (r *RSIReversion) OnBar(i int, bar model.PriceBar) *model.Signal {
	r.rsi.Update(bar)
	if !r.rsi.Ready() {
		return nil
	}

	rsi := r.rsi.Value()
	prev := r.prevRSI
	seeded := r.seeded
	r.prevRSI = rsi
	r.seeded = true
	if !seeded {
		return nil
	}

	snapshot := map[string]float64{"rsi": rsi}

	// Recovery from oversold
	if prev <= r.oversold && rsi > r.oversold {
		return &model.Signal{
			Type:     model.SignalBuy,
			Index:    i,
			Date:     bar.Date,
			Price:    bar.Close,
			Reason:   fmt.Sprintf("RSI crossed up through %.0f", r.oversold),
			Snapshot: snapshot,
		}
	}

	// Fall from overbought
	if prev >= r.overbought && rsi < r.overbought {
		return &model.Signal{
			Type:     model.SignalSell,
			Index:    i,
			Date:     bar.Date,
			Price:    bar.Close,
			Reason:   fmt.Sprintf("RSI crossed down through %.0f", r.overbought),
			Snapshot: snapshot,
		}
	}

	return nil
}
