package strategy

import (
	"fmt"

	"quant-enginev1/internal/indicator"
	"quant-enginev1/internal/model"
)

// ThresholdOsc trades midline crossings of a single bounded oscillator
// (RSI). A dip below the midline followed by a cross back above signals
// a buy; the symmetric down-cross signals a sell.
//
// TODO: replace the RSI proxy with a true MACD histogram once an EMA
// pair lands in the indicator package.
type ThresholdOsc struct {
	osc     *indicator.RSI
	midline float64

	prev   float64
	seeded bool
}

func newThresholdOsc(params Params) (*ThresholdOsc, error) {
	period := params.intOr("period", indicator.DefaultRSIPeriod)
	midline := params.floatOr("midline", 50)
	if period <= 0 {
		return nil, fmt.Errorf("threshold_osc: non-positive period: %w", ErrInvalidParams)
	}
	if midline <= 0 || midline >= 100 {
		return nil, fmt.Errorf("threshold_osc: midline %.1f outside (0,100): %w",
			midline, ErrInvalidParams)
	}
	return &ThresholdOsc{
		osc:     indicator.NewRSI(period),
		midline: midline,
	}, nil
}

func (o *ThresholdOsc) Name() string { return "threshold_osc" }

func (o *ThresholdOsc) OnBar(i int, bar model.PriceBar) *model.Signal {
	o.osc.Update(bar)
	if !o.osc.Ready() {
		return nil
	}

	cur := o.osc.Value()
	prev := o.prev
	seeded := o.seeded
	o.prev = cur
	o.seeded = true
	if !seeded {
		return nil
	}

	snapshot := map[string]float64{"osc": cur}

	if prev <= o.midline && cur > o.midline {
		return &model.Signal{
			Type:     model.SignalBuy,
			Index:    i,
			Date:     bar.Date,
			Price:    bar.Close,
			Reason:   fmt.Sprintf("oscillator crossed up through %.0f", o.midline),
			Snapshot: snapshot,
		}
	}

	if prev >= o.midline && cur < o.midline {
		return &model.Signal{
			Type:     model.SignalSell,
			Index:    i,
			Date:     bar.Date,
			Price:    bar.Close,
			Reason:   fmt.Sprintf("oscillator crossed down through %.0f", o.midline),
			Snapshot: snapshot,
		}
	}

	return nil
}
