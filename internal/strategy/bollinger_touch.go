package strategy

import (
	"fmt"

	"quant-enginev1/internal/indicator"
	"quant-enginev1/internal/model"
)

// BollingerTouch trades band re-entries: a close that dips to or below
// the lower band and then comes back inside signals a buy, the symmetric
// move off the upper band signals a sell.
type BollingerTouch struct {
	boll *indicator.Bollinger

	prevClose float64
	prevUpper float64
	prevLower float64
	seeded    bool
}

func newBollingerTouch(params Params) (*BollingerTouch, error) {
	period := params.intOr("period", 20)
	stdDev := params.floatOr("std_dev", indicator.DefaultBollingerStdDev)
	if period <= 0 {
		return nil, fmt.Errorf("bollinger_touch: non-positive period: %w", ErrInvalidParams)
	}
	if stdDev <= 0 {
		return nil, fmt.Errorf("bollinger_touch: std dev %.2f must be positive: %w",
			stdDev, ErrInvalidParams)
	}
	return &BollingerTouch{
		boll: indicator.NewBollinger(period, stdDev),
	}, nil
}

func (b *BollingerTouch) Name() string { return "bollinger_touch" }

func (b *BollingerTouch) OnBar(i int, bar model.PriceBar) *model.Signal {
	b.boll.Update(bar)
	if !b.boll.Ready() {
		return nil
	}

	upper, middle, lower := b.boll.Bands()
	prevClose, prevUpper, prevLower := b.prevClose, b.prevUpper, b.prevLower
	seeded := b.seeded
	b.prevClose, b.prevUpper, b.prevLower = bar.Close, upper, lower
	b.seeded = true
	if !seeded {
		return nil
	}

	snapshot := map[string]float64{"upper": upper, "middle": middle, "lower": lower}

	// Re-entry from below the lower band
	if prevClose <= prevLower && bar.Close > lower {
		return &model.Signal{
			Type:     model.SignalBuy,
			Index:    i,
			Date:     bar.Date,
			Price:    bar.Close,
			Reason:   "close crossed back above lower band",
			Snapshot: snapshot,
		}
	}

	// Re-entry from above the upper band
	if prevClose >= prevUpper && bar.Close < upper {
		return &model.Signal{
			Type:     model.SignalSell,
			Index:    i,
			Date:     bar.Date,
			Price:    bar.Close,
			Reason:   "close crossed back below upper band",
			Snapshot: snapshot,
		}
	}

	return nil
}
