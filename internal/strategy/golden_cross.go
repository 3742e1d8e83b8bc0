package strategy

import (
	"fmt"

	"quant-enginev1/internal/indicator"
	"quant-enginev1/internal/model"
)

// GoldenCross implements the classic SMA crossover strategy.
//
// Buy signal: fast SMA crosses above slow SMA (golden cross)
// Sell signal: fast SMA crosses below slow SMA (death cross)
//
// The first bar where both averages are defined books the prevailing
// regime as the initial cross, so a series that is already trending when
// the slow window fills produces its entry signal instead of staying
// silent for the whole run.
type GoldenCross struct {
	fast *indicator.SMA
	slow *indicator.SMA

	prevFast float64
	prevSlow float64
	seeded   bool
}

func newGoldenCross(params Params) (*GoldenCross, error) {
	fastPeriod := params.intOr("fast_period", 5)
	slowPeriod := params.intOr("slow_period", 20)
	if fastPeriod <= 0 || slowPeriod <= 0 {
		return nil, fmt.Errorf("golden_cross: non-positive period: %w", ErrInvalidParams)
	}
	if fastPeriod >= slowPeriod {
		return nil, fmt.Errorf("golden_cross: fast period %d must be below slow period %d: %w",
			fastPeriod, slowPeriod, ErrInvalidParams)
	}
	return &GoldenCross{
		fast: indicator.NewSMA(fastPeriod),
		slow: indicator.NewSMA(slowPeriod),
	}, nil
}

func (g *GoldenCross) Name() string { return "golden_cross" }

func (g *GoldenCross) OnBar(i int, bar model.PriceBar) *model.Signal {
	g.fast.Update(bar)
	g.slow.Update(bar)
	if !g.slow.Ready() {
		return nil
	}

	fast := g.fast.Value()
	slow := g.slow.Value()
	prevFast, prevSlow := g.prevFast, g.prevSlow
	if !g.seeded {
		// Level baseline: the first evaluated bar counts as a cross in
		// whichever direction the averages already point.
		prevFast, prevSlow = 0, 0
		g.seeded = true
	}
	g.prevFast, g.prevSlow = fast, slow

	snapshot := map[string]float64{"fast_sma": fast, "slow_sma": slow}

	// Golden cross: fast crosses above slow
	if prevFast <= prevSlow && fast > slow {
		return &model.Signal{
			Type:     model.SignalBuy,
			Index:    i,
			Date:     bar.Date,
			Price:    bar.Close,
			Reason:   "SMA golden cross (fast > slow)",
			Snapshot: snapshot,
		}
	}

	// Death cross: fast crosses below slow
	if prevFast >= prevSlow && fast < slow {
		return &model.Signal{
			Type:     model.SignalSell,
			Index:    i,
			Date:     bar.Date,
			Price:    bar.Close,
			Reason:   "SMA death cross (fast < slow)",
			Snapshot: snapshot,
		}
	}

	return nil
}
