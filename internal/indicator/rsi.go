package indicator

import "quant-enginev1/internal/model"

// DefaultRSIPeriod is the conventional RSI lookback.
const DefaultRSIPeriod = 14

// RSI calculates the Relative Strength Index over a rolling window of
// close-to-close transitions (Cutler's variant: simple averages, not
// Wilder smoothing, so a value depends only on the trailing period).
// Update is O(1) per bar — deltas live in a circular buffer.
type RSI struct {
	period    int
	deltas    []float64 // circular buffer of close-to-close deltas
	idx       int
	count     int // bars received; transitions = count-1
	prevClose float64
	sumGain   float64
	sumLoss   float64
	current   float64
}

// NewRSI creates a new RSI indicator with the given period (typically 14).
func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
		deltas: make([]float64, period),
	}
}

func (r *RSI) Name() string { return "RSI" }

func (r *RSI) Update(bar model.PriceBar) {
	price := bar.Close
	r.count++

	if r.count == 1 {
		// First bar — just record price, no delta yet
		r.prevClose = price
		return
	}

	delta := price - r.prevClose
	r.prevClose = price

	if r.count > r.period+1 {
		// Evict the delta leaving the window
		old := r.deltas[r.idx]
		if old > 0 {
			r.sumGain -= old
		} else {
			r.sumLoss -= -old
		}
	}

	r.deltas[r.idx] = delta
	r.idx = (r.idx + 1) % r.period
	if delta > 0 {
		r.sumGain += delta
	} else {
		r.sumLoss += -delta
	}

	if r.count <= r.period {
		return
	}

	avgGain := r.sumGain / float64(r.period)
	avgLoss := r.sumLoss / float64(r.period)

	// A window with no losses reads as maximum strength. This also
	// covers the all-flat window (avgGain == 0), which would otherwise
	// produce 0/0.
	if avgLoss == 0 {
		r.current = 100.0
		return
	}

	rs := avgGain / avgLoss
	r.current = 100.0 - (100.0 / (1.0 + rs))
}

func (r *RSI) Value() float64 { return r.current }
func (r *RSI) Ready() bool    { return r.count > r.period }

// Reset clears the RSI state for reuse.
func (r *RSI) Reset() {
	r.idx = 0
	r.count = 0
	r.prevClose = 0
	r.sumGain = 0
	r.sumLoss = 0
	r.current = 0
	for i := range r.deltas {
		r.deltas[i] = 0
	}
}
