package indicator

import (
	"math"

	"quant-enginev1/internal/model"
)

// DefaultBollingerStdDev is the conventional band width in standard deviations.
const DefaultBollingerStdDev = 2.0

// Bollinger calculates Bollinger Bands: a middle SMA band with upper and
// lower bands k population standard deviations away. Maintains rolling
// sum and sum-of-squares over a circular buffer, so Update is O(1).
type Bollinger struct {
	period int
	k      float64
	buf    []float64 // circular buffer of closes
	idx    int
	count  int
	sum    float64
	sumSq  float64

	middle float64
	upper  float64
	lower  float64
}

// NewBollinger creates a new Bollinger Bands indicator with the given
// period and band width k (standard deviations, typically 2).
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{
		period: period,
		k:      k,
		buf:    make([]float64, period),
	}
}

func (b *Bollinger) Name() string { return "BOLL" }

func (b *Bollinger) Update(bar model.PriceBar) {
	price := bar.Close

	if b.count >= b.period {
		old := b.buf[b.idx]
		b.sum -= old
		b.sumSq -= old * old
	}

	b.buf[b.idx] = price
	b.sum += price
	b.sumSq += price * price
	b.idx = (b.idx + 1) % b.period
	b.count++

	if b.count < b.period {
		return
	}

	n := float64(b.period)
	mean := b.sum / n
	// Population variance; clamp tiny negative values from float cancellation.
	variance := b.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	sigma := math.Sqrt(variance)

	b.middle = mean
	b.upper = mean + b.k*sigma
	b.lower = mean - b.k*sigma
}

// Value returns the middle band (the SMA), satisfying the scalar
// Indicator interface. Use Bands for the full triple.
func (b *Bollinger) Value() float64 { return b.middle }
func (b *Bollinger) Ready() bool    { return b.count >= b.period }

// Bands returns upper, middle, lower. All zero until Ready.
func (b *Bollinger) Bands() (upper, middle, lower float64) {
	return b.upper, b.middle, b.lower
}

// Reset clears the Bollinger state for reuse.
func (b *Bollinger) Reset() {
	b.idx = 0
	b.count = 0
	b.sum = 0
	b.sumSq = 0
	b.middle = 0
	b.upper = 0
	b.lower = 0
	for i := range b.buf {
		b.buf[i] = 0
	}
}
