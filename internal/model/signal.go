package model

import "time"

// SignalType represents a trading action.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// Signal represents a trading signal emitted by a strategy at one bar
// of a price series. Signals are derived values — their lifecycle is
// bound to the series and strategy run that produced them.
type Signal struct {
	Type     SignalType         `json:"type"`
	Index    int                `json:"index"` // position in the originating series
	Date     time.Time          `json:"date"`
	Price    float64            `json:"price"` // close at the signal bar
	Reason   string             `json:"reason"`
	Snapshot map[string]float64 `json:"snapshot,omitempty"` // indicator values at the bar
}
