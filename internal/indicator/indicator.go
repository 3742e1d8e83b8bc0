// Package indicator provides technical indicator calculations over price
// bar data.
//
// Indicators are streaming: each Update is O(1) with preallocated ring
// buffers, no history scans. The batch facade in series.go runs them over
// a full series and returns index-aligned arrays with explicit validity,
// so callers can distinguish "not enough history" from a computed zero.
package indicator

import (
	"errors"
	"fmt"
	"strconv"

	"quant-enginev1/internal/model"
)

// Validation errors. All are detected before computation begins; once a
// series and config validate, the calculators themselves cannot fail.
var (
	ErrInvalidPeriod       = errors.New("indicator period must be positive")
	ErrInsufficientHistory = errors.New("series shorter than indicator period")
	ErrUnknownType         = errors.New("unknown indicator type")
)

// Indicator is the interface for all technical indicators.
type Indicator interface {
	// Name returns the indicator type name (e.g., "SMA", "RSI").
	Name() string

	// Update feeds a new bar and recalculates.
	Update(bar model.PriceBar)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool

	// Reset clears the indicator state for reuse.
	Reset()
}

// Config specifies a single indicator to compute.
type Config struct {
	Type   string  `json:"type"`   // "SMA", "RSI", "BOLL"
	Period int     `json:"period"` // lookback window
	StdDev float64 `json:"std_dev,omitempty"` // BOLL only; 0 means default 2
}

// Label returns the conventional name for a configured indicator,
// e.g. "SMA_20", "RSI_14", "BOLL_20".
func (c Config) Label() string {
	return c.Type + "_" + strconv.Itoa(c.Period)
}

// New creates an indicator instance for the given config.
func New(cfg Config) (Indicator, error) {
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("%s: period %d: %w", cfg.Type, cfg.Period, ErrInvalidPeriod)
	}
	switch cfg.Type {
	case "SMA":
		return NewSMA(cfg.Period), nil
	case "RSI":
		return NewRSI(cfg.Period), nil
	case "BOLL":
		k := cfg.StdDev
		if k == 0 {
			k = DefaultBollingerStdDev
		}
		if k < 0 {
			return nil, fmt.Errorf("BOLL: std dev %.2f: %w", k, ErrInvalidPeriod)
		}
		return NewBollinger(cfg.Period, k), nil
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Type, ErrUnknownType)
	}
}
