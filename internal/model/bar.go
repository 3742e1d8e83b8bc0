package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptySeries is returned when a price series contains no bars.
	ErrEmptySeries = errors.New("empty price series")

	// ErrInvalidSeries wraps per-bar and ordering validation failures.
	ErrInvalidSeries = errors.New("invalid price series")
)

// PriceBar represents one trading-period OHLCV observation.
// Bars are immutable once ingested; Date is the calendar date of the
// period (UTC, time component ignored by the engine).
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Validate checks OHLC bounds: positive prices, low ≤ open,close ≤ high,
// volume ≥ 0.
func (b *PriceBar) Validate() error {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("bar %s: non-positive price: %w", b.Date.Format("2006-01-02"), ErrInvalidSeries)
	}
	if b.Low > b.Open || b.Low > b.Close || b.High < b.Open || b.High < b.Close {
		return fmt.Errorf("bar %s: OHLC bounds violated (low=%.4f open=%.4f close=%.4f high=%.4f): %w",
			b.Date.Format("2006-01-02"), b.Low, b.Open, b.Close, b.High, ErrInvalidSeries)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s: negative volume %d: %w", b.Date.Format("2006-01-02"), b.Volume, ErrInvalidSeries)
	}
	return nil
}

// PriceSeries is an ordered sequence of PriceBars, strictly increasing
// by date. Indicators operate on index position, not calendar distance,
// so irregular calendars (weekends, holidays) are permitted.
type PriceSeries []PriceBar

// Validate checks that the series is non-empty, every bar is well-formed,
// and dates are strictly ascending.
func (s PriceSeries) Validate() error {
	if len(s) == 0 {
		return ErrEmptySeries
	}
	for i := range s {
		if err := s[i].Validate(); err != nil {
			return err
		}
		if i > 0 && !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("bar %d: date %s not after previous %s: %w",
				i, s[i].Date.Format("2006-01-02"), s[i-1].Date.Format("2006-01-02"), ErrInvalidSeries)
		}
	}
	return nil
}

// SpanDays returns the calendar span of the series in days.
// Zero for a single-bar series.
func (s PriceSeries) SpanDays() float64 {
	if len(s) < 2 {
		return 0
	}
	return s[len(s)-1].Date.Sub(s[0].Date).Hours() / 24
}
