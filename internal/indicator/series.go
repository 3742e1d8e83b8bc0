package indicator

import (
	"fmt"

	"quant-enginev1/internal/model"
)

// Point is one entry of an index-aligned indicator array. Valid is false
// while the indicator has insufficient history — callers must treat that
// distinctly from a computed zero.
type Point struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Band is one entry of an index-aligned Bollinger Band array.
type Band struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
	Valid  bool    `json:"valid"`
}

// Set holds indicator arrays aligned index-for-index with the series
// that produced them. Every array has length Length.
type Set struct {
	Length int                `json:"length"`
	Values map[string][]Point `json:"values"`           // keyed by Config.Label()
	Bands  map[string][]Band  `json:"bands,omitempty"`  // BOLL configs only
}

// Compute runs the configured indicators over a full series and returns
// index-aligned arrays. Pure function of its inputs: same series and
// configs always produce identical output.
func Compute(series model.PriceSeries, configs []Config) (*Set, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no indicators configured: %w", ErrUnknownType)
	}
	for _, cfg := range configs {
		if cfg.Period > len(series) {
			return nil, fmt.Errorf("%s: period %d over %d bars: %w",
				cfg.Type, cfg.Period, len(series), ErrInsufficientHistory)
		}
	}

	set := &Set{
		Length: len(series),
		Values: make(map[string][]Point, len(configs)),
	}

	for _, cfg := range configs {
		ind, err := New(cfg)
		if err != nil {
			return nil, err
		}

		if boll, ok := ind.(*Bollinger); ok {
			bands := make([]Band, len(series))
			for i := range series {
				boll.Update(series[i])
				if boll.Ready() {
					u, m, l := boll.Bands()
					bands[i] = Band{Upper: u, Middle: m, Lower: l, Valid: true}
				}
			}
			if set.Bands == nil {
				set.Bands = make(map[string][]Band)
			}
			set.Bands[cfg.Label()] = bands
			continue
		}

		points := make([]Point, len(series))
		for i := range series {
			ind.Update(series[i])
			if ind.Ready() {
				points[i] = Point{Value: ind.Value(), Valid: true}
			}
		}
		set.Values[cfg.Label()] = points
	}

	return set, nil
}
