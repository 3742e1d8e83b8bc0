package strategy

// ParamSpec describes one tunable parameter of a strategy.
type ParamSpec struct {
	Name    string  `json:"name"`
	Default float64 `json:"default"`
}

// Info is the presentational metadata for one strategy. The catalog is
// data, not code — clients render it, the factory in strategy.go is the
// single source of executable behavior.
type Info struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"params"`
}

// Catalog returns the metadata for every strategy the factory can build.
func Catalog() []Info {
	return []Info{
		{
			Name:        "golden_cross",
			Description: "Buy when the fast SMA crosses above the slow SMA, sell on the reverse cross.",
			Params: []ParamSpec{
				{Name: "fast_period", Default: 5},
				{Name: "slow_period", Default: 20},
			},
		},
		{
			Name:        "rsi_reversion",
			Description: "Buy on RSI recovery up through the oversold level, sell on the fall down through the overbought level.",
			Params: []ParamSpec{
				{Name: "rsi_period", Default: 14},
				{Name: "oversold", Default: 30},
				{Name: "overbought", Default: 70},
			},
		},
		{
			Name:        "bollinger_touch",
			Description: "Buy when the close re-enters the bands from below, sell when it re-enters from above.",
			Params: []ParamSpec{
				{Name: "period", Default: 20},
				{Name: "std_dev", Default: 2},
			},
		},
		{
			Name:        "threshold_osc",
			Description: "Buy and sell on oscillator crossings of a configurable midline.",
			Params: []ParamSpec{
				{Name: "period", Default: 14},
				{Name: "midline", Default: 50},
			},
		},
	}
}
