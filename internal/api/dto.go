package api

import (
	"quant-enginev1/internal/indicator"
	"quant-enginev1/internal/model"
)

// IndicatorsRequest is the body of POST /api/v1/indicators.
type IndicatorsRequest struct {
	Series     model.PriceSeries  `json:"series"`
	Indicators []indicator.Config `json:"indicators"`
}

// IndicatorsResponse carries the index-aligned indicator arrays.
type IndicatorsResponse struct {
	Values *indicator.Set `json:"values"`
}

// BacktestResponse carries one simulation result. Cached reports whether
// the result was served from the Redis cache.
type BacktestResponse struct {
	Result *model.BacktestResult `json:"result"`
	Cached bool                  `json:"cached"`
}

// SaveSeriesRequest is the body of POST /api/v1/series.
type SaveSeriesRequest struct {
	Name   string            `json:"name"`
	Series model.PriceSeries `json:"series"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}
