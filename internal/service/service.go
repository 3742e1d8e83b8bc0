// Package service orchestrates the engine stages: indicators → signals →
// backtest. It wires the optional Redis result cache and SQLite run
// journal around the pure computation packages and records metrics.
//
// Every request is independent: all inputs are immutable once validated
// and all outputs are freshly allocated, so a Service may process any
// number of requests in parallel without locking.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"quant-enginev1/internal/backtest"
	"quant-enginev1/internal/indicator"
	"quant-enginev1/internal/metrics"
	"quant-enginev1/internal/model"
	rediscache "quant-enginev1/internal/store/redis"
	sqlitestore "quant-enginev1/internal/store/sqlite"
	"quant-enginev1/internal/strategy"
)

// Service runs engine requests. Cache, store, and prom are optional —
// a zero-dependency Service still computes correctly.
type Service struct {
	cache *rediscache.Cache
	store *sqlitestore.Store
	prom  *metrics.Metrics
}

// New creates a Service. Any dependency may be nil.
func New(cache *rediscache.Cache, store *sqlitestore.Store, prom *metrics.Metrics) *Service {
	return &Service{cache: cache, store: store, prom: prom}
}

// BacktestRequest is the resolved input of one simulation run. Exactly
// one of Series or SeriesName must be set; a name is resolved against
// the SQLite store.
type BacktestRequest struct {
	Series         model.PriceSeries `json:"series,omitempty"`
	SeriesName     string            `json:"series_name,omitempty"`
	Strategy       string            `json:"strategy"`
	Params         strategy.Params   `json:"params,omitempty"`
	InitialCapital float64           `json:"initial_capital"`
	Commission     float64           `json:"commission,omitempty"`
	Slippage       float64           `json:"slippage,omitempty"`
}

// ComputeIndicators validates and runs the indicator calculator.
func (s *Service) ComputeIndicators(ctx context.Context, series model.PriceSeries, configs []indicator.Config) (*indicator.Set, error) {
	start := time.Now()
	set, err := indicator.Compute(series, configs)
	if err != nil {
		return nil, err
	}
	s.observe("indicators", time.Since(start))
	return set, nil
}

// RunBacktest resolves the series, consults the result cache, and on a
// miss runs signal generation and the simulator. The second return value
// reports whether the result came from cache.
func (s *Service) RunBacktest(ctx context.Context, req BacktestRequest) (*model.BacktestResult, bool, error) {
	series, err := s.resolveSeries(req)
	if err != nil {
		return nil, false, err
	}
	req.Series = series
	req.SeriesName = ""

	// Results are immutable per request tuple, so a digest of the
	// resolved request is a complete cache key.
	var key string
	if s.cache != nil {
		payload, err := json.Marshal(req)
		if err != nil {
			return nil, false, fmt.Errorf("canonical request encoding: %w", err)
		}
		key = rediscache.Key(payload)
		if res, ok := s.cache.Get(ctx, key); ok {
			if s.prom != nil {
				s.prom.CacheHits.Inc()
			}
			return res, true, nil
		}
		if s.prom != nil {
			s.prom.CacheMisses.Inc()
		}
	}

	start := time.Now()
	signals, err := strategy.Run(series, req.Strategy, req.Params)
	if err != nil {
		return nil, false, err
	}
	s.observe("signals", time.Since(start))
	if s.prom != nil {
		s.prom.SignalsGenerated.Add(float64(len(signals)))
	}

	sim, err := backtest.New(backtest.Config{
		InitialCapital: req.InitialCapital,
		Commission:     req.Commission,
		Slippage:       req.Slippage,
	})
	if err != nil {
		return nil, false, err
	}

	start = time.Now()
	res, err := sim.Run(series, signals)
	if err != nil {
		return nil, false, err
	}
	res.Strategy = req.Strategy
	s.observe("backtest", time.Since(start))
	if s.prom != nil {
		s.prom.BacktestsTotal.Inc()
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, res)
	}
	s.journal(req, res)

	return res, false, nil
}

// resolveSeries returns the inline series or loads the named one.
func (s *Service) resolveSeries(req BacktestRequest) (model.PriceSeries, error) {
	if len(req.Series) > 0 {
		return req.Series, nil
	}
	if req.SeriesName == "" {
		return nil, model.ErrEmptySeries
	}
	if s.store == nil {
		return nil, fmt.Errorf("series %q: no series store configured: %w",
			req.SeriesName, model.ErrEmptySeries)
	}
	return s.store.LoadSeries(req.SeriesName)
}

// journal records a completed run. Best-effort: journal failures must
// not fail the request.
func (s *Service) journal(req BacktestRequest, res *model.BacktestResult) {
	if s.store == nil {
		return
	}
	params, _ := json.Marshal(req.Params)
	rec := sqlitestore.RunRecord{
		Strategy:       res.Strategy,
		Params:         string(params),
		InitialCapital: res.InitialCapital,
		FinalCapital:   res.FinalCapital,
		TotalReturnPct: res.TotalReturnPct,
		TradeCount:     res.TradeCount,
		Result:         string(res.JSON()),
	}
	if err := s.store.RecordRun(rec); err != nil {
		log.Printf("[service] run journal write failed: %v", err)
	}
}

func (s *Service) observe(stage string, d time.Duration) {
	if s.prom != nil {
		s.prom.ComputeDur.WithLabelValues(stage).Observe(d.Seconds())
	}
}
