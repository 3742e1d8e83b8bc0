// Package metrics provides Prometheus instrumentation for the backtest
// engine service, plus a small health endpoint with dependency probes.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine service.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec   // labels: endpoint, status
	ComputeDur    *prometheus.HistogramVec // labels: stage

	BacktestsTotal   prometheus.Counter
	SignalsGenerated prometheus.Counter

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	WSClients prometheus.Gauge
}

// New registers and returns all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_requests_total",
			Help: "API requests by endpoint and status code",
		}, []string{"endpoint", "status"}),
		ComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engine_compute_duration_seconds",
			Help:    "Computation latency by stage (indicators, signals, backtest)",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		BacktestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_backtests_total",
			Help: "Total backtest runs executed",
		}),
		SignalsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_signals_generated_total",
			Help: "Total signals emitted by strategy runs",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_result_cache_hits_total",
			Help: "Backtest results served from the Redis cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_result_cache_misses_total",
			Help: "Backtest requests that missed the Redis cache",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_ws_clients",
			Help: "Currently connected backtest streaming clients",
		}),
	}

	prometheus.MustRegister(
		m.RequestsTotal,
		m.ComputeDur,
		m.BacktestsTotal,
		m.SignalsGenerated,
		m.CacheHits,
		m.CacheMisses,
		m.WSClients,
	)
	return m
}

// HealthStatus tracks dependency liveness for the health endpoint.
type HealthStatus struct {
	mu sync.Mutex

	RedisConnected  bool      `json:"redis_connected"`
	SQLiteOK        bool      `json:"sqlite_ok"`
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial ping and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks until ctx is done.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if db != nil {
					h.CheckSQLite(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// Snapshot returns a copy of the current health state.
func (h *HealthStatus) Snapshot() HealthStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HealthStatus{
		RedisConnected:  h.RedisConnected,
		SQLiteOK:        h.SQLiteOK,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt,
		StartedAt:       h.StartedAt,
	}
}

// Serve exposes /metrics and /health on the given address.
// Runs in a goroutine; returns immediately.
func Serve(addr string, health *HealthStatus) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		snap := health.Snapshot()
		json.NewEncoder(w).Encode(&snap)
	})

	go func() {
		log.Printf("[metrics] serving /metrics and /health on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}
