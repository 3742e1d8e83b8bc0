// Package api provides the HTTP surface of the backtest engine:
// indicator and backtest computation, the strategy catalog, stored
// series management, the run journal, and a WebSocket stream for
// chart-oriented clients.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"quant-enginev1/internal/backtest"
	"quant-enginev1/internal/indicator"
	"quant-enginev1/internal/logger"
	"quant-enginev1/internal/metrics"
	"quant-enginev1/internal/model"
	"quant-enginev1/internal/service"
	sqlitestore "quant-enginev1/internal/store/sqlite"
	"quant-enginev1/internal/strategy"
)

// Server holds the handler dependencies.
type Server struct {
	svc    *service.Service
	store  *sqlitestore.Store // optional
	health *metrics.HealthStatus
	prom   *metrics.Metrics
	log    *slog.Logger
}

// NewServer creates a Server. store may be nil (series endpoints then
// return 503).
func NewServer(svc *service.Service, store *sqlitestore.Store, health *metrics.HealthStatus, prom *metrics.Metrics, log *slog.Logger) *Server {
	return &Server{svc: svc, store: store, health: health, prom: prom, log: log}
}

// setCORS sets CORS headers for REST endpoints.
func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// Router registers all HTTP routes.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", s.wrap("health", s.handleHealth))
	mux.HandleFunc("/api/v1/strategies", s.wrap("strategies", s.handleStrategies))
	mux.HandleFunc("/api/v1/indicators", s.wrap("indicators", s.handleIndicators))
	mux.HandleFunc("/api/v1/backtest", s.wrap("backtest", s.handleBacktest))
	mux.HandleFunc("/api/v1/series", s.wrap("series", s.handleSeries))
	mux.HandleFunc("/api/v1/runs", s.wrap("runs", s.handleRuns))
	mux.HandleFunc("/ws/backtest", s.handleBacktestWS)

	return mux
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// wrap attaches CORS, a request ID, request logging, and metrics to a
// REST handler.
func (s *Server) wrap(endpoint string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		ctx := logger.WithRequestID(r.Context(), logger.NewRequestID())
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		fn(rec, r.WithContext(ctx))

		if s.prom != nil {
			s.prom.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		}
		if rec.status >= 500 {
			s.log.Error("request failed", append(logger.LogWithRequest(ctx),
				slog.String("endpoint", endpoint), slog.Int("status", rec.status))...)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors onto HTTP statuses: validation failures
// are the client's fault (400), everything else is ours (500).
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	for _, sentinel := range []error{
		model.ErrEmptySeries,
		model.ErrInvalidSeries,
		indicator.ErrInvalidPeriod,
		indicator.ErrInsufficientHistory,
		indicator.ErrUnknownType,
		strategy.ErrUnknownStrategy,
		strategy.ErrInvalidParams,
		backtest.ErrInvalidCapital,
		backtest.ErrInvalidConfig,
	} {
		if errors.Is(err, sentinel) {
			status = http.StatusBadRequest
			break
		}
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		writeJSON(w, http.StatusOK, s.health.Snapshot())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, strategy.Catalog())
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req IndicatorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	set, err := s.svc.ComputeIndicators(r.Context(), req.Series, req.Indicators)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IndicatorsResponse{Values: set})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req service.BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	res, cached, err := s.svc.RunBacktest(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BacktestResponse{Result: res, Cached: cached})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "series store not configured"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		if name := r.URL.Query().Get("name"); name != "" {
			series, err := s.store.LoadSeries(name)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, series)
			return
		}
		list, err := s.store.ListSeries()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case http.MethodPost:
		var req SaveSeriesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
			return
		}
		if req.Name == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "series name required"})
			return
		}
		if err := s.store.SaveSeries(req.Name, req.Series); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "run journal not configured"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.store.RecentRuns(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
