package api

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quant-enginev1/internal/model"
	"quant-enginev1/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// equityBatchSize bounds one equity frame so long series don't produce
// one enormous WebSocket message.
const equityBatchSize = 500

// wsFrame is the envelope for every server→client message on the
// backtest stream.
type wsFrame struct {
	Type   string                `json:"type"` // "signal", "equity", "result", "error"
	Signal *model.Signal         `json:"signal,omitempty"`
	Equity []model.EquityPoint   `json:"equity,omitempty"`
	Result *model.BacktestResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// handleBacktestWS serves one backtest over a WebSocket: the client
// sends a single request frame, the server replays the run as signal
// and equity frames (for incremental chart rendering) and finishes with
// the full result.
func (s *Server) handleBacktestWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[api] ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if s.prom != nil {
		s.prom.WSClients.Inc()
		defer s.prom.WSClients.Dec()
	}

	var req service.BacktestRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(wsFrame{Type: "error", Error: "invalid request frame: " + err.Error()})
		return
	}

	res, _, err := s.svc.RunBacktest(r.Context(), req)
	if err != nil {
		conn.WriteJSON(wsFrame{Type: "error", Error: err.Error()})
		return
	}

	// Signals first so the client can mark the chart as equity arrives.
	for i := range res.Signals {
		if err := conn.WriteJSON(wsFrame{Type: "signal", Signal: &res.Signals[i]}); err != nil {
			log.Printf("[api] ws write error: %v", err)
			return
		}
	}

	for start := 0; start < len(res.EquityCurve); start += equityBatchSize {
		end := start + equityBatchSize
		if end > len(res.EquityCurve) {
			end = len(res.EquityCurve)
		}
		if err := conn.WriteJSON(wsFrame{Type: "equity", Equity: res.EquityCurve[start:end]}); err != nil {
			log.Printf("[api] ws write error: %v", err)
			return
		}
	}

	// Final frame repeats the summary metrics with signals and curve
	// stripped — the client already has them.
	final := *res
	final.Signals = nil
	final.EquityCurve = nil
	if err := conn.WriteJSON(wsFrame{Type: "result", Result: &final}); err != nil {
		log.Printf("[api] ws write error: %v", err)
	}
}
