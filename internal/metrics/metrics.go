// Package metrics exposes Prometheus counters and a health endpoint for the
// bot's tick-to-order pipeline.
package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	TicksTotal     prometheus.Counter
	DroppedTicks   prometheus.Counter
	MalformedMsgs  prometheus.Counter
	WSReconnects   prometheus.Counter
	CandlesTotal   prometheus.Counter
	SignalsTotal   *prometheus.CounterVec // labels: type
	OrdersTotal    *prometheus.CounterVec // labels: side, outcome
	OrderLatency   prometheus.Histogram
	DecisionLag    prometheus.Histogram
	TelemetryDrops prometheus.Counter
	PositionOpen   prometheus.Gauge // 0=flat, 1=open
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sniperbot_ticks_total",
			Help: "Total ticks received from WebSocket",
		}),
		DroppedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sniperbot_dropped_ticks_total",
			Help: "Ticks dropped because the intake queue was full",
		}),
		MalformedMsgs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sniperbot_malformed_messages_total",
			Help: "WebSocket messages that failed to parse",
		}),
		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sniperbot_ws_reconnects_total",
			Help: "Total WebSocket reconnection attempts",
		}),
		CandlesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sniperbot_candles_total",
			Help: "Total candles closed by the aggregator",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sniperbot_signals_total",
			Help: "Strategy signals emitted (by type)",
		}, []string{"type"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sniperbot_orders_total",
			Help: "Orders by side and outcome (filled, missed, skipped, error)",
		}, []string{"side", "outcome"}),
		OrderLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sniperbot_order_latency_seconds",
			Help:    "Advice-to-venue-response latency",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		DecisionLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sniperbot_decision_lag_seconds",
			Help:    "Lag between tick event time and decision loop pickup",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
		TelemetryDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sniperbot_telemetry_drops_total",
			Help: "Telemetry events dropped because the feed was full",
		}),
		PositionOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sniperbot_position_open",
			Help: "Whether a position is currently open (0=flat, 1=open)",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.DroppedTicks,
		m.MalformedMsgs,
		m.WSReconnects,
		m.CandlesTotal,
		m.SignalsTotal,
		m.OrdersTotal,
		m.OrderLatency,
		m.DecisionLag,
		m.TelemetryDrops,
		m.PositionOpen,
	)

	return m
}

// HealthStatus tracks liveness facts for the /healthz endpoint.
type HealthStatus struct {
	mu sync.RWMutex

	WSConnected  bool
	LastTickTime time.Time
	StartedAt    time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetWSConnected(v bool) {
	h.mu.Lock()
	h.WSConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if !h.WSConnected {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	tickAge := ""
	if !h.LastTickTime.IsZero() {
		tickAge = time.Since(h.LastTickTime).Round(time.Millisecond).String()
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(struct {
		Status       string `json:"status"`
		Uptime       string `json:"uptime"`
		WSConnected  bool   `json:"ws_connected"`
		LastTickTime string `json:"last_tick_time"`
		TickAge      string `json:"tick_age"`
	}{
		Status:       status,
		Uptime:       time.Since(h.StartedAt).Round(time.Second).String(),
		WSConnected:  h.WSConnected,
		LastTickTime: h.LastTickTime.Format(time.RFC3339),
		TickAge:      tickAge,
	})
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
	log  *slog.Logger
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus, log *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
		log:  log.With("component", "metrics"),
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("metrics server error", "err", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
