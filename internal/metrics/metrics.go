// Package metrics provides Prometheus instrumentation for the market game.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DaysTotal counts simulated days.
	DaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketgame_days_total",
		Help: "Total number of simulated days",
	})

	// Regime is 1 for the active regime and 0 for the others.
	Regime = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "marketgame_regime",
		Help: "Active market regime (1 = active)",
	}, []string{"regime"})

	// RegimeChanges counts regime switches.
	RegimeChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketgame_regime_changes_total",
		Help: "Total number of market regime switches",
	})

	// TradesTotal counts executed trades, partitioned by side.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketgame_trades_total",
		Help: "Total number of trades executed",
	}, []string{"side"})

	// TradeRejections counts player actions refused by the ledger or market.
	TradeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketgame_action_rejections_total",
		Help: "Player actions refused",
	}, []string{"action"})

	// EventsTotal counts events added to the market by source.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketgame_events_total",
		Help: "Events added to the market",
	}, []string{"source"}) // random, story

	// RumorsTotal counts rumors spread, partitioned by truth.
	RumorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketgame_rumors_total",
		Help: "Rumors spread by players",
	}, []string{"true"})

	// RumorsDiscovered counts false rumors exposed.
	RumorsDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketgame_rumors_discovered_total",
		Help: "False rumors exposed",
	})

	// MarginCalls counts forced liquidations.
	MarginCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketgame_margin_calls_total",
		Help: "Margin calls that force-covered short positions",
	})

	// Bankruptcies counts players knocked out with no capital.
	Bankruptcies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketgame_bankruptcies_total",
		Help: "Players that went bankrupt",
	})

	// ActivePlayers tracks players still able to act.
	ActivePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketgame_active_players",
		Help: "Number of players still in the game",
	})

	// SaveOperations counts save-slot operations by kind and outcome.
	SaveOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketgame_save_operations_total",
		Help: "Save-slot operations",
	}, []string{"op", "status"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketgame_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketgame_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketgame_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// SetRegime marks active as the current regime among all.
func SetRegime(active string, all []string) {
	for _, name := range all {
		v := 0.0
		if name == active {
			v = 1
		}
		Regime.WithLabelValues(name).Set(v)
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}
