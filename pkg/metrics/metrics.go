package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "social_network",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "social_network",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "social_network",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "social_network",
			Subsystem: "chat",
			Name:      "connections",
			Help:      "Currently open real-time chat connections.",
		},
	)

	chatFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "social_network",
			Subsystem: "chat",
			Name:      "frames_total",
			Help:      "Inbound chat frames by outcome.",
		},
		[]string{"outcome"},
	)

	chatDeliveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "social_network",
			Subsystem: "chat",
			Name:      "deliveries_total",
			Help:      "Outbound message frames queued to connections.",
		},
	)

	chatDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "social_network",
			Subsystem: "chat",
			Name:      "dropped_total",
			Help:      "Outbound frames dropped because a connection's queue was full.",
		},
	)

	friendEdgeRepairs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "social_network",
			Subsystem: "friends",
			Name:      "edge_repairs_total",
			Help:      "Friend edges repaired by the reconciliation sweep.",
		},
		[]string{"action"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		wsConnections,
		chatFrames,
		chatDeliveries,
		chatDropped,
		friendEdgeRepairs,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RequestStarted()  { httpInFlight.Inc() }
func RequestFinished() { httpInFlight.Dec() }

// ObserveRequest records one completed HTTP request.
func ObserveRequest(method, path, status string, seconds float64) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(seconds)
}

func ConnectionOpened() { wsConnections.Inc() }
func ConnectionClosed() { wsConnections.Dec() }

// ChatFrame counts an inbound frame; outcome is "delivered" or an error class.
func ChatFrame(outcome string) {
	chatFrames.WithLabelValues(outcome).Inc()
}

func FrameQueued()  { chatDeliveries.Inc() }
func FrameDropped() { chatDropped.Inc() }

// EdgeRepaired counts a reconciliation action ("restored" or "pruned").
func EdgeRepaired(action string) {
	friendEdgeRepairs.WithLabelValues(action).Inc()
}
