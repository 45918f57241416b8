package observability

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the client counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FramesReceived   *prometheus.CounterVec
	FramesSent       *prometheus.CounterVec
	SendRejected     prometheus.Counter
	StateTransitions *prometheus.CounterVec
}

// NewMetrics registers the client metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FramesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_frames_received_total",
				Help: "Frames received from the channel",
			},
			[]string{"kind"}, // "chat", "ping"
		),
		FramesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_frames_sent_total",
				Help: "Frames written to the channel",
			},
			[]string{"kind"}, // "chat", "pong"
		),
		SendRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chat_send_rejected_total",
				Help: "Sends rejected because the session was not open",
			},
		),
		StateTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_session_transitions_total",
				Help: "Session state transitions by target state",
			},
			[]string{"state"},
		),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveReceived counts a frame read from the channel.
func (m *Metrics) ObserveReceived(kind string) {
	if m == nil {
		return
	}
	m.FramesReceived.WithLabelValues(kind).Inc()
}

// ObserveSent counts a frame written to the channel.
func (m *Metrics) ObserveSent(kind string) {
	if m == nil {
		return
	}
	m.FramesSent.WithLabelValues(kind).Inc()
}

// ObserveRejected counts a send refused outside the Open state.
func (m *Metrics) ObserveRejected() {
	if m == nil {
		return
	}
	m.SendRejected.Inc()
}

// ObserveTransition counts a move to state.
func (m *Metrics) ObserveTransition(state string) {
	if m == nil {
		return
	}
	m.StateTransitions.WithLabelValues(state).Inc()
}

// MetricsHandler serves /metrics and /healthz.
func MetricsHandler(m *Metrics) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
