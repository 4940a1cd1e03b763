package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the family tree counters and histograms
type Metrics struct {
	mutations *prometheus.CounterVec
	rebuild   *prometheus.HistogramVec
	members   prometheus.Gauge
	sessions  *prometheus.CounterVec
	events    prometheus.Gauge
}

// NewMetrics registers the metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: op (create, update, patch, delete), result (ok, error)
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familytree",
			Subsystem: "members",
			Name:      "mutations_total",
			Help:      "Member mutations by operation and result",
		}, []string{"op", "result"}),

		rebuild: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "familytree",
			Subsystem: "tree",
			Name:      "rebuild_seconds",
			Help:      "Fetch and rebuild latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"result"}),

		members: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "familytree",
			Subsystem: "tree",
			Name:      "last_member_count",
			Help:      "Members in the most recently built tree",
		}),

		// Labels: event (signup, signin, signout), result (ok, error)
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "familytree",
			Subsystem: "auth",
			Name:      "session_events_total",
			Help:      "Auth operations by kind and result",
		}, []string{"event", "result"}),

		events: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "familytree",
			Subsystem: "events",
			Name:      "connected_clients",
			Help:      "Open websocket connections",
		}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Mutation counts one member mutation. Safe on a nil receiver.
func (m *Metrics) Mutation(op string, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, result(err)).Inc()
}

// Rebuild records one fetch and rebuild
func (m *Metrics) Rebuild(start time.Time, members int, err error) {
	if m == nil {
		return
	}
	m.rebuild.WithLabelValues(result(err)).Observe(time.Since(start).Seconds())
	if err == nil {
		m.members.Set(float64(members))
	}
}

// Session counts one auth operation
func (m *Metrics) Session(event string, err error) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(event, result(err)).Inc()
}

// ClientConnected adjusts the websocket client gauge by delta
func (m *Metrics) ClientConnected(delta int) {
	if m == nil {
		return
	}
	m.events.Add(float64(delta))
}
