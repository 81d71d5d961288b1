// Package metrics exposes Prometheus counters for the command server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	datagrams *prometheus.CounterVec
	routines  *prometheus.CounterVec
	speech    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		datagrams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pastabot_datagrams_total",
			Help: "Datagrams received, by classified kind.",
		}, []string{"kind"}),
		routines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pastabot_move_routines_total",
			Help: "Move routines run, by result.",
		}, []string{"result"}),
		speech: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pastabot_utterances_total",
			Help: "Speech requests handled, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pastabot_handler_duration_seconds",
			Help:    "Time spent handling one datagram.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"kind"}),
	}
	reg.MustRegister(m.datagrams, m.routines, m.speech, m.duration)
	return m
}

// Received counts a datagram of the given kind.
func (m *Metrics) Received(kind string) {
	if m == nil {
		return
	}
	m.datagrams.WithLabelValues(kind).Inc()
}

// Routine records the outcome of a move routine.
func (m *Metrics) Routine(err error) {
	if m == nil {
		return
	}
	m.routines.WithLabelValues(result(err)).Inc()
}

// Utterance records the outcome of a speech request.
func (m *Metrics) Utterance(err error) {
	if m == nil {
		return
	}
	m.speech.WithLabelValues(result(err)).Inc()
}

// Handled observes how long a datagram of the given kind took.
func (m *Metrics) Handled(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
