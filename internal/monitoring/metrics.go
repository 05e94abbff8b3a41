// Package monitoring sets up logging and Prometheus metrics for the bridge.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "touchbridge"

// Metrics are the bridge counters. Each Metrics owns its registry so tests
// can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// FramesRelayed counts relayed config frames by direction
	// ("display_to_sensor", "sensor_to_display").
	FramesRelayed *prometheus.CounterVec
	// Commands counts display commands by kind.
	Commands *prometheus.CounterVec
	// TouchSamples counts sensor samples by result ("published", "dropped").
	TouchSamples *prometheus.CounterVec
	// TouchWrites counts samples written to the display.
	TouchWrites prometheus.Counter
	// Sessions counts completed streaming sessions.
	Sessions prometheus.Counter
	// SessionDuration observes how long streaming sessions last.
	SessionDuration prometheus.Histogram
	// Streaming is 1 while a streaming session runs.
	Streaming prometheus.Gauge
	// DrainedFrames counts sensor frames discarded by drain-and-reset.
	DrainedFrames prometheus.Counter
}

// NewMetrics creates and registers the bridge metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesRelayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "frames_total",
				Help:      "Config frames relayed between the links.",
			},
			[]string{"direction"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "commands_total",
				Help:      "Display commands by kind.",
			},
			[]string{"kind"},
		),
		TouchSamples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "touch_samples_total",
				Help:      "Touch samples read from the sensor by result.",
			},
			[]string{"result"},
		),
		TouchWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "touch_writes_total",
			Help:      "Touch samples written to the display.",
		}),
		Sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "sessions_total",
			Help:      "Completed streaming sessions.",
		}),
		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "session_duration_seconds",
			Help:      "Streaming session duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		}),
		Streaming: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "active",
			Help:      "1 while a streaming session is running.",
		}),
		DrainedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "drain",
			Name:      "frames_total",
			Help:      "Sensor frames discarded while draining.",
		}),
	}
	m.registry.MustRegister(
		m.FramesRelayed,
		m.Commands,
		m.TouchSamples,
		m.TouchWrites,
		m.Sessions,
		m.SessionDuration,
		m.Streaming,
		m.DrainedFrames,
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
