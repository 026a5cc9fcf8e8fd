package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures bridge metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vrbridge").
	Namespace string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Metrics counts frames, bytes and failures. A nil *Metrics records nothing.
type Metrics struct {
	framesSent     prometheus.Counter
	framesReceived prometheus.Counter
	bytesSent      prometheus.Counter
	bytesReceived  prometheus.Counter
	errors         *prometheus.CounterVec
	connected      prometheus.Gauge
}

// NewMetrics registers the bridge metrics with config.Registry.
func NewMetrics(config MetricsConfig) *Metrics {
	if config.Namespace == "" {
		config.Namespace = "vrbridge"
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "frames_sent_total",
			Help:      "Frames written to the bridge socket",
		}),
		framesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "frames_received_total",
			Help:      "Frames read and decoded from the bridge socket",
		}),
		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "bytes_sent_total",
			Help:      "Bytes written to the bridge socket, headers included",
		}),
		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "bytes_received_total",
			Help:      "Bytes read from the bridge socket, headers included",
		}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "errors_total",
			Help:      "Failed sends and receives by error kind",
		}, []string{"op", "kind"}),
		connected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "connected",
			Help:      "1 while a consumer is connected",
		}),
	}
}

func (m *Metrics) sent(n int) {
	if m == nil {
		return
	}
	m.framesSent.Inc()
	m.bytesSent.Add(float64(n))
}

func (m *Metrics) received(n int) {
	if m == nil {
		return
	}
	m.framesReceived.Inc()
	m.bytesReceived.Add(float64(n))
}

func (m *Metrics) failed(op string, err error) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(op, KindOf(err).String()).Inc()
}

func (m *Metrics) setConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}
