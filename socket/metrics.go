package socket

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	framesReceived    *prometheus.CounterVec
	framesMalformed   prometheus.Counter
	framesSent        prometheus.Counter
	sendsDropped      prometheus.Counter
	reconnectAttempts prometheus.Counter
	connected         prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datesync",
			Subsystem: "realtime",
			Name:      "frames_received",
			Help:      "Number of inbound frames dispatched, by type",
		}, []string{"type"}),
		framesMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datesync",
			Subsystem: "realtime",
			Name:      "frames_malformed",
			Help:      "Number of inbound frames discarded because they could not be decoded",
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datesync",
			Subsystem: "realtime",
			Name:      "frames_sent",
			Help:      "Number of outbound frames written",
		}),
		sendsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datesync",
			Subsystem: "realtime",
			Name:      "sends_dropped",
			Help:      "Number of outbound frames dropped because the connection was not open",
		}),
		reconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datesync",
			Subsystem: "realtime",
			Name:      "reconnect_attempts",
			Help:      "Number of automatic reconnect attempts",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "datesync",
			Subsystem: "realtime",
			Name:      "connected",
			Help:      "1 while the realtime connection is open",
		}),
	}
	reg.MustRegister(m.framesReceived, m.framesMalformed, m.framesSent, m.sendsDropped, m.reconnectAttempts, m.connected)
	return m
}

func (m *Metrics) frameReceived(eventType string) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(eventType).Inc()
}

func (m *Metrics) frameMalformed() {
	if m == nil {
		return
	}
	m.framesMalformed.Inc()
}

func (m *Metrics) frameSent() {
	if m == nil {
		return
	}
	m.framesSent.Inc()
}

func (m *Metrics) sendDropped() {
	if m == nil {
		return
	}
	m.sendsDropped.Inc()
}

func (m *Metrics) reconnectAttempt() {
	if m == nil {
		return
	}
	m.reconnectAttempts.Inc()
}

func (m *Metrics) setConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}
