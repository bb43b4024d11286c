package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "showroom"

// Metrics holds the runtime, selection, capture and bridge metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	UnitsActive         *prometheus.GaugeVec
	Ticks               prometheus.Counter
	TickDuration        prometheus.Histogram
	InputUpdates        *prometheus.CounterVec
	EventsDispatched    *prometheus.CounterVec
	SpyFailures         *prometheus.CounterVec
	SelectionChanges    *prometheus.CounterVec
	CaptureAcquisitions *prometheus.CounterVec
	BridgeConnections   prometheus.Gauge
	BridgeFrames        *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
}

// NewMetrics creates the metric set without registering it
func NewMetrics() *Metrics {
	return &Metrics{
		UnitsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "runtime",
				Name:      "units_active",
				Help:      "Behavior units currently attached, by type tag",
			},
			[]string{"tag"},
		),
		Ticks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "runtime",
				Name:      "ticks_total",
				Help:      "Total number of frame ticks",
			},
		),
		TickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "runtime",
				Name:      "tick_duration_seconds",
				Help:      "Wall time spent in one frame tick",
				Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05},
			},
		),
		InputUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "runtime",
				Name:      "input_updates_total",
				Help:      "Total number of inputs-updated notifications",
			},
			[]string{"tag"},
		),
		EventsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "dispatched_total",
				Help:      "Total number of interaction events dispatched",
			},
			[]string{"type"},
		),
		SpyFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "spy_failures_total",
				Help:      "Total number of failed spy invocations",
			},
			[]string{"type"},
		),
		SelectionChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "selection",
				Name:      "transitions_total",
				Help:      "Selection transitions (select, deselect, switch)",
			},
			[]string{"transition"},
		),
		CaptureAcquisitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "capture",
				Name:      "acquisitions_total",
				Help:      "Capture stream acquisitions by result",
			},
			[]string{"result"},
		),
		BridgeConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "connections",
				Help:      "Open host bridge connections",
			},
		),
		BridgeFrames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "frames_total",
				Help:      "Host bridge frames by direction and type",
			},
			[]string{"direction", "type"},
		),
		NotificationsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "selection",
				Name:      "notifications_total",
				Help:      "Selection notifications by sink and status",
			},
			[]string{"sink", "status"},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.UnitsActive,
		m.Ticks,
		m.TickDuration,
		m.InputUpdates,
		m.EventsDispatched,
		m.SpyFailures,
		m.SelectionChanges,
		m.CaptureAcquisitions,
		m.BridgeConnections,
		m.BridgeFrames,
		m.NotificationsSent,
	}
}

// RecordUnitAttached increments the active unit gauge for tag
func (m *Metrics) RecordUnitAttached(tag string) {
	if m == nil {
		return
	}
	m.UnitsActive.WithLabelValues(tag).Inc()
}

// RecordUnitDestroyed decrements the active unit gauge for tag
func (m *Metrics) RecordUnitDestroyed(tag string) {
	if m == nil {
		return
	}
	m.UnitsActive.WithLabelValues(tag).Dec()
}

// RecordTick counts one tick and its duration
func (m *Metrics) RecordTick(d time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.TickDuration.Observe(d.Seconds())
}

// RecordInputsUpdated counts one inputs-updated notification
func (m *Metrics) RecordInputsUpdated(tag string) {
	if m == nil {
		return
	}
	m.InputUpdates.WithLabelValues(tag).Inc()
}

// RecordEventDispatched counts one dispatched event
func (m *Metrics) RecordEventDispatched(eventType string) {
	if m == nil {
		return
	}
	m.EventsDispatched.WithLabelValues(eventType).Inc()
}

// RecordSpyFailure counts one failed spy
func (m *Metrics) RecordSpyFailure(eventType string) {
	if m == nil {
		return
	}
	m.SpyFailures.WithLabelValues(eventType).Inc()
}

// RecordSelectionTransition counts one selection transition
func (m *Metrics) RecordSelectionTransition(transition string) {
	if m == nil {
		return
	}
	m.SelectionChanges.WithLabelValues(transition).Inc()
}

// RecordCaptureAcquisition counts a capture acquisition attempt
func (m *Metrics) RecordCaptureAcquisition(ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.CaptureAcquisitions.WithLabelValues(result).Inc()
}

// RecordBridgeConnection adjusts the open connection gauge by delta
func (m *Metrics) RecordBridgeConnection(delta int) {
	if m == nil {
		return
	}
	m.BridgeConnections.Add(float64(delta))
}

// RecordBridgeFrame counts a frame in direction "in" or "out"
func (m *Metrics) RecordBridgeFrame(direction, frameType string) {
	if m == nil {
		return
	}
	m.BridgeFrames.WithLabelValues(direction, frameType).Inc()
}

// RecordNotification counts one selection notification delivery
func (m *Metrics) RecordNotification(sink string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.NotificationsSent.WithLabelValues(sink, status).Inc()
}
