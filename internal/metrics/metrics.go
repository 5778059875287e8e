// Package metrics exposes Prometheus metrics for the toast store and the
// websocket surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/store"
)

// Metrics holds all Prometheus metrics for toasty.
// It implements store.Recorder.
type Metrics struct {
	// Store lifecycle
	ToastsCreatedTotal    *prometheus.CounterVec
	ToastsRemovedTotal    *prometheus.CounterVec
	ToastsActive          prometheus.Gauge
	ObserverFailuresTotal prometheus.Counter

	// Websocket surface
	WebsocketClients         prometheus.Gauge
	WebsocketDroppedTotal    prometheus.Counter
	WebsocketBroadcastsTotal prometheus.Counter

	registry *prometheus.Registry
}

var _ store.Recorder = (*Metrics)(nil)

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		ToastsCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toasty_toasts_created_total",
			Help: "Total number of toasts created, by kind",
		}, []string{"kind"}),
		ToastsRemovedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toasty_toasts_removed_total",
			Help: "Total number of toasts removed, by kind and reason",
		}, []string{"kind", "reason"}),
		ToastsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "toasty_toasts_active",
			Help: "Number of toasts currently in the store",
		}),
		ObserverFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "toasty_observer_failures_total",
			Help: "Total number of observer callbacks that panicked",
		}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "toasty_websocket_clients",
			Help: "Number of connected websocket surfaces",
		}),
		WebsocketDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "toasty_websocket_dropped_total",
			Help: "Total number of websocket clients dropped for falling behind",
		}),
		WebsocketBroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "toasty_websocket_broadcasts_total",
			Help: "Total number of snapshots broadcast to websocket clients",
		}),
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.ToastsCreatedTotal,
		m.ToastsRemovedTotal,
		m.ToastsActive,
		m.ObserverFailuresTotal,
		m.WebsocketClients,
		m.WebsocketDroppedTotal,
		m.WebsocketBroadcastsTotal,
	)

	return m
}

// ToastCreated records a new toast.
func (m *Metrics) ToastCreated(kind model.Kind) {
	m.ToastsCreatedTotal.WithLabelValues(kind.String()).Inc()
	m.ToastsActive.Inc()
}

// ToastRemoved records a toast leaving the store.
func (m *Metrics) ToastRemoved(kind model.Kind, reason store.RemoveReason) {
	m.ToastsRemovedTotal.WithLabelValues(kind.String(), reason.String()).Inc()
	m.ToastsActive.Dec()
}

// ObserverFailed records a panicking observer.
func (m *Metrics) ObserverFailed() {
	m.ObserverFailuresTotal.Inc()
}

// ClientConnected records a websocket client joining.
func (m *Metrics) ClientConnected() {
	m.WebsocketClients.Inc()
}

// ClientDisconnected records a websocket client leaving.
func (m *Metrics) ClientDisconnected() {
	m.WebsocketClients.Dec()
}

// ClientDropped records a slow websocket client being dropped.
func (m *Metrics) ClientDropped() {
	m.WebsocketDroppedTotal.Inc()
}

// Broadcast records a snapshot sent to websocket clients.
func (m *Metrics) Broadcast() {
	m.WebsocketBroadcastsTotal.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
