package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the runtime collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	applied *prometheus.CounterVec
	ignored *prometheus.CounterVec
	wires   *prometheus.CounterVec
	mounts  prometheus.Counter
	pending prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		applied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_events_applied_total",
				Help: "Total number of events applied to the design store",
			},
			[]string{"type"},
		),
		ignored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_events_ignored_total",
				Help: "Total number of events with no handler",
			},
			[]string{"type"},
		),
		wires: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_wire_total",
				Help: "Total number of wiring notifications sent to parents",
			},
			[]string{"op"},
		),
		mounts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_mounts_total",
			Help: "Total number of mount acknowledgements",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "canopy_pending_mounts",
			Help: "Elements wired during the first render that have not acknowledged their mount",
		}),
	}
	m.registry.MustRegister(m.applied, m.ignored, m.wires, m.mounts, m.pending)
	return m
}

// Registry exposes the collectors' registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEventApplied: func(ctx context.Context, ev domain.Event) {
			m.applied.WithLabelValues(string(ev.Type)).Inc()
		},
		OnEventIgnored: func(ctx context.Context, ev domain.Event) {
			m.ignored.WithLabelValues(string(ev.Type)).Inc()
		},
		OnWire: func(ctx context.Context, e domain.WireEvent) {
			m.wires.WithLabelValues(string(e.Op)).Inc()
		},
		OnMounted: func(ctx context.Context, id string) {
			m.mounts.Inc()
		},
		OnPendingMounts: func(ctx context.Context, pending int) {
			m.pending.Set(float64(pending))
		},
	}
}
