// Package metrics exposes presentation activity as Prometheus collectors.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector groups the engine's metrics. Each Collector owns its registry so that
// several can coexist in one process, e.g. in tests.
type Collector struct {
	registry *prometheus.Registry

	phaseChanges *prometheus.CounterVec
	nodeVisits   *prometheus.CounterVec
	rejections   prometheus.Counter
	loadFailures prometheus.Counter
	phase        *prometheus.GaugeVec
}

// New creates a Collector with its own registry, including the Go runtime collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		phaseChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emergence_phase_changes_total",
				Help: "Total number of presentation phase transitions",
			},
			[]string{"from", "to"},
		),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emergence_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"node_id"},
		),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emergence_navigation_rejected_total",
			Help: "Total number of navigations rejected for dangling references",
		}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emergence_load_failures_total",
			Help: "Total number of failed document loads",
		}),
		phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "emergence_sessions_in_phase",
				Help: "Number of sessions currently in each phase",
			},
			[]string{"phase"},
		),
	}
	c.registry.MustRegister(
		c.phaseChanges,
		c.nodeVisits,
		c.rejections,
		c.loadFailures,
		c.phase,
		prometheus.NewGoCollector(),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SessionStarted counts a new session in the intro phase.
func (c *Collector) SessionStarted() {
	c.phase.WithLabelValues(string(domain.PhaseIntro)).Inc()
}

// SessionClosed removes a session from the phase gauge.
func (c *Collector) SessionClosed(phase domain.Phase) {
	c.phase.WithLabelValues(string(phase)).Dec()
}

// Hooks returns lifecycle hooks that record metrics and then call next.
func (c *Collector) Hooks(next domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseChange: func(ctx context.Context, e *domain.PhaseEvent) {
			c.phaseChanges.WithLabelValues(string(e.From), string(e.To)).Inc()
			c.phase.WithLabelValues(string(e.From)).Dec()
			c.phase.WithLabelValues(string(e.To)).Inc()
			if next.OnPhaseChange != nil {
				next.OnPhaseChange(ctx, e)
			}
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			c.nodeVisits.WithLabelValues(e.NodeID).Inc()
			if next.OnNodeEnter != nil {
				next.OnNodeEnter(ctx, e)
			}
		},
		OnNavigationRejected: func(ctx context.Context, e *domain.NodeEvent) {
			c.rejections.Inc()
			if next.OnNavigationRejected != nil {
				next.OnNavigationRejected(ctx, e)
			}
		},
		OnLoadFailed: func(ctx context.Context, e *domain.LoadEvent) {
			c.loadFailures.Inc()
			if next.OnLoadFailed != nil {
				next.OnLoadFailed(ctx, e)
			}
		},
	}
}
