package observability

import (
	"context"

	"github.com/aretw0/synapse/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors describing generation and propagation activity.
type Metrics struct {
	Generations         prometheus.Counter
	Propagations        *prometheus.CounterVec
	PropagationDuration prometheus.Histogram
	GraphNodes          prometheus.Gauge
	GraphEdges          *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "synapse_generations_total",
			Help: "Total number of graphs generated",
		}),
		Propagations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synapse_propagations_total",
				Help: "Total number of propagation requests by cache outcome",
			},
			[]string{"cache"},
		),
		PropagationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "synapse_propagation_duration_seconds",
			Help:    "Duration of propagation requests",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "synapse_graph_nodes",
			Help: "Node count of the published graph",
		}),
		GraphEdges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "synapse_graph_edges",
				Help: "Edge count of the published graph by kind",
			},
			[]string{"kind"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Generations, m.Propagations, m.PropagationDuration, m.GraphNodes, m.GraphEdges)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGenerate: func(ctx context.Context, e *domain.GenerateEvent) {
			m.Generations.Inc()
			m.GraphNodes.Set(float64(e.Nodes))
			m.GraphEdges.WithLabelValues(string(domain.EdgeLocal)).Set(float64(e.LocalEdges))
			m.GraphEdges.WithLabelValues(string(domain.EdgeLongRange)).Set(float64(e.LongRangeEdges))
		},
		OnPropagate: func(ctx context.Context, e *domain.PropagateEvent) {
			outcome := "miss"
			if e.CacheHit {
				outcome = "hit"
			}
			m.Propagations.WithLabelValues(outcome).Inc()
			m.PropagationDuration.Observe(e.Duration.Seconds())
		},
	}
}
