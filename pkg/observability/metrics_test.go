package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/synapse/pkg/domain"
	"github.com/aretw0/synapse/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnGenerate(ctx, &domain.GenerateEvent{Nodes: 100, LocalEdges: 300, LongRangeEdges: 4})
	hooks.OnPropagate(ctx, &domain.PropagateEvent{Duration: time.Millisecond})
	hooks.OnPropagate(ctx, &domain.PropagateEvent{CacheHit: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Generations))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.GraphNodes))
	assert.Equal(t, 300.0, testutil.ToFloat64(m.GraphEdges.WithLabelValues("local")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.GraphEdges.WithLabelValues("long_range")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Propagations.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Propagations.WithLabelValues("miss")))

	count, err := testutil.GatherAndCount(reg, "synapse_propagation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	m := observability.NewMetrics(nil)
	assert.NotPanics(t, func() {
		m.Hooks().OnGenerate(context.Background(), &domain.GenerateEvent{})
	})
}
