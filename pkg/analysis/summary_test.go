package analysis_test

import (
	"math"
	"testing"

	"github.com/aretw0/synapse/pkg/analysis"
	"github.com/aretw0/synapse/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(values ...float64) domain.Snapshot {
	s := make(domain.Snapshot, len(values))
	for i, v := range values {
		s[i] = domain.Activation{ID: i, Value: v}
	}
	return s
}

func TestSummarize(t *testing.T) {
	trace := domain.Trace{
		snap(0, 0.5, 1),
		snap(0.6, 0.6, 0.6),
	}
	got := analysis.Summarize(trace, analysis.DefaultThreshold)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Step)
	assert.InDelta(t, 0.5, got[0].Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(1.0/6), got[0].StdDev, 1e-12)
	assert.Equal(t, 0.0, got[0].Min)
	assert.Equal(t, 1.0, got[0].Max)
	assert.Equal(t, 1, got[0].Active, "0.5 is not strictly above the threshold")

	assert.Equal(t, 2, got[1].Step)
	assert.InDelta(t, 0, got[1].StdDev, 1e-12)
	assert.Equal(t, 3, got[1].Active)
}

func TestSummarize_EmptySnapshots(t *testing.T) {
	got := analysis.Summarize(domain.Trace{{}, {}}, analysis.DefaultThreshold)
	require.Len(t, got, 2)
	assert.Equal(t, analysis.StepSummary{Step: 2}, got[1])
	assert.False(t, math.IsNaN(got[0].Mean))
}

func TestDelta(t *testing.T) {
	assert.Zero(t, analysis.Delta(nil))
	assert.Zero(t, analysis.Delta(domain.Trace{snap(1)}))
	assert.Zero(t, analysis.Delta(domain.Trace{{}, {}}))

	trace := domain.Trace{snap(0.2, 0.9), snap(0.5, 0.1)}
	assert.InDelta(t, 0.8, analysis.Delta(trace), 1e-12)
	assert.Equal(t, 0.2, trace[0][0].Value, "trace is not modified")
	assert.Equal(t, 0.5, trace[1][0].Value)
}
