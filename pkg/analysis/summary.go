// Package analysis derives per-step statistics from propagation traces.
package analysis

import (
	"math"

	"github.com/aretw0/synapse/pkg/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultThreshold is the activation above which a node counts as active.
// It equals sigmoid(0), the value of a node whose predecessors are all silent.
const DefaultThreshold = 0.5

// StepSummary aggregates one snapshot.
type StepSummary struct {
	Step   int     `json:"step"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Active int     `json:"active"`
}

// Summarize returns one StepSummary per snapshot. Step numbers start at 1.
// Active counts activations strictly greater than threshold.
func Summarize(trace domain.Trace, threshold float64) []StepSummary {
	out := make([]StepSummary, len(trace))
	for i, snap := range trace {
		out[i] = summarizeSnapshot(snap, threshold)
		out[i].Step = i + 1
	}
	return out
}

func summarizeSnapshot(snap domain.Snapshot, threshold float64) StepSummary {
	if len(snap) == 0 {
		return StepSummary{}
	}
	values := snap.Values()

	active := 0
	for _, v := range values {
		if v > threshold {
			active++
		}
	}

	return StepSummary{
		Mean:   stat.Mean(values, nil),
		StdDev: math.Sqrt(stat.PopVariance(values, nil)),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Active: active,
	}
}

// Delta returns the largest absolute change of any node between the last two
// snapshots, a cheap convergence signal. Traces shorter than two steps return 0.
func Delta(trace domain.Trace) float64 {
	if len(trace) < 2 {
		return 0
	}
	prev := trace[len(trace)-2].Values()
	last := trace[len(trace)-1].Values()
	if len(last) == 0 {
		return 0
	}
	floats.Sub(last, prev)
	return math.Max(floats.Max(last), -floats.Min(last))
}
