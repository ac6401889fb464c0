package domain

// Activation is the signal strength of one node at one step.
type Activation struct {
	ID    int     `json:"id"`
	Value float64 `json:"value"`
}

// Snapshot holds the activation of every node, ordered by node ID.
type Snapshot []Activation

// Values returns the activations as a plain slice indexed by node ID.
func (s Snapshot) Values() []float64 {
	out := make([]float64, len(s))
	for i, a := range s {
		out[i] = a.Value
	}
	return out
}

// Trace is the ordered sequence of snapshots produced by one propagation run, oldest first.
type Trace []Snapshot

// Clone returns a deep copy of the trace.
func (t Trace) Clone() Trace {
	if t == nil {
		return nil
	}
	out := make(Trace, len(t))
	for i, s := range t {
		cp := make(Snapshot, len(s))
		copy(cp, s)
		out[i] = cp
	}
	return out
}

// Final returns the last snapshot, or nil for an empty trace.
func (t Trace) Final() Snapshot {
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1]
}
