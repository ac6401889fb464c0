package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventGenerate  EventType = "generate"
	EventPropagate EventType = "propagate"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	GraphID   string    `json:"graph_id"`
}

// GenerateEvent is emitted after a graph has been built and published.
type GenerateEvent struct {
	EventBase
	Nodes          int           `json:"nodes"`
	Layers         int           `json:"layers"`
	LocalEdges     int           `json:"local_edges"`
	LongRangeEdges int           `json:"long_range_edges"`
	Duration       time.Duration `json:"duration"`
}

// PropagateEvent is emitted after a propagation request completes.
type PropagateEvent struct {
	EventBase
	StimulusLength int           `json:"stimulus_length"`
	Steps          int           `json:"steps"`
	CacheHit       bool          `json:"cache_hit"`
	Duration       time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnGenerate  func(context.Context, *GenerateEvent)
	OnPropagate func(context.Context, *PropagateEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnGenerate:  chain(h.OnGenerate, other.OnGenerate),
		OnPropagate: chain(h.OnPropagate, other.OnPropagate),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
