package synapse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/synapse/pkg/domain"
	"github.com/aretw0/synapse/pkg/generator"
	"github.com/aretw0/synapse/pkg/ports"
	"github.com/aretw0/synapse/pkg/propagation"
	"golang.org/x/sync/singleflight"
)

// Generate builds a graph of nodes split into layers with the reference probabilities.
func Generate(nodes, layers int) (*domain.Graph, error) {
	return generator.New(nodes, layers)
}

// Propagate runs stimulus through g for the reference ten steps.
func Propagate(g *domain.Graph, stimulus string) domain.Trace {
	return propagation.Propagate(g, stimulus)
}

// Engine owns the published graph and serves propagation requests against it.
// It is safe for concurrent use.
type Engine struct {
	graph      atomic.Pointer[domain.Graph]
	genConfig  generator.Config
	propConfig propagation.Config
	propagator *propagation.Engine
	cache      ports.TraceCache
	flight     singleflight.Group
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	seed       *uint64
	initial    *domain.Graph

	mu  sync.Mutex // serializes regeneration and guards rng
	rng *rand.Rand
}

// Ensure Engine satisfies the port used by transport adapters.
var _ ports.Engine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithGeneratorConfig replaces the generation parameters.
func WithGeneratorConfig(cfg generator.Config) Option {
	return func(e *Engine) {
		e.genConfig = cfg
	}
}

// WithPropagationConfig replaces the propagation parameters.
func WithPropagationConfig(cfg propagation.Config) Option {
	return func(e *Engine) {
		e.propConfig = cfg
	}
}

// WithSteps sets the number of propagation steps (default: 10).
func WithSteps(steps int) Option {
	return func(e *Engine) {
		e.propConfig.Steps = steps
	}
}

// WithSeed makes the sequence of generated graphs reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.seed = &seed
	}
}

// WithTraceCache routes propagation through a trace cache.
func WithTraceCache(cache ports.TraceCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithGraph publishes g instead of generating an initial graph.
func WithGraph(g *domain.Graph) Option {
	return func(e *Engine) {
		e.initial = g
	}
}

// New validates the configuration, generates the initial graph and returns the engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		genConfig:  generator.DefaultConfig(),
		propConfig: propagation.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := eng.genConfig.Validate(); err != nil {
		return nil, err
	}
	propagator, err := propagation.NewEngine(eng.propConfig)
	if err != nil {
		return nil, err
	}
	eng.propagator = propagator

	if eng.seed != nil {
		eng.rng = generator.NewRand(*eng.seed)
	} else {
		eng.rng = generator.EntropyRand()
	}

	if eng.initial != nil {
		eng.publish(context.Background(), eng.initial, 0)
		return eng, nil
	}

	if _, err := eng.Regenerate(context.Background()); err != nil {
		return nil, err
	}
	return eng, nil
}

// Graph returns the currently published graph.
func (e *Engine) Graph() *domain.Graph {
	return e.graph.Load()
}

// Steps returns the configured trace length.
func (e *Engine) Steps() int {
	return e.propagator.Steps()
}

// GeneratorConfig returns the parameters used for (re)generation.
func (e *Engine) GeneratorConfig() generator.Config {
	return e.genConfig
}

// Regenerate builds a new graph and publishes it. In-flight propagations
// keep using the graph they loaded.
func (e *Engine) Regenerate(ctx context.Context) (*domain.Graph, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	g, err := generator.Generate(e.genConfig, e.rng)
	if err != nil {
		return nil, fmt.Errorf("generate graph: %w", err)
	}
	e.publish(ctx, g, time.Since(start))
	return g, nil
}

func (e *Engine) publish(ctx context.Context, g *domain.Graph, took time.Duration) {
	old := e.graph.Swap(g)
	if old != nil && e.cache != nil {
		if err := e.cache.Invalidate(ctx, old.ID()); err != nil {
			e.logger.Warn("failed to invalidate cached traces", "graph_id", old.ID(), "error", err)
		}
	}

	local, longRange := 0, 0
	for _, edge := range g.Edges() {
		if edge.Kind == domain.EdgeLongRange {
			longRange++
		} else {
			local++
		}
	}

	e.logger.Info("graph published",
		"graph_id", g.ID(),
		"nodes", g.NodeCount(),
		"local_edges", local,
		"long_range_edges", longRange,
		"duration", took,
	)

	if e.hooks.OnGenerate != nil {
		e.hooks.OnGenerate(ctx, &domain.GenerateEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventGenerate,
				GraphID:   g.ID(),
			},
			Nodes:          g.NodeCount(),
			Layers:         e.genConfig.Layers,
			LocalEdges:     local,
			LongRangeEdges: longRange,
			Duration:       took,
		})
	}
}

// Propagate runs stimulus through the published graph. The returned trace is
// owned by the caller.
func (e *Engine) Propagate(ctx context.Context, stimulus string) (domain.Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	g := e.graph.Load()
	key := ports.TraceKey{GraphID: g.ID(), Steps: e.propagator.Steps(), Stimulus: stimulus}

	trace, hit := e.lookup(ctx, key)
	if !hit {
		v, _, shared := e.flight.Do(key.String(), func() (any, error) {
			computed := e.propagator.Run(g, stimulus)
			e.store(ctx, g, key, computed)
			return computed, nil
		})
		trace = v.(domain.Trace)
		if shared {
			trace = trace.Clone()
		}
	}

	took := time.Since(start)
	e.logger.Debug("propagation finished",
		"graph_id", g.ID(),
		"stimulus_length", len(stimulus),
		"steps", len(trace),
		"cache_hit", hit,
		"duration", took,
	)

	if e.hooks.OnPropagate != nil {
		e.hooks.OnPropagate(ctx, &domain.PropagateEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventPropagate,
				GraphID:   g.ID(),
			},
			StimulusLength: len(stimulus),
			Steps:          len(trace),
			CacheHit:       hit,
			Duration:       took,
		})
	}
	return trace, nil
}

func (e *Engine) lookup(ctx context.Context, key ports.TraceKey) (domain.Trace, bool) {
	if e.cache == nil {
		return nil, false
	}
	trace, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrTraceNotFound) {
			e.logger.Warn("trace cache lookup failed", "key", key.String(), "error", err)
		}
		return nil, false
	}
	return trace, true
}

// store caches a trace computed on g unless g has been replaced, since the
// entries of a replaced graph are never read again.
func (e *Engine) store(ctx context.Context, g *domain.Graph, key ports.TraceKey, trace domain.Trace) {
	if e.cache == nil || e.graph.Load() != g {
		return
	}
	if err := e.cache.Put(ctx, key, trace); err != nil {
		e.logger.Warn("trace cache store failed", "key", key.String(), "error", err)
		return
	}
	// publish swaps before it invalidates, so a swap seen here may have
	// invalidated g before the Put landed.
	if e.graph.Load() != g {
		if err := e.cache.Invalidate(ctx, g.ID()); err != nil {
			e.logger.Warn("failed to invalidate cached traces", "graph_id", g.ID(), "error", err)
		}
	}
}
