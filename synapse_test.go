package synapse_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/synapse"
	"github.com/aretw0/synapse/pkg/adapters/memory"
	"github.com/aretw0/synapse/pkg/domain"
	"github.com/aretw0/synapse/pkg/generator"
	"github.com/aretw0/synapse/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() generator.Config {
	cfg := generator.DefaultConfig()
	cfg.Nodes = 20
	cfg.Layers = 4
	return cfg
}

func TestNew_Defaults(t *testing.T) {
	eng, err := synapse.New(synapse.WithSeed(1))
	require.NoError(t, err)

	g := eng.Graph()
	require.NotNil(t, g)
	assert.Equal(t, 100, g.NodeCount())
	assert.NotEmpty(t, g.ID())
	assert.Equal(t, 10, eng.Steps())
	assert.Equal(t, 5, eng.GeneratorConfig().Layers)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := generator.DefaultConfig()
	cfg.Layers = 0

	_, err := synapse.New(synapse.WithGeneratorConfig(cfg))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = synapse.New(synapse.WithSteps(-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNew_SeedIsReproducible(t *testing.T) {
	a, err := synapse.New(synapse.WithSeed(7), synapse.WithGeneratorConfig(smallConfig()))
	require.NoError(t, err)
	b, err := synapse.New(synapse.WithSeed(7), synapse.WithGeneratorConfig(smallConfig()))
	require.NoError(t, err)

	assert.Equal(t, a.Graph().Edges(), b.Graph().Edges())
	assert.NotEqual(t, a.Graph().ID(), b.Graph().ID(), "graph identity is per build")

	ta, err := a.Propagate(context.Background(), "same input")
	require.NoError(t, err)
	tb, err := b.Propagate(context.Background(), "same input")
	require.NoError(t, err)
	assert.Equal(t, ta, tb)
}

func TestWithGraph_SkipsGeneration(t *testing.T) {
	b := domain.NewGraphBuilder(2)
	b.AddNode(0)
	b.AddNode(0)
	require.NoError(t, b.AddEdge(0, 1, 1.0, domain.EdgeLocal))
	g := b.Build()

	var generated int
	eng, err := synapse.New(
		synapse.WithGraph(g),
		synapse.WithSteps(2),
		synapse.WithLifecycleHooks(domain.LifecycleHooks{
			OnGenerate: func(context.Context, *domain.GenerateEvent) { generated++ },
		}),
	)
	require.NoError(t, err)
	assert.Same(t, g, eng.Graph())
	assert.Equal(t, 1, generated)

	trace, err := eng.Propagate(context.Background(), "A")
	require.NoError(t, err)
	require.Len(t, trace, 2)
	assert.InDelta(t, 65.0/255.0, trace[0][0].Value, 1e-12)
	assert.Equal(t, trace, synapse.Propagate(g, "A")[:2])
}

func TestPropagate_TraceShape(t *testing.T) {
	eng, err := synapse.New(synapse.WithSeed(3), synapse.WithGeneratorConfig(smallConfig()))
	require.NoError(t, err)

	trace, err := eng.Propagate(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, trace, 10)
	for _, snap := range trace {
		assert.Len(t, snap, 20)
	}
}

func TestPropagate_CanceledContext(t *testing.T) {
	eng, err := synapse.New(synapse.WithGeneratorConfig(smallConfig()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = eng.Propagate(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPropagate_UsesCache(t *testing.T) {
	cache, err := memory.NewCache(16)
	require.NoError(t, err)

	var hits, misses int
	eng, err := synapse.New(
		synapse.WithSeed(5),
		synapse.WithGeneratorConfig(smallConfig()),
		synapse.WithTraceCache(cache),
		synapse.WithLifecycleHooks(domain.LifecycleHooks{
			OnPropagate: func(_ context.Context, e *domain.PropagateEvent) {
				if e.CacheHit {
					hits++
				} else {
					misses++
				}
			},
		}),
	)
	require.NoError(t, err)

	first, err := eng.Propagate(context.Background(), "abc")
	require.NoError(t, err)
	second, err := eng.Propagate(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, cache.Len())

	// The caller owns the returned trace.
	second[0][0].Value = 99
	third, err := eng.Propagate(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestRegenerate_PublishesNewGraphAndDropsCache(t *testing.T) {
	cache, err := memory.NewCache(16)
	require.NoError(t, err)

	eng, err := synapse.New(
		synapse.WithSeed(9),
		synapse.WithGeneratorConfig(smallConfig()),
		synapse.WithTraceCache(cache),
	)
	require.NoError(t, err)

	old := eng.Graph()
	_, err = eng.Propagate(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	g, err := eng.Regenerate(context.Background())
	require.NoError(t, err)
	assert.Same(t, g, eng.Graph())
	assert.NotEqual(t, old.ID(), g.ID())
	assert.Equal(t, 0, cache.Len())
}

// regeneratingCache publishes a new graph on the first lookup, between the
// moment Propagate captures the graph and the moment it stores the trace.
type regeneratingCache struct {
	*memory.Cache
	once  sync.Once
	onGet func()
}

func (c *regeneratingCache) Get(ctx context.Context, key ports.TraceKey) (domain.Trace, error) {
	if c.onGet != nil {
		c.once.Do(c.onGet)
	}
	return c.Cache.Get(ctx, key)
}

func TestPropagate_SkipsStoreForReplacedGraph(t *testing.T) {
	mem, err := memory.NewCache(16)
	require.NoError(t, err)
	cache := &regeneratingCache{Cache: mem}

	eng, err := synapse.New(
		synapse.WithSeed(3),
		synapse.WithGeneratorConfig(smallConfig()),
		synapse.WithTraceCache(cache),
	)
	require.NoError(t, err)

	old := eng.Graph()
	cache.onGet = func() {
		_, err := eng.Regenerate(context.Background())
		require.NoError(t, err)
	}

	trace, err := eng.Propagate(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, synapse.Propagate(old, "abc"), trace)
	assert.NotSame(t, old, eng.Graph())
	assert.Equal(t, 0, mem.Len())

	_, err = eng.Propagate(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Len())
}

type failingCache struct{ calls atomic.Int32 }

func (f *failingCache) Get(context.Context, ports.TraceKey) (domain.Trace, error) {
	f.calls.Add(1)
	return nil, errors.New("backend down")
}

func (f *failingCache) Put(context.Context, ports.TraceKey, domain.Trace) error {
	f.calls.Add(1)
	return errors.New("backend down")
}

func (f *failingCache) Invalidate(context.Context, string) error {
	return errors.New("backend down")
}

func TestPropagate_CacheFailuresAreBypassed(t *testing.T) {
	cache := &failingCache{}
	eng, err := synapse.New(synapse.WithGeneratorConfig(smallConfig()), synapse.WithTraceCache(cache))
	require.NoError(t, err)

	trace, err := eng.Propagate(context.Background(), "still works")
	require.NoError(t, err)
	assert.Len(t, trace, 10)
	assert.Equal(t, int32(2), cache.calls.Load())

	_, err = eng.Regenerate(context.Background())
	assert.NoError(t, err)
}

func TestConcurrentPropagateAndRegenerate(t *testing.T) {
	cache, err := memory.NewCache(64)
	require.NoError(t, err)
	eng, err := synapse.New(synapse.WithGeneratorConfig(smallConfig()), synapse.WithTraceCache(cache))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				trace, err := eng.Propagate(context.Background(), "concurrent")
				if !assert.NoError(t, err) {
					return
				}
				assert.Len(t, trace, 10)
				for _, snap := range trace {
					assert.Len(t, snap, 20)
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 5; j++ {
			_, err := eng.Regenerate(context.Background())
			assert.NoError(t, err)
		}
	}()
	wg.Wait()
}

func TestGenerate_ReferenceParameters(t *testing.T) {
	g, err := synapse.Generate(10, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, g.NodeCount())
	for _, e := range g.Edges() {
		assert.NotEqual(t, e.Source, e.Target)
	}

	_, err = synapse.Generate(-1, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
