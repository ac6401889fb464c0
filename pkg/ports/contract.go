package ports

import (
	"context"
	"testing"

	"github.com/aretw0/synapse/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTraceCacheContract runs a suite of tests to verify that a TraceCache implementation
// adheres to the defined interface contract.
func RunTraceCacheContract(t *testing.T, cache TraceCache) {
	ctx := context.Background()
	trace := domain.Trace{
		{{ID: 0, Value: 0.2549019607843137}, {ID: 1, Value: 0}},
		{{ID: 0, Value: 0.2549019607843137}, {ID: 1, Value: 0.5318113124650574}},
	}

	t.Run("Put and Get", func(t *testing.T) {
		key := TraceKey{GraphID: "graph-a", Steps: 2, Stimulus: "A"}
		require.NoError(t, cache.Put(ctx, key, trace))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, trace, got)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := cache.Get(ctx, TraceKey{GraphID: "graph-a", Steps: 2, Stimulus: "missing"})
		assert.ErrorIs(t, err, domain.ErrTraceNotFound)
	})

	t.Run("Steps Are Part Of The Key", func(t *testing.T) {
		key := TraceKey{GraphID: "graph-a", Steps: 2, Stimulus: "steps"}
		require.NoError(t, cache.Put(ctx, key, trace))

		_, err := cache.Get(ctx, TraceKey{GraphID: "graph-a", Steps: 3, Stimulus: "steps"})
		assert.ErrorIs(t, err, domain.ErrTraceNotFound)
	})

	t.Run("Returned Trace Is Owned By Caller", func(t *testing.T) {
		key := TraceKey{GraphID: "graph-a", Steps: 2, Stimulus: "owned"}
		input := trace.Clone()
		require.NoError(t, cache.Put(ctx, key, input))
		input[0][0].Value = 99

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, trace, got, "mutating the stored input must not leak into the cache")

		got[1][1].Value = 42
		again, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, trace, again, "mutating a returned trace must not leak into the cache")
	})

	t.Run("Empty Trace", func(t *testing.T) {
		key := TraceKey{GraphID: "graph-a", Steps: 2, Stimulus: "empty-graph"}
		empty := domain.Trace{{}, {}}
		require.NoError(t, cache.Put(ctx, key, empty))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		for _, s := range got {
			assert.Empty(t, s)
		}
	})

	t.Run("Invalidate", func(t *testing.T) {
		keep := TraceKey{GraphID: "graph-b", Steps: 2, Stimulus: "A"}
		drop := TraceKey{GraphID: "graph-c", Steps: 2, Stimulus: "A"}
		require.NoError(t, cache.Put(ctx, keep, trace))
		require.NoError(t, cache.Put(ctx, drop, trace))

		require.NoError(t, cache.Invalidate(ctx, "graph-c"))

		_, err := cache.Get(ctx, drop)
		assert.ErrorIs(t, err, domain.ErrTraceNotFound)
		_, err = cache.Get(ctx, keep)
		assert.NoError(t, err)
	})
}
