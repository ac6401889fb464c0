package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/synapse/pkg/adapters/memory"
	"github.com/aretw0/synapse/pkg/domain"
	"github.com/aretw0/synapse/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Contract(t *testing.T) {
	cache, err := memory.NewCache(0)
	require.NoError(t, err)
	ports.RunTraceCacheContract(t, cache)
}

func TestMemoryCache_Eviction(t *testing.T) {
	cache, err := memory.NewCache(2)
	require.NoError(t, err)
	ctx := context.Background()
	trace := domain.Trace{{{ID: 0, Value: 1}}}

	k1 := ports.TraceKey{GraphID: "g", Steps: 1, Stimulus: "1"}
	k2 := ports.TraceKey{GraphID: "g", Steps: 1, Stimulus: "2"}
	k3 := ports.TraceKey{GraphID: "g", Steps: 1, Stimulus: "3"}

	require.NoError(t, cache.Put(ctx, k1, trace))
	require.NoError(t, cache.Put(ctx, k2, trace))
	require.NoError(t, cache.Put(ctx, k3, trace))

	assert.Equal(t, 2, cache.Len())
	_, err = cache.Get(ctx, k1)
	assert.ErrorIs(t, err, domain.ErrTraceNotFound, "oldest entry evicted")
}
