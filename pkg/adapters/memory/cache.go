package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/synapse/pkg/domain"
	"github.com/aretw0/synapse/pkg/ports"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of traces held in memory.
const DefaultCacheSize = 256

// Cache implements ports.TraceCache with a bounded LRU.
// Safe for concurrent use.
type Cache struct {
	lru *lru.Cache[string, domain.Trace]
}

var _ ports.TraceCache = (*Cache)(nil)

// NewCache creates an in-memory trace cache holding at most size traces.
// A non-positive size selects DefaultCacheSize.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	l, err := lru.New[string, domain.Trace](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru: %w", err)
	}
	return &Cache{lru: l}, nil
}

// Get returns a copy of the cached trace.
func (c *Cache) Get(ctx context.Context, key ports.TraceKey) (domain.Trace, error) {
	trace, ok := c.lru.Get(key.String())
	if !ok {
		return nil, domain.ErrTraceNotFound
	}
	// Copy on read so callers can't mutate cached state through the slices.
	return trace.Clone(), nil
}

// Put stores a copy of trace.
func (c *Cache) Put(ctx context.Context, key ports.TraceKey, trace domain.Trace) error {
	c.lru.Add(key.String(), trace.Clone())
	return nil
}

// Invalidate drops every trace computed for graphID.
func (c *Cache) Invalidate(ctx context.Context, graphID string) error {
	prefix := graphID + ":"
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
	return nil
}

// Len returns the number of cached traces.
func (c *Cache) Len() int {
	return c.lru.Len()
}
