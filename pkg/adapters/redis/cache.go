package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/synapse/pkg/domain"
	"github.com/aretw0/synapse/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a trace outlives its last write.
// Graph IDs are unique per generation, so entries never outlive their graph in practice.
const DefaultTTL = 10 * time.Minute

// Cache implements ports.TraceCache using Redis.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.TraceCache = (*Cache)(nil)

type Option func(*Cache)

// WithTTL sets the expiration for cached traces.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix for cached traces.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a new Redis cache with options.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	cache := &Cache{
		client: client,
		prefix: "synapse:trace:",
		ttl:    DefaultTTL,
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

func (c *Cache) key(key ports.TraceKey) string {
	return c.prefix + key.String()
}

func (c *Cache) indexKey(graphID string) string {
	return c.prefix + "index:" + graphID
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Put stores the trace as JSON and records the key in the graph's index set.
func (c *Cache) Put(ctx context.Context, key ports.TraceKey, trace domain.Trace) error {
	data, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.key(key), data, c.ttl)
	pipe.SAdd(ctx, c.indexKey(key.GraphID), c.key(key))
	if c.ttl > 0 {
		pipe.Expire(ctx, c.indexKey(key.GraphID), c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get retrieves a trace from Redis.
func (c *Cache) Get(ctx context.Context, key ports.TraceKey) (domain.Trace, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrTraceNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var trace domain.Trace
	if err := json.Unmarshal(val, &trace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
	}
	return trace, nil
}

// Invalidate removes every trace indexed under graphID.
func (c *Cache) Invalidate(ctx context.Context, graphID string) error {
	index := c.indexKey(graphID)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	pipe := c.client.Pipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, index)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate graph %s: %w", graphID, err)
	}
	return nil
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
