package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/synapse"
	"github.com/aretw0/synapse/internal/config"
	httpAdapter "github.com/aretw0/synapse/pkg/adapters/http"
	"github.com/aretw0/synapse/pkg/adapters/memory"
	"github.com/aretw0/synapse/pkg/adapters/redis"
	"github.com/aretw0/synapse/pkg/observability"
	"github.com/aretw0/synapse/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Runtime bundles the engine with the infrastructure built around it.
type Runtime struct {
	Config   *config.Config
	Engine   *synapse.Engine
	Logger   *slog.Logger
	Registry *prometheus.Registry // nil when metrics are disabled
	Streams  *httpAdapter.StreamManager
	closers  []func() error
}

// Close releases cache connections.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewRuntime wires the engine from cfg: trace cache backend, metrics, SSE streams and logging.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Config:  cfg,
		Logger:  logger,
		Streams: httpAdapter.NewStreamManager(logger),
	}

	engineOpts := []synapse.Option{
		synapse.WithLogger(logger),
		synapse.WithGeneratorConfig(cfg.Generator),
		synapse.WithPropagationConfig(cfg.Propagation),
		synapse.WithLifecycleHooks(createDebugHooks(logger)),
		synapse.WithLifecycleHooks(rt.Streams.Hooks()),
	}
	if cfg.Seed != nil {
		engineOpts = append(engineOpts, synapse.WithSeed(*cfg.Seed))
	}

	if cfg.Server.Metrics {
		rt.Registry = prometheus.NewRegistry()
		rt.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := observability.NewMetrics(rt.Registry)
		engineOpts = append(engineOpts, synapse.WithLifecycleHooks(metrics.Hooks()))
	}

	cache, err := rt.newCache(ctx, cfg.Cache)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if cache != nil {
		engineOpts = append(engineOpts, synapse.WithTraceCache(cache))
	}

	engine, err := synapse.New(engineOpts...)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	rt.Engine = engine
	return rt, nil
}

func (rt *Runtime) newCache(ctx context.Context, cfg config.CacheConfig) (ports.TraceCache, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheRedis:
		cache := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithTTL(cfg.TTL))
		rt.closers = append(rt.closers, cache.Close)
		if err := cache.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis cache at %s: %w", cfg.Redis.Addr, err)
		}
		rt.Logger.Debug("trace cache enabled", "backend", cfg.Backend, "addr", cfg.Redis.Addr, "ttl", cfg.TTL)
		return cache, nil
	default:
		size := cfg.Size
		if size == 0 {
			size = memory.DefaultCacheSize
		}
		cache, err := memory.NewCache(size)
		if err != nil {
			return nil, fmt.Errorf("memory cache: %w", err)
		}
		rt.Logger.Debug("trace cache enabled", "backend", config.CacheMemory, "size", size)
		return cache, nil
	}
}
