package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/synapse/internal/config"
	"github.com/aretw0/synapse/internal/logging"
	"github.com/aretw0/synapse/pkg/domain"
	"golang.org/x/term"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// Overrides are command-line values that win over file and environment config.
type Overrides struct {
	LogLevel string
	Seed     *uint64
	Steps    *int
}

// LoadConfig reads path and the SYNAPSE_* environment, applies overrides and validates.
func LoadConfig(path string, o Overrides) (*config.Config, error) {
	cfg, err := config.Load(path, os.Environ())
	if err != nil {
		return nil, err
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.Seed != nil {
		cfg.Seed = o.Seed
	}
	if o.Steps != nil {
		cfg.Propagation.Steps = *o.Steps
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CreateLogger configures the application logger. It writes to Stderr so
// Stdout stays clean for command output and the MCP stdio transport.
func CreateLogger(level string) *slog.Logger {
	return logging.New(logging.ParseLevel(level))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGenerate: func(ctx context.Context, e *domain.GenerateEvent) {
			logger.Debug("Graph Generated",
				"graph_id", e.GraphID,
				"nodes", e.Nodes,
				"layers", e.Layers,
				"local_edges", e.LocalEdges,
				"long_range_edges", e.LongRangeEdges,
			)
		},
		OnPropagate: func(ctx context.Context, e *domain.PropagateEvent) {
			logger.Log(ctx, logging.LevelTrace, "Propagation",
				"graph_id", e.GraphID,
				"steps", e.Steps,
				"cache_hit", e.CacheHit,
				"duration", e.Duration,
			)
		},
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
