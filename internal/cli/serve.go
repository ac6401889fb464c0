package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/synapse/internal/config"
	httpAdapter "github.com/aretw0/synapse/pkg/adapters/http"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// NewHTTPHandler builds the HTTP API for rt.
func NewHTTPHandler(rt *Runtime, cfg config.ServerConfig) http.Handler {
	opts := []httpAdapter.Option{
		httpAdapter.WithLogger(rt.Logger),
		httpAdapter.WithStreams(rt.Streams),
		httpAdapter.WithMaxStimulusSize(rt.Config.Stimulus.MaxSize),
	}
	if cfg.StaticDir != "" {
		opts = append(opts, httpAdapter.WithStaticDir(cfg.StaticDir))
	}
	if rt.Registry != nil {
		opts = append(opts, httpAdapter.WithMetrics(rt.Registry))
	}
	return httpAdapter.NewHandler(rt.Engine, opts...)
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, rt *Runtime, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHTTPHandler(rt, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown waits for handlers; SSE handlers only return when their stream ends.
	srv.RegisterOnShutdown(rt.Streams.Close)

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		rt.Logger.Info("Starting Synapse Server", "addr", srv.Addr, "graph_id", rt.Engine.Graph().ID())
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		rt.Logger.Info("Start shutdown...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.Logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "error", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		rt.Logger.Info("Synapse Server stopped gracefully")
		return nil
	}
}
