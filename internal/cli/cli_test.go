package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/synapse/internal/config"
	"github.com/aretw0/synapse/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	seed := uint64(4)
	cfg.Seed = &seed
	cfg.Generator.Nodes = 10
	cfg.Generator.Layers = 2
	return cfg
}

func newRuntime(t *testing.T, cfg *config.Config) *Runtime {
	t.Helper()
	rt, err := NewRuntime(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestNewRuntime_Backends(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		rt := newRuntime(t, testConfig())
		assert.Equal(t, 10, rt.Engine.Graph().NodeCount())
		assert.NotNil(t, rt.Registry)
	})

	t.Run("none without metrics", func(t *testing.T) {
		cfg := testConfig()
		cfg.Cache.Backend = config.CacheNone
		cfg.Server.Metrics = false
		rt := newRuntime(t, cfg)
		assert.Nil(t, rt.Registry)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig()
		cfg.Cache.Backend = config.CacheRedis
		cfg.Cache.Redis.Addr = mr.Addr()
		rt := newRuntime(t, cfg)

		_, err := rt.Engine.Propagate(context.Background(), "cached")
		require.NoError(t, err)
		assert.NotEmpty(t, mr.Keys())
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := testConfig()
		cfg.Cache.Backend = config.CacheRedis
		cfg.Cache.Redis.Addr = addr
		_, err := NewRuntime(context.Background(), cfg, logging.NewNop())
		assert.ErrorContains(t, err, "redis cache")
	})
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synapse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generator:\n  nodes: 30\n  layers: 3\nlogging:\n  level: warn\n"), 0o644))

	seed := uint64(99)
	steps := 4
	cfg, err := LoadConfig(path, Overrides{LogLevel: "debug", Seed: &seed, Steps: &steps})
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Generator.Nodes)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, uint64(99), *cfg.Seed)
	assert.Equal(t, 4, cfg.Propagation.Steps)

	bad := -1
	_, err = LoadConfig(path, Overrides{Steps: &bad})
	assert.Error(t, err)
}

func TestPropagate_Formats(t *testing.T) {
	rt := newRuntime(t, testConfig())
	ctx := context.Background()

	var text bytes.Buffer
	require.NoError(t, Propagate(ctx, rt, "Hi", PropagateOptions{Format: FormatText}, &text))
	assert.Contains(t, text.String(), "step  1 │")
	assert.Contains(t, text.String(), "active=")
	assert.Contains(t, text.String(), "delta    ")
	assert.NotContains(t, text.String(), "\x1b[")

	var js bytes.Buffer
	require.NoError(t, Propagate(ctx, rt, "Hi", PropagateOptions{Format: FormatJSON}, &js))
	var decoded struct {
		GraphID     string             `json:"graph_id"`
		Propagation [][]map[string]any `json:"propagation"`
		Summary     []map[string]any   `json:"summary"`
		Delta       *float64           `json:"delta"`
	}
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, rt.Engine.Graph().ID(), decoded.GraphID)
	assert.Len(t, decoded.Propagation, 10)
	assert.Len(t, decoded.Summary, 10)
	require.NotNil(t, decoded.Delta)
	assert.GreaterOrEqual(t, *decoded.Delta, 0.0)

	var md bytes.Buffer
	require.NoError(t, Propagate(ctx, rt, "Hi", PropagateOptions{Format: FormatMarkdown}, &md))
	assert.Contains(t, md.String(), "| Step | Mean |")

	assert.Error(t, Propagate(ctx, rt, "Hi", PropagateOptions{Format: "yaml"}, &md))
	assert.Error(t, Propagate(ctx, rt, "bad\xff", PropagateOptions{}, &md))

	rt.Config.Stimulus.MaxSize = 1
	assert.ErrorContains(t, Propagate(ctx, rt, "Hi", PropagateOptions{}, &md), "maximum allowed size")
}

func TestExportGraph(t *testing.T) {
	rt := newRuntime(t, testConfig())

	var js bytes.Buffer
	require.NoError(t, ExportGraph(rt, FormatJSON, &js))
	assert.Contains(t, js.String(), rt.Engine.Graph().ID())

	var mermaid bytes.Buffer
	require.NoError(t, ExportGraph(rt, FormatMermaid, &mermaid))
	assert.True(t, strings.HasPrefix(mermaid.String(), "graph LR"))

	assert.Error(t, ExportGraph(rt, "dot", &js))
}

func TestNewHTTPHandler(t *testing.T) {
	rt := newRuntime(t, testConfig())
	h := NewHTTPHandler(rt, config.ServerConfig{Addr: ":0", Metrics: true})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "synapse_generations_total")
}

func TestServe_StopsOnCancel(t *testing.T) {
	rt := newRuntime(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, rt, config.ServerConfig{Addr: "127.0.0.1:0"})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServe_ClosesEventStreamsOnShutdown(t *testing.T) {
	rt := newRuntime(t, testConfig())
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, rt, config.ServerConfig{Addr: addr})
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get("http://" + addr + "/events")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: ping\n", line)

	start := time.Now()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Less(t, time.Since(start), ShutdownTimeout/2)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
