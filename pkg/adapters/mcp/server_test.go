package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/synapse"
	"github.com/aretw0/synapse/pkg/generator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*Server, *synapse.Engine) {
	t.Helper()
	cfg := generator.DefaultConfig()
	cfg.Nodes = 8
	cfg.Layers = 2
	eng, err := synapse.New(synapse.WithSeed(2), synapse.WithGeneratorConfig(cfg))
	require.NoError(t, err)
	return NewServer(eng, nil), eng
}

func TestHandlePropagate(t *testing.T) {
	s, eng := newServer(t)

	resp, err := s.handlePropagate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"stimulus": "hey"})
	require.NoError(t, err)
	assert.Equal(t, eng.Graph().ID(), resp.GraphID)
	assert.Len(t, resp.Propagation, 10)
	assert.Len(t, resp.Summary, 10)
	assert.GreaterOrEqual(t, resp.Delta, 0.0)
}

func TestHandlePropagate_Rejects(t *testing.T) {
	s, _ := newServer(t)

	_, err := s.handlePropagate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)

	_, err = s.handlePropagate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"stimulus": strings.Repeat("x", 5000)})
	assert.ErrorContains(t, err, "stimulus rejected")
}

func TestHandlePropagate_MaxStimulusSize(t *testing.T) {
	_, eng := newServer(t)
	s := NewServer(eng, nil, WithMaxStimulusSize(2))

	_, err := s.handlePropagate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"stimulus": "hey"})
	assert.ErrorContains(t, err, "maximum allowed size")

	_, err = s.handlePropagate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"stimulus": "he"})
	assert.NoError(t, err)
}

func TestHandleRegenerate(t *testing.T) {
	s, eng := newServer(t)
	before := eng.Graph().ID()

	resp, err := s.handleRegenerate(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, before, resp.GraphID)
	assert.Equal(t, eng.Graph().ID(), resp.GraphID)
	assert.Len(t, resp.Nodes, 8)
}

func TestHandleGetGraph(t *testing.T) {
	s, eng := newServer(t)

	res, err := s.handleGetGraph(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var graph GraphResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &graph))
	assert.Equal(t, eng.Graph().ID(), graph.GraphID)
	assert.Len(t, graph.Nodes, 8)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"format": "mermaid"}
	res, err = s.handleGetGraph(context.Background(), req)
	require.NoError(t, err)
	text, ok = res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(text.Text, "graph LR"))
}

func TestReadGraphResource(t *testing.T) {
	s, eng := newServer(t)

	contents, err := s.readGraph(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, GraphURI, text.URI)
	assert.Contains(t, text.Text, eng.Graph().ID())
}

func TestServeSSE_ClosesSessionsOnCancel(t *testing.T) {
	s, _ := newServer(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- s.ServeSSE(ctx, addr, "http://"+addr)
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/sse")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: endpoint\n", line)

	start := time.Now()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	case <-time.After(6 * time.Second):
		t.Fatal("SSE server did not stop")
	}
}
