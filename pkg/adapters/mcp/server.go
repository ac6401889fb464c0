// Package mcp exposes the engine as Model Context Protocol tools and resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/synapse"
	"github.com/aretw0/synapse/internal/presentation/graph"
	"github.com/aretw0/synapse/pkg/analysis"
	"github.com/aretw0/synapse/pkg/domain"
	"github.com/aretw0/synapse/pkg/ports"
	"github.com/aretw0/synapse/pkg/stimulus"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource holding the published graph.
const GraphURI = "synapse://graph"

// GraphResponse is the structured result of get_graph and regenerate.
type GraphResponse struct {
	GraphID string        `json:"graph_id" jsonschema_description:"Identity of the published graph"`
	Nodes   []domain.Node `json:"nodes" jsonschema_description:"Nodes with their layer"`
	Edges   []domain.Edge `json:"edges" jsonschema_description:"Weighted directed edges"`
}

// PropagateResponse is the structured result of propagate.
type PropagateResponse struct {
	GraphID     string                 `json:"graph_id" jsonschema_description:"Graph the stimulus ran through"`
	Propagation domain.Trace           `json:"propagation" jsonschema_description:"One snapshot of every node per step"`
	Summary     []analysis.StepSummary `json:"summary" jsonschema_description:"Per-step activation statistics"`
	Delta       float64                `json:"delta" jsonschema_description:"Largest activation change between the last two steps"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    ports.Engine
	logger    *slog.Logger
	maxInput  int
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithMaxStimulusSize bounds accepted stimuli in bytes. Non-positive means stimulus.DefaultMaxSize.
func WithMaxStimulusSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Engine, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("synapse-mcp", strings.TrimSpace(synapse.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	// SSE sessions end with their request context, which Shutdown alone never cancels.
	baseCtx, cancelSessions := context.WithCancel(context.Background())
	defer cancelSessions()

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	httpServer.RegisterOnShutdown(cancelSessions)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: propagate
	propagateTool := mcp.NewTool("propagate",
		mcp.WithDescription("Run a stimulus through the graph and return every step's activations with statistics."),
		mcp.WithString("stimulus", mcp.Required(), mcp.Description("Text whose characters seed the first nodes")),
		mcp.WithOutputSchema[PropagateResponse](),
	)
	s.mcpServer.AddTool(propagateTool, mcp.NewStructuredToolHandler(s.handlePropagate))

	// TOOL: regenerate
	regenerateTool := mcp.NewTool("regenerate",
		mcp.WithDescription("Generate and publish a new random graph."),
		mcp.WithOutputSchema[GraphResponse](),
	)
	s.mcpServer.AddTool(regenerateTool, mcp.NewStructuredToolHandler(s.handleRegenerate))

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the published graph for introspection."),
		mcp.WithString("format", mcp.Description("json (default) or mermaid"), mcp.Enum("json", "mermaid")),
	), s.handleGetGraph)
}

func (s *Server) handlePropagate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PropagateResponse, error) {
	raw, ok := args["stimulus"].(string)
	if !ok {
		return PropagateResponse{}, fmt.Errorf("stimulus must be a string")
	}

	clean, err := stimulus.Sanitize(raw, s.maxInput)
	if err != nil {
		s.logger.Warn("MCP Propagate: Stimulus rejected", "error", err, "size", len(raw))
		return PropagateResponse{}, fmt.Errorf("stimulus rejected: %w", err)
	}

	graphID := s.engine.Graph().ID()
	trace, err := s.engine.Propagate(ctx, clean)
	if err != nil {
		return PropagateResponse{}, fmt.Errorf("propagate failed: %w", err)
	}

	return PropagateResponse{
		GraphID:     graphID,
		Propagation: trace,
		Summary:     analysis.Summarize(trace, analysis.DefaultThreshold),
		Delta:       analysis.Delta(trace),
	}, nil
}

func (s *Server) handleRegenerate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GraphResponse, error) {
	g, err := s.engine.Regenerate(ctx)
	if err != nil {
		return GraphResponse{}, fmt.Errorf("regenerate failed: %w", err)
	}
	return newGraphResponse(g), nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.engine.Graph()
	if request.GetString("format", "json") == "mermaid" {
		return mcp.NewToolResultText(graph.GenerateMermaid(g, nil)), nil
	}

	jsonBytes, err := json.Marshal(newGraphResponse(g))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: synapse://graph
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Published Graph",
		mcp.WithMIMEType("application/json"),
	), s.readGraph)
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(newGraphResponse(s.engine.Graph()))
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func newGraphResponse(g *domain.Graph) GraphResponse {
	resp := GraphResponse{
		GraphID: g.ID(),
		Nodes:   g.Nodes(),
		Edges:   g.Edges(),
	}
	if resp.Nodes == nil {
		resp.Nodes = []domain.Node{}
	}
	if resp.Edges == nil {
		resp.Edges = []domain.Edge{}
	}
	return resp
}
