// Package http exposes the engine over a JSON API routed with chi.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/synapse"
	"github.com/aretw0/synapse/internal/presentation/graph"
	"github.com/aretw0/synapse/pkg/analysis"
	"github.com/aretw0/synapse/pkg/domain"
	"github.com/aretw0/synapse/pkg/ports"
	"github.com/aretw0/synapse/pkg/stimulus"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the handlers for the HTTP API.
type Server struct {
	Engine    ports.Engine
	Streams   *StreamManager
	logger    *slog.Logger
	gatherer  prometheus.Gatherer
	staticDir string
	maxInput  int
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes the gatherer on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMaxStimulusSize bounds accepted stimuli in bytes. Non-positive means stimulus.DefaultMaxSize.
func WithMaxStimulusSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// WithStaticDir serves files from dir under /static/ and dir/index.html on /.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// WithStreams sets the stream manager backing GET /events. Register its
// Hooks on the engine so publications reach subscribers.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.Engine, opts ...Option) http.Handler {
	server := &Server{Engine: engine}
	for _, opt := range opts {
		opt(server)
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(server.logRequests)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Get("/graph", server.GetGraph)
	r.Get("/graph/mermaid", server.GetGraphMermaid)
	r.Post("/process", server.Process)
	r.Post("/propagate", server.Propagate)
	r.Post("/regenerate", server.Regenerate)
	r.Get("/events", server.SubscribeEvents)

	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	if server.staticDir != "" {
		files := http.FileServer(http.Dir(server.staticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", files))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			index := filepath.Join(server.staticDir, "index.html")
			if _, err := os.Stat(index); err != nil {
				http.NotFound(w, r)
				return
			}
			http.ServeFile(w, r, index)
		})
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
		)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Synapse API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		s.logger.Error("Failed to load OpenAPI spec", "error", err)
	}

	s.writeJSON(w, InfoResponse{
		App:        "synapse-http",
		Version:    strings.TrimSpace(synapse.Version),
		APIVersion: apiVersion,
		GraphID:    s.Engine.Graph().ID(),
	})
}

// GetGraph handles the GET /graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, newGraphView(s.Engine.Graph()))
}

// GetGraphMermaid handles the GET /graph/mermaid request. With a stimulus
// query parameter the nodes active after the last step are highlighted.
func (s *Server) GetGraphMermaid(w http.ResponseWriter, r *http.Request) {
	g := s.Engine.Graph()

	var overlay *graph.ActivationOverlay
	if r.URL.Query().Has("stimulus") {
		input, ok := s.sanitize(w, r.URL.Query().Get("stimulus"))
		if !ok {
			return
		}
		trace, err := s.Engine.Propagate(r.Context(), input)
		if err != nil {
			s.fail(w, "Propagate", err)
			return
		}
		overlay = &graph.ActivationOverlay{Snapshot: trace.Final(), Threshold: analysis.DefaultThreshold}
		if raw := r.URL.Query().Get("threshold"); raw != "" {
			threshold, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				http.Error(w, "Invalid threshold", http.StatusBadRequest)
				return
			}
			overlay.Threshold = threshold
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(g, overlay))
}

// Process handles the POST /process request used by the browser client.
// The input "initial" returns the topology with an empty propagation.
func (s *Server) Process(w http.ResponseWriter, r *http.Request) {
	var body ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Input == nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Process: Invalid request body", "error", err)
		return
	}

	g := s.Engine.Graph()
	propagation := domain.Trace{}
	if *body.Input != domain.InitialStimulus {
		input, ok := s.sanitize(w, *body.Input)
		if !ok {
			return
		}
		trace, err := s.Engine.Propagate(r.Context(), input)
		if err != nil {
			s.fail(w, "Propagate", err)
			return
		}
		propagation = nonNil(trace)
		// Propagate may have run on a newer graph than g.
		g = s.Engine.Graph()
	}

	view := newGraphView(g)
	s.writeJSON(w, ProcessResponse{
		Nodes:       view.Nodes,
		Edges:       view.Edges,
		Propagation: propagation,
	})
}

// Propagate handles the POST /propagate request.
func (s *Server) Propagate(w http.ResponseWriter, r *http.Request) {
	var body PropagateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Stimulus == nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Propagate: Invalid request body", "error", err)
		return
	}

	input, ok := s.sanitize(w, *body.Stimulus)
	if !ok {
		return
	}

	graphID := s.Engine.Graph().ID()
	trace, err := s.Engine.Propagate(r.Context(), input)
	if err != nil {
		s.fail(w, "Propagate", err)
		return
	}

	resp := PropagateResponse{
		GraphID:     graphID,
		Propagation: nonNil(trace),
	}
	if body.Summary {
		resp.Summary = analysis.Summarize(trace, analysis.DefaultThreshold)
		delta := analysis.Delta(trace)
		resp.Delta = &delta
	}
	s.writeJSON(w, resp)
}

// Regenerate handles the POST /regenerate request.
func (s *Server) Regenerate(w http.ResponseWriter, r *http.Request) {
	g, err := s.Engine.Regenerate(r.Context())
	if err != nil {
		s.fail(w, "Regenerate", err)
		return
	}
	s.writeJSON(w, newGraphView(g))
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE Client Disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: graph\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) sanitize(w http.ResponseWriter, input string) (string, bool) {
	clean, err := stimulus.Sanitize(input, s.maxInput)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid stimulus: %v", err), http.StatusBadRequest)
		s.logger.Warn("Stimulus rejected", "error", err, "size", len(input))
		return "", false
	}
	return clean, true
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
	s.logger.Error(op+" failed", "error", err)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
