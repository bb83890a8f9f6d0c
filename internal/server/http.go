package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mcp-gmail-server/internal/instrumentation"
)

// MCPEndpointPath is where the streamable HTTP transport is mounted.
const MCPEndpointPath = "/mcp"

// HTTPServerConfig configures the streamable HTTP transport.
type HTTPServerConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:8080".
	Addr string

	// Version is reported by the detailed health endpoint.
	Version string

	Logger *slog.Logger
}

// HTTPServer serves the MCP streamable HTTP transport next to the health
// endpoints on one listener.
type HTTPServer struct {
	httpServer *http.Server
	streamable *mcpserver.StreamableHTTPServer
	health     *HealthChecker
	logger     *slog.Logger
	addr       string
}

// NewHTTPServer creates the HTTP transport for mcpSrv.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, sc *ServerContext, cfg HTTPServerConfig) (*HTTPServer, error) {
	if mcpSrv == nil {
		return nil, errors.New("MCP server is required")
	}
	if cfg.Addr == "" {
		return nil, errors.New("HTTP server address is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = sc.Logger()
	}

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(MCPEndpointPath),
	)
	health := NewHealthChecker(sc, cfg.Version)

	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, streamable)
	health.RegisterHealthEndpoints(mux)

	return &HTTPServer{
		streamable: streamable,
		health:     health,
		logger:     logger,
		addr:       cfg.Addr,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           MetricsMiddleware(sc.Metrics(), mux),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}, nil
}

// Handler returns the root handler, including the metrics middleware.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// HealthChecker returns the health checker behind /healthz and /readyz.
func (s *HTTPServer) HealthChecker() *HealthChecker {
	return s.health
}

// Start listens on the configured address and serves until Shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *HTTPServer) Serve(ln net.Listener) error {
	s.logger.Info("starting MCP HTTP server", "addr", ln.Addr().String(), "endpoint", MCPEndpointPath)
	return s.httpServer.Serve(ln)
}

// Shutdown marks the server not ready, then drains HTTP and MCP sessions.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	s.logger.Info("shutting down MCP HTTP server")
	return errors.Join(
		s.httpServer.Shutdown(ctx),
		s.streamable.Shutdown(ctx),
	)
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// MetricsMiddleware records method, normalized path, status and duration of
// every request. A nil m returns next unchanged.
func MetricsMiddleware(m *instrumentation.Metrics, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// SessionHooks returns MCP hooks that keep the active session gauge current.
func SessionHooks(sc *ServerContext) *mcpserver.Hooks {
	hooks := &mcpserver.Hooks{}
	logger := sc.Logger()
	hooks.AddOnRegisterSession(func(ctx context.Context, _ mcpserver.ClientSession) {
		logger.Debug("MCP session registered")
		if m := sc.Metrics(); m != nil {
			m.IncrementActiveSessions(ctx)
		}
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, _ mcpserver.ClientSession) {
		logger.Debug("MCP session unregistered")
		if m := sc.Metrics(); m != nil {
			m.DecrementActiveSessions(ctx)
		}
	})
	return hooks
}
