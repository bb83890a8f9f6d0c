package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/mcp-gmail-server/internal/instrumentation"
)

func newTestMetrics(t *testing.T) (*instrumentation.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)
	return m, reader
}

func sumPoints(t *testing.T, reader *sdkmetric.ManualReader, name string) []metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok, "metric %s has data %T", name, m.Data)
				return sum.DataPoints
			}
		}
	}
	return nil
}

func TestMetricsMiddleware(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := MetricsMiddleware(metrics, mux)

	for _, path := range []string{"/healthz", "/nope/123"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	got := map[string]string{}
	for _, p := range sumPoints(t, reader, "http_requests_total") {
		path, _ := p.Attributes.Value(attribute.Key("path"))
		status, _ := p.Attributes.Value(attribute.Key("status"))
		got[path.AsString()] = status.AsString()
	}
	assert.Equal(t, map[string]string{
		"/healthz":                "200",
		instrumentation.PathOther: "404",
	}, got)
}

func TestMetricsMiddleware_NilMetrics(t *testing.T) {
	next := http.NewServeMux()
	assert.Same(t, next, MetricsMiddleware(nil, next))
}

func TestStatusRecorder_Flush(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}
	sr.Flush()
	assert.True(t, rec.Flushed)
	assert.Equal(t, rec, sr.Unwrap())
}

type fakeSession struct {
	id string
	ch chan mcp.JSONRPCNotification
}

func (s *fakeSession) SessionID() string                                   { return s.id }
func (s *fakeSession) Initialize()                                         {}
func (s *fakeSession) Initialized() bool                                   { return true }
func (s *fakeSession) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.ch }

func TestSessionHooks(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	sc := NewServerContext(context.Background(), nil, WithMetrics(metrics))
	hooks := SessionHooks(sc)

	ctx := context.Background()
	a := &fakeSession{id: "a", ch: make(chan mcp.JSONRPCNotification)}
	b := &fakeSession{id: "b", ch: make(chan mcp.JSONRPCNotification)}
	hooks.RegisterSession(ctx, a)
	hooks.RegisterSession(ctx, b)
	hooks.UnregisterSession(ctx, a)

	points := sumPoints(t, reader, "active_sessions")
	require.Len(t, points, 1)
	assert.Equal(t, int64(1), points[0].Value)
}

func TestNewHTTPServer_Validation(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)

	_, err := NewHTTPServer(nil, sc, HTTPServerConfig{Addr: ":8080"})
	assert.Error(t, err)

	_, err = NewHTTPServer(mcpserver.NewMCPServer("test", "1.0.0"), sc, HTTPServerConfig{})
	assert.Error(t, err)
}

func TestHTTPServer_ServeAndShutdown(t *testing.T) {
	sc := NewServerContext(context.Background(), staticTokens())
	mcpSrv := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))

	srv, err := NewHTTPServer(mcpSrv, sc, HTTPServerConfig{Addr: "127.0.0.1:0", Version: "1.0.0"})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	base := "http://" + ln.Addr().String()

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.False(t, srv.HealthChecker().IsReady())
	assert.True(t, errors.Is(<-serveErr, http.ErrServerClosed))
}
