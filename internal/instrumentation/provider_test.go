package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProviderConfig(metrics, tracing string) Config {
	c := DefaultConfig()
	c.ServiceName = "test-service"
	c.ServiceVersion = "1.0.0"
	c.MetricsExporter = metrics
	c.TracingExporter = tracing
	return c
}

func TestNewProvider_Disabled(t *testing.T) {
	c := testProviderConfig("ignored", "ignored")
	c.Enabled = false

	p, err := NewProvider(context.Background(), c)
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.False(t, p.PrometheusEnabled())
	require.NotNil(t, p.Metrics())
	assert.NotNil(t, p.Tracer("test"))

	// The no-op recorder accepts calls.
	p.Metrics().RecordMessageDecoded(context.Background(), true)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name           string
		metrics        string
		tracing        string
		wantPrometheus bool
	}{
		{"prometheus without tracing", ExporterPrometheus, ExporterNone, true},
		{"prometheus with stdout tracing", ExporterPrometheus, ExporterStdout, true},
		{"stdout metrics", ExporterStdout, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			p, err := NewProvider(ctx, testProviderConfig(tt.metrics, tt.tracing))
			require.NoError(t, err)
			defer func() { assert.NoError(t, p.Shutdown(ctx)) }()

			assert.True(t, p.Enabled())
			assert.Equal(t, tt.wantPrometheus, p.PrometheusEnabled())
			assert.NotNil(t, p.Metrics())
			assert.NotNil(t, p.Tracer("test"))
		})
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		metrics string
		tracing string
	}{
		{"unknown metrics exporter", "invalid", ExporterNone},
		{"unknown tracing exporter", ExporterPrometheus, "invalid"},
		{"otlp tracing without endpoint", ExporterPrometheus, ExporterOTLP},
		{"otlp metrics without endpoint", ExporterOTLP, ExporterNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(context.Background(), testProviderConfig(tt.metrics, tt.tracing))
			assert.Error(t, err)
			assert.Nil(t, p)
		})
	}
}
