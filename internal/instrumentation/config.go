package instrumentation

import (
	"errors"
	"fmt"
	"time"
)

// Config describes which telemetry pipelines the Provider builds. It is
// filled from the GMAILMCP_TELEMETRY_* and GMAILMCP_AUDIT_* variables by the
// serve command.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Enabled turns metrics and tracing on. A disabled Provider hands out
	// no-op recorders.
	Enabled bool

	// MetricsExporter is one of ExporterPrometheus, ExporterOTLP or
	// ExporterStdout.
	MetricsExporter string

	// TracingExporter is one of ExporterOTLP, ExporterStdout or ExporterNone.
	// Empty means ExporterNone.
	TracingExporter string

	// OTLPEndpoint is the collector host:port, without scheme.
	OTLPEndpoint string

	// OTLPInsecure sends OTLP over plain HTTP. Spans carry search queries and
	// message IDs, so keep this for local collectors.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio sampler argument, 0.0 to 1.0.
	TraceSamplingRate float64

	// DetailedLabels records raw request paths and attachment MIME types
	// instead of their bounded forms.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the tool invocation audit log.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs the mailbox address in full instead of its hash.
	IncludePII bool

	// LogLevel is the slog level audit records are written at: debug, info,
	// warn or error.
	LogLevel string
}

// DefaultConfig returns the configuration used when nothing is overridden:
// Prometheus metrics, no tracing, audit logging without PII.
func DefaultConfig() Config {
	return Config{
		ServiceName:       "mcp-gmail-server",
		ServiceVersion:    "unknown",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 0.1,
		AuditLogging: AuditLoggingConfig{
			Enabled:  true,
			LogLevel: "info",
		},
	}
}

// Validate reports every problem with c at once. A disabled configuration is
// always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	var errs []error
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate))
	}

	switch c.MetricsExporter {
	case ExporterPrometheus, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			errs = append(errs, errors.New("OTLP endpoint is required for the otlp metrics exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter))
	}

	switch c.tracingExporter() {
	case ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			errs = append(errs, errors.New("OTLP endpoint is required for the otlp tracing exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter))
	}

	return errors.Join(errs...)
}

func (c Config) tracingExporter() string {
	if c.TracingExporter == "" {
		return ExporterNone
	}
	return c.TracingExporter
}

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"
	OAuthResultExpired = "expired"

	ServiceGmail = "gmail"
)

// Exporters.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// DefaultMetricInterval is the push interval of the periodic OTLP and stdout
// metric readers.
const DefaultMetricInterval = 10 * time.Second
