// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kelseyhightower/envconfig"
)

const (
	prefix      = "gmailmcp"
	tableFormat = `mcp-gmail-server is configured via the environment. The following
environment variables can be used:

KEY	DEFAULT	REQUIRED	DESCRIPTION
{{range .}}{{usage_key .}}	{{usage_default .}}	{{usage_required .}}	{{usage_description .}}
{{end}}`
)

// Supported MCP transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "streamable-http"
)

// legacyEnv lists unprefixed variables that are still honoured when the
// prefixed variable is not set.
var legacyEnv = []struct {
	legacy, current string
	field           func(*Root) *string
}{
	{"GOOGLE_CLIENT_SECRET_PATH", "GMAILMCP_GOOGLE_CLIENT_SECRET_PATH", func(r *Root) *string { return &r.Google.ClientSecretPath }},
	{"GOOGLE_TOKEN_PATH", "GMAILMCP_GOOGLE_TOKEN_PATH", func(r *Root) *string { return &r.Google.TokenPath }},
	{"OTEL_EXPORTER_OTLP_ENDPOINT", "GMAILMCP_TELEMETRY_OTLP_ENDPOINT", func(r *Root) *string { return &r.Telemetry.OTLPEndpoint }},
}

// Root wraps all other configurations.
type Root struct {
	Transport string `required:"true" default:"stdio" desc:"stdio or streamable-http"`
	Log       Log
	HTTP      HTTP
	Metrics   Metrics
	Google    Google
	Gmail     Gmail
	Telemetry Telemetry
	Audit     Audit
}

// Log contains the logger configuration.
type Log struct {
	Level  string `required:"true" default:"info" desc:"debug, info, warn, or error"`
	Format string `required:"true" default:"text" desc:"text or json"`
	File   string `required:"true" default:"mcp_gmail_server.log" desc:"Log file path, - for stderr"`
}

// HTTP contains the streamable HTTP transport configuration.
type HTTP struct {
	Addr string `required:"true" default:"127.0.0.1:8080" desc:"MCP HTTP server host:port"`
}

// Metrics contains the metrics server configuration.
type Metrics struct {
	Addr string `desc:"Prometheus metrics host:port, empty disables"`
}

// Google contains the OAuth client configuration.
type Google struct {
	ClientSecretPath string `split_words:"true" required:"true" default:"client_secret.json" desc:"OAuth client secret JSON"`
	TokenPath        string `split_words:"true" required:"true" default:"token.json" desc:"Persisted OAuth token"`
}

// Gmail contains the Gmail client limits.
type Gmail struct {
	MaxResults         int     `split_words:"true" required:"true" default:"100" desc:"Default search result count"`
	BatchConcurrency   int     `split_words:"true" required:"true" default:"8" desc:"Concurrent fetches per batch"`
	MaxPartDepth       int     `split_words:"true" required:"true" default:"64" desc:"Maximum MIME nesting depth"`
	MaxAttachmentBytes int64   `split_words:"true" required:"true" default:"26214400" desc:"Maximum attachment size"`
	RequestsPerSecond  float64 `split_words:"true" default:"0" desc:"Gmail API request rate, 0 disables"`
	RequestBurst       int     `split_words:"true" default:"10" desc:"Gmail API request burst"`
}

// Telemetry contains the OpenTelemetry exporter configuration.
type Telemetry struct {
	Enabled         bool    `default:"true" desc:"Record metrics and traces"`
	MetricsExporter string  `split_words:"true" default:"prometheus" desc:"prometheus, otlp, or stdout"`
	TracingExporter string  `split_words:"true" default:"none" desc:"otlp, stdout, or none"`
	OTLPEndpoint    string  `envconfig:"OTLP_ENDPOINT" desc:"OTLP collector host:port"`
	OTLPInsecure    bool    `envconfig:"OTLP_INSECURE" desc:"Export OTLP without TLS"`
	SamplingRate    float64 `split_words:"true" default:"0.1" desc:"Trace sampling ratio, 0.0 to 1.0"`
	DetailedLabels  bool    `split_words:"true" desc:"Record raw paths and MIME types as metric labels"`
}

// Audit contains the tool audit log configuration.
type Audit struct {
	Enabled    bool   `default:"true" desc:"Log every tool invocation"`
	IncludePII bool   `envconfig:"INCLUDE_PII" desc:"Log the mailbox address unhashed"`
	Level      string `default:"info" desc:"debug, info, warn, or error"`
}

// Process loads and parses configuration from the environment.
func Process() (*Root, error) {
	c := &Root{}
	if err := envconfig.Process(prefix, c); err != nil {
		return nil, err
	}
	for _, e := range legacyEnv {
		if _, ok := os.LookupEnv(e.current); ok {
			continue
		}
		if v, ok := os.LookupEnv(e.legacy); ok && v != "" {
			*e.field(c) = v
		}
	}
	return c, c.Validate()
}

// Validate checks values envconfig cannot check on its own.
func (c *Root) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("invalid transport %q, must be one of: %s, %s",
			c.Transport, TransportStdio, TransportHTTP))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q, must be text or json", c.Log.Format))
	}
	if c.Gmail.MaxResults <= 0 {
		errs = append(errs, errors.New("gmail max results must be positive"))
	}
	if c.Gmail.BatchConcurrency <= 0 {
		errs = append(errs, errors.New("gmail batch concurrency must be positive"))
	}
	if c.Gmail.MaxPartDepth <= 0 {
		errs = append(errs, errors.New("gmail max part depth must be positive"))
	}
	if c.Gmail.MaxAttachmentBytes <= 0 {
		errs = append(errs, errors.New("gmail max attachment bytes must be positive"))
	}
	if c.Gmail.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("gmail requests per second must not be negative"))
	}
	switch strings.ToLower(c.Audit.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid audit level %q, must be debug, info, warn, or error", c.Audit.Level))
	}
	return errors.Join(errs...)
}

// Usage writes the envconfig usage table to w.
func Usage(w io.Writer) error {
	tabs := tabwriter.NewWriter(w, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef(prefix, &Root{}, tabs, tableFormat); err != nil {
		return fmt.Errorf("unable to parse env config: %w", err)
	}
	return tabs.Flush()
}
