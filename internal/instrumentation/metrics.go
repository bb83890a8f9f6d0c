package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrHasBody   = "has_body"
	attrMimeType  = "mime_family"
)

var (
	httpBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10}
	callBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
)

// Metrics records the server's metrics. The zero value records nothing,
// which is what a disabled Provider hands out.
type Metrics struct {
	httpRequests   metric.Int64Counter
	httpDuration   metric.Float64Histogram
	activeSessions metric.Int64UpDownCounter

	apiCalls    metric.Int64Counter
	apiDuration metric.Float64Histogram

	tokenRefreshes metric.Int64Counter

	messagesDecoded  metric.Int64Counter
	attachmentsFound metric.Int64Counter

	toolCalls    metric.Int64Counter
	toolDuration metric.Float64Histogram

	// detailedLabels keeps raw paths and MIME families as label values.
	detailedLabels bool
}

// instruments creates instruments on meter and collects the errors.
type instruments struct {
	meter metric.Meter
	errs  []error
}

func (in *instruments) counter(name, desc, unit string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("%s: %w", name, err))
	}
	return c
}

func (in *instruments) upDownCounter(name, desc, unit string) metric.Int64UpDownCounter {
	c, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("%s: %w", name, err))
	}
	return c
}

func (in *instruments) seconds(name, desc string, buckets []float64) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("%s: %w", name, err))
	}
	return h
}

// NewMetrics creates every instrument on meter. With detailedLabels the HTTP
// path and attachment MIME family labels are not bounded.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	in := &instruments{meter: meter}
	m := &Metrics{
		httpRequests:   in.counter("http_requests_total", "HTTP requests served", "{request}"),
		httpDuration:   in.seconds("http_request_duration_seconds", "HTTP request duration", httpBuckets),
		activeSessions: in.upDownCounter("active_sessions", "Open MCP sessions", "{session}"),

		apiCalls:    in.counter("google_api_operations_total", "Gmail API requests", "{operation}"),
		apiDuration: in.seconds("google_api_operation_duration_seconds", "Gmail API request duration", callBuckets),

		tokenRefreshes: in.counter("oauth_token_refresh_total", "OAuth access token refresh attempts", "{attempt}"),

		messagesDecoded:  in.counter("gmail_messages_decoded_total", "Messages decoded, by whether body text was found", "{message}"),
		attachmentsFound: in.counter("gmail_attachments_found_total", "Attachments found in decoded messages", "{attachment}"),

		toolCalls:    in.counter("mcp_tool_invocations_total", "MCP tool invocations", "{invocation}"),
		toolDuration: in.seconds("mcp_tool_duration_seconds", "MCP tool execution duration", callBuckets),

		detailedLabels: detailedLabels,
	}
	if err := errors.Join(in.errs...); err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	return m, nil
}

// RecordHTTPRequest counts one request and its duration. Unless detailed
// labels are enabled the path is reduced with NormalizePath.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequests == nil {
		return
	}
	if !m.detailedLabels {
		path = NormalizePath(path)
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation counts one API request. operation is one of the
// Operation constants and status StatusSuccess or StatusError.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m.apiCalls == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.apiCalls.Add(ctx, 1, attrs)
	m.apiDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordOAuthTokenRefresh counts one refresh attempt with an OAuthResult
// value.
func (m *Metrics) RecordOAuthTokenRefresh(ctx context.Context, result string) {
	if m.tokenRefreshes == nil {
		return
	}
	m.tokenRefreshes.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordToolInvocation counts one tool call and its duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m.toolCalls == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolCalls.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m.activeSessions != nil {
		m.activeSessions.Add(ctx, 1)
	}
}

func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m.activeSessions != nil {
		m.activeSessions.Add(ctx, -1)
	}
}

// RecordMessageDecoded counts one decoded message. hasBody reports whether
// any body text was extracted from its part tree.
func (m *Metrics) RecordMessageDecoded(ctx context.Context, hasBody bool) {
	if m.messagesDecoded == nil {
		return
	}
	m.messagesDecoded.Add(ctx, 1, metric.WithAttributes(attribute.Bool(attrHasBody, hasBody)))
}

// RecordAttachmentsFound adds the attachments found in one message. With
// detailed labels enabled the count is split by MIME type family.
func (m *Metrics) RecordAttachmentsFound(ctx context.Context, mimeTypes []string) {
	if m.attachmentsFound == nil || len(mimeTypes) == 0 {
		return
	}
	if !m.detailedLabels {
		m.attachmentsFound.Add(ctx, int64(len(mimeTypes)))
		return
	}

	families := make(map[string]int64, len(mimeTypes))
	for _, mt := range mimeTypes {
		families[MimeTypeFamily(mt)]++
	}
	for family, n := range families {
		m.attachmentsFound.Add(ctx, n, metric.WithAttributes(attribute.String(attrMimeType, family)))
	}
}
