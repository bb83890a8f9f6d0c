package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer all spans of this server are started on.
const TracerName = "github.com/teemow/mcp-gmail-server"

// Span attribute keys. Search queries are never recorded as attributes.
const (
	SpanAttrTool         = "mcp.tool"
	SpanAttrReadOnly     = "mcp.read_only"
	SpanAttrService      = "google.service"
	SpanAttrOperation    = "google.operation"
	SpanAttrMessageID    = "gmail.message_id"
	SpanAttrAttachmentID = "gmail.attachment_id"
	SpanAttrPageSize     = "gmail.page_size"
)

// MessageIDAttr tags a span with the Gmail message it reads.
func MessageIDAttr(id string) attribute.KeyValue {
	return attribute.String(SpanAttrMessageID, id)
}

// AttachmentIDAttr tags a span with the attachment it downloads.
func AttachmentIDAttr(id string) attribute.KeyValue {
	return attribute.String(SpanAttrAttachmentID, id)
}

// PageSizeAttr tags a list call with the page size it requested.
func PageSizeAttr(n int) attribute.KeyValue {
	return attribute.Int(SpanAttrPageSize, n)
}

// SpanAttributeBuilder collects the attributes of a tool span.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{attrs: make([]attribute.KeyValue, 0, 4)}
}

// WithService adds the Google service and operation. An empty service adds
// nothing.
func (b *SpanAttributeBuilder) WithService(service, operation string) *SpanAttributeBuilder {
	if service == "" {
		return b
	}
	b.attrs = append(b.attrs, attribute.String(SpanAttrService, service))
	if operation != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrOperation, operation))
	}
	return b
}

// WithMessage adds the message ID. An empty ID adds nothing.
func (b *SpanAttributeBuilder) WithMessage(id string) *SpanAttributeBuilder {
	if id != "" {
		b.attrs = append(b.attrs, MessageIDAttr(id))
	}
	return b
}

func (b *SpanAttributeBuilder) WithReadOnly(readOnly bool) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Bool(SpanAttrReadOnly, readOnly))
	return b
}

func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartToolSpan starts the server span "tool.<name>" of an MCP tool call.
// The caller ends the span.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "tool."+toolName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String(SpanAttrTool, toolName)),
		trace.WithAttributes(attrs...),
	)
}

// StartGoogleAPISpan starts the client span "google.<service>.<operation>"
// around one Google API request. The caller ends the span.
func StartGoogleAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "google."+service+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(SpanAttrService, service),
			attribute.String(SpanAttrOperation, operation),
		),
		trace.WithAttributes(attrs...),
	)
}

// SetSpanError records err on span and marks it failed. A nil err is a no-op.
func SetSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
