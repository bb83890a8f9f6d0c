package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/mcp-gmail-server/internal/logging"
)

// ToolInvocation is the audit record of one MCP tool call.
//
// Mailbox is the authorized Gmail address and therefore PII. The general log
// form carries only its hash; see LogAttrs and LogAuditAttrs.
type ToolInvocation struct {
	Tool    string
	Mailbox string

	// MessageID is the message the tool read, if it read exactly one.
	MessageID   string
	ServiceName string
	Operation   string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a call of tool.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, StartTime: time.Now()}
}

func (ti *ToolInvocation) WithMailbox(address string) *ToolInvocation {
	ti.Mailbox = address
	return ti
}

func (ti *ToolInvocation) WithMessage(id string) *ToolInvocation {
	ti.MessageID = id
	return ti
}

func (ti *ToolInvocation) WithService(serviceName, operation string) *ToolInvocation {
	ti.ServiceName = serviceName
	ti.Operation = operation
	return ti
}

// WithSpanContext copies the trace and span IDs of the span in ctx, if any.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete stops the clock and records the outcome.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// MailboxHash returns the anonymized mailbox identifier, or "" without a
// mailbox.
func (ti *ToolInvocation) MailboxHash() string {
	return logging.AnonymizeEmail(ti.Mailbox)
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the attributes of the general log form: the mailbox is
// hashed and the span ID is left out. Empty fields are omitted.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	return ti.attrs(false)
}

// LogAuditAttrs returns the full audit form, including the mailbox address
// under "user" and the span ID.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	return ti.attrs(true)
}

func (ti *ToolInvocation) attrs(full bool) []slog.Attr {
	attrs := make([]slog.Attr, 0, 10)
	attrs = append(attrs, slog.String("tool", ti.Tool))
	switch {
	case full:
		attrs = append(attrs, slog.String("user", ti.Mailbox))
	case ti.Mailbox != "":
		attrs = append(attrs, slog.String(logging.KeyUserHash, ti.MailboxHash()))
	}
	attrs = append(attrs,
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	)

	optional := []struct {
		key, value string
		full       bool
	}{
		{logging.KeyMessageID, ti.MessageID, false},
		{"service", ti.ServiceName, false},
		{"operation", ti.Operation, false},
		{"trace_id", ti.TraceID, false},
		{"span_id", ti.SpanID, true},
		{"error", ti.Error, false},
	}
	for _, o := range optional {
		if o.value == "" || (o.full && !full) {
			continue
		}
		attrs = append(attrs, slog.String(o.key, o.value))
	}
	return attrs
}

// AuditLogger writes one record per tool invocation. Successful calls are
// logged at the configured level, failures at that level or WARN, whichever
// is higher.
type AuditLogger struct {
	logger     *slog.Logger
	level      slog.Level
	includePII bool
	enabled    bool
}

// NewAuditLogger returns an enabled AuditLogger that hashes the mailbox
// address and logs successes at INFO.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig returns an AuditLogger for config. An empty or
// unknown LogLevel means INFO.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if config.LogLevel != "" {
		if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
			level = slog.LevelInfo
		}
	}
	return &AuditLogger{
		logger:     logger,
		level:      level,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// SetIncludePII sets whether the mailbox address is logged unhashed.
func (al *AuditLogger) SetIncludePII(include bool) {
	al.includePII = include
}

// SetEnabled turns audit logging on or off.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogToolInvocation logs ti as tool_executed or tool_failed. The mailbox
// address is hashed unless IncludePII is set.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if !al.enabled {
		return
	}

	attrs := ti.LogAttrs()
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	}

	if ti.Success {
		al.logger.LogAttrs(context.Background(), al.level, "tool_executed", attrs...)
		return
	}
	al.logger.LogAttrs(context.Background(), max(al.level, slog.LevelWarn), "tool_failed", attrs...)
}

// LogToolAudit logs ti as tool_audit with the full mailbox address,
// regardless of IncludePII.
func (al *AuditLogger) LogToolAudit(ti *ToolInvocation) {
	if !al.enabled {
		return
	}
	al.logger.LogAttrs(context.Background(), al.level, "tool_audit", ti.LogAuditAttrs()...)
}
