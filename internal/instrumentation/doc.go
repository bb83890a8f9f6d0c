// Package instrumentation wires OpenTelemetry metrics, traces and the tool
// audit log of the Gmail MCP server.
//
// A Provider is built once per process from a Config. It picks a metric
// reader (prometheus, otlp or stdout) and a span exporter (otlp, stdout or
// none) and installs both as the otel globals. Stdout exporters write to
// standard error, since standard output carries the stdio transport.
//
// # Metrics
//
//	http_requests_total                    method, path, status
//	http_request_duration_seconds          method, path, status
//	active_sessions                        open MCP sessions
//	google_api_operations_total            service, operation, status
//	google_api_operation_duration_seconds  service, operation, status
//	oauth_token_refresh_total              result
//	gmail_messages_decoded_total           has_body
//	gmail_attachments_found_total          mime_family (detailed labels only)
//	mcp_tool_invocations_total             tool, status
//	mcp_tool_duration_seconds              tool, status
//
// Paths and MIME types are bounded by NormalizePath and MimeTypeFamily
// unless Config.DetailedLabels is set.
//
// # Tracing
//
// Every tool call gets a server span named tool.<name>, and each Gmail API
// request a client span google.gmail.<operation> below it. Spans carry
// message and attachment IDs but never search queries.
//
// # Audit
//
// AuditLogger writes one record per tool call. The mailbox address is hashed
// unless AuditLoggingConfig.IncludePII is set.
package instrumentation
