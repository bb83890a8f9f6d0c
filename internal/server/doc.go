// Package server provides the MCP server context, health checks, and the
// HTTP servers for mcp-gmail-server.
//
// # Key Components
//
// ServerContext owns the lazily created Gmail client together with the
// metrics recorder and audit logger used by the tool handlers. Credentials
// come from a google.TokenProvider:
//   - FileTokenProvider: reads and refreshes the token file written by the
//     auth command
//   - StaticTokenProvider: wraps an existing oauth2.TokenSource
//
// HTTPServer mounts the streamable HTTP transport at /mcp and the
// HealthChecker endpoints (/healthz, /readyz, /healthz/detailed) on one mux,
// recording request metrics for each call.
//
// MetricsServer exposes the Prometheus registry on a dedicated address.
package server
