package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with request-derived values.

// PathOther is the label recorded for HTTP paths outside the known routes.
const PathOther = "other"

// knownPaths are the HTTP routes served by this process.
var knownPaths = map[string]bool{
	"/mcp":     true,
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// NormalizePath maps a request path onto one of the served routes so that
// arbitrary client paths do not create new label values.
//
// Example:
//
//	NormalizePath("/mcp")          // "/mcp"
//	NormalizePath("/mcp/")         // "/mcp"
//	NormalizePath("/wp-login.php") // "other"
func NormalizePath(path string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if knownPaths[path] {
		return path
	}
	return PathOther
}

// MimeTypeFamily reduces a MIME type to its top-level type, for example
// "application/pdf" becomes "application". Empty or malformed values
// become "unknown".
func MimeTypeFamily(mimeType string) string {
	family, _, ok := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), "/")
	if !ok || family == "" {
		return StatusUnknown
	}
	return family
}

// Common operation types for Google API metrics.
// Status, OAuth, and Service constants are defined in config.go.
const (
	OperationList    = "list"
	OperationGet     = "get"
	OperationSearch  = "search"
	OperationProfile = "profile"
)
