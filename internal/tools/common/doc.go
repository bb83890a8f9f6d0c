// Package common provides shared utilities for MCP tool implementations:
// the instrumented handler wrapper and the JSON result helpers every tool
// uses to answer.
package common
