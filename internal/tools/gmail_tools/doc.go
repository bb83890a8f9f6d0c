// Package gmail_tools exposes the read-only Gmail operations as MCP tools:
// message search, message retrieval (single and batch) and attachment
// listing and download.
//
// Every tool answers with indented JSON. Failures are reported as tool
// errors whose text is a JSON object with a single "error" field.
package gmail_tools
