// Package cmd implements the command-line interface for mcp-gmail-server.
//
// This package provides the following commands:
//   - serve: Start the MCP server (default when no subcommand is given)
//   - auth: Authorize access to a Gmail mailbox and store the OAuth token
//   - config: List the environment variables the server reads
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
