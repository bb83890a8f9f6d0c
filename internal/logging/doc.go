// Package logging builds the server's slog logger and the attribute helpers
// every package logs with.
//
// The process logger is created once at startup:
//
//	logger, closeLog, err := logging.NewLogger(logging.Options{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	defer closeLog()
//
// Packages scope it and attach attributes with stable keys:
//
//	logger := logging.WithOperation(logger, "get_message")
//	logger.Info("message decoded", logging.MessageID(id))
//
// Log output never goes to standard output, which carries the stdio MCP
// transport. Mailbox addresses are hashed with AnonymizeEmail and tokens are
// only described by SanitizeToken.
package logging
