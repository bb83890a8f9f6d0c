package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Attribute keys shared by every logger of the server.
const (
	KeyOperation    = "operation"
	KeyService      = "service"
	KeyUserHash     = "user_hash"
	KeyError        = "error"
	KeyMessageID    = "message_id"
	KeyAttachmentID = "attachment_id"
	KeyCount        = "count"
)

// attachmentIDPrefix is how much of an attachment ID is logged. The IDs are
// several hundred bytes of opaque base64.
const attachmentIDPrefix = 16

// WithOperation returns logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithService returns logger with the service attribute set.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

func MessageID(id string) slog.Attr {
	return slog.String(KeyMessageID, id)
}

// AttachmentID returns the attachment ID attribute, cut to a prefix.
func AttachmentID(id string) slog.Attr {
	if len(id) > attachmentIDPrefix {
		id = id[:attachmentIDPrefix] + "..."
	}
	return slog.String(KeyAttachmentID, id)
}

func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Err returns the error attribute. A nil err yields an empty group, which
// handlers drop, so Err(err) is safe on any path.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a stable "user:<hex>" identifier for an address,
// or "" for an empty one.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(sum[:8])
}

// SanitizeToken describes a token by its length only.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
