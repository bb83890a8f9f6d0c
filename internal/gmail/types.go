package gmail

import (
	"net/mail"
	"time"
)

// MessageSearchResult identifies a message returned by a search.
type MessageSearchResult struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
}

// Message is the decoded view of a Gmail message.
type Message struct {
	MessageID  string `json:"message_id"`
	ThreadID   string `json:"thread_id"`
	Subject    string `json:"subject"`
	From       string `json:"from"`
	To         string `json:"to"`
	ReceivedAt string `json:"received_at"`
	BodyText   string `json:"body_text"`
}

// AttachmentData is the raw payload of an attachment as returned by Gmail:
// base64url text plus the decoded size in bytes.
type AttachmentData struct {
	AttachmentID string `json:"attachment_id"`
	Data         string `json:"data"`
	Size         int64  `json:"size"`
}

// isoLayout renders offsets as +00:00 rather than Z.
const isoLayout = "2006-01-02T15:04:05-07:00"

// ParseDate converts an RFC 5322 Date header into ISO 8601. Values that do
// not parse are returned unchanged.
func ParseDate(value string) string {
	if value == "" {
		return ""
	}
	t, err := mail.ParseDate(value)
	if err != nil {
		return value
	}
	return t.Format(isoLayout)
}

// internalDate converts Gmail's internalDate (epoch milliseconds) into ISO
// 8601 UTC. It is used when a message carries no Date header.
func internalDate(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(isoLayout)
}
