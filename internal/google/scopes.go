package google

import gmail "google.golang.org/api/gmail/v1"

// Scopes are the OAuth scopes the server requests. Access is read-only: the
// server searches and reads messages and attachments but never modifies the
// mailbox.
var Scopes = []string{
	gmail.GmailReadonlyScope,
}
