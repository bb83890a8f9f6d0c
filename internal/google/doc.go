// Package google provides OAuth2 authentication and token management for the
// Gmail API.
//
// An installed-application client secret (the client_secret.json downloaded
// from the Google Cloud console) is loaded with LoadOAuthConfig. Authorize
// runs the loopback authorization code flow with PKCE and returns a token,
// which a TokenStore persists as JSON with owner-only permissions.
//
// The TokenProvider interface hands out token sources to the server. The
// file-based provider refreshes expired access tokens and writes refreshed
// tokens back to the store, so the next process start reuses them.
package google
