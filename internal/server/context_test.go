package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/mcp-gmail-server/internal/gmail"
	"github.com/teemow/mcp-gmail-server/internal/google"
)

// newProfileClient returns a Gmail client whose profile endpoint answers
// with email and counts the calls.
func newProfileClient(t *testing.T, email string, calls *atomic.Int32) *gmail.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gmail/v1/users/me/profile" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"emailAddress": email})
	}))
	t.Cleanup(srv.Close)

	svc, err := gmailapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return gmail.NewClientWithService(svc)
}

func staticTokens() google.TokenProvider {
	return google.StaticTokenProvider{Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token"})}
}

func TestServerContext_LazyGmailClient(t *testing.T) {
	sc := NewServerContext(context.Background(), staticTokens())
	defer func() { _ = sc.Shutdown() }()

	assert.True(t, sc.HasToken())

	first, err := sc.GmailClient()
	require.NoError(t, err)
	second, err := sc.GmailClient()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestServerContext_NoToken(t *testing.T) {
	sc := NewServerContext(context.Background(), google.StaticTokenProvider{})
	defer func() { _ = sc.Shutdown() }()

	assert.False(t, sc.HasToken())
	_, err := sc.GmailClient()
	assert.ErrorIs(t, err, google.ErrNoToken)
	assert.Empty(t, sc.Mailbox(context.Background()))

	nilProvider := NewServerContext(context.Background(), nil)
	assert.False(t, nilProvider.HasToken())
	_, err = nilProvider.GmailClient()
	assert.ErrorIs(t, err, google.ErrNoToken)
}

func TestServerContext_SetGmailClient(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)
	var calls atomic.Int32
	client := newProfileClient(t, "alice@example.com", &calls)

	sc.SetGmailClient(client)
	assert.True(t, sc.HasToken())

	got, err := sc.GmailClient()
	require.NoError(t, err)
	assert.Same(t, client, got)
}

func TestServerContext_MailboxIsCached(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)
	var calls atomic.Int32
	sc.SetGmailClient(newProfileClient(t, "alice@example.com", &calls))

	assert.Equal(t, "alice@example.com", sc.Mailbox(context.Background()))
	assert.Equal(t, "alice@example.com", sc.Mailbox(context.Background()))
	assert.Equal(t, int32(1), calls.Load())

	// Replacing the client forgets the cached address.
	var other atomic.Int32
	sc.SetGmailClient(newProfileClient(t, "bob@example.com", &other))
	assert.Equal(t, "bob@example.com", sc.Mailbox(context.Background()))
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := NewServerContext(context.Background(), staticTokens())

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.ErrorIs(t, sc.Context().Err(), context.Canceled)

	_, err := sc.GmailClient()
	assert.ErrorIs(t, err, ErrShutdown)
}
