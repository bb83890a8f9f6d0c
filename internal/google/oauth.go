package google

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNoClientSecret is returned when the client secret file is missing.
var ErrNoClientSecret = errors.New("OAuth client secret file not found")

// LoadOAuthConfig reads an installed-application client secret JSON file and
// returns an OAuth2 configuration requesting Scopes.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (download it from the Google Cloud console and set GMAILMCP_GOOGLE_CLIENT_SECRET_PATH)",
			ErrNoClientSecret, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret: %w", err)
	}

	conf, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid client secret %s: %w", path, err)
	}
	return conf, nil
}

// NewHTTPClient returns an HTTP client that authorizes requests with ts.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors
func NewHTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}

	return client
}
