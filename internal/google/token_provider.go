package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/teemow/mcp-gmail-server/internal/instrumentation"
)

// TokenProvider is an interface for providing OAuth tokens for Google APIs
// This abstraction allows different token sources (file-based, static) to be plugged in.
type TokenProvider interface {
	// TokenSource returns a source of valid tokens for Gmail requests.
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)

	// HasToken reports whether a token is available without contacting Google.
	HasToken() bool
}

// FileTokenProvider provides tokens from a token file and keeps it current.
type FileTokenProvider struct {
	conf    *oauth2.Config
	store   *TokenStore
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// FileTokenProviderOption configures a FileTokenProvider.
type FileTokenProviderOption func(*FileTokenProvider)

// WithProviderLogger sets the logger for refresh events.
func WithProviderLogger(logger *slog.Logger) FileTokenProviderOption {
	return func(p *FileTokenProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProviderMetrics records token refresh attempts on m.
func WithProviderMetrics(m *instrumentation.Metrics) FileTokenProviderOption {
	return func(p *FileTokenProvider) { p.metrics = m }
}

// NewFileTokenProvider creates a provider that loads tokens from store and
// refreshes them with conf.
func NewFileTokenProvider(conf *oauth2.Config, store *TokenStore, opts ...FileTokenProviderOption) *FileTokenProvider {
	p := &FileTokenProvider{
		conf:   conf,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TokenSource loads the stored token and wraps it in a refreshing source
// that persists new tokens. ctx governs refresh requests for the lifetime
// of the returned source.
func (p *FileTokenProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := p.store.Load()
	if errors.Is(err, ErrNoToken) {
		return nil, fmt.Errorf("%w; run the auth command first", err)
	}
	if err != nil {
		return nil, err
	}

	return &persistingTokenSource{
		base:    p.conf.TokenSource(ctx, tok),
		store:   p.store,
		logger:  p.logger,
		metrics: p.metrics,
		last:    tok.AccessToken,
	}, nil
}

// HasToken checks if the token file exists.
func (p *FileTokenProvider) HasToken() bool {
	return p.store.Exists()
}

// StaticTokenProvider serves a fixed token source.
type StaticTokenProvider struct {
	Source oauth2.TokenSource
}

// TokenSource returns the configured source or an error when none is set.
func (p StaticTokenProvider) TokenSource(context.Context) (oauth2.TokenSource, error) {
	if p.Source == nil {
		return nil, ErrNoToken
	}
	return p.Source, nil
}

// HasToken reports whether a source is configured.
func (p StaticTokenProvider) HasToken() bool {
	return p.Source != nil
}
