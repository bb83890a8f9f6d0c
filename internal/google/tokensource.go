package google

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/mcp-gmail-server/internal/instrumentation"
	"github.com/teemow/mcp-gmail-server/internal/logging"
)

// persistingTokenSource writes every newly issued token back to the store.
type persistingTokenSource struct {
	base    oauth2.TokenSource
	store   *TokenStore
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		s.record(refreshResult(err))
		s.logger.Error("token refresh failed", logging.Err(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.last = tok.AccessToken
	s.record(instrumentation.OAuthResultSuccess)

	if err := s.store.Save(tok); err != nil {
		// The refreshed token is still usable for this process.
		s.logger.Warn("failed to persist refreshed token", logging.Err(err))
	} else {
		s.logger.Debug("refreshed token persisted", "token", logging.SanitizeToken(tok.AccessToken))
	}
	return tok, nil
}

func (s *persistingTokenSource) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordOAuthTokenRefresh(context.Background(), result)
	}
}

// refreshResult classifies a refresh failure. Google answers invalid_grant
// when the refresh token was revoked or has expired.
func refreshResult(err error) string {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.ErrorCode == "invalid_grant" {
		return instrumentation.OAuthResultExpired
	}
	return instrumentation.OAuthResultFailure
}
