package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/mcp-gmail-server/internal/logging"
)

// DefaultCallbackAddr binds the loopback redirect listener to any free port.
const DefaultCallbackAddr = "127.0.0.1:0"

// ErrStateMismatch is returned when the authorization callback carries a
// state value other than the one sent.
var ErrStateMismatch = errors.New("OAuth state mismatch")

// AuthorizeOptions configures the loopback authorization flow.
type AuthorizeOptions struct {
	// CallbackAddr is the listen address for the redirect handler.
	CallbackAddr string

	// OnAuthURL receives the consent URL the user must open. It is required.
	OnAuthURL func(url string)

	Logger *slog.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Authorize runs the OAuth authorization code flow for an installed
// application. It listens on a loopback address for Google's redirect,
// checks the state parameter, and exchanges the code using PKCE.
func Authorize(ctx context.Context, conf *oauth2.Config, opts AuthorizeOptions) (*oauth2.Token, error) {
	if opts.OnAuthURL == nil {
		return nil, errors.New("OnAuthURL is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.CallbackAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OAuth callback: %w", err)
	}

	flowConf := *conf
	flowConf.RedirectURL = "http://" + ln.Addr().String() + "/"

	state, err := generateRandomString(24)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	verifier, err := GenerateCodeVerifier()
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("OAuth callback server failed", logging.Err(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := flowConf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", GenerateCodeChallenge(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	logger.Debug("waiting for OAuth callback", "redirect_url", flowConf.RedirectURL)
	opts.OnAuthURL(authURL)

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization canceled: %w", ctx.Err())
	case res = <-results:
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := flowConf.Exchange(ctx, res.code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

// callbackHandler answers Google's redirect and reports the outcome once.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("state") != state:
			res.err = ErrStateMismatch
		case q.Get("code") == "":
			res.err = errors.New("authorization callback without code")
		default:
			res.code = q.Get("code")
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, "Authorization failed: %v\n", res.err)
		} else {
			_, _ = fmt.Fprintln(w, "Authorization complete. You can close this window.")
		}

		select {
		case results <- res:
		default:
		}
	})
}
