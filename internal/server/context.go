package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/mcp-gmail-server/internal/gmail"
	"github.com/teemow/mcp-gmail-server/internal/google"
	"github.com/teemow/mcp-gmail-server/internal/instrumentation"
	"github.com/teemow/mcp-gmail-server/internal/logging"
)

// ErrShutdown is returned for client requests after Shutdown.
var ErrShutdown = errors.New("server is shutting down")

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	tokens      google.TokenProvider
	gmailOpts   []gmail.Option
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu          sync.RWMutex
	gmailClient *gmail.Client
	mailbox     string
	shutdown    bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithLogger sets the logger handed to the Gmail client.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) {
		if logger != nil {
			sc.logger = logger
		}
	}
}

// WithMetrics enables tool and Gmail API metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger enables audit logging of tool calls.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.auditLogger = al }
}

// WithGmailOptions adds options used when the Gmail client is created.
func WithGmailOptions(opts ...gmail.Option) Option {
	return func(sc *ServerContext) { sc.gmailOpts = append(sc.gmailOpts, opts...) }
}

// NewServerContext creates a new server context. The Gmail client is created
// on first use so the server can start before a token exists.
func NewServerContext(ctx context.Context, tokens google.TokenProvider, opts ...Option) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		tokens: tokens,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil when auditing is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// HasToken reports whether Gmail credentials are available.
func (sc *ServerContext) HasToken() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if sc.gmailClient != nil {
		return true
	}
	return sc.tokens != nil && sc.tokens.HasToken()
}

// GmailClient returns the Gmail client, creating and caching it on first
// use.
func (sc *ServerContext) GmailClient() (*gmail.Client, error) {
	sc.mu.RLock()
	client, shutdown := sc.gmailClient, sc.shutdown
	sc.mu.RUnlock()
	if shutdown {
		return nil, ErrShutdown
	}
	if client != nil {
		return client, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.gmailClient != nil {
		return sc.gmailClient, nil
	}
	if sc.tokens == nil {
		return nil, google.ErrNoToken
	}

	ts, err := sc.tokens.TokenSource(sc.ctx)
	if err != nil {
		return nil, err
	}
	opts := append([]gmail.Option{
		gmail.WithLogger(sc.logger),
		gmail.WithMetrics(sc.metrics),
	}, sc.gmailOpts...)
	client, err = gmail.NewClient(sc.ctx, google.NewHTTPClient(sc.ctx, ts), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail client: %w", err)
	}
	sc.gmailClient = client
	return client, nil
}

// SetGmailClient replaces the Gmail client.
func (sc *ServerContext) SetGmailClient(client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClient = client
	sc.mailbox = ""
}

// Mailbox returns the address of the authenticated mailbox. The address is
// looked up once; failures yield an empty string and are retried on the
// next call.
func (sc *ServerContext) Mailbox(ctx context.Context) string {
	sc.mu.RLock()
	mailbox := sc.mailbox
	sc.mu.RUnlock()
	if mailbox != "" {
		return mailbox
	}

	client, err := sc.GmailClient()
	if err != nil {
		return ""
	}
	mailbox, err = client.Profile(ctx)
	if err != nil {
		sc.logger.Debug("failed to look up mailbox address", logging.Err(err))
		return ""
	}

	sc.mu.Lock()
	sc.mailbox = mailbox
	sc.mu.Unlock()
	return mailbox
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
