package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/mcp-gmail-server/internal/instrumentation"
	"github.com/teemow/mcp-gmail-server/internal/logging"
	"github.com/teemow/mcp-gmail-server/internal/mimepart"
)

const (
	// userID addresses the mailbox of the authenticated user.
	userID = "me"

	// DefaultMaxResults is the page size used when a search does not set one.
	DefaultMaxResults = 100

	// maxListPageSize is the largest page Gmail returns from messages.list.
	maxListPageSize = 500

	// DefaultBatchConcurrency bounds parallel message fetches in a batch.
	DefaultBatchConcurrency = 8

	// MaxAttachmentSize defines the maximum attachment size in bytes (25MB)
	MaxAttachmentSize = 25 * 1024 * 1024
)

// ErrAPI marks failures returned by the Gmail API.
var ErrAPI = errors.New("gmail API error")

// Client wraps the Gmail Users service.
type Client struct {
	svc                *gmail.UsersService
	logger             *slog.Logger
	metrics            *instrumentation.Metrics
	batchConcurrency   int
	maxPartDepth       int
	maxAttachmentBytes int64
	limiter            *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for operation logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records Gmail API operations on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithBatchConcurrency bounds the number of concurrent fetches issued by
// GetMessagesBatch.
func WithBatchConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchConcurrency = n
		}
	}
}

// WithMaxPartDepth bounds the MIME nesting accepted from the API.
func WithMaxPartDepth(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPartDepth = n
		}
	}
}

// WithMaxAttachmentBytes sets the largest attachment GetAttachmentData returns.
func WithMaxAttachmentBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttachmentBytes = n
		}
	}
}

// WithRateLimit gates every Gmail API request through a token bucket that
// refills perSecond tokens per second. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// NewClient creates a Gmail client on top of an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...Option) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return NewClientWithService(svc, opts...), nil
}

// NewClientWithService wraps an existing Gmail service.
func NewClientWithService(svc *gmail.Service, opts ...Option) *Client {
	c := &Client{
		svc:                svc.Users,
		logger:             slog.Default(),
		batchConcurrency:   DefaultBatchConcurrency,
		maxPartDepth:       mimepart.DefaultMaxDepth,
		maxAttachmentBytes: MaxAttachmentSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithService(c.logger, instrumentation.ServiceGmail)
	return c
}

// observe wraps a Gmail API call in a span and records its metrics.
func (c *Client) observe(ctx context.Context, operation string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, operation, attrs...)
	defer span.End()

	start := time.Now()
	var err error
	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			err = fmt.Errorf("rate limit wait: %w", werr)
		}
	}
	if err == nil {
		err = fn(ctx)
	}
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	if c.metrics != nil {
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, time.Since(start))
	}
	return err
}

// apiError wraps a Gmail API failure so callers can test for ErrAPI while
// keeping the underlying *googleapi.Error reachable.
func apiError(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrAPI, action, err)
}

// StatusCode returns the HTTP status of a Gmail API error, or 0 when err did
// not come from the API.
func StatusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the Gmail API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
