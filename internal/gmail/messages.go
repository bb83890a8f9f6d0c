package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mcp-gmail-server/internal/instrumentation"
	"github.com/teemow/mcp-gmail-server/internal/logging"
	"github.com/teemow/mcp-gmail-server/internal/mimepart"
)

// ErrAllBatchRequestsFailed is returned by GetMessagesBatch when no message
// in the batch could be fetched.
var ErrAllBatchRequestsFailed = errors.New("all batch requests failed")

// SearchMessages lists messages matching a Gmail search query. Results are
// paged until maxResults messages were collected or the listing ends; a
// non-positive maxResults selects DefaultMaxResults.
func (c *Client) SearchMessages(ctx context.Context, query string, maxResults int) ([]MessageSearchResult, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	logger := logging.WithOperation(c.logger, "search_messages")
	logger.Debug("searching messages", "query", query, "max_results", maxResults)

	results := make([]MessageSearchResult, 0, min(maxResults, maxListPageSize))
	pageToken := ""
	for len(results) < maxResults {
		pageSize := min(maxResults-len(results), maxListPageSize)

		var res *gmail.ListMessagesResponse
		err := c.observe(ctx, instrumentation.OperationSearch, func(ctx context.Context) error {
			call := c.svc.Messages.List(userID).Q(query).MaxResults(int64(pageSize)).Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var err error
			res, err = call.Do()
			return err
		}, instrumentation.PageSizeAttr(pageSize))
		if err != nil {
			logger.Error("search failed", logging.Err(err))
			return nil, apiError("failed to list messages", err)
		}

		for _, m := range res.Messages {
			if m == nil {
				continue
			}
			results = append(results, MessageSearchResult{MessageID: m.Id, ThreadID: m.ThreadId})
			if len(results) == maxResults {
				break
			}
		}

		if res.NextPageToken == "" || len(res.Messages) == 0 {
			break
		}
		pageToken = res.NextPageToken
	}

	if len(results) == 0 {
		logger.Warn("no messages matched query", "query", query)
	} else {
		logger.Info("search completed", logging.Count(len(results)))
	}
	return results, nil
}

// fetchFull retrieves a message in full format and converts its payload.
func (c *Client) fetchFull(ctx context.Context, messageID string) (*gmail.Message, *mimepart.Part, error) {
	if messageID == "" {
		return nil, nil, errors.New("message ID is required")
	}

	var msg *gmail.Message
	err := c.observe(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		msg, err = c.svc.Messages.Get(userID, messageID).Format("full").Context(ctx).Do()
		return err
	}, instrumentation.MessageIDAttr(messageID))
	if err != nil {
		return nil, nil, apiError(fmt.Sprintf("failed to get message %s", messageID), err)
	}

	root, err := PartFromMessagePart(msg.Payload, c.maxPartDepth)
	if err != nil {
		return nil, nil, fmt.Errorf("message %s: %w", messageID, err)
	}
	return msg, root, nil
}

// GetMessage retrieves a message and decodes its headers and body text.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	logger := logging.WithOperation(c.logger, "get_message").With(logging.MessageID(messageID))

	msg, root, err := c.fetchFull(ctx, messageID)
	if err != nil {
		logger.Error("failed to get message", logging.Err(err))
		return nil, err
	}

	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}

	received := ParseDate(headerValue(headers, "Date"))
	if received == "" {
		received = internalDate(msg.InternalDate)
	}

	result := &Message{
		MessageID:  msg.Id,
		ThreadID:   msg.ThreadId,
		Subject:    headerValue(headers, "Subject"),
		From:       headerValue(headers, "From"),
		To:         headerValue(headers, "To"),
		ReceivedAt: received,
		BodyText:   mimepart.ExtractBodyText(root),
	}
	if c.metrics != nil {
		c.metrics.RecordMessageDecoded(ctx, result.BodyText != "")
	}

	logger.Debug("message decoded", "body_length", len(result.BodyText))
	return result, nil
}

// GetMessagesBatch retrieves several messages concurrently. Results keep the
// order of messageIDs; messages that fail to load are logged and left out.
// If every fetch fails the first error, in input order, is returned wrapped
// in ErrAllBatchRequestsFailed. An empty input yields an empty result.
func (c *Client) GetMessagesBatch(ctx context.Context, messageIDs []string) ([]*Message, error) {
	logger := logging.WithOperation(c.logger, "get_messages_batch")
	if len(messageIDs) == 0 {
		logger.Warn("empty message ID list")
		return []*Message{}, nil
	}

	fetched := make([]*Message, len(messageIDs))
	errs := make([]error, len(messageIDs))

	var g errgroup.Group
	g.SetLimit(c.batchConcurrency)
	for i, id := range messageIDs {
		g.Go(func() error {
			fetched[i], errs[i] = c.GetMessage(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	messages := make([]*Message, 0, len(messageIDs))
	var firstErr error
	for i, msg := range fetched {
		if errs[i] != nil {
			logger.Warn("skipping message in batch",
				logging.MessageID(messageIDs[i]),
				slog.Int("status_code", StatusCode(errs[i])),
				logging.Err(errs[i]))
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		logger.Error("all batch requests failed", logging.Count(len(messageIDs)))
		return nil, fmt.Errorf("%w: first error: %w", ErrAllBatchRequestsFailed, firstErr)
	}

	logger.Info("batch completed",
		slog.Int("requested", len(messageIDs)),
		slog.Int("succeeded", len(messages)),
		slog.Int("failed", len(messageIDs)-len(messages)))
	return messages, nil
}

// Profile returns the address of the authenticated mailbox.
func (c *Client) Profile(ctx context.Context) (string, error) {
	var profile *gmail.Profile
	err := c.observe(ctx, instrumentation.OperationProfile, func(ctx context.Context) error {
		var err error
		profile, err = c.svc.GetProfile(userID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", apiError("failed to get profile", err)
	}
	return profile.EmailAddress, nil
}
