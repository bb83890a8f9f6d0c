package gmail

import (
	"context"
	"errors"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mcp-gmail-server/internal/instrumentation"
	"github.com/teemow/mcp-gmail-server/internal/logging"
	"github.com/teemow/mcp-gmail-server/internal/mimepart"
)

// GetAttachments lists the attachments of a message in MIME order. Parts
// with an attachment ID but no resolvable filename are not included.
func (c *Client) GetAttachments(ctx context.Context, messageID string) ([]mimepart.Attachment, error) {
	logger := logging.WithOperation(c.logger, "get_attachments").With(logging.MessageID(messageID))

	_, root, err := c.fetchFull(ctx, messageID)
	if err != nil {
		logger.Error("failed to get message", logging.Err(err))
		return nil, err
	}

	attachments := mimepart.ExtractAttachments(root)
	if c.metrics != nil {
		mimeTypes := make([]string, len(attachments))
		for i, a := range attachments {
			mimeTypes[i] = a.MimeType
		}
		c.metrics.RecordAttachmentsFound(ctx, mimeTypes)
	}
	logger.Debug("attachments extracted", logging.Count(len(attachments)))
	return attachments, nil
}

// GetAttachmentData retrieves the raw payload of an attachment. The data is
// returned base64url-encoded, exactly as the API delivers it.
func (c *Client) GetAttachmentData(ctx context.Context, messageID, attachmentID string) (*AttachmentData, error) {
	if messageID == "" {
		return nil, errors.New("message ID is required")
	}
	if attachmentID == "" {
		return nil, errors.New("attachment ID is required")
	}
	logger := logging.WithOperation(c.logger, "get_attachment_data").
		With(logging.MessageID(messageID), logging.AttachmentID(attachmentID))

	var body *gmail.MessagePartBody
	err := c.observe(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		body, err = c.svc.Messages.Attachments.Get(userID, messageID, attachmentID).Context(ctx).Do()
		return err
	}, instrumentation.MessageIDAttr(messageID), instrumentation.AttachmentIDAttr(attachmentID))
	if err != nil {
		logger.Error("failed to get attachment", logging.Err(err))
		return nil, apiError(fmt.Sprintf("failed to get attachment %s", attachmentID), err)
	}

	if body.Size > c.maxAttachmentBytes {
		return nil, fmt.Errorf("attachment size %d exceeds maximum size %d", body.Size, c.maxAttachmentBytes)
	}

	logger.Debug("attachment retrieved", "size", body.Size)
	return &AttachmentData{
		AttachmentID: attachmentID,
		Data:         body.Data,
		Size:         body.Size,
	}, nil
}
