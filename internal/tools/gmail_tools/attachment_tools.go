package gmail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/mcp-gmail-server/internal/server"
	"github.com/teemow/mcp-gmail-server/internal/tools/common"
)

func getAttachmentsHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		messageID, err := stringArg(request.GetArguments(), "message_id")
		if err != nil {
			return common.ErrorResult(err), nil
		}

		client, err := sc.GmailClient()
		if err != nil {
			return common.ErrorResult(err), nil
		}
		attachments, err := client.GetAttachments(ctx, messageID)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		return common.JSONResult(attachments), nil
	}
}

func getAttachmentDataHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		messageID, err := stringArg(args, "message_id")
		if err != nil {
			return common.ErrorResult(err), nil
		}
		attachmentID, err := stringArg(args, "attachment_id")
		if err != nil {
			return common.ErrorResult(err), nil
		}

		client, err := sc.GmailClient()
		if err != nil {
			return common.ErrorResult(err), nil
		}
		data, err := client.GetAttachmentData(ctx, messageID, attachmentID)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		return common.JSONResult(data), nil
	}
}
