package gmail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/mcp-gmail-server/internal/gmail"
	"github.com/teemow/mcp-gmail-server/internal/server"
	"github.com/teemow/mcp-gmail-server/internal/tools/batch"
	"github.com/teemow/mcp-gmail-server/internal/tools/common"
)

func searchMessagesHandler(sc *server.ServerContext, defaultMaxResults int) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		query, err := stringArg(args, "query")
		if err != nil {
			return common.ErrorResult(err), nil
		}
		maxResults, err := positiveIntArg(args, "max_results", defaultMaxResults)
		if err != nil {
			return common.ErrorResult(err), nil
		}

		client, err := sc.GmailClient()
		if err != nil {
			return common.ErrorResult(err), nil
		}
		results, err := client.SearchMessages(ctx, query, maxResults)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		return common.JSONResult(results), nil
	}
}

func getMessageHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		messageID, err := stringArg(args, "message_id")
		if err != nil {
			return common.ErrorResult(err), nil
		}

		client, err := sc.GmailClient()
		if err != nil {
			return common.ErrorResult(err), nil
		}
		msg, err := client.GetMessage(ctx, messageID)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		if boolArg(args, "strip_html") {
			msg.BodyText = StripHTML(msg.BodyText)
		}
		return common.JSONResult(msg), nil
	}
}

func getMessagesBatchHandler(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		messageIDs, err := batch.ParseIDList(args["message_ids"], "message_ids")
		if err != nil {
			return common.ErrorResult(err), nil
		}

		client, err := sc.GmailClient()
		if err != nil {
			return common.ErrorResult(err), nil
		}
		messages, err := client.GetMessagesBatch(ctx, messageIDs)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		if boolArg(args, "strip_html") {
			stripBodies(messages)
		}
		return common.JSONResult(messages), nil
	}
}

func stripBodies(messages []*gmail.Message) {
	for _, msg := range messages {
		msg.BodyText = StripHTML(msg.BodyText)
	}
}
