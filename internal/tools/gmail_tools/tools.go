package gmail_tools

import (
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mcp-gmail-server/internal/gmail"
	"github.com/teemow/mcp-gmail-server/internal/instrumentation"
	"github.com/teemow/mcp-gmail-server/internal/server"
	"github.com/teemow/mcp-gmail-server/internal/tools/common"
)

// Tool names.
const (
	ToolSearchMessages    = "gmail.search_messages"
	ToolGetMessage        = "gmail.get_message"
	ToolGetMessagesBatch  = "gmail.get_messages_batch"
	ToolGetAttachments    = "gmail.get_attachments"
	ToolGetAttachmentData = "gmail.get_attachment_data"
)

// Options configures the Gmail tools.
type Options struct {
	// DefaultMaxResults is used when search_messages omits max_results.
	DefaultMaxResults int
}

// RegisterGmailTools registers all Gmail-related tools with the MCP server
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, opts Options) error {
	if s == nil || sc == nil {
		return errors.New("MCP server and server context are required")
	}
	if opts.DefaultMaxResults <= 0 {
		opts.DefaultMaxResults = gmail.DefaultMaxResults
	}

	searchTool := mcp.NewTool(ToolSearchMessages,
		mcp.WithDescription("Search Gmail and retrieve a list of message IDs. Supports AND conditions (space-separated) and OR conditions (using 'OR' keyword)."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query. Examples: 'after:2025/1/1', 'from:example@gmail.com'. AND conditions: space-separated (e.g., 'from:example@gmail.com subject:test'). OR conditions: use 'OR' keyword (e.g., 'from:example@gmail.com OR from:another@gmail.com')."),
		),
		mcp.WithNumber("max_results",
			mcp.Description(fmt.Sprintf("Maximum number of results (default: %d)", opts.DefaultMaxResults)),
			mcp.DefaultNumber(float64(opts.DefaultMaxResults)),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandlerWithService(ToolSearchMessages,
		instrumentation.ServiceGmail, instrumentation.OperationSearch, sc,
		searchMessagesHandler(sc, opts.DefaultMaxResults)))

	getMessageTool := mcp.NewTool(ToolGetMessage,
		mcp.WithDescription("Retrieve detailed information for the specified message ID."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("ID of the message to retrieve"),
		),
		withStripHTML(),
	)
	s.AddTool(getMessageTool, common.InstrumentedToolHandlerWithService(ToolGetMessage,
		instrumentation.ServiceGmail, instrumentation.OperationGet, sc,
		getMessageHandler(sc)))

	batchTool := mcp.NewTool(ToolGetMessagesBatch,
		mcp.WithDescription("Retrieve detailed information for multiple messages at once. Messages that cannot be retrieved are left out of the result."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithArray("message_ids",
			mcp.Required(),
			mcp.Description("List of message IDs to retrieve"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		withStripHTML(),
	)
	s.AddTool(batchTool, common.InstrumentedToolHandlerWithService(ToolGetMessagesBatch,
		instrumentation.ServiceGmail, instrumentation.OperationGet, sc,
		getMessagesBatchHandler(sc)))

	attachmentsTool := mcp.NewTool(ToolGetAttachments,
		mcp.WithDescription("Retrieve a list of attachments for the specified message."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("ID of the message to retrieve attachments from"),
		),
	)
	s.AddTool(attachmentsTool, common.InstrumentedToolHandlerWithService(ToolGetAttachments,
		instrumentation.ServiceGmail, instrumentation.OperationGet, sc,
		getAttachmentsHandler(sc)))

	attachmentDataTool := mcp.NewTool(ToolGetAttachmentData,
		mcp.WithDescription("Retrieve attachment data for the specified attachment (base64 encoded)."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("message_id",
			mcp.Required(),
			mcp.Description("ID of the message containing the attachment"),
		),
		mcp.WithString("attachment_id",
			mcp.Required(),
			mcp.Description("ID of the attachment to retrieve"),
		),
	)
	s.AddTool(attachmentDataTool, common.InstrumentedToolHandlerWithService(ToolGetAttachmentData,
		instrumentation.ServiceGmail, instrumentation.OperationGet, sc,
		getAttachmentDataHandler(sc)))

	return nil
}

func withStripHTML() mcp.ToolOption {
	return mcp.WithBoolean("strip_html",
		mcp.Description("Reduce HTML-only message bodies to plain text (default: false)"),
	)
}

// stringArg returns a required, non-empty string argument.
func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// boolArg returns an optional boolean argument.
func boolArg(args map[string]any, name string) bool {
	v, _ := args[name].(bool)
	return v
}

// positiveIntArg returns an optional positive integer argument, or def when
// it is absent.
func positiveIntArg(args map[string]any, name string, def int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}
	f, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	if f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return int(f), nil
}
