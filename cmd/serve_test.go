package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mcp-gmail-server/internal/config"
	"github.com/teemow/mcp-gmail-server/internal/instrumentation"
	"github.com/teemow/mcp-gmail-server/internal/server"
	"github.com/teemow/mcp-gmail-server/internal/tools/gmail_tools"
)

func TestLoadServeConfig_Defaults(t *testing.T) {
	cmd := newServeCmd()

	cfg, err := loadServeConfig(cmd, serveFlags{})
	require.NoError(t, err)
	assert.Equal(t, config.TransportStdio, cfg.Transport)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadServeConfig_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("GMAILMCP_TRANSPORT", config.TransportStdio)
	t.Setenv("GMAILMCP_HTTP_ADDR", "127.0.0.1:7000")

	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Set("transport", config.TransportHTTP))
	require.NoError(t, cmd.Flags().Set("metrics-addr", ":9090"))

	cfg, err := loadServeConfig(cmd, serveFlags{
		debug:       true,
		transport:   config.TransportHTTP,
		metricsAddr: ":9090",
	})
	require.NoError(t, err)
	assert.Equal(t, config.TransportHTTP, cfg.Transport)
	assert.Equal(t, "127.0.0.1:7000", cfg.HTTP.Addr, "unset flag keeps the environment value")
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadServeConfig_InvalidTransport(t *testing.T) {
	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Set("transport", "sse"))

	_, err := loadServeConfig(cmd, serveFlags{transport: "sse"})
	assert.ErrorContains(t, err, "invalid transport")
}

func TestTelemetryConfig(t *testing.T) {
	t.Setenv("GMAILMCP_TELEMETRY_TRACING_EXPORTER", instrumentation.ExporterOTLP)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("GMAILMCP_TELEMETRY_SAMPLING_RATE", "0.5")
	t.Setenv("GMAILMCP_AUDIT_INCLUDE_PII", "true")
	t.Setenv("GMAILMCP_AUDIT_LEVEL", "debug")

	cfg, err := config.Process()
	require.NoError(t, err)

	c := telemetryConfig(cfg)
	require.NoError(t, c.Validate())
	assert.True(t, c.Enabled)
	assert.Equal(t, version, c.ServiceVersion)
	assert.Equal(t, instrumentation.ExporterPrometheus, c.MetricsExporter)
	assert.Equal(t, instrumentation.ExporterOTLP, c.TracingExporter)
	assert.Equal(t, "collector:4318", c.OTLPEndpoint)
	assert.InDelta(t, 0.5, c.TraceSamplingRate, 1e-9)
	assert.Equal(t, instrumentation.AuditLoggingConfig{
		Enabled:    true,
		IncludePII: true,
		LogLevel:   "debug",
	}, c.AuditLogging)
}

func TestNewServerContext_MissingClientSecret(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GMAILMCP_GOOGLE_CLIENT_SECRET_PATH", filepath.Join(dir, "missing.json"))
	t.Setenv("GMAILMCP_GOOGLE_TOKEN_PATH", filepath.Join(dir, "token.json"))
	cfg, err := config.Process()
	require.NoError(t, err)

	sc := newServerContext(context.Background(), cfg, nil, nil, instrumentation.AuditLoggingConfig{})
	defer func() { _ = sc.Shutdown() }()

	assert.False(t, sc.HasToken())
	assert.Nil(t, sc.Metrics())
	_, err = sc.GmailClient()
	assert.Error(t, err)
}

func TestRegisterAllTools(t *testing.T) {
	cfg, err := config.Process()
	require.NoError(t, err)
	sc := server.NewServerContext(context.Background(), nil)
	defer func() { _ = sc.Shutdown() }()

	mcpSrv, err := newMCPServer(sc, cfg)
	require.NoError(t, err)

	tools := mcpSrv.ListTools()
	for _, name := range []string{
		gmail_tools.ToolSearchMessages,
		gmail_tools.ToolGetMessage,
		gmail_tools.ToolGetMessagesBatch,
		gmail_tools.ToolGetAttachments,
		gmail_tools.ToolGetAttachmentData,
	} {
		assert.Contains(t, tools, name)
	}
	assert.Len(t, tools, 5)
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "Gmail Tools", getCategoryFromToolName("gmail.get_message"))
	assert.Equal(t, "Gmail Tools", getCategoryFromToolName("gmail_list"))
	assert.Equal(t, "Other", getCategoryFromToolName("calendar.list"))
}

func TestGenerateToolsMarkdown(t *testing.T) {
	tools := []mcp.Tool{
		mcp.NewTool("gmail.get_message",
			mcp.WithDescription("Retrieve a message."),
			mcp.WithString("message_id", mcp.Required(), mcp.Description("ID of the message")),
			mcp.WithBoolean("strip_html"),
		),
		mcp.NewTool("gmail.get_messages_batch",
			mcp.WithArray("message_ids", mcp.Required(), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithNumber("max_results", mcp.DefaultNumber(100), mcp.Description("a | b")),
		),
	}

	md := generateToolsMarkdown(tools)
	assert.Contains(t, md, "- [Gmail Tools](#gmail-tools)")
	assert.Contains(t, md, "### gmail.get_message\n\nRetrieve a message.")
	assert.Contains(t, md, "| `message_id` | string | yes |  | ID of the message |")
	assert.Contains(t, md, "| `strip_html` | boolean | no |  |  |")
	assert.Contains(t, md, "| `message_ids` | string[] | yes |  |  |")
	assert.Contains(t, md, "| `max_results` | number | no | `100` | a \\| b |")
	assert.Less(t, strings.Index(md, "### gmail.get_message\n"), strings.Index(md, "### gmail.get_messages_batch"))
}

func TestGenerateDocsCmd(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tools.md")
	cmd := newGenerateDocsCmd()
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"-o", out})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### "+gmail_tools.ToolSearchMessages)
	assert.Contains(t, stderr.String(), "Documentation written to: "+out)
}

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "mcp-gmail-server version 1.2.3\n", out.String())
}

func TestConfigCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newConfigCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "GMAILMCP_TRANSPORT")
	assert.Contains(t, out.String(), "GMAILMCP_GOOGLE_TOKEN_PATH")
}
