package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/mcp-gmail-server/internal/config"
	"github.com/teemow/mcp-gmail-server/internal/gmail"
	"github.com/teemow/mcp-gmail-server/internal/google"
	"github.com/teemow/mcp-gmail-server/internal/instrumentation"
	"github.com/teemow/mcp-gmail-server/internal/logging"
	"github.com/teemow/mcp-gmail-server/internal/server"
	"github.com/teemow/mcp-gmail-server/internal/tools/gmail_tools"
)

// serveFlags holds command line overrides for the environment configuration.
type serveFlags struct {
	debug       bool
	transport   string
	httpAddr    string
	metricsAddr string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server using the specified transport.

Supports:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport at /mcp, with health endpoints

Configuration is read from GMAILMCP_* environment variables (see the config
command). Flags override the environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&flags.transport, "transport", config.TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", "", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Prometheus metrics address, e.g. :9090 (for streamable-http transport)")

	return cmd
}

// loadServeConfig reads the environment and applies the flags that were set
// explicitly.
func loadServeConfig(cmd *cobra.Command, flags serveFlags) (*config.Root, error) {
	cfg, err := config.Process()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("transport") {
		cfg.Transport = flags.transport
	}
	if changed("http-addr") {
		cfg.HTTP.Addr = flags.httpAddr
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = flags.metricsAddr
	}
	if flags.debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cfg *config.Root) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, closeLog, err := logging.NewLogger(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	instrConfig := telemetryConfig(cfg)
	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	serverContext := newServerContext(shutdownCtx, cfg, logger, provider, instrConfig.AuditLogging)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()
	if !serverContext.HasToken() {
		logger.Warn("no OAuth token found, run the auth command before using the tools",
			"token_path", cfg.Google.TokenPath)
	}

	mcpSrv, err := newMCPServer(serverContext, cfg)
	if err != nil {
		return err
	}

	logger.Info("starting MCP server", "transport", cfg.Transport, "version", version)

	// Start the appropriate server based on transport type
	switch cfg.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, provider)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}
}

// telemetryConfig maps the telemetry and audit settings onto the
// instrumentation defaults.
func telemetryConfig(cfg *config.Root) instrumentation.Config {
	c := instrumentation.DefaultConfig()
	c.ServiceVersion = version
	c.Enabled = cfg.Telemetry.Enabled
	c.MetricsExporter = cfg.Telemetry.MetricsExporter
	c.TracingExporter = cfg.Telemetry.TracingExporter
	c.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	c.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	c.TraceSamplingRate = cfg.Telemetry.SamplingRate
	c.DetailedLabels = cfg.Telemetry.DetailedLabels
	c.AuditLogging = instrumentation.AuditLoggingConfig{
		Enabled:    cfg.Audit.Enabled,
		IncludePII: cfg.Audit.IncludePII,
		LogLevel:   cfg.Audit.Level,
	}
	return c
}

// newServerContext wires the token provider and Gmail client limits into a
// server context. A missing client secret is not fatal: the server starts and
// the tools report the missing credentials.
func newServerContext(ctx context.Context, cfg *config.Root, logger *slog.Logger, provider *instrumentation.Provider, audit instrumentation.AuditLoggingConfig) *server.ServerContext {
	if logger == nil {
		logger = slog.Default()
	}
	var metrics *instrumentation.Metrics
	if provider != nil && provider.Enabled() {
		metrics = provider.Metrics()
	}

	var tokens google.TokenProvider
	oauthConf, err := google.LoadOAuthConfig(cfg.Google.ClientSecretPath)
	if err != nil {
		logger.Warn("Gmail credentials unavailable", logging.Err(err))
	} else {
		tokens = google.NewFileTokenProvider(oauthConf, google.NewTokenStore(cfg.Google.TokenPath),
			google.WithProviderLogger(logger),
			google.WithProviderMetrics(metrics),
		)
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithGmailOptions(
			gmail.WithBatchConcurrency(cfg.Gmail.BatchConcurrency),
			gmail.WithMaxPartDepth(cfg.Gmail.MaxPartDepth),
			gmail.WithMaxAttachmentBytes(cfg.Gmail.MaxAttachmentBytes),
			gmail.WithRateLimit(cfg.Gmail.RequestsPerSecond, cfg.Gmail.RequestBurst),
		),
	}
	// Set metrics and audit logger on server context for tool instrumentation
	if metrics != nil {
		opts = append(opts,
			server.WithMetrics(metrics),
			server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, audit)),
		)
	}
	return server.NewServerContext(ctx, tokens, opts...)
}

// newMCPServer creates the MCP server and registers every tool.
func newMCPServer(sc *server.ServerContext, cfg *config.Root) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("mcp-gmail-server", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithHooks(server.SessionHooks(sc)),
	)
	if err := registerAllTools(mcpSrv, sc, cfg); err != nil {
		return nil, err
	}
	return mcpSrv, nil
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg *config.Root) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Gmail",
			register: func() error {
				return gmail_tools.RegisterGmailTools(mcpSrv, sc, gmail_tools.Options{
					DefaultMaxResults: cfg.Gmail.MaxResults,
				})
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg *config.Root, provider *instrumentation.Provider) error {
	logger := sc.Logger()

	httpServer, err := server.NewHTTPServer(mcpSrv, sc, server.HTTPServerConfig{
		Addr:    cfg.HTTP.Addr,
		Version: version,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	// Start metrics server if an address is configured
	var metricsServer *server.MetricsServer
	if cfg.Metrics.Addr != "" {
		if provider.PrometheusEnabled() {
			metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
				Addr:                    cfg.Metrics.Addr,
				InstrumentationProvider: provider,
				Logger:                  logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create metrics server: %w", err)
			}
		} else {
			logger.Warn("metrics address set but the prometheus exporter is not active",
				"metrics_addr", cfg.Metrics.Addr)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		return nil
	})
	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server stopped with error: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, stopping HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		errs := []error{httpServer.Shutdown(shutdownCtx)}
		if metricsServer != nil {
			errs = append(errs, metricsServer.Shutdown(shutdownCtx))
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("HTTP server gracefully stopped")
	return nil
}
