package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mcp-gmail-server application
var rootCmd = &cobra.Command{
	Use:   "mcp-gmail-server",
	Short: "Read-only Gmail MCP server",
	Long: `mcp-gmail-server exposes a Gmail mailbox to AI assistants over the
Model Context Protocol (MCP). Messages are searched, decoded from their MIME
part tree into plain text, and attachments are listed and downloaded.

Run "mcp-gmail-server auth" once to authorize access, then
"mcp-gmail-server serve" to start the server.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-gmail-server version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
