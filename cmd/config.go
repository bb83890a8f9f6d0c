package cmd

import (
	"github.com/spf13/cobra"

	"github.com/teemow/mcp-gmail-server/internal/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "List the environment variables that configure the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Usage(cmd.OutOrStdout())
		},
	}
}
