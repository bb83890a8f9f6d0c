package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/mcp-gmail-server/internal/config"
	"github.com/teemow/mcp-gmail-server/internal/gmail"
	"github.com/teemow/mcp-gmail-server/internal/google"
)

func newAuthCmd() *cobra.Command {
	var callbackAddr string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to a Gmail mailbox",
		Long: `Run the OAuth consent flow for the configured Google client secret and
store the resulting token at the configured token path.

The command prints a consent URL. After access is granted in the browser,
Google redirects to a temporary listener on the loopback interface and the
token is saved. Only the gmail.readonly scope is requested.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Process()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runAuth(cmd.Context(), cmd.ErrOrStderr(), cfg, callbackAddr)
		},
	}

	cmd.Flags().StringVar(&callbackAddr, "callback-addr", google.DefaultCallbackAddr, "Loopback address for the OAuth redirect listener")

	return cmd
}

func runAuth(ctx context.Context, out io.Writer, cfg *config.Root, callbackAddr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	oauthConf, err := google.LoadOAuthConfig(cfg.Google.ClientSecretPath)
	if err != nil {
		return err
	}

	tok, err := google.Authorize(ctx, oauthConf, google.AuthorizeOptions{
		CallbackAddr: callbackAddr,
		OnAuthURL: func(url string) {
			fmt.Fprintf(out, "Open the following URL in your browser and grant access:\n\n%s\n\n", url)
			fmt.Fprintln(out, "Waiting for authorization...")
		},
	})
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	store := google.NewTokenStore(cfg.Google.TokenPath)
	if err := store.Save(tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", store.Path())

	client, err := gmail.NewClient(ctx, google.NewHTTPClient(ctx, oauthConf.TokenSource(ctx, tok)))
	if err != nil {
		return err
	}
	email, err := client.Profile(ctx)
	if err != nil {
		fmt.Fprintf(out, "Warning: could not verify the mailbox: %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "Authorized mailbox: %s\n", email)
	return nil
}
