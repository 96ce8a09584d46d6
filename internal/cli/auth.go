package cli

import (
	"bufio"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-remote/internal/auth"
	"github.com/Makepad-fr/tada-remote/internal/ui"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the bearer token sent to the remote collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return usagef("usage: todo auth <login|logout|status>")
		},
	}
	cmd.AddCommand(newLoginCmd(app), newLogoutCmd(app), newAuthStatusCmd(app))
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Read a token from stdin and store it",
		Long:  "Read a token from stdin and store it. JWT expiry is taken from the exp claim unless --expires is given.",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl < 0 {
				return usagef("--expires must not be negative")
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, "Paste your token: ")
			sc := bufio.NewScanner(cmd.InOrStdin())
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				return fmt.Errorf("read token: no input")
			}
			fmt.Fprintln(out)

			tok, err := app.creds.Save(sc.Text(), ttl)
			if err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			if tok.Expired(time.Now()) {
				ui.Fail(cmd.ErrOrStderr(), "token already expired at "+tok.ExpiresAt.Format(time.RFC3339))
			}
			ui.OK(out, "logged in")
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "expires", 0, "Token lifetime, e.g. 24h (default: JWT exp claim, else never)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored token",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tok, _ := app.creds.Lookup(); tok != nil && tok.Source == auth.SourceEnv {
				ui.OK(cmd.OutOrStdout(), "token is provided by "+auth.EnvToken+" env var (nothing to delete)")
				return nil
			}
			if err := app.creds.Remove(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			ui.OK(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newAuthStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			tok, err := app.creds.Lookup()
			if err != nil {
				return err
			}
			if tok == nil {
				fmt.Fprintln(out, ui.Current().Muted.Render("not logged in"))
				fmt.Fprintln(out, "Run: todo auth login")
				return nil
			}
			fmt.Fprintf(out, "source: %s\n", tok.Source)
			switch {
			case tok.ExpiresAt == nil:
				fmt.Fprintln(out, "expires: (unknown)")
			case tok.Expired(time.Now()):
				fmt.Fprintf(out, "expires: %s (expired, not sent)\n", tok.ExpiresAt.UTC().Format(time.RFC3339))
			default:
				fmt.Fprintf(out, "expires: %s\n", tok.ExpiresAt.UTC().Format(time.RFC3339))
			}
			fmt.Fprintf(out, "api: %s\n", app.cfg.APIURL)
			fmt.Fprintf(out, "env override: %s\n", auth.EnvToken)
			return nil
		},
	}
}
