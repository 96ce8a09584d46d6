// Package cli wires configuration, logging and the todo view into a cobra
// command tree. With no subcommand the interactive view starts.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-remote/internal/auth"
	"github.com/Makepad-fr/tada-remote/internal/config"
	"github.com/Makepad-fr/tada-remote/internal/logging"
	"github.com/Makepad-fr/tada-remote/internal/remote"
	"github.com/Makepad-fr/tada-remote/internal/tui"
	"github.com/Makepad-fr/tada-remote/internal/ui"
	"github.com/Makepad-fr/tada-remote/internal/view"
)

// Exit codes: 0 ok, 1 error, 2 usage.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks errors caused by bad invocation.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ue usageError
	if errors.As(err, &ue) || errors.Is(err, view.ErrEmptyTitle) {
		return ExitUsage
	}
	return ExitError
}

type App struct {
	ConfigPath string
	APIURL     string
	Limit      int
	Timeout    time.Duration
	Refetch    bool
	Theme      string
	LogLevel   string
	LogFile    string

	cfg      *config.Config
	log      *log.Logger
	closeLog func() error
	creds    *auth.Store
	view     *view.View
}

// Close releases the log file, if any.
func (a *App) Close() error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "A todo list synced with a remote collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Interactive list
  todo

  # Scriptable commands
  todo ls --group
  todo add "Buy milk"
  todo rm 3
`),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("unknown subcommand: %s", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), app.view)
		},
	}

	cmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		return app.setup(c, c == cmd)
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigPath, "config", "", "Config file (default: ~/.tada/config.toml, then ./.tada.toml)")
	pf.StringVar(&app.APIURL, "api-url", config.DefaultAPIURL, "Remote collection base URL")
	pf.IntVar(&app.Limit, "limit", config.DefaultLimit, "Number of items to load")
	pf.DurationVar(&app.Timeout, "timeout", config.DefaultTimeout, "HTTP request timeout")
	pf.BoolVar(&app.Refetch, "refetch", false, "Refetch the collection after add/delete")
	pf.StringVar(&app.Theme, "theme", config.DefaultTheme, "Theme ("+strings.Join(ui.ThemeNames, "|")+")")
	pf.StringVar(&app.LogLevel, "log-level", config.DefaultLogLevel, "Log level (debug|info|warn|error)")
	pf.StringVar(&app.LogFile, "log-file", "", "Write logs to this file")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newAuthCmd(app))

	return cmd
}

// setup resolves configuration (flags win) and builds the view.
func (a *App) setup(cmd *cobra.Command, interactive bool) error {
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}
	a.cfg = cfg
	ui.SetTheme(cfg.Theme)

	lg, closeLog, err := logging.Open(cfg.LogFile, cfg.LogLevel, interactive)
	if err != nil {
		return err
	}
	if !interactive && cfg.LogFile == "" {
		lg.SetOutput(cmd.ErrOrStderr())
	}
	a.log, a.closeLog = lg, closeLog
	for _, f := range cfg.Files {
		lg.Debug("config file", "path", f)
	}

	creds, err := auth.DefaultStore()
	if err != nil {
		return err
	}
	a.creds = creds

	client := remote.New(cfg.APIURL, cfg.Timeout.Duration, lg)
	client.Token = a.bearer()

	a.view = view.New(client, view.Options{
		Limit:           cfg.Limit,
		RefetchOnMutate: cfg.RefetchOnMutate,
		Logger:          lg,
	})
	return nil
}

// bearer returns the token to send, or "" when there is none or it expired.
func (a *App) bearer() string {
	tok, err := a.creds.Lookup()
	switch {
	case err != nil:
		a.log.Warn("ignoring credentials", "err", err)
		return ""
	case tok == nil:
		return ""
	case tok.Expired(time.Now()):
		a.log.Warn("token expired, sending requests without it",
			"source", tok.Source,
			"expired_at", tok.ExpiresAt.Format(time.RFC3339),
		)
		return ""
	}
	return tok.Value
}

func (a *App) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("api-url") {
		cfg.APIURL = a.APIURL
	}
	if f.Changed("limit") {
		cfg.Limit = a.Limit
	}
	if f.Changed("timeout") {
		cfg.Timeout = config.Duration{Duration: a.Timeout}
	}
	if f.Changed("refetch") {
		cfg.RefetchOnMutate = a.Refetch
	}
	if f.Changed("theme") {
		cfg.Theme = a.Theme
	}
	if f.Changed("log-level") {
		cfg.LogLevel = a.LogLevel
	}
	if f.Changed("log-file") {
		cfg.LogFile = a.LogFile
	}
}

// Execute runs the command tree and returns the exit status.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &App{}
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if cerr := app.Close(); cerr != nil {
		fmt.Fprintln(stderr, "close log:", cerr)
	}
	if err != nil {
		ui.Fail(stderr, err.Error())
		if ExitCode(err) == ExitUsage {
			fmt.Fprintln(stderr, ui.Current().Muted.Render("Run `todo --help` for usage"))
		}
	}
	return ExitCode(err)
}

// Main is Execute against the process environment.
func Main(ctx context.Context) int {
	return Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
