// Package cli implements the todoify command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hy4ri/todoify/internal/api"
	"github.com/hy4ri/todoify/internal/auth"
	"github.com/hy4ri/todoify/internal/config"
	"github.com/hy4ri/todoify/internal/logging"
	"github.com/hy4ri/todoify/internal/session"
	"github.com/hy4ri/todoify/internal/tui"
	"github.com/hy4ri/todoify/internal/tui/state"
	"github.com/spf13/cobra"
)

// errNotLoggedIn is returned by commands that need a session.
var errNotLoggedIn = errors.New("not logged in (run 'todoify login' first)")

// options holds the global flags.
type options struct {
	apiURL     string
	configPath string
	verbose    bool
}

// app carries what the commands share. It is built lazily so that `init`
// works even when the existing config cannot be parsed.
type app struct {
	opts options

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
	session  *session.Provider
}

// Execute runs the root command
func Execute(version string) error {
	a := &app{}
	rootCmd := newRootCmd(a, version)
	defer a.close()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(a *app, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "todoify",
		Short: "Todoify - a terminal client for the Todoify task service",
		Long: `Todoify manages your tasks from the terminal.

Run without arguments to open the dashboard. Use the subcommands for
scripting: log in, list, add, complete and delete tasks.

GETTING STARTED:
    1. Run 'todoify init' to create a config template
    2. Point api.base_url at your server (or pass --api-url)
    3. Run 'todoify signup' or 'todoify login'
    4. Run 'todoify'

KEYBINDINGS:
    Navigation:
        h/j/k/l     Move between cards
        gg/G        First/last task
        1/2/3       All/active/completed
        v           Grid/calendar
        [ / ]       Previous/next month
        Esc         Dismiss error / close dialog

    Task Actions:
        a           Add new task
        e           Edit selected task
        x           Complete/uncomplete task
        dd          Delete task
        yy          Copy task
        D           Deleted tasks (r restore, X delete permanently)

    Other:
        r           Refresh
        L           Sign out
        ?           Show help
        q           Quit`,
		Args:          cobra.NoArgs,
		RunE:          a.runTUI, // Default action is the dashboard
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.opts.apiURL, "api-url", "", "API base URL (overrides config and "+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().StringVar(&a.opts.configPath, "config", "", "config file path (default ~/.config/todoify/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newInitCmd(a))
	rootCmd.AddCommand(newLoginCmd(a, false))
	rootCmd.AddCommand(newLoginCmd(a, true))
	rootCmd.AddCommand(newLogoutCmd(a))
	rootCmd.AddCommand(newWhoamiCmd(a))
	rootCmd.AddCommand(newOAuthCmd(a))
	rootCmd.AddCommand(newTasksCmd(a))

	return rootCmd
}

// setup loads the config, opens the log file and restores the session.
func (a *app) setup() error {
	if a.session != nil {
		return nil
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.opts.apiURL != "" {
		cfg.API.BaseURL = a.opts.apiURL
	}

	logger, closeLog := logging.Setup(cfg.Log, a.opts.verbose)

	store, err := config.NewCredentialStore()
	if err != nil {
		_ = closeLog()
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	client := api.NewClient(cfg.APIBaseURL(), api.WithLogger(logger), api.WithTimeout(cfg.API.Timeout))
	provider := session.NewProvider(client, store, session.WithLogger(logger))
	provider.Init()

	a.cfg = cfg
	a.logger = logger
	a.closeLog = closeLog
	a.session = provider
	logger.Debug("started", "api_url", cfg.APIBaseURL(), "authenticated", provider.IsAuthenticated())
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.opts.configPath != "" {
		return config.LoadFile(a.opts.configPath)
	}
	return config.Load()
}

// configPath returns the file `init` writes to.
func (a *app) configPath() (string, error) {
	if a.opts.configPath != "" {
		return a.opts.configPath, nil
	}
	return config.ConfigPath()
}

func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// timeout bounds one command's requests.
func (a *app) timeout() time.Duration {
	if a.cfg.API.Timeout > 0 {
		return a.cfg.API.Timeout
	}
	return api.DefaultTimeout
}

// requireSession sets up and fails unless someone is logged in.
func (a *app) requireSession() error {
	if err := a.setup(); err != nil {
		return err
	}
	if !a.session.IsAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}

// oauthFlow returns nil when no OAuth client is configured.
func (a *app) oauthFlow(out io.Writer) *auth.Flow {
	if !a.cfg.HasOAuthCredentials() {
		return nil
	}
	return auth.NewFlow(a.cfg.Auth.OAuth, auth.WithOutput(out), auth.WithLogger(a.logger))
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	if err := a.setup(); err != nil {
		return err
	}

	st := state.New(a.session, a.cfg, a.oauthFlow(io.Discard), a.logger)
	if err := tui.Run(st); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// describeErr turns API failures into the server's message.
func describeErr(err error) error {
	if apiErr, ok := api.AsAPIError(err); ok {
		return errors.New(apiErr.Message)
	}
	return err
}
