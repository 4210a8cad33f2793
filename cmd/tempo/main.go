package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/naveenspark/tempo/internal/config"
	"github.com/naveenspark/tempo/internal/logging"
	"github.com/naveenspark/tempo/internal/session"
	"github.com/naveenspark/tempo/internal/tui"
	"github.com/naveenspark/tempo/internal/workspace"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one command line and releases whatever it opened.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root, c := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}

// cli holds the flags shared by every command and the workspace opened for
// the command being run.
type cli struct {
	apiURL   string
	stateDir string
	verbose  bool

	ws       *workspace.Workspace
	log      zerolog.Logger
	closeLog io.Closer
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "tempo",
		Short:         "Track time from the terminal, online or off",
		Long:          "tempo tracks time against a TimeKeeper API and keeps working on a local database while the API is unreachable.\nRun without a command to open the interactive timer.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTUI(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "API base URL (overrides TEMPO_API_URL)")
	root.PersistentFlags().StringVar(&c.stateDir, "state-dir", "", "state directory (overrides TEMPO_STATE_DIR)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.startCmd(),
		c.stopCmd(),
		c.statusCmd(),
		c.editCmd(),
		c.logCmd(),
		c.projectsCmd(),
		c.reportCmd(),
		c.docsCmd(),
		c.updateCmd(),
		updateDoneCmd(),
		versionCmd(),
	)
	return root, c
}

// config loads the environment and applies flag overrides.
func (c *cli) config() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if c.apiURL != "" {
		cfg.APIURL = strings.TrimRight(c.apiURL, "/")
	}
	if c.stateDir != "" {
		cfg.StateDir = c.stateDir
	}
	if c.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open builds the workspace. Commands call it once; close releases it.
func (c *cli) open(ctx context.Context, stderr logging.StderrMode) (*workspace.Workspace, error) {
	if c.ws != nil {
		return c.ws, nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	log, closer, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Dir:    cfg.StateDir,
		Stderr: stderr,
	})
	if err != nil && c.verbose {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	c.log, c.closeLog = log, closer

	ws, err := workspace.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	c.ws = ws
	return ws, nil
}

// session opens the workspace and restores the saved session, failing when
// nobody is logged in.
func (c *cli) session(ctx context.Context) (*workspace.Workspace, session.Snapshot, error) {
	ws, err := c.open(ctx, logging.StderrAuto)
	if err != nil {
		return nil, session.Snapshot{}, err
	}
	snap, err := ws.RequireSession(ctx)
	if errors.Is(err, session.ErrNotAuthenticated) {
		return nil, snap, errors.New("not logged in, run: tempo login")
	}
	if err != nil {
		return nil, snap, err
	}
	return ws, snap, nil
}

func (c *cli) close() error {
	var err error
	if c.ws != nil {
		err = c.ws.Close()
		c.ws = nil
	}
	if c.closeLog != nil {
		c.closeLog.Close() //nolint:errcheck
		c.closeLog = nil
	}
	return err
}

func (c *cli) runTUI(cmd *cobra.Command) error {
	ws, err := c.open(cmd.Context(), logging.StderrNever)
	if err != nil {
		return err
	}
	p := tea.NewProgram(tui.NewApp(ws, version), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "tempo "+version)
		},
	}
}
