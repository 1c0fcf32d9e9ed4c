// Package cli provides the command-line interface of the storage MCP server.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	storagemcp "github.com/felixgeelhaar/storage-mcp"
	domainconfig "github.com/felixgeelhaar/storage-mcp/domain/config"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/config"
)

// Version information set at build time.
var (
	Version   = storagemcp.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer
	opts   globalOptions
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "storage-mcp",
		Short: "MCP tool server for cloud object storage",
		Long: `storage-mcp exposes cloud object storage as Model Context Protocol tools.

A client initializes a backend (AWS S3, MinIO/Ceph, Google Cloud Storage,
Azure Blob, Redis, local disk or memory) with init-backend, then creates
buckets, reads and writes objects and keeps cloudobject handles that later
calls refer to by index.

Without a subcommand the server runs over stdio.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.serve(cmd.Context(), &serveOptions{})
		},
	}

	flags := app.root.PersistentFlags()
	flags.StringVarP(&app.opts.configPath, "config", "c", "", "Path to configuration file (default $"+config.EnvConfigPath+")")
	flags.StringVar(&app.opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	flags.StringVar(&app.opts.logFormat, "log-format", "", "Log format: console or json")

	app.root.AddCommand(
		app.newServeCmd(),
		app.newToolsCmd(),
		app.newValidateCmd(),
		app.newVersionCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// loadConfig resolves the configuration file and applies flag overrides.
func (a *App) loadConfig() (*domainconfig.ServerConfig, error) {
	cfg, err := config.NewLoader().Resolve(a.opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if a.opts.logLevel != "" {
		cfg.Log.Level = a.opts.logLevel
	}
	if a.opts.logFormat != "" {
		cfg.Log.Format = a.opts.logFormat
	}
	if errs := domainconfig.NewValidator().Validate(cfg); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %v", domainconfig.ErrValidationFailed, errs)
	}
	return cfg, nil
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(a.stdout, "storage-mcp version %s\n", Version)
			_, _ = fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			_, _ = fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
