package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kallio/notesync/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// cliFlags holds the persistent flag values bound in newRootCmd(). A single
// struct (rather than package-level vars per flag) keeps buildLogger and
// loadConfig testable without touching global state.
type cliFlags struct {
	ConfigPath string
	SyncRoot   string
	JSON       bool
	Verbose    bool
	Debug      bool
	Quiet      bool
	DryRun     bool
}

var flags cliFlags

// skipConfigAnnotation marks commands that handle config loading themselves.
// No notesync subcommand currently needs this, but the annotation is kept so
// a future command (e.g. a config-file scaffolding command) can opt out of
// the automatic resolution in PersistentPreRunE.
const skipConfigAnnotation = "skipConfig"

// CLIContext bundles resolved config, logger, and flags for a single
// invocation. Built once in PersistentPreRunE and threaded through the
// command's context.
type CLIContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Flags  cliFlags
}

type cliContextKey struct{}

func cliContextFrom(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil
	}

	return cc
}

// mustCLIContext extracts the CLIContext or panics with an actionable
// message. Every notesync subcommand requires config, so PersistentPreRunE
// always populates this before RunE executes.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not found in context — PersistentPreRunE must run before RunE")
	}

	return cc
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notesync",
		Short:   "Bidirectional sync for a local Markdown tree and a cloud notes service",
		Long:    "notesync keeps a local directory of Markdown documents and a remote cloud-notes service in sync, reconciling changes on both sides and deduplicating identical content.",
		Version: version,
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}

			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flags.SyncRoot, "sync-root", "", "local sync root directory")
	cmd.PersistentFlags().BoolVar(&flags.JSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress informational output")
	cmd.PersistentFlags().BoolVar(&flags.DryRun, "dry-run", false, "show what would change without changing anything")

	cmd.MarkFlagsMutuallyExclusive("verbose", "debug", "quiet")

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newDedupCmd())
	cmd.AddCommand(newConflictsCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the three-layer
// override chain (defaults -> file -> env -> CLI flags) and stores the
// result, alongside a configured logger, in the command's context.
func loadConfig(cmd *cobra.Command) error {
	// Bootstrap logger derived from flags only — the config file's own log
	// level isn't known yet.
	logger := buildLogger(nil, flags)

	cli := config.CLIOverrides{
		ConfigPath: flags.ConfigPath,
		SyncRoot:   flags.SyncRoot,
	}

	if cmd.Flags().Changed("dry-run") {
		dryRun := flags.DryRun
		cli.DryRun = &dryRun
	}

	env := config.ReadEnvOverrides()

	logger.Debug("resolving config",
		slog.String("config_path", cli.ConfigPath),
		slog.String("cli_sync_root", cli.SyncRoot),
		slog.String("env_config", env.ConfigPath),
		slog.String("env_sync_root", env.SyncRoot),
	)

	cfg, err := config.Resolve(env, cli, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.SyncRoot == "" {
		return fmt.Errorf("no sync root configured — set sync_root in the config file, $NOTESYNC_SYNC_ROOT, or --sync-root")
	}

	finalLogger := buildLogger(cfg, flags)
	cc := &CLIContext{Cfg: cfg, Logger: finalLogger, Flags: flags}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cc))

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Pass nil for pre-config bootstrap. Config-file log level sets
// the baseline; --verbose, --debug, and --quiet (mutually exclusive) override
// it since CLI flags always win.
func buildLogger(cfg *config.Config, f cliFlags) *slog.Logger {
	level := slog.LevelWarn

	if cfg != nil {
		switch cfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
	}

	if f.Verbose {
		level = slog.LevelInfo
	}

	if f.Debug {
		level = slog.LevelDebug
	}

	if f.Quiet {
		level = slog.LevelError
	}

	out := os.Stderr

	var handler slog.Handler

	format := "text"
	if cfg != nil && cfg.Logging.LogFormat != "" && cfg.Logging.LogFormat != "auto" {
		format = cfg.Logging.LogFormat
	}

	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
