package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arcadekeep/arcadekeep/internal/config"
	"github.com/arcadekeep/arcadekeep/internal/services"
)

// mutatingCommands names every subcommand that writes to the metadata
// store or the content/cloud replica. Only these take the collection
// lock; read-only commands (status, export without --launch) can run
// concurrently with each other.
var mutatingCommands = map[string]bool{
	"import":        true,
	"sync":          true,
	"delete":        true,
	"migrate-types": true,
	"mass-import":   true,
}

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath     string
	flagCollectionRoot string
	flagS3Bucket       string
	flagJSON           bool
	flagVerbose        bool
	flagDebug          bool
	flagQuiet          bool
)

// CLIContext bundles the resolved config, logger, and constructed service
// facade. Created once in PersistentPreRunE; every command's RunE pulls it
// from the command's context instead of re-resolving anything.
type CLIContext struct {
	Cfg    *config.ResolvedConfig
	Logger *slog.Logger
	Svc    *services.AppServices
	JSON   bool
	Quiet  bool

	releaseLock func()
}

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// cliContextFrom extracts the CLIContext from the command's context.
// Returns nil if no context was set.
func cliContextFrom(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil
	}

	return cc
}

// mustCLIContext extracts the CLIContext or panics with an actionable
// message. Every registered command goes through PersistentPreRunE, so a
// missing CLIContext in RunE is always a programmer error, never a runtime
// condition a user can trigger.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not found in context — PersistentPreRunE " +
			"must run before any command's RunE")
	}

	return cc
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "arcadekeep",
		Short:   "Personal emulation collection manager",
		Long:    "Import, store, synchronize, and export ROMs, disk images, manuals, and scans.",
		Version: version,
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadContext(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			cc := cliContextFrom(cmd.Context())
			if cc == nil {
				return nil
			}

			if cc.releaseLock != nil {
				cc.releaseLock()
			}

			if cc.Svc == nil {
				return nil
			}

			return cc.Svc.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagCollectionRoot, "collection-root", "", "collection root directory")
	cmd.PersistentFlags().StringVar(&flagS3Bucket, "bucket", "", "cloud sync bucket override")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.MarkFlagsMutuallyExclusive("verbose", "debug", "quiet")

	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newMigrateTypesCmd())
	cmd.AddCommand(newMassImportCmd())

	return cmd
}

// loadContext resolves the effective configuration, builds the logger, and
// constructs the AppServices facade, then stores the result in the
// command's context for every subcommand's RunE to pull from.
func loadContext(cmd *cobra.Command) error {
	logger := buildLogger(nil)

	cli := config.CLIOverrides{
		ConfigPath:     flagConfigPath,
		CollectionRoot: flagCollectionRoot,
		S3Bucket:       flagS3Bucket,
	}

	env := config.ReadEnvOverrides()

	resolved, err := config.ResolveConfig(env, cli, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	finalLogger := buildLogger(resolved)

	svc, err := services.New(cmd.Context(), services.Config{
		CollectionRoot:  resolved.CollectionRoot,
		DatabasePath:    resolved.DatabasePath,
		ScratchRoot:     resolved.ScratchRoot,
		CredentialsPath: resolved.CredentialsPath,
		S3Endpoint:      resolved.S3Endpoint,
		S3Region:        resolved.S3Region,
		S3Bucket:        resolved.S3Bucket,
	}, finalLogger)
	if err != nil {
		return fmt.Errorf("starting collection services: %w", err)
	}

	cc := &CLIContext{
		Cfg:    resolved,
		Logger: finalLogger,
		Svc:    svc,
		JSON:   flagJSON,
		Quiet:  flagQuiet,
	}

	if mutatingCommands[cmd.Name()] {
		release, lockErr := acquireCollectionLock(filepath.Join(resolved.CollectionRoot, collectionLockName))
		if lockErr != nil {
			svc.Close()
			return lockErr
		}

		cc.releaseLock = release
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ctx = shutdownContext(ctx, finalLogger)
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cc))

	return nil
}

// buildLogger creates an slog.Logger whose level is resolved from the
// config file's log_level, then overridden by --verbose/--debug/--quiet
// (mutually exclusive, so at most one ever fires). Pass nil for the
// pre-config bootstrap logger.
func buildLogger(cfg *config.ResolvedConfig) *slog.Logger {
	level := slog.LevelWarn

	if cfg != nil {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelInfo
	}

	if flagDebug {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitOnError maps a service error's Kind to a process exit code and
// prints a user-facing message, so scripts driving this CLI can branch on
// exit status without parsing stderr.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitCodeFor(err))
}

func exitCodeFor(err error) int {
	switch services.Classify(err) {
	case services.KindNotFound:
		return 2
	case services.KindConflict:
		return 3
	case services.KindConfig:
		return 4
	case services.KindCredentials:
		return 5
	case services.KindIntegrity:
		return 6
	case services.KindCancelled:
		return 130
	default:
		return 1
	}
}
