package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcadekeep/arcadekeep/internal/maintenance"
)

func newMigrateTypesCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate-types",
		Short: "Consolidate deprecated file types onto their replacements",
		Long: `Some historical file types are consolidated into generic ones
(several "scan" variants into Scan, screenshot variants into Screenshot,
document variants into Document, and the catch-all legacy MediaScan type
into a specific ReleaseItem). migrate-types moves both the database rows
and the underlying local and cloud files to match.

Use --dry-run to see the plan without moving anything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateFileTypes(cmd.Context(), mustCLIContext(cmd.Context()), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the migration plan without moving anything")

	return cmd
}

func runMigrateFileTypes(ctx context.Context, cc *CLIContext, dryRun bool) error {
	migCtx, _, err := cc.Svc.MigrateFileTypes(ctx, maintenance.FileTypeMigrationInput{DryRun: dryRun})
	if err != nil {
		return err
	}

	if len(migCtx.Plan) == 0 {
		cc.Statusf("no deprecated file types found\n")
		return nil
	}

	for _, m := range migCtx.Plan {
		fmt.Fprintf(os.Stdout, "file_set %d: %s -> %s\n", m.FileSet.ID, m.OldType, m.NewType)
	}

	if dryRun {
		cc.Statusf("dry run: %d file set(s) would migrate, nothing moved\n", len(migCtx.Plan))
		return nil
	}

	failed := 0

	for _, mv := range migCtx.LocalMoves {
		if mv.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "  warning: local move, file_info %d: %v\n", mv.FileInfoID, mv.Err)
		}
	}

	for _, mv := range migCtx.CloudMoves {
		if mv.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "  warning: cloud move, file_info %d: %v\n", mv.FileInfoID, mv.Err)
		}
	}

	cc.Statusf("migrated %d file set(s), %d move failure(s)\n", len(migCtx.Plan), failed)

	return nil
}
