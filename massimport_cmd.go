package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcadekeep/arcadekeep/internal/importing"
)

func newMassImportCmd() *cobra.Command {
	var (
		sourceDir string
		fileType  string
		datPath   string
	)

	cmd := &cobra.Command{
		Use:   "mass-import",
		Short: "Bulk-import every file under a directory",
		Long: `mass-import walks SOURCE_DIR and imports every file it finds, one
Release/FileSet per input, each committed in its own transaction so a
single failure never aborts the batch.

With --dat, catalogue-assisted mode matches files by SHA-1 against a DAT
XML file and names releases and titles from the catalogue. Without it,
filename-derived mode parses release and title names out of each
filename (e.g. "Donkey Kong (USA, Europe) (v1.1).nes").`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if fileType == "" {
				fileType = cc.Cfg.DefaultFileType
			}

			if datPath != "" {
				return runMassImportDat(cmd.Context(), cc, datPath, sourceDir, fileType)
			}

			return runMassImportFilename(cmd.Context(), cc, sourceDir, fileType)
		},
	}

	cmd.Flags().StringVar(&sourceDir, "source", "", "directory to import files from")
	cmd.Flags().StringVar(&fileType, "file-type", "", "file_type to assign (defaults to config.import.default_file_type)")
	cmd.Flags().StringVar(&datPath, "dat", "", "DAT catalogue XML file for SHA-1-matched import")

	cmd.MarkFlagRequired("source")

	return cmd
}

func runMassImportDat(ctx context.Context, cc *CLIContext, datPath, sourceDir, fileType string) error {
	var results []importing.MassImportItemResult

	err := withProgress(cc.Svc.Progress, cc.Quiet, func() error {
		massCtx, _, runErr := cc.Svc.MassImportDat(ctx, importing.MassImportDatInput{
			DatPath: datPath, SourceDir: sourceDir, FileType: fileType,
		})
		if massCtx != nil {
			results = massCtx.Results
		}

		return runErr
	})
	if err != nil {
		return err
	}

	return printMassImportResults(cc, results)
}

func runMassImportFilename(ctx context.Context, cc *CLIContext, sourceDir, fileType string) error {
	var results []importing.MassImportItemResult

	err := withProgress(cc.Svc.Progress, cc.Quiet, func() error {
		massCtx, _, runErr := cc.Svc.MassImportFilename(ctx, importing.MassImportFilenameInput{
			SourceDir: sourceDir, FileType: fileType,
		})
		if massCtx != nil {
			results = massCtx.Results
		}

		return runErr
	})
	if err != nil {
		return err
	}

	return printMassImportResults(cc, results)
}

func printMassImportResults(cc *CLIContext, results []importing.MassImportItemResult) error {
	if cc.JSON {
		return json.NewEncoder(os.Stdout).Encode(results)
	}

	imported, skipped, failed := 0, 0, 0

	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(os.Stderr, "  failed: %s: %v\n", r.SourcePath, r.Err)
		case r.Skipped:
			skipped++
		default:
			imported++
			fmt.Fprintf(os.Stdout, "  %s -> release %q (file_set %d)\n", r.SourcePath, r.ReleaseName, r.FileSetID)
		}
	}

	cc.Statusf("mass import complete: %d imported, %d skipped, %d failed\n", imported, skipped, failed)

	return nil
}
