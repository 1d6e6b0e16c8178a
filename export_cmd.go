package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arcadekeep/arcadekeep/internal/exporting"
)

func newExportCmd() *cobra.Command {
	var (
		fileSetID  int64
		executable string
		argsTmpl   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Decompress a FileSet's members into a scratch directory",
		Long: `Export extracts every member of a FileSet into a fresh scratch
directory for use by an external emulator or document viewer.

Pass --launch to additionally spawn EXECUTABLE against the extracted
files; --args substitutes {file} with the primary member's path and {dir}
with the scratch directory (space-separated, e.g. "-rom {file}").`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if executable != "" {
				return runLaunch(cmd.Context(), cc, fileSetID, executable, strings.Fields(argsTmpl))
			}

			return runExport(cmd.Context(), cc, fileSetID)
		},
	}

	cmd.Flags().Int64Var(&fileSetID, "file-set", 0, "FileSet id to export")
	cmd.Flags().StringVar(&executable, "launch", "", "external executable to launch against the exported files")
	cmd.Flags().StringVar(&argsTmpl, "args", "{file}", "argument template passed to --launch")

	cmd.MarkFlagRequired("file-set")

	return cmd
}

func runExport(ctx context.Context, cc *CLIContext, fileSetID int64) error {
	exportCtx, _, err := cc.Svc.ExportFileSet(ctx, exporting.ExportFileSetInput{FileSetID: fileSetID})
	if err != nil {
		return err
	}

	if cc.JSON {
		return json.NewEncoder(os.Stdout).Encode(exportCtx.Extracted)
	}

	fmt.Fprintf(os.Stdout, "exported FileSet %d to %s\n", fileSetID, exportCtx.ScratchDir)

	for _, m := range exportCtx.Extracted {
		fmt.Fprintf(os.Stdout, "  %s -> %s\n", m.MemberName, m.Path)
	}

	return nil
}

func runLaunch(ctx context.Context, cc *CLIContext, fileSetID int64, executable string, args []string) error {
	_, _, err := cc.Svc.LaunchExternalProcess(ctx, exporting.LaunchExternalProcessInput{
		FileSetID:    fileSetID,
		Executable:   executable,
		ArgsTemplate: args,
	})
	if err != nil {
		return err
	}

	cc.Statusf("launched %s against FileSet %d\n", executable, fileSetID)

	return nil
}
