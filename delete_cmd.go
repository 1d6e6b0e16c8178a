package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcadekeep/arcadekeep/internal/maintenance"
)

func newDeleteCmd() *cobra.Command {
	var fileSetID int64

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a FileSet and reclaim its orphaned files",
		Long: `Delete removes a FileSet and, for each of its members left
unreferenced by any other FileSet, deletes the underlying file and marks
any cloud copy for deletion. Fails with a conflict if any Release still
references the FileSet.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeleteFileSet(cmd.Context(), mustCLIContext(cmd.Context()), fileSetID)
		},
	}

	cmd.Flags().Int64Var(&fileSetID, "file-set", 0, "FileSet id to delete")
	cmd.MarkFlagRequired("file-set")

	return cmd
}

func runDeleteFileSet(ctx context.Context, cc *CLIContext, fileSetID int64) error {
	delCtx, _, err := cc.Svc.DeleteFileSet(ctx, maintenance.FileSetDeletionInput{FileSetID: fileSetID})
	if err != nil {
		return err
	}

	reclaimed := 0

	for _, o := range delCtx.Outcomes {
		if o.Deletable {
			reclaimed++
		}

		if o.Err != nil {
			fmt.Fprintf(os.Stderr, "  warning: %s: %v\n", o.FileInfo.ArchiveName, o.Err)
		}
	}

	cc.Statusf("deleted FileSet %d, reclaimed %d file(s)\n", fileSetID, reclaimed)

	return nil
}
