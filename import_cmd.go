package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arcadekeep/arcadekeep/internal/importing"
)

func newImportCmd() *cobra.Command {
	var (
		releaseID int64
		name      string
		fileType  string
		files     []string
		fileSetID int64
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import files into a FileSet",
		Long: `Add a new FileSet to the collection, or reconcile an existing one's
membership against a new file list when --file-set is given.

Each --file takes SOURCE_PATH or SOURCE_PATH=MEMBER_NAME; when the member
name is omitted it defaults to the source path's base name.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())
			inputs := parseFileInputs(files)

			if fileSetID != 0 {
				return runUpdateFileSet(cmd.Context(), cc, fileSetID, inputs)
			}

			return runAddFileSet(cmd.Context(), cc, releaseID, name, fileType, inputs)
		},
	}

	cmd.Flags().Int64Var(&releaseID, "release", 0, "release id to attach the new FileSet to")
	cmd.Flags().StringVar(&name, "name", "", "FileSet name")
	cmd.Flags().StringVar(&fileType, "file-type", "", "FileSet file_type (defaults to config.import.default_file_type)")
	cmd.Flags().StringArrayVar(&files, "file", nil, "source file to import, repeatable")
	cmd.Flags().Int64Var(&fileSetID, "file-set", 0, "existing FileSet id to reconcile instead of creating a new one")

	return cmd
}

func parseFileInputs(raw []string) []importing.FileInput {
	inputs := make([]importing.FileInput, 0, len(raw))

	for _, r := range raw {
		source, member, _ := strings.Cut(r, "=")
		if member == "" {
			member = filepath.Base(source)
		}

		inputs = append(inputs, importing.FileInput{SourcePath: source, MemberName: member})
	}

	return inputs
}

func runAddFileSet(ctx context.Context, cc *CLIContext, releaseID int64, name, fileType string, files []importing.FileInput) error {
	if fileType == "" {
		fileType = cc.Cfg.DefaultFileType
	}

	input := importing.AddFileSetInput{
		ReleaseID: releaseID,
		Name:      name,
		FileType:  fileType,
		Files:     files,
	}

	var addCtx *importing.AddFileSetContext

	err := withProgress(cc.Svc.Progress, cc.Quiet, func() error {
		var runErr error
		addCtx, _, runErr = cc.Svc.AddFileSet(ctx, input)

		return runErr
	})
	if err != nil {
		return err
	}

	cc.Statusf("imported FileSet %d (%q, %d files)\n", addCtx.FileSetID, name, len(files))

	return nil
}

func runUpdateFileSet(ctx context.Context, cc *CLIContext, fileSetID int64, files []importing.FileInput) error {
	input := importing.UpdateFileSetInput{FileSetID: fileSetID, Files: files}

	err := withProgress(cc.Svc.Progress, cc.Quiet, func() error {
		_, _, runErr := cc.Svc.UpdateFileSet(ctx, input)
		return runErr
	})
	if err != nil {
		return err
	}

	cc.Statusf("updated FileSet %d (%d files)\n", fileSetID, len(files))

	return nil
}
