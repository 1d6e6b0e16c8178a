package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcadekeep/arcadekeep/internal/cloudsync"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

func newSyncCmd() *cobra.Command {
	var restoreID int64

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the collection with the cloud replica",
		Long: `Sync uploads every file pending upload and carries out every deletion
pending against the cloud replica, driven entirely by the durable
per-file sync log — there is no separate "what changed" scan.

Pass --restore to instead download a single FileInfo's blob back onto
local disk from the cloud replica.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if restoreID != 0 {
				return runRestore(cmd.Context(), cc, restoreID)
			}

			return runSyncToCloud(cmd.Context(), cc)
		},
	}

	cmd.Flags().Int64Var(&restoreID, "restore", 0, "FileInfo id to restore from the cloud instead of syncing")

	return cmd
}

func runSyncToCloud(ctx context.Context, cc *CLIContext) error {
	var (
		syncCtx *cloudsync.SyncContext
		outcome pipeline.Outcome
	)

	err := withProgress(cc.Svc.Progress, cc.Quiet, func() error {
		var runErr error
		syncCtx, outcome, runErr = cc.Svc.SyncToCloud(ctx)

		return runErr
	})
	if err != nil {
		return err
	}

	if outcome == pipeline.Skip {
		cc.Statusf("nothing pending; sync skipped\n")
		return nil
	}

	if cc.JSON {
		return json.NewEncoder(os.Stdout).Encode(syncCtx.Summary)
	}

	fmt.Fprintf(os.Stdout, "sync complete: %d uploaded, %d deleted, %d failed\n",
		syncCtx.Summary.Uploaded, syncCtx.Summary.Deleted,
		syncCtx.Summary.UploadFailed+syncCtx.Summary.DeletionFailed)

	return nil
}

func runRestore(ctx context.Context, cc *CLIContext, fileInfoID int64) error {
	err := withProgress(cc.Svc.Progress, cc.Quiet, func() error {
		_, _, runErr := cc.Svc.RestoreFile(ctx, cloudsync.RestoreFileInput{FileInfoID: fileInfoID})
		return runErr
	})
	if err != nil {
		return err
	}

	cc.Statusf("restored FileInfo %d from the cloud\n", fileInfoID)

	return nil
}
