package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcadekeep/arcadekeep/internal/db"
)

func newStatusCmd() *cobra.Command {
	var releaseID int64

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show collection totals and cloud sync backlog",
		Long: `Status reports how many releases, file sets, and files the
collection holds, and how many files are waiting to sync or to be deleted
from the cloud replica.

Pass --release to instead show one release's file sets, members, and
per-file cloud availability.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if releaseID != 0 {
				return runReleaseStatus(cmd.Context(), cc, releaseID)
			}

			return runCollectionStatus(cmd.Context(), cc)
		},
	}

	cmd.Flags().Int64Var(&releaseID, "release", 0, "release id to show in detail")

	return cmd
}

// collectionStatus is the collection-wide summary shown by plain `status`.
type collectionStatus struct {
	CollectionRoot  string `json:"collection_root"`
	Releases        int    `json:"releases"`
	FileSets        int    `json:"file_sets"`
	Files           int    `json:"files"`
	UploadPending   int    `json:"upload_pending"`
	UploadFailed    int    `json:"upload_failed"`
	DeletionPending int    `json:"deletion_pending"`
}

func runCollectionStatus(ctx context.Context, cc *CLIContext) error {
	conn := cc.Svc.Store.DB()

	st := collectionStatus{CollectionRoot: cc.Cfg.CollectionRoot}

	for table, dst := range map[string]*int{
		"release":  &st.Releases,
		"file_set": &st.FileSets,
		"file_info": &st.Files,
	} {
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(dst); err != nil {
			return fmt.Errorf("counting %s: %w", table, err)
		}
	}

	pending, err := cc.Svc.SyncLog.ListByStatus(ctx, []db.SyncStatus{db.SyncStatusUploadPending})
	if err != nil {
		return fmt.Errorf("counting upload-pending files: %w", err)
	}

	st.UploadPending = len(pending)

	failed, err := cc.Svc.SyncLog.ListByStatus(ctx, []db.SyncStatus{db.SyncStatusUploadFailed})
	if err != nil {
		return fmt.Errorf("counting upload-failed files: %w", err)
	}

	st.UploadFailed = len(failed)

	deletionPending, err := cc.Svc.SyncLog.ListByStatus(ctx, []db.SyncStatus{db.SyncStatusDeletionPending})
	if err != nil {
		return fmt.Errorf("counting deletion-pending files: %w", err)
	}

	st.DeletionPending = len(deletionPending)

	if cc.JSON {
		return json.NewEncoder(os.Stdout).Encode(st)
	}

	fmt.Fprintf(os.Stdout, "collection root: %s\n", st.CollectionRoot)
	fmt.Fprintf(os.Stdout, "releases: %d   file sets: %d   files: %d\n", st.Releases, st.FileSets, st.Files)
	fmt.Fprintf(os.Stdout, "cloud sync: %d pending upload, %d failed, %d pending deletion\n",
		st.UploadPending, st.UploadFailed, st.DeletionPending)

	return nil
}

func runReleaseStatus(ctx context.Context, cc *CLIContext, releaseID int64) error {
	view, err := cc.Svc.View.Release(ctx, releaseID)
	if err != nil {
		return err
	}

	if cc.JSON {
		return json.NewEncoder(os.Stdout).Encode(view)
	}

	fmt.Fprintf(os.Stdout, "%s (release %d)\n", view.Release.Name, view.Release.ID)

	rows := make([][]string, 0, view.FileCount)
	for _, fsv := range view.FileSets {
		for _, f := range fsv.Files {
			rows = append(rows, []string{
				fsv.FileSet.Name, f.MemberName, formatSize(f.FileInfo.UncompressedSize), f.Availability.String(),
			})
		}
	}

	printTable(os.Stdout, []string{"FILE SET", "MEMBER", "SIZE", "AVAILABILITY"}, rows)

	return nil
}
