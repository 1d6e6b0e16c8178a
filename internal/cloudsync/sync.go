package cloudsync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/arcadekeep/arcadekeep/internal/apperr"
	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

// FileOutcome reports what happened to a single FileInfo during one sync
// run. CloudSucceeded and LogSucceeded are independently observable: a
// file is a partial success when the cloud operation succeeded but the
// log append describing it failed, leaving the file's latest log status at
// UploadInProgress (or DeletionInProgress). The next sync run lists those
// statuses again and reconciles the file with an idempotent re-upload or
// re-delete.
type FileOutcome struct {
	FileInfoID     int64
	CloudKey       string
	CloudSucceeded bool
	LogSucceeded   bool
	Err            error
}

// Summary tallies a sync run's outcomes for the operator.
type Summary struct {
	Uploaded       int
	UploadFailed   int
	Deleted        int
	DeletionFailed int
	PartialSuccess int
}

// SyncContext is the mutable context the sync pipeline operates on.
type SyncContext struct {
	Deps

	PendingUpload   []db.FileInfo
	PendingDeletion []db.FileInfo

	Uploads   []FileOutcome
	Deletions []FileOutcome
	Summary   Summary
}

// NewSyncPipeline builds the cloud sync pipeline: enumerate files pending
// upload, report totals, connect to the cloud capability, upload pending
// files, then carry out pending deletions.
func NewSyncPipeline(deps Deps) *pipeline.Pipeline[*SyncContext] {
	return pipeline.New("cloud_sync", deps.logger(),
		prepareFilesForUploadStep{},
		emitSyncCountsStep{},
		connectToCloudStep{},
		uploadPendingFilesStep{},
		deleteMarkedFilesStep{},
	)
}

type prepareFilesForUploadStep struct{}

func (prepareFilesForUploadStep) Name() string { return "prepare_files_for_upload" }

func (prepareFilesForUploadStep) ShouldExecute(context.Context, *SyncContext) bool { return true }

func (prepareFilesForUploadStep) Execute(ctx context.Context, c *SyncContext) (pipeline.Outcome, error) {
	ids, err := c.SyncLog.ListByStatus(ctx, []db.SyncStatus{
		db.SyncStatusUploadPending, db.SyncStatusUploadFailed, db.SyncStatusUploadInProgress,
	})
	if err != nil {
		return pipeline.Abort, fmt.Errorf("listing files pending upload: %w", err)
	}

	infos, err := c.FileInfo.ListByIDs(ctx, ids)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("loading file_info pending upload: %w", err)
	}

	c.PendingUpload = infos

	return pipeline.Continue, nil
}

type emitSyncCountsStep struct{}

func (emitSyncCountsStep) Name() string { return "get_sync_file_counts" }

func (emitSyncCountsStep) ShouldExecute(context.Context, *SyncContext) bool { return true }

func (emitSyncCountsStep) Execute(_ context.Context, c *SyncContext) (pipeline.Outcome, error) {
	c.Progress.Send(capability.ProgressEvent{
		Type:    capability.EventSummary,
		Message: fmt.Sprintf("%d file(s) pending upload", len(c.PendingUpload)),
	})

	return pipeline.Continue, nil
}

type connectToCloudStep struct{}

func (connectToCloudStep) Name() string { return "connect_to_cloud" }

func (connectToCloudStep) ShouldExecute(context.Context, *SyncContext) bool { return true }

func (connectToCloudStep) Execute(ctx context.Context, c *SyncContext) (pipeline.Outcome, error) {
	creds, err := capability.LoadCredentialsForSync(c.CredentialService, c.getenv())
	if err != nil {
		return pipeline.Abort, fmt.Errorf("resolving cloud credentials: %w", err)
	}

	if creds == nil {
		return pipeline.Abort, &apperr.ConfigError{
			Setting: "cloud credentials",
			Message: "no S3 credentials configured in the credential store or environment",
		}
	}

	// s3CloudStorage.Connect resolves AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY
	// from the environment directly; bridge credentials resolved from the
	// OS-store tier into the environment so a single Connect call works
	// regardless of which tier actually supplied them.
	if err := os.Setenv("AWS_ACCESS_KEY_ID", creds.AccessKeyID); err != nil {
		return pipeline.Abort, fmt.Errorf("setting credential environment: %w", err)
	}

	if err := os.Setenv("AWS_SECRET_ACCESS_KEY", creds.SecretAccessKey); err != nil {
		return pipeline.Abort, fmt.Errorf("setting credential environment: %w", err)
	}

	if err := c.CloudStorage.Connect(ctx, c.Endpoint, c.Region, c.Bucket); err != nil {
		return pipeline.Abort, fmt.Errorf("connecting to cloud storage: %w", err)
	}

	return pipeline.Continue, nil
}

type uploadPendingFilesStep struct{}

func (uploadPendingFilesStep) Name() string { return "upload_pending_files" }

func (uploadPendingFilesStep) ShouldExecute(context.Context, *SyncContext) bool { return true }

func (uploadPendingFilesStep) Execute(ctx context.Context, c *SyncContext) (pipeline.Outcome, error) {
	for _, f := range c.PendingUpload {
		if err := ctx.Err(); err != nil {
			c.logger().Info("cloudsync: upload cancelled between files",
				slog.Int("remaining", len(c.PendingUpload)))

			return pipeline.Continue, nil
		}

		c.uploadOne(ctx, f)
	}

	return pipeline.Continue, nil
}

func (c *SyncContext) uploadOne(ctx context.Context, f db.FileInfo) {
	key := cloudKey(f)

	c.Progress.Send(capability.ProgressEvent{Type: capability.EventFileStarted, Path: key})

	outcome := FileOutcome{FileInfoID: f.ID, CloudKey: key}

	if _, err := c.appendSyncLog(ctx, f.ID, db.SyncStatusUploadInProgress, key, ""); err != nil {
		c.logger().Warn("cloudsync: recording upload_in_progress failed",
			slog.Int64("file_info_id", f.ID), slog.Any("error", err))
		outcome.Err = err
		c.Uploads = append(c.Uploads, outcome)
		c.Summary.UploadFailed++

		return
	}

	localPath := c.Content.Path(f)

	uploadErr := c.CloudStorage.Upload(ctx, localPath, key, func(done int64) {
		c.Progress.Send(capability.ProgressEvent{Type: capability.EventBytesUploaded, Path: key, BytesDone: done})
	})

	if uploadErr != nil {
		outcome.Err = uploadErr

		if _, err := c.appendSyncLog(ctx, f.ID, db.SyncStatusUploadFailed, key, uploadErr.Error()); err != nil {
			c.logger().Warn("cloudsync: recording upload_failed failed",
				slog.Int64("file_info_id", f.ID), slog.Any("error", err))
		}

		c.Progress.Send(capability.ProgressEvent{Type: capability.EventFileFailed, Path: key, Error: uploadErr})
		c.Summary.UploadFailed++
		c.Uploads = append(c.Uploads, outcome)

		return
	}

	outcome.CloudSucceeded = true

	if _, err := c.appendSyncLog(ctx, f.ID, db.SyncStatusUploadCompleted, key, ""); err != nil {
		c.logger().Warn("cloudsync: upload succeeded but recording upload_completed failed",
			slog.Int64("file_info_id", f.ID), slog.Any("error", err))

		outcome.LogSucceeded = false
		c.Summary.PartialSuccess++
		c.Uploads = append(c.Uploads, outcome)

		return
	}

	outcome.LogSucceeded = true
	c.Progress.Send(capability.ProgressEvent{Type: capability.EventFileCompleted, Path: key})
	c.Summary.Uploaded++
	c.Uploads = append(c.Uploads, outcome)
}

type deleteMarkedFilesStep struct{}

func (deleteMarkedFilesStep) Name() string { return "delete_marked_files" }

func (deleteMarkedFilesStep) ShouldExecute(context.Context, *SyncContext) bool { return true }

func (deleteMarkedFilesStep) Execute(ctx context.Context, c *SyncContext) (pipeline.Outcome, error) {
	ids, err := c.SyncLog.ListByStatus(ctx, []db.SyncStatus{
		db.SyncStatusDeletionPending, db.SyncStatusDeletionInProgress,
	})
	if err != nil {
		return pipeline.Abort, fmt.Errorf("listing files pending deletion: %w", err)
	}

	infos, err := c.FileInfo.ListByIDs(ctx, ids)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("loading file_info pending deletion: %w", err)
	}

	c.PendingDeletion = infos

	for _, f := range infos {
		if err := ctx.Err(); err != nil {
			c.logger().Info("cloudsync: deletion cancelled between files",
				slog.Int("remaining", len(infos)))

			return pipeline.Continue, nil
		}

		c.deleteOne(ctx, f)
	}

	return pipeline.Continue, nil
}

func (c *SyncContext) deleteOne(ctx context.Context, f db.FileInfo) {
	key := cloudKey(f)

	c.Progress.Send(capability.ProgressEvent{Type: capability.EventFileStarted, Path: key})

	outcome := FileOutcome{FileInfoID: f.ID, CloudKey: key}

	if _, err := c.appendSyncLog(ctx, f.ID, db.SyncStatusDeletionInProgress, key, ""); err != nil {
		c.logger().Warn("cloudsync: recording deletion_in_progress failed",
			slog.Int64("file_info_id", f.ID), slog.Any("error", err))
		outcome.Err = err
		c.Deletions = append(c.Deletions, outcome)
		c.Summary.DeletionFailed++

		return
	}

	if err := c.CloudStorage.Delete(ctx, key); err != nil {
		outcome.Err = err

		if _, logErr := c.appendSyncLog(ctx, f.ID, db.SyncStatusDeletionFailed, key, err.Error()); logErr != nil {
			c.logger().Warn("cloudsync: recording deletion_failed failed",
				slog.Int64("file_info_id", f.ID), slog.Any("error", logErr))
		}

		c.Progress.Send(capability.ProgressEvent{Type: capability.EventFileFailed, Path: key, Error: err})
		c.Summary.DeletionFailed++
		c.Deletions = append(c.Deletions, outcome)

		return
	}

	outcome.CloudSucceeded = true

	if _, err := c.appendSyncLog(ctx, f.ID, db.SyncStatusDeletionCompleted, key, ""); err != nil {
		c.logger().Warn("cloudsync: deletion succeeded but recording deletion_completed failed",
			slog.Int64("file_info_id", f.ID), slog.Any("error", err))

		outcome.LogSucceeded = false
		c.Summary.PartialSuccess++
		c.Deletions = append(c.Deletions, outcome)

		return
	}

	outcome.LogSucceeded = true
	c.Progress.Send(capability.ProgressEvent{Type: capability.EventFileCompleted, Path: key})
	c.Summary.Deleted++
	c.Deletions = append(c.Deletions, outcome)
}

// appendSyncLog appends a transition for fileInfoID to the log, logging
// (but not rejecting) a transition this package's state diagram does not
// recognise — a log entry describing what the cloud actually did must
// never be dropped because of a local bookkeeping disagreement.
func (c *SyncContext) appendSyncLog(
	ctx context.Context, fileInfoID int64, to db.SyncStatus, key, message string,
) (int64, error) {
	latest, err := c.SyncLog.LatestByFileInfoID(ctx, fileInfoID)
	if err != nil {
		return 0, fmt.Errorf("reading latest sync state for file_info %d: %w", fileInfoID, err)
	}

	from := noPriorState
	if latest != nil {
		from = latest.Status
	}

	if !isValidTransition(from, to) {
		c.logger().Warn("cloudsync: unexpected sync state transition",
			slog.Int64("file_info_id", fileInfoID), slog.String("from", string(from)), slog.String("to", string(to)))
	}

	return c.SyncLog.Append(ctx, db.FileSyncLog{
		FileInfoID: fileInfoID,
		Status:     to,
		CloudKey:   key,
		Message:    message,
		Timestamp:  time.Now().Unix(),
	})
}
