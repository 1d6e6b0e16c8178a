package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arcadekeep/arcadekeep/internal/apperr"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

// FileSetDeletionInput names the FileSet to remove.
type FileSetDeletionInput struct {
	FileSetID int64
}

// fileOutcome records what happened to one previously-member FileInfo
// during a FileSet deletion. Per-file failures never abort the run; they
// are recorded here instead.
type fileOutcome struct {
	FileInfo  db.FileInfo
	Deletable bool
	Err       error
}

// FileSetDeletionContext is the FileSetDeletion pipeline's mutable context.
type FileSetDeletionContext struct {
	Deps
	Input FileSetDeletionInput

	FileSet     db.FileSet
	Memberships []db.FileSetMembership
	Outcomes    []fileOutcome
}

// NewFileSetDeletionPipeline builds the deletion pipeline: refuse to
// delete a FileSet still referenced by a Release, then remove the set
// and, for each member FileInfo no longer referenced by anything else,
// reclaim its local blob, mark its cloud replica for deletion if it has
// one, and drop its orphaned row.
func NewFileSetDeletionPipeline(deps Deps) *pipeline.Pipeline[*FileSetDeletionContext] {
	return pipeline.New("file_set_deletion", deps.logger(),
		validateNotReferencedStep{},
		fetchMembersStep{},
		deleteFileSetRowStep{},
		reclaimOrphanedFilesStep{},
	)
}

type validateNotReferencedStep struct{}

func (validateNotReferencedStep) Name() string { return "validate_not_referenced" }

func (validateNotReferencedStep) ShouldExecute(context.Context, *FileSetDeletionContext) bool { return true }

func (validateNotReferencedStep) Execute(ctx context.Context, c *FileSetDeletionContext) (pipeline.Outcome, error) {
	fileSet, err := c.FileSets.GetByID(ctx, c.Input.FileSetID)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("loading file set %d: %w", c.Input.FileSetID, err)
	}

	releaseCount, err := c.FileSets.ReleaseCount(ctx, c.Input.FileSetID)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("counting releases referencing file set %d: %w", c.Input.FileSetID, err)
	}

	if releaseCount > 0 {
		return pipeline.Abort, &apperr.InUseError{Entity: "file_set", ID: c.Input.FileSetID, UsedBy: "release"}
	}

	c.FileSet = *fileSet

	return pipeline.Continue, nil
}

type fetchMembersStep struct{}

func (fetchMembersStep) Name() string { return "fetch_members" }

func (fetchMembersStep) ShouldExecute(context.Context, *FileSetDeletionContext) bool { return true }

func (fetchMembersStep) Execute(ctx context.Context, c *FileSetDeletionContext) (pipeline.Outcome, error) {
	memberships, err := c.FileSets.Memberships(ctx, c.Input.FileSetID)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("loading memberships of file set %d: %w", c.Input.FileSetID, err)
	}

	c.Memberships = memberships

	return pipeline.Continue, nil
}

type deleteFileSetRowStep struct{}

func (deleteFileSetRowStep) Name() string { return "delete_file_set_row" }

func (deleteFileSetRowStep) ShouldExecute(context.Context, *FileSetDeletionContext) bool { return true }

func (deleteFileSetRowStep) Execute(ctx context.Context, c *FileSetDeletionContext) (pipeline.Outcome, error) {
	err := c.Store.WithTx(ctx, func(tx *sql.Tx) error {
		return c.FileSets.DeleteTx(ctx, tx, c.Input.FileSetID)
	})
	if err != nil {
		return pipeline.Abort, fmt.Errorf("deleting file set %d: %w", c.Input.FileSetID, err)
	}

	return pipeline.Continue, nil
}

type reclaimOrphanedFilesStep struct{}

func (reclaimOrphanedFilesStep) Name() string { return "reclaim_orphaned_files" }

func (reclaimOrphanedFilesStep) ShouldExecute(_ context.Context, c *FileSetDeletionContext) bool {
	return len(c.Memberships) > 0
}

// Execute determines, per former member, whether any other FileSet still
// references it, then reclaims local disk space and either marks the
// cloud replica for asynchronous deletion or drops the now-orphaned row
// outright. The file_set_file_info junction row for this set is already
// gone (deleted with the FileSet in the prior step), so ReferenceCount
// here reflects only other sets.
func (reclaimOrphanedFilesStep) Execute(ctx context.Context, c *FileSetDeletionContext) (pipeline.Outcome, error) {
	for _, m := range c.Memberships {
		info, err := c.FileInfo.GetByID(ctx, m.FileInfoID)
		if err != nil {
			c.Outcomes = append(c.Outcomes, fileOutcome{Err: fmt.Errorf("loading file_info %d: %w", m.FileInfoID, err)})
			continue
		}

		c.Outcomes = append(c.Outcomes, c.reclaimOne(ctx, *info))
	}

	return pipeline.Continue, nil
}

func (c *FileSetDeletionContext) reclaimOne(ctx context.Context, info db.FileInfo) fileOutcome {
	outcome := fileOutcome{FileInfo: info}

	refCount, err := c.FileInfo.ReferenceCount(ctx, info.ID)
	if err != nil {
		outcome.Err = fmt.Errorf("counting references to file_info %d: %w", info.ID, err)
		return outcome
	}

	if refCount > 0 {
		// Still used by another FileSet; nothing to reclaim.
		return outcome
	}

	outcome.Deletable = true

	latest, err := c.SyncLog.LatestByFileInfoID(ctx, info.ID)
	if err != nil {
		outcome.Err = fmt.Errorf("loading sync state for file_info %d: %w", info.ID, err)
		return outcome
	}

	cloudPresent := latest != nil && isCloudPresentStatus(latest.Status)

	if err := c.FileSystem.Remove(c.Content.Path(info)); err != nil {
		outcome.Err = fmt.Errorf("removing local file for %d: %w", info.ID, err)
		return outcome
	}

	if cloudPresent {
		_, err := c.SyncLog.Append(ctx, db.FileSyncLog{
			FileInfoID: info.ID,
			Status:     db.SyncStatusDeletionPending,
			CloudKey:   info.FileType + "/" + info.ArchiveName + ".zst",
			Timestamp:  time.Now().Unix(),
		})
		if err != nil {
			outcome.Err = fmt.Errorf("marking file_info %d for cloud deletion: %w", info.ID, err)
			return outcome
		}

		// The FileInfo row is kept so its DeletionPending entry reaches
		// cloudsync; no code removes the row after DeletionCompleted.
		return outcome
	}

	err = c.Store.WithTx(ctx, func(tx *sql.Tx) error {
		return c.FileInfo.DeleteTx(ctx, tx, info.ID)
	})
	if err != nil {
		outcome.Err = fmt.Errorf("deleting orphaned file_info %d: %w", info.ID, err)
	}

	return outcome
}
