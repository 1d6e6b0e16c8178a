package importing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

// UpdateFileSetInput describes the desired membership of an existing
// FileSet after reconciliation.
type UpdateFileSetInput struct {
	FileSetID int64
	Files     []FileInput
}

// removalCandidate is a current member not present in the desired input,
// annotated with whether it is safe to delete outright.
type removalCandidate struct {
	FileInfo     db.FileInfo
	Deletable    bool // referenced by no other FileSet
	CloudPresent bool // has reached UploadCompleted at least once
}

// UpdateFileSetContext is the UpdateFileSet pipeline's mutable context.
type UpdateFileSetContext struct {
	Deps
	Input UpdateFileSetInput

	CurrentFileSet  db.FileSet
	Memberships     []db.FileSetMembership
	Removals        []removalCandidate
	Classifications []FileClassification // desired final membership, in order
}

// NewUpdateFileSetPipeline builds the UpdateFileSet pipeline: fetch
// current state, classify the desired input and determine removals,
// reconcile removals (delete or mark for cloud deletion, unlink, drop
// orphans), import additions, then rewrite the junction and mark
// additions for upload.
func NewUpdateFileSetPipeline(deps Deps) *pipeline.Pipeline[*UpdateFileSetContext] {
	return pipeline.New("update_file_set", deps.logger(),
		fetchCurrentStateStep{},
		classifyAndPlanStep{},
		reconcileRemovalsStep{},
		importAdditionsStep{},
		commitMembershipStep{},
	)
}

type fetchCurrentStateStep struct{}

func (fetchCurrentStateStep) Name() string { return "fetch_current_state" }

func (fetchCurrentStateStep) ShouldExecute(context.Context, *UpdateFileSetContext) bool { return true }

func (fetchCurrentStateStep) Execute(ctx context.Context, c *UpdateFileSetContext) (pipeline.Outcome, error) {
	fileSet, err := c.FileSets.GetByID(ctx, c.Input.FileSetID)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("loading file set %d: %w", c.Input.FileSetID, err)
	}

	memberships, err := c.FileSets.Memberships(ctx, c.Input.FileSetID)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("loading memberships of file set %d: %w", c.Input.FileSetID, err)
	}

	c.CurrentFileSet = *fileSet
	c.Memberships = memberships

	return pipeline.Continue, nil
}

type classifyAndPlanStep struct{}

func (classifyAndPlanStep) Name() string { return "classify_and_plan" }

func (classifyAndPlanStep) ShouldExecute(context.Context, *UpdateFileSetContext) bool { return true }

func (classifyAndPlanStep) Execute(ctx context.Context, c *UpdateFileSetContext) (pipeline.Outcome, error) {
	classifications, err := classifyInputs(ctx, c.FileInfo, c.Input.Files)
	if err != nil {
		return pipeline.Abort, err
	}

	c.Classifications = classifications

	kept := make(map[int64]bool, len(classifications))

	for _, cl := range classifications {
		if !cl.IsNew() {
			kept[cl.Existing.ID] = true
		}
	}

	var removalIDs []int64

	for _, m := range c.Memberships {
		if !kept[m.FileInfoID] {
			removalIDs = append(removalIDs, m.FileInfoID)
		}
	}

	removals := make([]removalCandidate, 0, len(removalIDs))

	for _, id := range removalIDs {
		info, err := c.FileInfo.GetByID(ctx, id)
		if err != nil {
			return pipeline.Abort, fmt.Errorf("loading removal candidate %d: %w", id, err)
		}

		refCount, err := c.FileInfo.ReferenceCount(ctx, id)
		if err != nil {
			return pipeline.Abort, fmt.Errorf("counting references to %d: %w", id, err)
		}

		latest, err := c.SyncLog.LatestByFileInfoID(ctx, id)
		if err != nil {
			return pipeline.Abort, fmt.Errorf("loading sync state for %d: %w", id, err)
		}

		removals = append(removals, removalCandidate{
			FileInfo:     *info,
			Deletable:    refCount <= 1,
			CloudPresent: latest != nil && isCloudPresentSyncStatus(latest.Status),
		})
	}

	c.Removals = removals

	return pipeline.Continue, nil
}

func isCloudPresentSyncStatus(status db.SyncStatus) bool {
	switch status {
	case db.SyncStatusUploadCompleted, db.SyncStatusDeletionPending,
		db.SyncStatusDeletionInProgress, db.SyncStatusDeletionFailed:
		return true
	default:
		return false
	}
}

type reconcileRemovalsStep struct{}

func (reconcileRemovalsStep) Name() string { return "reconcile_removals" }

func (reconcileRemovalsStep) ShouldExecute(_ context.Context, c *UpdateFileSetContext) bool {
	return len(c.Removals) > 0
}

// Execute deletes deletable removal candidates' local blobs, marks
// cloud-synced ones for asynchronous deletion, unlinks every removal from
// the set, and drops the FileInfo row for candidates with no cloud
// presence left to reconcile. Cloud-synced candidates keep their FileInfo
// row; no code removes it after the cloud sync subsystem records
// DeletionCompleted.
func (reconcileRemovalsStep) Execute(ctx context.Context, c *UpdateFileSetContext) (pipeline.Outcome, error) {
	for _, r := range c.Removals {
		if !r.Deletable {
			continue
		}

		if err := c.FileSystem.Remove(c.Content.Path(r.FileInfo)); err != nil {
			return pipeline.Abort, fmt.Errorf("removing local file for %d: %w", r.FileInfo.ID, err)
		}

		if r.CloudPresent {
			_, err := c.SyncLog.Append(ctx, db.FileSyncLog{
				FileInfoID: r.FileInfo.ID,
				Status:     db.SyncStatusDeletionPending,
				CloudKey:   fmt.Sprintf("%s/%s.zst", r.FileInfo.FileType, r.FileInfo.ArchiveName),
				Timestamp:  time.Now().Unix(),
			})
			if err != nil {
				return pipeline.Abort, fmt.Errorf("marking %d for cloud deletion: %w", r.FileInfo.ID, err)
			}
		}
	}

	err := c.Store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, r := range c.Removals {
			if err := c.FileSets.RemoveMemberTx(ctx, tx, c.Input.FileSetID, r.FileInfo.ID); err != nil {
				return err
			}

			if r.Deletable && !r.CloudPresent {
				if err := c.FileInfo.DeleteTx(ctx, tx, r.FileInfo.ID); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return pipeline.Abort, fmt.Errorf("unlinking removed members: %w", err)
	}

	return pipeline.Continue, nil
}

type importAdditionsStep struct{}

func (importAdditionsStep) Name() string { return "import_additions" }

func (importAdditionsStep) ShouldExecute(context.Context, *UpdateFileSetContext) bool { return true }

func (importAdditionsStep) Execute(ctx context.Context, c *UpdateFileSetContext) (pipeline.Outcome, error) {
	for i, cl := range c.Classifications {
		if !cl.IsNew() {
			continue
		}

		result, err := c.Content.Ingest(ctx, cl.SourcePath, c.CurrentFileSet.FileType)
		if err != nil {
			return pipeline.Abort, fmt.Errorf("importing %s: %w", cl.SourcePath, err)
		}

		c.Classifications[i].Existing = &result.FileInfo
	}

	return pipeline.Continue, nil
}

type commitMembershipStep struct{}

func (commitMembershipStep) Name() string { return "commit_membership" }

func (commitMembershipStep) ShouldExecute(context.Context, *UpdateFileSetContext) bool { return true }

func (commitMembershipStep) Execute(ctx context.Context, c *UpdateFileSetContext) (pipeline.Outcome, error) {
	err := c.Store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, m := range c.Memberships {
			if err := c.FileSets.RemoveMemberTx(ctx, tx, c.Input.FileSetID, m.FileInfoID); err != nil {
				return err
			}
		}

		for i, cl := range c.Classifications {
			if err := c.FileSets.AddMemberTx(ctx, tx, db.FileSetMembership{
				FileSetID:  c.Input.FileSetID,
				FileInfoID: cl.Existing.ID,
				MemberName: cl.MemberName,
				SortOrder:  i,
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return pipeline.Abort, fmt.Errorf("rewriting file set membership: %w", err)
	}

	for _, cl := range c.Classifications {
		isAddition := true
		for _, m := range c.Memberships {
			if m.FileInfoID == cl.Existing.ID {
				isAddition = false
				break
			}
		}

		if !isAddition {
			continue
		}

		_, err := c.SyncLog.Append(ctx, db.FileSyncLog{
			FileInfoID: cl.Existing.ID,
			Status:     db.SyncStatusUploadPending,
			CloudKey:   fmt.Sprintf("%s/%s.zst", c.CurrentFileSet.FileType, cl.Existing.ArchiveName),
			Timestamp:  time.Now().Unix(),
		})
		if err != nil {
			return pipeline.Abort, fmt.Errorf("marking %s for upload: %w", cl.Existing.ArchiveName, err)
		}
	}

	return pipeline.Continue, nil
}
