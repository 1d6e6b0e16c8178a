package maintenance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

// FileTypeMigrationInput configures a migration run. DryRun populates the
// plan without executing any mutating step.
type FileTypeMigrationInput struct {
	DryRun bool
}

// setMigration is one FileSet's migration plan: the deprecated type it is
// currently on, the consolidated type it is moving to, and, for a legacy
// MediaScan set, the ReleaseItem it should be categorised under.
type setMigration struct {
	FileSet     db.FileSet
	Memberships []db.FileSetMembership
	OldType     string
	NewType     string
	ItemType    string // non-empty only for mediaScanFileType sets
	ReleaseIDs  []int64
}

// moveOutcome records one member FileInfo's local or cloud move, letting
// the mover steps continue past individual failures.
type moveOutcome struct {
	FileInfoID int64
	Err        error
}

// FileTypeMigrationContext is the FileTypeMigration pipeline's mutable
// context.
type FileTypeMigrationContext struct {
	Deps
	Input FileTypeMigrationInput

	Plan       []setMigration
	LocalMoves []moveOutcome
	CloudMoves []moveOutcome
}

// NewFileTypeMigrationPipeline builds the file-type migration pipeline:
// find FileSets on a deprecated file_type, plan their reclassification
// (including the MediaScan filename heuristic), commit the plan to the
// database in one transaction, then move the affected blobs on local
// disk and in the cloud. The two mover steps are idempotent, so
// re-running after a partial failure finishes the job instead of redoing
// completed work.
func NewFileTypeMigrationPipeline(deps Deps) *pipeline.Pipeline[*FileTypeMigrationContext] {
	return pipeline.New("file_type_migration", deps.logger(),
		analyzeDeprecatedSetsStep{},
		planMigrationStep{},
		updateDatabaseStep{},
		moveLocalFilesStep{},
		moveCloudObjectsStep{},
	)
}

type analyzeDeprecatedSetsStep struct{}

func (analyzeDeprecatedSetsStep) Name() string { return "analyze_deprecated_sets" }

func (analyzeDeprecatedSetsStep) ShouldExecute(context.Context, *FileTypeMigrationContext) bool { return true }

func (analyzeDeprecatedSetsStep) Execute(ctx context.Context, c *FileTypeMigrationContext) (pipeline.Outcome, error) {
	for oldType, newType := range deprecatedFileTypes {
		sets, err := c.FileSets.ListByFileType(ctx, oldType)
		if err != nil {
			return pipeline.Abort, fmt.Errorf("listing file sets of deprecated type %s: %w", oldType, err)
		}

		for _, fs := range sets {
			c.Plan = append(c.Plan, setMigration{FileSet: fs, OldType: oldType, NewType: newType})
		}
	}

	if len(c.Plan) == 0 {
		return pipeline.Skip, nil
	}

	return pipeline.Continue, nil
}

type planMigrationStep struct{}

func (planMigrationStep) Name() string { return "plan_migration" }

func (planMigrationStep) ShouldExecute(_ context.Context, c *FileTypeMigrationContext) bool {
	return len(c.Plan) > 0
}

// Execute fills in each planned set's memberships and, for legacy
// MediaScan sets, the target ItemType decided by the filename heuristic
// and the Releases it should be linked to.
func (planMigrationStep) Execute(ctx context.Context, c *FileTypeMigrationContext) (pipeline.Outcome, error) {
	for i := range c.Plan {
		sm := &c.Plan[i]

		memberships, err := c.FileSets.Memberships(ctx, sm.FileSet.ID)
		if err != nil {
			return pipeline.Abort, fmt.Errorf("loading memberships of file set %d: %w", sm.FileSet.ID, err)
		}

		sm.Memberships = memberships

		if sm.OldType != mediaScanFileType {
			continue
		}

		names := make([]string, len(memberships))
		for j, m := range memberships {
			names[j] = m.MemberName
		}

		sm.ItemType = classifyMediaScanItemType(names)

		releaseIDs, err := c.Releases.ReleasesByFileSetID(ctx, sm.FileSet.ID)
		if err != nil {
			return pipeline.Abort, fmt.Errorf("loading releases linking file set %d: %w", sm.FileSet.ID, err)
		}

		sm.ReleaseIDs = releaseIDs
	}

	c.Progress.Send(capability.ProgressEvent{
		Type:    capability.EventSummary,
		Message: fmt.Sprintf("%d file set(s) planned for file-type migration", len(c.Plan)),
	})

	return pipeline.Continue, nil
}

type updateDatabaseStep struct{}

func (updateDatabaseStep) Name() string { return "update_database" }

func (updateDatabaseStep) ShouldExecute(_ context.Context, c *FileTypeMigrationContext) bool {
	return !c.Input.DryRun && len(c.Plan) > 0
}

func (updateDatabaseStep) Execute(ctx context.Context, c *FileTypeMigrationContext) (pipeline.Outcome, error) {
	err := c.Store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, sm := range c.Plan {
			if err := c.FileSets.MigrateFileTypeTx(ctx, tx, sm.FileSet.ID, sm.NewType); err != nil {
				return err
			}

			for _, m := range sm.Memberships {
				if err := c.FileInfo.MigrateFileTypeTx(ctx, tx, m.FileInfoID, sm.NewType); err != nil {
					return err
				}
			}

			if sm.ItemType == "" {
				continue
			}

			for _, releaseID := range sm.ReleaseIDs {
				itemID, err := c.Releases.CreateItemTx(ctx, tx, db.ReleaseItem{
					ReleaseID: releaseID,
					ItemType:  sm.ItemType,
				})
				if err != nil {
					return err
				}

				if err := c.FileSets.LinkItemTx(ctx, tx, sm.FileSet.ID, itemID); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return pipeline.Abort, fmt.Errorf("committing file-type migration plan: %w", err)
	}

	return pipeline.Continue, nil
}

type moveLocalFilesStep struct{}

func (moveLocalFilesStep) Name() string { return "move_local_files" }

func (moveLocalFilesStep) ShouldExecute(_ context.Context, c *FileTypeMigrationContext) bool {
	return !c.Input.DryRun && len(c.Plan) > 0
}

// Execute copies each member's blob from its old file_type directory to
// its new one and removes the old copy. Idempotent: if the old path no
// longer exists, the move is treated as already done (a prior partial
// run already finished it).
func (moveLocalFilesStep) Execute(ctx context.Context, c *FileTypeMigrationContext) (pipeline.Outcome, error) {
	for _, sm := range c.Plan {
		for _, m := range sm.Memberships {
			c.LocalMoves = append(c.LocalMoves, c.moveLocalOne(ctx, m.FileInfoID, sm.OldType, sm.NewType))
		}
	}

	return pipeline.Continue, nil
}

func (c *FileTypeMigrationContext) moveLocalOne(ctx context.Context, fileInfoID int64, oldType, newType string) moveOutcome {
	outcome := moveOutcome{FileInfoID: fileInfoID}

	info, err := c.FileInfo.GetByID(ctx, fileInfoID)
	if err != nil {
		outcome.Err = fmt.Errorf("loading file_info %d: %w", fileInfoID, err)
		return outcome
	}

	oldPath := c.Content.Path(db.FileInfo{FileType: oldType, ArchiveName: info.ArchiveName})
	newPath := c.Content.Path(db.FileInfo{FileType: newType, ArchiveName: info.ArchiveName})

	exists, err := c.FileSystem.Exists(oldPath)
	if err != nil {
		outcome.Err = fmt.Errorf("checking old path for file_info %d: %w", info.ID, err)
		return outcome
	}

	if !exists {
		return outcome
	}

	if err := c.FileSystem.Copy(oldPath, newPath); err != nil {
		outcome.Err = fmt.Errorf("copying file_info %d to new path: %w", info.ID, err)
		return outcome
	}

	if err := c.FileSystem.Remove(oldPath); err != nil {
		outcome.Err = fmt.Errorf("removing old path for file_info %d: %w", info.ID, err)
	}

	return outcome
}

type moveCloudObjectsStep struct{}

func (moveCloudObjectsStep) Name() string { return "move_cloud_objects" }

func (moveCloudObjectsStep) ShouldExecute(_ context.Context, c *FileTypeMigrationContext) bool {
	return !c.Input.DryRun && len(c.Plan) > 0
}

// Execute server-side copies each cloud-present member's object to the
// key implied by its new file_type, then deletes the old key.
// Idempotent: if the new key already exists, the copy is skipped; if the
// old key is already gone, the delete is a no-op on the fake and a
// tolerated not-found on the real client.
func (moveCloudObjectsStep) Execute(ctx context.Context, c *FileTypeMigrationContext) (pipeline.Outcome, error) {
	for _, sm := range c.Plan {
		for _, m := range sm.Memberships {
			latest, err := c.SyncLog.LatestByFileInfoID(ctx, m.FileInfoID)
			if err != nil {
				c.CloudMoves = append(c.CloudMoves, moveOutcome{FileInfoID: m.FileInfoID,
					Err: fmt.Errorf("loading sync state for file_info %d: %w", m.FileInfoID, err)})
				continue
			}

			if latest == nil || !isCloudPresentStatus(latest.Status) {
				continue
			}

			c.CloudMoves = append(c.CloudMoves, c.moveCloudOne(ctx, m.FileInfoID, sm.OldType, sm.NewType))
		}
	}

	return pipeline.Continue, nil
}

func (c *FileTypeMigrationContext) moveCloudOne(ctx context.Context, fileInfoID int64, oldType, newType string) moveOutcome {
	outcome := moveOutcome{FileInfoID: fileInfoID}

	info, err := c.FileInfo.GetByID(ctx, fileInfoID)
	if err != nil {
		outcome.Err = fmt.Errorf("loading file_info %d: %w", fileInfoID, err)
		return outcome
	}

	oldKey := oldType + "/" + info.ArchiveName + ".zst"
	newKey := newType + "/" + info.ArchiveName + ".zst"

	if _, headErr := c.CloudStorage.Head(ctx, newKey); headErr != nil {
		if !isObjectNotFound(headErr) {
			outcome.Err = fmt.Errorf("checking new cloud key for file_info %d: %w", fileInfoID, headErr)
			return outcome
		}

		if err := c.CloudStorage.Copy(ctx, oldKey, newKey); err != nil {
			outcome.Err = fmt.Errorf("copying cloud object for file_info %d: %w", fileInfoID, err)
			return outcome
		}
	}

	if err := c.CloudStorage.Delete(ctx, oldKey); err != nil {
		outcome.Err = fmt.Errorf("deleting old cloud object for file_info %d: %w", fileInfoID, err)
	}

	return outcome
}

func isObjectNotFound(err error) bool {
	var capErr *capability.CloudError
	if errors.As(err, &capErr) {
		return capErr.Kind == capability.CloudErrorObjectNotFound
	}

	return false
}
