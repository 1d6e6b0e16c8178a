package importing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

// AddFileSetInput is the caller-supplied description of a new FileSet.
type AddFileSetInput struct {
	ReleaseID int64
	Name      string
	FileType  string
	Files     []FileInput
	ItemIDs   []int64
}

// AddFileSetContext is the AddFileSet pipeline's mutable context: shared
// dependencies, the caller's input, and the state each step accumulates.
type AddFileSetContext struct {
	Deps
	Input AddFileSetInput

	Classifications []FileClassification
	FileSetID       int64
}

// NewAddFileSetPipeline builds the AddFileSet pipeline: check existing
// files, import new ones, commit the FileSet and its links in one
// transaction, then mark new files for upload.
func NewAddFileSetPipeline(deps Deps) *pipeline.Pipeline[*AddFileSetContext] {
	return pipeline.New("add_file_set", deps.logger(),
		checkExistingFilesStep{},
		importFilesStep{},
		updateDatabaseStep{},
		markNewFilesForCloudSyncStep{},
	)
}

type checkExistingFilesStep struct{}

func (checkExistingFilesStep) Name() string { return "check_existing_files" }

func (checkExistingFilesStep) ShouldExecute(context.Context, *AddFileSetContext) bool { return true }

func (checkExistingFilesStep) Execute(ctx context.Context, c *AddFileSetContext) (pipeline.Outcome, error) {
	classifications, err := classifyInputs(ctx, c.FileInfo, c.Input.Files)
	if err != nil {
		return pipeline.Abort, err
	}

	c.Classifications = classifications

	return pipeline.Continue, nil
}

type importFilesStep struct{}

func (importFilesStep) Name() string { return "import_files" }

func (importFilesStep) ShouldExecute(context.Context, *AddFileSetContext) bool { return true }

func (importFilesStep) Execute(ctx context.Context, c *AddFileSetContext) (pipeline.Outcome, error) {
	for i, cl := range c.Classifications {
		if !cl.IsNew() {
			continue
		}

		result, err := c.Content.Ingest(ctx, cl.SourcePath, c.Input.FileType)
		if err != nil {
			return pipeline.Abort, fmt.Errorf("importing %s: %w", cl.SourcePath, err)
		}

		c.Classifications[i].Existing = &result.FileInfo
	}

	return pipeline.Continue, nil
}

type updateDatabaseStep struct{}

func (updateDatabaseStep) Name() string { return "update_database" }

func (updateDatabaseStep) ShouldExecute(context.Context, *AddFileSetContext) bool { return true }

func (updateDatabaseStep) Execute(ctx context.Context, c *AddFileSetContext) (pipeline.Outcome, error) {
	err := c.Store.WithTx(ctx, func(tx *sql.Tx) error {
		fileSetID, err := c.FileSets.CreateTx(ctx, tx, db.FileSet{Name: c.Input.Name, FileType: c.Input.FileType})
		if err != nil {
			return err
		}

		for i, cl := range c.Classifications {
			if err := c.FileSets.AddMemberTx(ctx, tx, db.FileSetMembership{
				FileSetID:  fileSetID,
				FileInfoID: cl.Existing.ID,
				MemberName: cl.MemberName,
				SortOrder:  i,
			}); err != nil {
				return err
			}
		}

		if err := c.Releases.LinkFileSetTx(ctx, tx, c.Input.ReleaseID, fileSetID); err != nil {
			return err
		}

		for _, itemID := range c.Input.ItemIDs {
			if err := c.FileSets.LinkItemTx(ctx, tx, fileSetID, itemID); err != nil {
				return err
			}
		}

		c.FileSetID = fileSetID

		return nil
	})
	if err != nil {
		return pipeline.Abort, fmt.Errorf("committing new file set: %w", err)
	}

	return pipeline.Continue, nil
}

type markNewFilesForCloudSyncStep struct{}

func (markNewFilesForCloudSyncStep) Name() string { return "mark_new_files_for_cloud_sync" }

func (markNewFilesForCloudSyncStep) ShouldExecute(context.Context, *AddFileSetContext) bool { return true }

func (markNewFilesForCloudSyncStep) Execute(ctx context.Context, c *AddFileSetContext) (pipeline.Outcome, error) {
	for _, cl := range c.Classifications {
		if !cl.IsNew() {
			continue
		}

		_, err := c.SyncLog.Append(ctx, db.FileSyncLog{
			FileInfoID: cl.Existing.ID,
			Status:     db.SyncStatusUploadPending,
			CloudKey:   fmt.Sprintf("%s/%s.zst", c.Input.FileType, cl.Existing.ArchiveName),
			Timestamp:  time.Now().Unix(),
		})
		if err != nil {
			return pipeline.Abort, fmt.Errorf("marking %s for upload: %w", cl.Existing.ArchiveName, err)
		}
	}

	return pipeline.Continue, nil
}
