package importing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

// MassImportFilenameInput selects the directory to scan and the file_type
// newly-created FileSets are assigned.
type MassImportFilenameInput struct {
	SourceDir string
	FileType  string
}

// MassImportFilenameContext is the filename-mode mass import pipeline's
// context.
type MassImportFilenameContext struct {
	Deps
	Input MassImportFilenameInput

	Candidates []FileClassification
	Results    []MassImportItemResult
}

// NewMassImportFilenamePipeline builds the filename-mode mass import
// pipeline: scan the directory, filter out files already known by
// SHA-1, then create one FileSet, Release, and SoftwareTitle per
// remaining file, each in its own transaction.
func NewMassImportFilenamePipeline(deps Deps) *pipeline.Pipeline[*MassImportFilenameContext] {
	return pipeline.New("mass_import_filename", deps.logger(),
		scanSourceDirStep{},
		filterKnownFilesStep{},
		createPerFileRecordsStep{},
	)
}

type scanSourceDirStep struct{}

func (scanSourceDirStep) Name() string { return "scan_source_directory" }

func (scanSourceDirStep) ShouldExecute(context.Context, *MassImportFilenameContext) bool { return true }

func (scanSourceDirStep) Execute(ctx context.Context, c *MassImportFilenameContext) (pipeline.Outcome, error) {
	paths, err := c.FileSystem.ReadDir(c.Input.SourceDir)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("scanning %s: %w", c.Input.SourceDir, err)
	}

	files := make([]FileInput, len(paths))
	for i, p := range paths {
		files[i] = FileInput{SourcePath: p}
	}

	classifications, err := classifyInputs(ctx, c.FileInfo, files)
	if err != nil {
		return pipeline.Abort, err
	}

	c.Candidates = classifications

	return pipeline.Continue, nil
}

type filterKnownFilesStep struct{}

func (filterKnownFilesStep) Name() string { return "filter_known_files" }

func (filterKnownFilesStep) ShouldExecute(context.Context, *MassImportFilenameContext) bool { return true }

func (filterKnownFilesStep) Execute(_ context.Context, c *MassImportFilenameContext) (pipeline.Outcome, error) {
	fresh := make([]FileClassification, 0, len(c.Candidates))

	for _, cl := range c.Candidates {
		if !cl.IsNew() {
			c.Results = append(c.Results, MassImportItemResult{SourcePath: cl.SourcePath, Skipped: true})
			continue
		}

		fresh = append(fresh, cl)
	}

	c.Candidates = fresh

	return pipeline.Continue, nil
}

type createPerFileRecordsStep struct{}

func (createPerFileRecordsStep) Name() string { return "create_per_file_records" }

func (createPerFileRecordsStep) ShouldExecute(context.Context, *MassImportFilenameContext) bool { return true }

func (createPerFileRecordsStep) Execute(
	ctx context.Context, c *MassImportFilenameContext,
) (pipeline.Outcome, error) {
	for _, cl := range c.Candidates {
		select {
		case <-ctx.Done():
			return pipeline.Abort, ctx.Err()
		default:
		}

		result := c.importOneFile(ctx, cl)
		c.Results = append(c.Results, result)
	}

	return pipeline.Continue, nil
}

func (c *MassImportFilenameContext) importOneFile(ctx context.Context, cl FileClassification) MassImportItemResult {
	sendProgress(c.Progress, capability.ProgressEvent{Type: capability.EventFileStarted, Path: cl.SourcePath})

	releaseName, titleName := DeriveNames(StemFromPath(cl.SourcePath))
	result := MassImportItemResult{SourcePath: cl.SourcePath, ReleaseName: releaseName, TitleName: titleName}

	ingested, err := c.Content.Ingest(ctx, cl.SourcePath, c.Input.FileType)
	if err != nil {
		result.Err = fmt.Errorf("importing %s: %w", cl.SourcePath, err)
		sendProgress(c.Progress, capability.ProgressEvent{Type: capability.EventFileFailed, Path: cl.SourcePath, Error: result.Err})

		return result
	}

	err = c.Store.WithTx(ctx, func(tx *sql.Tx) error {
		fileSetID, err := c.FileSets.CreateTx(ctx, tx, db.FileSet{Name: releaseName, FileType: c.Input.FileType})
		if err != nil {
			return err
		}

		if err := c.FileSets.AddMemberTx(ctx, tx, db.FileSetMembership{
			FileSetID: fileSetID, FileInfoID: ingested.FileInfo.ID,
			MemberName: cl.SourcePath, SortOrder: 0,
		}); err != nil {
			return err
		}

		releaseID, err := c.Releases.CreateTx(ctx, tx, releaseName)
		if err != nil {
			return err
		}

		if err := c.Releases.LinkFileSetTx(ctx, tx, releaseID, fileSetID); err != nil {
			return err
		}

		titleID, err := c.Titles.CreateTx(ctx, tx, titleName)
		if err != nil {
			return err
		}

		if err := c.Releases.LinkSoftwareTitleTx(ctx, tx, releaseID, titleID); err != nil {
			return err
		}

		result.ReleaseID = releaseID
		result.FileSetID = fileSetID
		result.SoftwareTitleID = titleID

		return nil
	})
	if err != nil {
		result.Err = fmt.Errorf("committing %s: %w", cl.SourcePath, err)
		sendProgress(c.Progress, capability.ProgressEvent{Type: capability.EventFileFailed, Path: cl.SourcePath, Error: result.Err})

		return result
	}

	if !ingested.Deduplicated {
		_, err := c.SyncLog.Append(ctx, db.FileSyncLog{
			FileInfoID: ingested.FileInfo.ID,
			Status:     db.SyncStatusUploadPending,
			CloudKey:   fmt.Sprintf("%s/%s.zst", c.Input.FileType, ingested.FileInfo.ArchiveName),
			Timestamp:  time.Now().Unix(),
		})
		if err != nil {
			result.Err = fmt.Errorf("marking %s for upload: %w", cl.SourcePath, err)
			return result
		}
	}

	sendProgress(c.Progress, capability.ProgressEvent{Type: capability.EventFileCompleted, Path: cl.SourcePath})

	return result
}
