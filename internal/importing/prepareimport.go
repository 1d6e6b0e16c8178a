package importing

import (
	"context"
	"fmt"

	"github.com/arcadekeep/arcadekeep/internal/pipeline"
	"github.com/arcadekeep/arcadekeep/internal/store"
)

// PrepareFileImportInput is the set of candidate source paths the caller is
// considering importing, inspected before any commit.
type PrepareFileImportInput struct {
	Paths []string
}

// FileImportPreview classifies one metadata entry discovered under a
// candidate path (a plain file contributes one entry, an archive many) as
// already known to the collection or new.
type FileImportPreview struct {
	SourcePath   string
	EntryName    string
	SHA1         string
	Size         int64
	AlreadyKnown bool
	Err          error
}

// PrepareFileImportContext is the read-only inspection pipeline's context.
type PrepareFileImportContext struct {
	Deps
	Input PrepareFileImportInput

	Collected []store.CollectedFile
	Previews  []FileImportPreview
}

// NewPrepareFileImportPipeline builds the read-only PrepareFileImport
// pipeline, used by the UI to classify candidate files before the user
// commits to AddFileSet or UpdateFileSet.
func NewPrepareFileImportPipeline(deps Deps) *pipeline.Pipeline[*PrepareFileImportContext] {
	return pipeline.New("prepare_file_import", deps.logger(),
		collectCandidateMetadataStep{},
		crossReferenceExistingStep{},
	)
}

type collectCandidateMetadataStep struct{}

func (collectCandidateMetadataStep) Name() string { return "collect_candidate_metadata" }

func (collectCandidateMetadataStep) ShouldExecute(context.Context, *PrepareFileImportContext) bool {
	return true
}

func (collectCandidateMetadataStep) Execute(
	ctx context.Context, c *PrepareFileImportContext,
) (pipeline.Outcome, error) {
	collected, err := store.CollectFileMetadata(ctx, c.Input.Paths)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("collecting candidate metadata: %w", err)
	}

	c.Collected = collected

	return pipeline.Continue, nil
}

type crossReferenceExistingStep struct{}

func (crossReferenceExistingStep) Name() string { return "cross_reference_existing" }

func (crossReferenceExistingStep) ShouldExecute(context.Context, *PrepareFileImportContext) bool {
	return true
}

func (crossReferenceExistingStep) Execute(
	ctx context.Context, c *PrepareFileImportContext,
) (pipeline.Outcome, error) {
	var sha1s []string

	for _, file := range c.Collected {
		if file.Err != nil {
			continue
		}

		for _, entry := range file.Entries {
			sha1s = append(sha1s, entry.SHA1)
		}
	}

	existing, err := c.FileInfo.ListBySHA1s(ctx, sha1s)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("cross-referencing existing files: %w", err)
	}

	var previews []FileImportPreview

	for _, file := range c.Collected {
		if file.Err != nil {
			previews = append(previews, FileImportPreview{SourcePath: file.Path, Err: file.Err})
			continue
		}

		for _, entry := range file.Entries {
			_, known := existing[entry.SHA1]
			previews = append(previews, FileImportPreview{
				SourcePath:   file.Path,
				EntryName:    entry.RelativePath,
				SHA1:         entry.SHA1,
				Size:         entry.UncompressedSize,
				AlreadyKnown: known,
			})
		}
	}

	c.Previews = previews

	return pipeline.Continue, nil
}
