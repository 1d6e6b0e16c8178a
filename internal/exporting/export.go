package exporting

import (
	"context"
	"fmt"

	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

// ExportFileSetInput names the FileSet to decompress.
type ExportFileSetInput struct {
	FileSetID int64
}

// ExportFileSetContext is the ExportFileSet pipeline's mutable context.
type ExportFileSetContext struct {
	Deps
	Input ExportFileSetInput

	FileSet     db.FileSet
	Memberships []db.FileSetMembership
	ScratchDir  string
	Extracted   []ExtractedMember
}

// NewExportFileSetPipeline builds the pipeline that decompresses a
// FileSet's members into a fresh scratch directory: load the set's current
// membership, allocate scratch space, then extract every member in
// sort_order, verifying each one's integrity as it comes off disk (the
// same check Extract always performs).
func NewExportFileSetPipeline(deps Deps) *pipeline.Pipeline[*ExportFileSetContext] {
	return pipeline.New("export_file_set", deps.logger(),
		loadFileSetStep{},
		allocateScratchStep{},
		extractMembersStep{},
	)
}

type loadFileSetStep struct{}

func (loadFileSetStep) Name() string { return "load_file_set" }

func (loadFileSetStep) ShouldExecute(context.Context, *ExportFileSetContext) bool { return true }

func (loadFileSetStep) Execute(ctx context.Context, c *ExportFileSetContext) (pipeline.Outcome, error) {
	fileSet, err := c.FileSets.GetByID(ctx, c.Input.FileSetID)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("loading file set %d: %w", c.Input.FileSetID, err)
	}

	memberships, err := c.FileSets.Memberships(ctx, c.Input.FileSetID)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("loading memberships of file set %d: %w", c.Input.FileSetID, err)
	}

	if len(memberships) == 0 {
		return pipeline.Abort, fmt.Errorf("file set %d has no members to export", c.Input.FileSetID)
	}

	c.FileSet = *fileSet
	c.Memberships = memberships

	return pipeline.Continue, nil
}

type allocateScratchStep struct{}

func (allocateScratchStep) Name() string { return "allocate_scratch" }

func (allocateScratchStep) ShouldExecute(context.Context, *ExportFileSetContext) bool { return true }

func (allocateScratchStep) Execute(_ context.Context, c *ExportFileSetContext) (pipeline.Outcome, error) {
	dir, err := allocateScratchDir(c.FileSystem, c.ScratchRoot)
	if err != nil {
		return pipeline.Abort, err
	}

	c.ScratchDir = dir

	return pipeline.Continue, nil
}

type extractMembersStep struct{}

func (extractMembersStep) Name() string { return "extract_members" }

func (extractMembersStep) ShouldExecute(context.Context, *ExportFileSetContext) bool { return true }

func (extractMembersStep) Execute(ctx context.Context, c *ExportFileSetContext) (pipeline.Outcome, error) {
	extracted, err := extractFileSetMembers(ctx, c.Deps, c.Memberships, c.ScratchDir)
	if err != nil {
		return pipeline.Abort, err
	}

	c.Extracted = extracted

	return pipeline.Continue, nil
}
