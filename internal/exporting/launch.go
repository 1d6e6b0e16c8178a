package exporting

import (
	"context"
	"fmt"
	"strings"

	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

// filePlaceholder and dirPlaceholder are substituted into an argument
// template with the primary extracted member's path and the scratch
// directory respectively. The primary member is the one at sort_order 0:
// the ROM or disk image a file set's manual or cover scan accompanies.
const (
	filePlaceholder = "{file}"
	dirPlaceholder  = "{dir}"
)

// LaunchExternalProcessInput describes what to run against a FileSet's
// decompressed contents.
type LaunchExternalProcessInput struct {
	FileSetID    int64
	Executable   string
	ArgsTemplate []string
}

// LaunchExternalProcessContext is the LaunchExternalProcess pipeline's
// mutable context.
type LaunchExternalProcessContext struct {
	Deps
	Input LaunchExternalProcessInput

	FileSet     db.FileSet
	Memberships []db.FileSetMembership
	ScratchDir  string
	Extracted   []ExtractedMember

	Args     []string
	Launched bool
}

// NewLaunchExternalProcessPipeline builds the pipeline that collates a
// FileSet for use by an emulator or document viewer: decompress every
// member into scratch (the same steps ExportFileSet runs), substitute the
// primary extracted path into the caller's argument template, and spawn
// the external process detached from the scratch directory as its working
// directory, so a multi-file set's accompanying manual or disk images
// resolve as siblings of the primary file.
func NewLaunchExternalProcessPipeline(deps Deps) *pipeline.Pipeline[*LaunchExternalProcessContext] {
	return pipeline.New("launch_external_process", deps.logger(),
		loadFileSetForLaunchStep{},
		allocateScratchForLaunchStep{},
		extractMembersForLaunchStep{},
		substituteArgsStep{},
		launchProcessStep{},
	)
}

type loadFileSetForLaunchStep struct{}

func (loadFileSetForLaunchStep) Name() string { return "load_file_set" }

func (loadFileSetForLaunchStep) ShouldExecute(context.Context, *LaunchExternalProcessContext) bool {
	return true
}

func (loadFileSetForLaunchStep) Execute(
	ctx context.Context, c *LaunchExternalProcessContext,
) (pipeline.Outcome, error) {
	fileSet, err := c.FileSets.GetByID(ctx, c.Input.FileSetID)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("loading file set %d: %w", c.Input.FileSetID, err)
	}

	memberships, err := c.FileSets.Memberships(ctx, c.Input.FileSetID)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("loading memberships of file set %d: %w", c.Input.FileSetID, err)
	}

	if len(memberships) == 0 {
		return pipeline.Abort, fmt.Errorf("file set %d has no members to launch", c.Input.FileSetID)
	}

	c.FileSet = *fileSet
	c.Memberships = memberships

	return pipeline.Continue, nil
}

type allocateScratchForLaunchStep struct{}

func (allocateScratchForLaunchStep) Name() string { return "allocate_scratch" }

func (allocateScratchForLaunchStep) ShouldExecute(context.Context, *LaunchExternalProcessContext) bool {
	return true
}

func (allocateScratchForLaunchStep) Execute(
	_ context.Context, c *LaunchExternalProcessContext,
) (pipeline.Outcome, error) {
	dir, err := allocateScratchDir(c.FileSystem, c.ScratchRoot)
	if err != nil {
		return pipeline.Abort, err
	}

	c.ScratchDir = dir

	return pipeline.Continue, nil
}

type extractMembersForLaunchStep struct{}

func (extractMembersForLaunchStep) Name() string { return "extract_members" }

func (extractMembersForLaunchStep) ShouldExecute(context.Context, *LaunchExternalProcessContext) bool {
	return true
}

func (extractMembersForLaunchStep) Execute(
	ctx context.Context, c *LaunchExternalProcessContext,
) (pipeline.Outcome, error) {
	extracted, err := extractFileSetMembers(ctx, c.Deps, c.Memberships, c.ScratchDir)
	if err != nil {
		return pipeline.Abort, err
	}

	c.Extracted = extracted

	return pipeline.Continue, nil
}

type substituteArgsStep struct{}

func (substituteArgsStep) Name() string { return "substitute_args" }

func (substituteArgsStep) ShouldExecute(context.Context, *LaunchExternalProcessContext) bool { return true }

func (substituteArgsStep) Execute(_ context.Context, c *LaunchExternalProcessContext) (pipeline.Outcome, error) {
	primary := c.Extracted[0].Path

	args := make([]string, len(c.Input.ArgsTemplate))
	for i, a := range c.Input.ArgsTemplate {
		a = strings.ReplaceAll(a, filePlaceholder, primary)
		a = strings.ReplaceAll(a, dirPlaceholder, c.ScratchDir)
		args[i] = a
	}

	c.Args = args

	return pipeline.Continue, nil
}

type launchProcessStep struct{}

func (launchProcessStep) Name() string { return "launch_process" }

func (launchProcessStep) ShouldExecute(context.Context, *LaunchExternalProcessContext) bool { return true }

func (launchProcessStep) Execute(_ context.Context, c *LaunchExternalProcessContext) (pipeline.Outcome, error) {
	if err := c.ProcessRunner.Launch(c.Input.Executable, c.Args, c.ScratchDir); err != nil {
		return pipeline.Abort, fmt.Errorf("launching %s: %w", c.Input.Executable, err)
	}

	c.Launched = true

	return pipeline.Continue, nil
}
