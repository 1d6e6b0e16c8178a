package services

import (
	"context"

	"github.com/arcadekeep/arcadekeep/internal/cloudsync"
	"github.com/arcadekeep/arcadekeep/internal/exporting"
	"github.com/arcadekeep/arcadekeep/internal/importing"
	"github.com/arcadekeep/arcadekeep/internal/maintenance"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

// Each method below builds one pipeline's Deps from the receiver, runs it
// to completion, and returns its finished context (or the partial one, on
// failure, so a caller can inspect what was collected before the error)
// alongside the pipeline's Outcome, so a caller can tell "nothing to do"
// (pipeline.Skip) apart from a completed run without re-deriving pipeline
// internals. Errors are passed through Wrap so the CLI can dispatch on
// Classify instead of inspecting the underlying taxonomy directly.

// AddFileSet imports a new FileSet.
func (s *AppServices) AddFileSet(ctx context.Context, input importing.AddFileSetInput) (*importing.AddFileSetContext, pipeline.Outcome, error) {
	c := &importing.AddFileSetContext{Deps: s.ImportingDeps(), Input: input}

	outcome, err := importing.NewAddFileSetPipeline(c.Deps).Run(ctx, c)

	return c, outcome, Wrap(err)
}

// UpdateFileSet reconciles an existing FileSet's membership against a new
// desired file list.
func (s *AppServices) UpdateFileSet(ctx context.Context, input importing.UpdateFileSetInput) (*importing.UpdateFileSetContext, pipeline.Outcome, error) {
	c := &importing.UpdateFileSetContext{Deps: s.ImportingDeps(), Input: input}

	outcome, err := importing.NewUpdateFileSetPipeline(c.Deps).Run(ctx, c)

	return c, outcome, Wrap(err)
}

// PrepareFileImport classifies candidate source paths as already known to
// the collection or new, without committing anything.
func (s *AppServices) PrepareFileImport(ctx context.Context, input importing.PrepareFileImportInput) (*importing.PrepareFileImportContext, pipeline.Outcome, error) {
	c := &importing.PrepareFileImportContext{Deps: s.ImportingDeps(), Input: input}

	outcome, err := importing.NewPrepareFileImportPipeline(c.Deps).Run(ctx, c)

	return c, outcome, Wrap(err)
}

// MassImportDat runs the DAT-catalogue-assisted mass import strategy.
func (s *AppServices) MassImportDat(ctx context.Context, input importing.MassImportDatInput) (*importing.MassImportDatContext, pipeline.Outcome, error) {
	c := &importing.MassImportDatContext{Deps: s.ImportingDeps(), Input: input}

	outcome, err := importing.NewMassImportDatPipeline(c.Deps).Run(ctx, c)

	return c, outcome, Wrap(err)
}

// MassImportFilename runs the filename-derived mass import strategy.
func (s *AppServices) MassImportFilename(ctx context.Context, input importing.MassImportFilenameInput) (*importing.MassImportFilenameContext, pipeline.Outcome, error) {
	c := &importing.MassImportFilenameContext{Deps: s.ImportingDeps(), Input: input}

	outcome, err := importing.NewMassImportFilenamePipeline(c.Deps).Run(ctx, c)

	return c, outcome, Wrap(err)
}

// ExportFileSet decompresses a FileSet's members into a fresh scratch
// directory.
func (s *AppServices) ExportFileSet(ctx context.Context, input exporting.ExportFileSetInput) (*exporting.ExportFileSetContext, pipeline.Outcome, error) {
	c := &exporting.ExportFileSetContext{Deps: s.ExportingDeps(), Input: input}

	outcome, err := exporting.NewExportFileSetPipeline(c.Deps).Run(ctx, c)

	return c, outcome, Wrap(err)
}

// LaunchExternalProcess decompresses a FileSet and spawns an external
// emulator or viewer against the result.
func (s *AppServices) LaunchExternalProcess(ctx context.Context, input exporting.LaunchExternalProcessInput) (*exporting.LaunchExternalProcessContext, pipeline.Outcome, error) {
	c := &exporting.LaunchExternalProcessContext{Deps: s.ExportingDeps(), Input: input}

	outcome, err := exporting.NewLaunchExternalProcessPipeline(c.Deps).Run(ctx, c)

	return c, outcome, Wrap(err)
}

// SyncToCloud uploads every file pending upload and carries out every
// deletion pending against the cloud replica.
func (s *AppServices) SyncToCloud(ctx context.Context) (*cloudsync.SyncContext, pipeline.Outcome, error) {
	c := &cloudsync.SyncContext{Deps: s.CloudSyncDeps()}

	outcome, err := cloudsync.NewSyncPipeline(c.Deps).Run(ctx, c)

	return c, outcome, Wrap(err)
}

// RestoreFile downloads a FileInfo's blob back onto local disk from the
// cloud replica.
func (s *AppServices) RestoreFile(ctx context.Context, input cloudsync.RestoreFileInput) (*cloudsync.RestoreFileContext, pipeline.Outcome, error) {
	c := &cloudsync.RestoreFileContext{Deps: s.CloudSyncDeps(), Input: input}

	outcome, err := cloudsync.NewRestoreFilePipeline(c.Deps).Run(ctx, c)

	return c, outcome, Wrap(err)
}

// DeleteFileSet removes a FileSet and reclaims any of its members left
// unreferenced elsewhere.
func (s *AppServices) DeleteFileSet(ctx context.Context, input maintenance.FileSetDeletionInput) (*maintenance.FileSetDeletionContext, pipeline.Outcome, error) {
	c := &maintenance.FileSetDeletionContext{Deps: s.MaintenanceDeps(), Input: input}

	outcome, err := maintenance.NewFileSetDeletionPipeline(c.Deps).Run(ctx, c)

	return c, outcome, Wrap(err)
}

// MigrateFileTypes consolidates every FileSet still on a deprecated
// file_type onto its replacement, moving the underlying blobs to match.
func (s *AppServices) MigrateFileTypes(ctx context.Context, input maintenance.FileTypeMigrationInput) (*maintenance.FileTypeMigrationContext, pipeline.Outcome, error) {
	c := &maintenance.FileTypeMigrationContext{Deps: s.MaintenanceDeps(), Input: input}

	outcome, err := maintenance.NewFileTypeMigrationPipeline(c.Deps).Run(ctx, c)

	return c, outcome, Wrap(err)
}
