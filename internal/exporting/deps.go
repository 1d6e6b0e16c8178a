// Package exporting implements the pipelines that take a file set back out
// of the content store for consumption by something outside the
// collection: decompressing its members into a scratch directory, and
// optionally handing that directory off to an external emulator or
// document viewer.
package exporting

import (
	"log/slog"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/store"
)

// Deps are the shared dependencies every export pipeline context embeds.
// Wired once by the service facade and injected at context creation, the
// same shape as internal/importing.Deps.
type Deps struct {
	FileSets *db.FileSetRepo
	FileInfo *db.FileInfoRepo

	Content       *store.ContentStore
	FileSystem    capability.FileSystemOps
	ProcessRunner capability.ProcessRunner
	Progress      *capability.ProgressChannel

	// ScratchRoot is the directory under which every export allocates its
	// own per-call subdirectory. Never cleaned up by the pipeline itself;
	// scratch lifetime is the caller's concern (a session-scoped temp dir,
	// or a sweep run on the next launch).
	ScratchRoot string

	Logger *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}

	return slog.Default()
}
