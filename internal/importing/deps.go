// Package importing implements the pipelines that bring files into the
// collection: adding and reconciling file sets, inspecting candidate files
// before commit, and the two mass-import strategies (DAT-catalogue assisted
// and filename-derived).
package importing

import (
	"log/slog"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/store"
)

// Deps are the shared dependencies every import pipeline context embeds.
// Steps read these but never construct them; they are wired once by the
// service facade and injected at context creation.
type Deps struct {
	Store    *db.Store
	FileInfo *db.FileInfoRepo
	FileSets *db.FileSetRepo
	Releases *db.ReleaseRepo
	Systems  *db.SystemRepo
	Titles   *db.SoftwareTitleRepo
	SyncLog  *db.FileSyncLogRepo
	Dat      *db.DatRepo

	Content    *store.ContentStore
	FileSystem capability.FileSystemOps
	DatParser  capability.DatCatalogParser
	Progress   *capability.ProgressChannel

	Logger *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}

	return slog.Default()
}
