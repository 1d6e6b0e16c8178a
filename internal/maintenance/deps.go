// Package maintenance implements the two housekeeping pipelines that
// operate on the collection after import: removing a FileSet and
// everything it leaves orphaned, and migrating FileSets off a deprecated
// file_type onto its consolidated replacement.
package maintenance

import (
	"log/slog"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/store"
)

// Deps are the shared dependencies both maintenance pipelines embed.
type Deps struct {
	Store    *db.Store
	FileInfo *db.FileInfoRepo
	FileSets *db.FileSetRepo
	Releases *db.ReleaseRepo
	SyncLog  *db.FileSyncLogRepo

	Content      *store.ContentStore
	FileSystem   capability.FileSystemOps
	CloudStorage capability.CloudStorageOps
	Progress     *capability.ProgressChannel

	Logger *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}

	return slog.Default()
}

// isCloudPresentStatus reports whether a FileInfo's latest sync status
// implies the cloud still holds (or very recently held) a replica, the
// same definition internal/importing and internal/cloudsync each keep as
// a small local helper rather than a shared one.
func isCloudPresentStatus(s db.SyncStatus) bool {
	switch s {
	case db.SyncStatusUploadCompleted, db.SyncStatusDeletionPending,
		db.SyncStatusDeletionInProgress, db.SyncStatusDeletionFailed:
		return true
	default:
		return false
	}
}
