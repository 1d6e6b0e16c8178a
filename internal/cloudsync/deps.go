// Package cloudsync implements the pipeline that converges the content
// store with an S3-compatible bucket: uploading newly-ingested files and
// carrying out deletions the rest of the system has marked pending,
// recording every transition as an append-only row in file_sync_log.
package cloudsync

import (
	"log/slog"
	"os"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/store"
)

// Deps are the shared dependencies the sync pipeline's context embeds.
type Deps struct {
	FileInfo *db.FileInfoRepo
	SyncLog  *db.FileSyncLogRepo

	Content           *store.ContentStore
	CloudStorage      capability.CloudStorageOps
	CredentialService capability.CredentialService
	Progress          *capability.ProgressChannel

	// Endpoint, Region and Bucket identify the target S3-compatible
	// location; Endpoint is empty for real AWS S3, set for a compatible
	// provider (MinIO, Backblaze B2, etc).
	Endpoint string
	Region   string
	Bucket   string

	// Getenv is consulted for the environment-variable credential tier.
	// Defaults to os.Getenv; overridden in tests.
	Getenv func(string) string

	Logger *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}

	return slog.Default()
}

func (d Deps) getenv() func(string) string {
	if d.Getenv != nil {
		return d.Getenv
	}

	return os.Getenv
}

// cloudKey returns the S3 object key for a FileInfo's physical blob,
// always forward-slash separated regardless of host OS, matching the
// local <file_type_dir>/<archive_name>.zst layout.
func cloudKey(f db.FileInfo) string {
	return f.FileType + "/" + f.ArchiveName + ".zst"
}
