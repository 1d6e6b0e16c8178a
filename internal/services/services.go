// Package services aggregates every pipeline package behind one
// constructed handle: a single place that opens the metadata store, wires
// the capability implementations, and builds each package's Deps, so the
// CLI layer (and any other caller) deals with one resolved object instead
// of open-coding repository construction and Deps literals itself.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/cloudsync"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/exporting"
	"github.com/arcadekeep/arcadekeep/internal/importing"
	"github.com/arcadekeep/arcadekeep/internal/maintenance"
	"github.com/arcadekeep/arcadekeep/internal/store"
	"github.com/arcadekeep/arcadekeep/internal/view"
)

// progressBufferSize bounds the channel every AppServices hands to a
// pipeline's Deps. A bounded buffer merely reduces how often a fast
// producer blocks on a slow CLI consumer; it carries no backpressure
// semantics of its own.
const progressBufferSize = 64

// Config is everything AppServices needs to construct its dependency
// graph. The CLI layer fills this in from resolved configuration; this
// package intentionally does not depend on internal/config so the two can
// be tested independently.
type Config struct {
	// CollectionRoot is the directory the content store organizes blobs
	// under, as <file_type_dir>/<archive_name>.zst.
	CollectionRoot string

	// DatabasePath is the sqlite file's path, passed to db.Open as-is
	// (callers wanting in-memory pass ":memory:").
	DatabasePath string

	// ScratchRoot is the directory export and launch pipelines allocate
	// per-call subdirectories under.
	ScratchRoot string

	// CredentialsPath is the file-backed CredentialService's cache file.
	CredentialsPath string

	// S3Endpoint, S3Region and S3Bucket identify the sync target.
	// S3Endpoint is empty for real AWS S3.
	S3Endpoint string
	S3Region   string
	S3Bucket   string

	// LauncherPath, when set, is the executable the LaunchExternalProcess
	// pipeline can be pointed at without the caller wiring capability
	// implementations itself. Unused by AppServices directly; exposed for
	// CLI commands that need a default.
	LauncherPath string
}

// AppServices is the constructed dependency graph: one metadata store
// connection, one content store, one set of capability implementations,
// shared by every pipeline package's Deps.
type AppServices struct {
	cfg    Config
	logger *slog.Logger

	Store    *db.Store
	FileInfo *db.FileInfoRepo
	FileSets *db.FileSetRepo
	Releases *db.ReleaseRepo
	Systems  *db.SystemRepo
	Titles   *db.SoftwareTitleRepo
	SyncLog  *db.FileSyncLogRepo
	Dat      *db.DatRepo

	Content       *store.ContentStore
	View          *view.Assembler
	FileSystem    capability.FileSystemOps
	ProcessRunner capability.ProcessRunner
	DatParser     capability.DatCatalogParser
	CloudStorage  capability.CloudStorageOps
	Credentials   capability.CredentialService

	// Progress is shared across every operation run through this handle.
	// A CLI command drains Events on its own goroutine while the pipeline
	// runs; nothing blocks if no one is listening, since ProgressChannel's
	// Send is a documented nil-receiver-safe no-op and AppServices always
	// constructs a real, buffered one.
	Progress *capability.ProgressChannel
}

// New opens the metadata store at cfg.DatabasePath, running pending
// migrations, and constructs every repository and capability
// implementation AppServices exposes. Call Close when done.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*AppServices, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbStore, err := db.Open(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("services: opening metadata store: %w", err)
	}

	return NewFromComponents(cfg, logger, Components{
		Store:         dbStore,
		FileSystem:    capability.NewOSFileSystem(),
		ProcessRunner: capability.NewOSProcessRunner(),
		DatParser:     capability.NewXMLDatCatalogParser(),
		CloudStorage:  capability.NewS3CloudStorage(),
		Credentials:   capability.NewFileCredentialService(cfg.CredentialsPath),
	}), nil
}

// Components is the set of already-constructed dependencies
// NewFromComponents assembles an AppServices from. It exists so callers
// outside this package — chiefly test fixtures — can hand in an
// in-memory store and fake capability implementations without going
// through New, which always opens a real sqlite file and wires the real
// OS filesystem and S3 client.
type Components struct {
	Store         *db.Store
	FileSystem    capability.FileSystemOps
	ProcessRunner capability.ProcessRunner
	DatParser     capability.DatCatalogParser
	CloudStorage  capability.CloudStorageOps
	Credentials   capability.CredentialService
}

// NewFromComponents builds the repository set and Content store around
// an already-open Store and wires in the given capability
// implementations. It does not take ownership of Store; the caller
// closes it.
func NewFromComponents(cfg Config, logger *slog.Logger, c Components) *AppServices {
	if logger == nil {
		logger = slog.Default()
	}

	fileInfo := db.NewFileInfoRepo(c.Store.DB())
	fileSets := db.NewFileSetRepo(c.Store.DB())
	releases := db.NewReleaseRepo(c.Store.DB())
	systems := db.NewSystemRepo(c.Store.DB())
	titles := db.NewSoftwareTitleRepo(c.Store.DB())
	syncLog := db.NewFileSyncLogRepo(c.Store.DB())
	dat := db.NewDatRepo(c.Store.DB())

	content := store.New(cfg.CollectionRoot, c.FileSystem, fileInfo, logger)

	return &AppServices{
		cfg:    cfg,
		logger: logger,

		Store:    c.Store,
		FileInfo: fileInfo,
		FileSets: fileSets,
		Releases: releases,
		Systems:  systems,
		Titles:   titles,
		SyncLog:  syncLog,
		Dat:      dat,

		Content:       content,
		View:          view.New(releases, fileSets, fileInfo, systems, titles, syncLog, c.FileSystem, content),
		FileSystem:    c.FileSystem,
		ProcessRunner: c.ProcessRunner,
		DatParser:     c.DatParser,
		CloudStorage:  c.CloudStorage,
		Credentials:   c.Credentials,

		Progress: capability.NewProgressChannel(progressBufferSize),
	}
}

// Close releases the metadata store connection.
func (s *AppServices) Close() error {
	return s.Store.Close()
}

func (s *AppServices) logAt() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}

	return slog.Default()
}

// ImportingDeps builds the Deps every importing pipeline context embeds.
func (s *AppServices) ImportingDeps() importing.Deps {
	return importing.Deps{
		Store:      s.Store,
		FileInfo:   s.FileInfo,
		FileSets:   s.FileSets,
		Releases:   s.Releases,
		Systems:    s.Systems,
		Titles:     s.Titles,
		SyncLog:    s.SyncLog,
		Dat:        s.Dat,
		Content:    s.Content,
		FileSystem: s.FileSystem,
		DatParser:  s.DatParser,
		Progress:   s.Progress,
		Logger:     s.logAt(),
	}
}

// ExportingDeps builds the Deps every exporting pipeline context embeds.
func (s *AppServices) ExportingDeps() exporting.Deps {
	return exporting.Deps{
		FileSets:      s.FileSets,
		FileInfo:      s.FileInfo,
		Content:       s.Content,
		FileSystem:    s.FileSystem,
		ProcessRunner: s.ProcessRunner,
		Progress:      s.Progress,
		ScratchRoot:   s.cfg.ScratchRoot,
		Logger:        s.logAt(),
	}
}

// CloudSyncDeps builds the Deps the cloud-sync and restore pipelines
// embed.
func (s *AppServices) CloudSyncDeps() cloudsync.Deps {
	return cloudsync.Deps{
		FileInfo:          s.FileInfo,
		SyncLog:           s.SyncLog,
		Content:           s.Content,
		CloudStorage:      s.CloudStorage,
		CredentialService: s.Credentials,
		Progress:          s.Progress,
		Endpoint:          s.cfg.S3Endpoint,
		Region:            s.cfg.S3Region,
		Bucket:            s.cfg.S3Bucket,
		Logger:            s.logAt(),
	}
}

// MaintenanceDeps builds the Deps the deletion and migration pipelines
// embed.
func (s *AppServices) MaintenanceDeps() maintenance.Deps {
	return maintenance.Deps{
		Store:        s.Store,
		FileInfo:     s.FileInfo,
		FileSets:     s.FileSets,
		Releases:     s.Releases,
		SyncLog:      s.SyncLog,
		Content:      s.Content,
		FileSystem:   s.FileSystem,
		CloudStorage: s.CloudStorage,
		Progress:     s.Progress,
		Logger:       s.logAt(),
	}
}
