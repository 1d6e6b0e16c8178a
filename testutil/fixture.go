// Package testutil provides a shared fixture for tests that need a
// working AppServices handle without a real collection directory or
// sqlite file on disk: an in-memory store plus fake filesystem, cloud
// storage and credential capabilities, assembled the same way
// services.New assembles the real ones.
package testutil

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/capability/capabilitytest"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/services"
)

// Fixture bundles a fixture-backed AppServices with the fakes behind
// its capability fields, so a test can both drive operations through
// Services and inspect or stage state directly on the fakes (e.g.
// fs.Put before an import, or asserting on cloud.UploadCalls after a
// sync).
type Fixture struct {
	Services *services.AppServices
	FS       *capabilitytest.FileSystem
	Cloud    *capabilitytest.CloudStorage
	Process  *capabilitytest.ProcessRunner
	Dat      *capabilitytest.DatParser

	// Root is a real, empty temp directory backing Services' collection
	// root. Reads and writes of collection blobs go through FS, which is
	// purely virtual and never touches Root. Two paths use the real
	// filesystem instead. Import hashing reads each source file straight
	// off disk, so a test importing a file writes it to a real path and
	// into FS under that same path. RestoreFile downloads commit
	// through the real filesystem directly, the same exception
	// internal/cloudsync's own tests make, so Root must exist on disk
	// for a restore to have somewhere to rename into. A test exercising
	// restore should create Root's <file_type> subdirectory first.
	Root string
}

// New opens an in-memory metadata store and returns a Fixture wired
// around it. The store is closed automatically via t.Cleanup.
func New(t *testing.T) *Fixture {
	t.Helper()

	dbStore, err := db.Open(context.Background(), ":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, dbStore.Close()) })

	root := t.TempDir()
	fs := capabilitytest.NewFileSystem()
	cloud := capabilitytest.NewCloudStorage()
	process := capabilitytest.NewProcessRunner()
	dat := &capabilitytest.DatParser{}

	svc := services.NewFromComponents(
		services.Config{CollectionRoot: root, ScratchRoot: filepath.Join(root, "scratch")},
		slog.Default(),
		services.Components{
			Store:         dbStore,
			FileSystem:    fs,
			ProcessRunner: process,
			DatParser:     dat,
			CloudStorage:  cloud,
			Credentials:   capabilitytest.NewCredentialService(nil),
		},
	)

	return &Fixture{Services: svc, FS: fs, Cloud: cloud, Process: process, Dat: dat, Root: root}
}
