package importing_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/capability/capabilitytest"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/importing"
	"github.com/arcadekeep/arcadekeep/internal/store"
)

// testFixture wires an in-memory store, repos, and an in-memory content
// store over a capabilitytest.FileSystem fake, matching the shape every
// import pipeline's Deps expects.
type testFixture struct {
	deps importing.Deps
	fs   *capabilitytest.FileSystem
	dat  *capabilitytest.DatParser
	dir  string // real temp directory classifyInputs hashes source files from
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	ctx := context.Background()

	dbStore, err := db.Open(ctx, ":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, dbStore.Close()) })

	fs := capabilitytest.NewFileSystem()
	fileInfo := db.NewFileInfoRepo(dbStore.DB())
	datParser := &capabilitytest.DatParser{}

	deps := importing.Deps{
		Store:      dbStore,
		FileInfo:   fileInfo,
		FileSets:   db.NewFileSetRepo(dbStore.DB()),
		Releases:   db.NewReleaseRepo(dbStore.DB()),
		Systems:    db.NewSystemRepo(dbStore.DB()),
		Titles:     db.NewSoftwareTitleRepo(dbStore.DB()),
		SyncLog:    db.NewFileSyncLogRepo(dbStore.DB()),
		Dat:        db.NewDatRepo(dbStore.DB()),
		Content:    store.New("/collection", fs, fileInfo, slog.Default()),
		FileSystem: fs,
		DatParser:  datParser,
		Logger:     slog.Default(),
	}

	return &testFixture{deps: deps, fs: fs, dat: datParser, dir: t.TempDir()}
}

// seedFile writes content both to a real temp file (so classifyInputs's
// SHA-1 hashing, which reads straight off disk, sees it) and into the
// capabilitytest.FileSystem fake under the same path (so ContentStore's
// capability-backed Ingest can open it too).
func (f *testFixture) seedFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	f.fs.Put(path, content)

	return path
}

var _ capability.FileSystemOps = (*capabilitytest.FileSystem)(nil)
