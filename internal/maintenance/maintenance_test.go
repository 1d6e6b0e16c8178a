package maintenance_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/capability/capabilitytest"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/maintenance"
	"github.com/arcadekeep/arcadekeep/internal/store"
)

// testFixture wires an in-memory metadata store, a fake local filesystem,
// and a fake cloud backend, matching the shape both maintenance
// pipelines' Deps expects.
type testFixture struct {
	deps  maintenance.Deps
	fs    *capabilitytest.FileSystem
	cloud *capabilitytest.CloudStorage
	conn  *sql.DB
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	ctx := context.Background()

	dbStore, err := db.Open(ctx, ":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, dbStore.Close()) })

	fs := capabilitytest.NewFileSystem()
	fileInfo := db.NewFileInfoRepo(dbStore.DB())
	fileSets := db.NewFileSetRepo(dbStore.DB())
	releases := db.NewReleaseRepo(dbStore.DB())
	syncLog := db.NewFileSyncLogRepo(dbStore.DB())
	cloud := capabilitytest.NewCloudStorage()

	content := store.New("/collection", fs, fileInfo, slog.Default())

	deps := maintenance.Deps{
		Store:        dbStore,
		FileInfo:     fileInfo,
		FileSets:     fileSets,
		Releases:     releases,
		SyncLog:      syncLog,
		Content:      content,
		FileSystem:   fs,
		CloudStorage: cloud,
	}

	return &testFixture{deps: deps, fs: fs, cloud: cloud, conn: dbStore.DB()}
}

// seedFileSet ingests each named member's content into the fake local
// filesystem, links the resulting FileInfo rows into a fresh FileSet in
// the given order, and returns the FileSet's ID.
func (f *testFixture) seedFileSet(t *testing.T, fileType string, members map[string][]byte, order []string) int64 {
	t.Helper()

	ctx := context.Background()

	fileSetID, err := f.deps.FileSets.CreateTx(ctx, f.conn, db.FileSet{Name: "fixture set", FileType: fileType})
	require.NoError(t, err)

	for i, name := range order {
		content, ok := members[name]
		require.True(t, ok, "member %s not in members map", name)

		sourcePath := "/source/" + name
		f.fs.Put(sourcePath, content)

		result, err := f.deps.Content.Ingest(ctx, sourcePath, fileType)
		require.NoError(t, err)

		err = f.deps.FileSets.AddMemberTx(ctx, f.conn, db.FileSetMembership{
			FileSetID:  fileSetID,
			FileInfoID: result.FileInfo.ID,
			MemberName: name,
			SortOrder:  i,
		})
		require.NoError(t, err)
	}

	return fileSetID
}
