package exporting_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/capability/capabilitytest"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/exporting"
	"github.com/arcadekeep/arcadekeep/internal/store"
)

// testFixture wires an in-memory metadata store and content store over a
// capabilitytest.FileSystem fake, matching the shape every export
// pipeline's Deps expects.
type testFixture struct {
	deps exporting.Deps
	fs   *capabilitytest.FileSystem
	proc *capabilitytest.ProcessRunner
	conn *sql.DB
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
	proc := capabilitytest.NewProcessRunner()

	content := store.New("/collection", fs, fileInfo, slog.Default())

	deps := exporting.Deps{
		FileSets:      fileSets,
		FileInfo:      fileInfo,
		Content:       content,
		FileSystem:    fs,
		ProcessRunner: proc,
		ScratchRoot:   "/scratch",
	}

	return &testFixture{deps: deps, fs: fs, proc: proc, conn: dbStore.DB()}
}

// seedFileSet ingests each named member's content (seeded into the fake
// filesystem under its member name so Content.Ingest can read it), links
// the resulting FileInfo rows into a fresh FileSet in the given order, and
// returns the FileSet's ID.
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
