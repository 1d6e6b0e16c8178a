package importing_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/importing"
)

func TestUpdateFileSetPipeline_AddsAndRemovesMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	keptPath := f.seedFile(t, "kept.rom", []byte("kept"))
	removedPath := f.seedFile(t, "removed.rom", []byte("removed"))
	addedPath := f.seedFile(t, "added.rom", []byte("added"))

	keptIngest, err := f.deps.Content.Ingest(ctx, keptPath, "rom")
	require.NoError(t, err)
	removedIngest, err := f.deps.Content.Ingest(ctx, removedPath, "rom")
	require.NoError(t, err)

	var fileSetID int64
	require.NoError(t, f.deps.Store.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := f.deps.FileSets.CreateTx(ctx, tx, db.FileSet{Name: "Multi-disk", FileType: "rom"})
		if err != nil {
			return err
		}
		fileSetID = id

		if err := f.deps.FileSets.AddMemberTx(ctx, tx, db.FileSetMembership{
			FileSetID: id, FileInfoID: keptIngest.FileInfo.ID, MemberName: "kept.rom", SortOrder: 0,
		}); err != nil {
			return err
		}

		return f.deps.FileSets.AddMemberTx(ctx, tx, db.FileSetMembership{
			FileSetID: id, FileInfoID: removedIngest.FileInfo.ID, MemberName: "removed.rom", SortOrder: 1,
		})
	}))

	pipe := importing.NewUpdateFileSetPipeline(f.deps)
	pc := &importing.UpdateFileSetContext{
		Deps: f.deps,
		Input: importing.UpdateFileSetInput{
			FileSetID: fileSetID,
			Files: []importing.FileInput{
				{SourcePath: keptPath, MemberName: "kept.rom"},
				{SourcePath: addedPath, MemberName: "added.rom"},
			},
		},
	}

	_, err = pipe.Run(ctx, pc)
	require.NoError(t, err)

	memberships, err := f.deps.FileSets.Memberships(ctx, fileSetID)
	require.NoError(t, err)
	require.Len(t, memberships, 2)

	names := map[string]bool{}
	for _, m := range memberships {
		names[m.MemberName] = true
	}
	assert.True(t, names["kept.rom"])
	assert.True(t, names["added.rom"])
	assert.False(t, names["removed.rom"])

	// removed.rom had no other references, so its FileInfo row is gone.
	_, err = f.deps.FileInfo.GetByID(ctx, removedIngest.FileInfo.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)

	// kept.rom's FileInfo row survives.
	_, err = f.deps.FileInfo.GetByID(ctx, keptIngest.FileInfo.ID)
	assert.NoError(t, err)
}

func TestUpdateFileSetPipeline_KeepsCloudSyncedRemovalsUntilDeletionCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	removedPath := f.seedFile(t, "cloud.rom", []byte("cloud content"))
	removedIngest, err := f.deps.Content.Ingest(ctx, removedPath, "rom")
	require.NoError(t, err)

	_, err = f.deps.SyncLog.Append(ctx, db.FileSyncLog{
		FileInfoID: removedIngest.FileInfo.ID,
		Status:     db.SyncStatusUploadCompleted,
		CloudKey:   "rom/" + removedIngest.FileInfo.ArchiveName + ".zst",
	})
	require.NoError(t, err)

	var fileSetID int64
	require.NoError(t, f.deps.Store.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := f.deps.FileSets.CreateTx(ctx, tx, db.FileSet{Name: "Cloud set", FileType: "rom"})
		if err != nil {
			return err
		}
		fileSetID = id

		return f.deps.FileSets.AddMemberTx(ctx, tx, db.FileSetMembership{
			FileSetID: id, FileInfoID: removedIngest.FileInfo.ID, MemberName: "cloud.rom", SortOrder: 0,
		})
	}))

	pipe := importing.NewUpdateFileSetPipeline(f.deps)
	pc := &importing.UpdateFileSetContext{
		Deps:  f.deps,
		Input: importing.UpdateFileSetInput{FileSetID: fileSetID, Files: nil},
	}

	_, err = pipe.Run(ctx, pc)
	require.NoError(t, err)

	memberships, err := f.deps.FileSets.Memberships(ctx, fileSetID)
	require.NoError(t, err)
	assert.Empty(t, memberships)

	// The FileInfo row survives because it still has cloud presence; a
	// DeletionPending entry was appended for the cloud sync to act on.
	info, err := f.deps.FileInfo.GetByID(ctx, removedIngest.FileInfo.ID)
	require.NoError(t, err)
	assert.Equal(t, removedIngest.FileInfo.SHA1, info.SHA1)

	latest, err := f.deps.SyncLog.LatestByFileInfoID(ctx, removedIngest.FileInfo.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, db.SyncStatusDeletionPending, latest.Status)

	removedLocal, ok := f.fs.Get(f.deps.Content.Path(removedIngest.FileInfo))
	assert.False(t, ok)
	assert.Nil(t, removedLocal)
}
