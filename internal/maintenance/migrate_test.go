package maintenance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/maintenance"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

func TestFileTypeMigrationPipeline_ConsolidatesScanVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fileSetID := f.seedFileSet(t, "box_scan", map[string][]byte{"cover.jpg": []byte("box art bytes")}, []string{"cover.jpg"})

	pipe := maintenance.NewFileTypeMigrationPipeline(f.deps)
	c := &maintenance.FileTypeMigrationContext{Deps: f.deps}

	outcome, err := pipe.Run(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Continue, outcome)

	migrated, err := f.deps.FileSets.GetByID(ctx, fileSetID)
	require.NoError(t, err)
	assert.Equal(t, "Scan", migrated.FileType)

	memberships, err := f.deps.FileSets.Memberships(ctx, fileSetID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)

	info, err := f.deps.FileInfo.GetByID(ctx, memberships[0].FileInfoID)
	require.NoError(t, err)
	assert.Equal(t, "Scan", info.FileType)

	_, ok := f.fs.Get("/collection/Scan/" + info.ArchiveName + ".zst")
	assert.True(t, ok, "blob should have moved into the new file_type directory")

	_, stillOld := f.fs.Get("/collection/box_scan/" + info.ArchiveName + ".zst")
	assert.False(t, stillOld, "old path should be removed after a successful move")
}

func TestFileTypeMigrationPipeline_MediaScanCreatesReleaseItemFromFilenameHeuristic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fileSetID := f.seedFileSet(t, "media_scan",
		map[string][]byte{"instruction_manual_page1.jpg": []byte("manual scan bytes")},
		[]string{"instruction_manual_page1.jpg"})

	releaseID, err := f.deps.Releases.CreateTx(ctx, f.conn, "Fixture Release")
	require.NoError(t, err)
	require.NoError(t, f.deps.Releases.LinkFileSetTx(ctx, f.conn, releaseID, fileSetID))

	pipe := maintenance.NewFileTypeMigrationPipeline(f.deps)
	c := &maintenance.FileTypeMigrationContext{Deps: f.deps}

	_, err = pipe.Run(ctx, c)
	require.NoError(t, err)

	migrated, err := f.deps.FileSets.GetByID(ctx, fileSetID)
	require.NoError(t, err)
	assert.Equal(t, "Scan", migrated.FileType, "media_scan still consolidates its file_type like the other scan variants")

	items, err := f.deps.Releases.ItemsByRelease(ctx, releaseID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Manual", items[0].ItemType)
}

func TestFileTypeMigrationPipeline_DryRunChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fileSetID := f.seedFileSet(t, "screenshot_title", map[string][]byte{"title.png": []byte("title screen bytes")}, []string{"title.png"})

	pipe := maintenance.NewFileTypeMigrationPipeline(f.deps)
	c := &maintenance.FileTypeMigrationContext{Deps: f.deps, Input: maintenance.FileTypeMigrationInput{DryRun: true}}

	_, err := pipe.Run(ctx, c)
	require.NoError(t, err)

	untouched, err := f.deps.FileSets.GetByID(ctx, fileSetID)
	require.NoError(t, err)
	assert.Equal(t, "screenshot_title", untouched.FileType, "dry run must not mutate the database")

	memberships, err := f.deps.FileSets.Memberships(ctx, fileSetID)
	require.NoError(t, err)

	info, err := f.deps.FileInfo.GetByID(ctx, memberships[0].FileInfoID)
	require.NoError(t, err)

	_, stillAtOldPath := f.fs.Get(f.deps.Content.Path(*info))
	assert.True(t, stillAtOldPath, "dry run must not move any blob")
}

func TestFileTypeMigrationPipeline_SkipsWhenNothingIsDeprecated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedFileSet(t, "rom", map[string][]byte{"game.bin": []byte("bytes")}, []string{"game.bin"})

	pipe := maintenance.NewFileTypeMigrationPipeline(f.deps)
	c := &maintenance.FileTypeMigrationContext{Deps: f.deps}

	outcome, err := pipe.Run(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Skip, outcome)
}

func TestFileTypeMigrationPipeline_MovesCloudPresentObjectServerSide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fileSetID := f.seedFileSet(t, "catalog_page", map[string][]byte{"page1.jpg": []byte("catalog bytes")}, []string{"page1.jpg"})

	memberships, err := f.deps.FileSets.Memberships(ctx, fileSetID)
	require.NoError(t, err)
	fileInfoID := memberships[0].FileInfoID

	info, err := f.deps.FileInfo.GetByID(ctx, fileInfoID)
	require.NoError(t, err)

	oldKey := "catalog_page/" + info.ArchiveName + ".zst"
	f.cloud.UploadContent(oldKey, []byte("catalog bytes"))

	_, err = f.deps.SyncLog.Append(ctx, db.FileSyncLog{FileInfoID: fileInfoID, Status: db.SyncStatusUploadCompleted})
	require.NoError(t, err)

	pipe := maintenance.NewFileTypeMigrationPipeline(f.deps)
	c := &maintenance.FileTypeMigrationContext{Deps: f.deps}

	_, err = pipe.Run(ctx, c)
	require.NoError(t, err)

	newKey := "Document/" + info.ArchiveName + ".zst"
	assert.True(t, f.cloud.Has(newKey))
	assert.False(t, f.cloud.Has(oldKey))
}
