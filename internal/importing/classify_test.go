package importing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/importing"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

func TestAddFileSetPipeline_NewFilesAreIngestedAndLinked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	releaseID, err := f.deps.Releases.CreateTx(ctx, f.deps.Store.DB(), "Test Release")
	require.NoError(t, err)

	path := f.seedFile(t, "game.rom", []byte("rom contents"))

	pipe := importing.NewAddFileSetPipeline(f.deps)
	pc := &importing.AddFileSetContext{
		Deps: f.deps,
		Input: importing.AddFileSetInput{
			ReleaseID: releaseID,
			Name:      "game.rom",
			FileType:  "rom",
			Files:     []importing.FileInput{{SourcePath: path, MemberName: "game.rom"}},
		},
	}

	outcome, err := pipe.Run(ctx, pc)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Continue, outcome)
	assert.NotZero(t, pc.FileSetID)
	require.Len(t, pc.Classifications, 1)
	assert.True(t, pc.Classifications[0].IsNew())

	memberships, err := f.deps.FileSets.Memberships(ctx, pc.FileSetID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, "game.rom", memberships[0].MemberName)

	latest, err := f.deps.SyncLog.LatestByFileInfoID(ctx, memberships[0].FileInfoID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, db.SyncStatusUploadPending, latest.Status)
}

func TestAddFileSetPipeline_DeduplicatesAgainstExistingFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	path := f.seedFile(t, "shared.rom", []byte("shared contents"))

	ingested, err := f.deps.Content.Ingest(ctx, path, "rom")
	require.NoError(t, err)

	releaseID, err := f.deps.Releases.CreateTx(ctx, f.deps.Store.DB(), "Other Release")
	require.NoError(t, err)

	pipe := importing.NewAddFileSetPipeline(f.deps)
	pc := &importing.AddFileSetContext{
		Deps: f.deps,
		Input: importing.AddFileSetInput{
			ReleaseID: releaseID,
			Name:      "shared.rom",
			FileType:  "rom",
			Files:     []importing.FileInput{{SourcePath: path, MemberName: "shared.rom"}},
		},
	}

	_, err = pipe.Run(ctx, pc)
	require.NoError(t, err)
	require.Len(t, pc.Classifications, 1)
	assert.False(t, pc.Classifications[0].IsNew())
	assert.Equal(t, ingested.FileInfo.ID, pc.Classifications[0].Existing.ID)
}
