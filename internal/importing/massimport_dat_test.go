package importing_test

import (
	"context"
	"crypto/sha1" //nolint:gosec // content addressing in the matched fixture, not a security boundary
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/importing"
)

func sha1Hex(content []byte) string {
	sum := sha1.Sum(content) //nolint:gosec // content addressing, not a security boundary
	return hex.EncodeToString(sum[:])
}

func seedCatalogue(f *testFixture, datPath string) {
	f.fs.Put(datPath, []byte("<datafile/>")) // content is ignored; DatParser is a fixture fake

	f.dat.Result = capability.DatFile{
		Header: capability.DatHeader{ID: "cat-1", Name: "Test Catalogue"},
		Games: []capability.DatGame{
			{
				ID:   "game-1",
				Name: "Matched Game",
				Roms: []capability.DatRom{
					{Name: "matched.rom", SHA1: "will-be-set-by-caller"},
				},
			},
			{ID: "game-2", Name: "Unmatched Game", Roms: []capability.DatRom{{Name: "missing.rom", SHA1: "never-seen"}}},
		},
	}
}

func TestMassImportDatPipeline_MatchesFileAndCreatesGameRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	content := []byte("matched content")
	matchedPath := f.seedFile(t, "matched.rom", content)

	datPath := "/catalogues/catalogue.dat"
	seedCatalogue(f, datPath)
	f.dat.Result.Games[0].Roms[0].SHA1 = sha1Hex(content)

	pipe := importing.NewMassImportDatPipeline(f.deps)
	pc := &importing.MassImportDatContext{
		Deps:  f.deps,
		Input: importing.MassImportDatInput{DatPath: datPath, SourceDir: f.dir, FileType: "rom"},
	}

	_, err := pipe.Run(ctx, pc)
	require.NoError(t, err)
	require.Len(t, pc.Results, 1)

	result := pc.Results[0]
	require.NoError(t, result.Err)
	assert.False(t, result.Skipped)
	assert.Equal(t, "Matched Game", result.ReleaseName)
	assert.NotZero(t, result.ReleaseID)
	assert.NotZero(t, result.FileSetID)

	memberships, err := f.deps.FileSets.Memberships(ctx, result.FileSetID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, matchedPath, memberships[0].MemberName)
}

func TestMassImportDatPipeline_RerunLinksExistingFileSetInsteadOfDuplicating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	content := []byte("matched content")
	f.seedFile(t, "matched.rom", content)

	datPath := "/catalogues/catalogue.dat"
	seedCatalogue(f, datPath)
	f.dat.Result.Games[0].Roms[0].SHA1 = sha1Hex(content)

	pipe := importing.NewMassImportDatPipeline(f.deps)

	first := &importing.MassImportDatContext{
		Deps:  f.deps,
		Input: importing.MassImportDatInput{DatPath: datPath, SourceDir: f.dir, FileType: "rom"},
	}
	_, err := pipe.Run(ctx, first)
	require.NoError(t, err)
	require.Len(t, first.Results, 1)
	require.NoError(t, first.Results[0].Err)

	second := &importing.MassImportDatContext{
		Deps:  f.deps,
		Input: importing.MassImportDatInput{DatPath: datPath, SourceDir: f.dir, FileType: "rom"},
	}
	_, err = pipe.Run(ctx, second)
	require.NoError(t, err)
	require.Len(t, second.Results, 1)
	require.NoError(t, second.Results[0].Err)

	assert.True(t, second.Results[0].Skipped)
	assert.Equal(t, first.Results[0].FileSetID, second.Results[0].FileSetID)
}
