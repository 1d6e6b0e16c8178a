package importing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/importing"
)

func TestPrepareFileImportPipeline_ClassifiesKnownAndUnknownFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	knownPath := f.seedFile(t, "known.rom", []byte("known content"))
	newPath := f.seedFile(t, "fresh.rom", []byte("fresh content"))

	_, err := f.deps.Content.Ingest(ctx, knownPath, "rom")
	require.NoError(t, err)

	pipe := importing.NewPrepareFileImportPipeline(f.deps)
	pc := &importing.PrepareFileImportContext{
		Deps:  f.deps,
		Input: importing.PrepareFileImportInput{Paths: []string{knownPath, newPath}},
	}

	_, err = pipe.Run(ctx, pc)
	require.NoError(t, err)
	require.Len(t, pc.Previews, 2)

	byPath := make(map[string]importing.FileImportPreview, 2)
	for _, p := range pc.Previews {
		byPath[p.SourcePath] = p
	}

	assert.True(t, byPath[knownPath].AlreadyKnown)
	assert.False(t, byPath[newPath].AlreadyKnown)
}

func TestPrepareFileImportPipeline_RecordsPerFileErrorWithoutAbortingBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goodPath := f.seedFile(t, "good.rom", []byte("good content"))
	missingPath := f.dir + "/does-not-exist.rom"

	pipe := importing.NewPrepareFileImportPipeline(f.deps)
	pc := &importing.PrepareFileImportContext{
		Deps:  f.deps,
		Input: importing.PrepareFileImportInput{Paths: []string{goodPath, missingPath}},
	}

	_, err := pipe.Run(ctx, pc)
	require.NoError(t, err)
	require.Len(t, pc.Previews, 2)

	byPath := make(map[string]importing.FileImportPreview, 2)
	for _, p := range pc.Previews {
		byPath[p.SourcePath] = p
	}

	assert.NoError(t, byPath[goodPath].Err)
	assert.Error(t, byPath[missingPath].Err)
}
