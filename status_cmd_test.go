package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/importing"
	"github.com/arcadekeep/arcadekeep/testutil"
)

func TestRunCollectionStatus_Empty(t *testing.T) {
	fx := testutil.New(t)
	ctx := context.Background()
	cc := testCLIContext(fx)

	require.NoError(t, runCollectionStatus(ctx, cc))
}

func TestRunCollectionStatus_AfterImport(t *testing.T) {
	fx := testutil.New(t)
	ctx := context.Background()
	cc := testCLIContext(fx)

	releaseID, err := fx.Services.Releases.CreateTx(ctx, fx.Services.Store.DB(), "Donkey Kong")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "game.bin")
	require.NoError(t, os.WriteFile(src, []byte("rom bytes"), 0o644))
	fx.FS.Put(src, []byte("rom bytes"))
	require.NoError(t, runAddFileSet(ctx, cc, releaseID, "Donkey Kong (USA)", "rom", []importing.FileInput{
		{SourcePath: src, MemberName: "game.bin"},
	}))

	require.NoError(t, runCollectionStatus(ctx, cc))
}

func TestRunReleaseStatus(t *testing.T) {
	fx := testutil.New(t)
	ctx := context.Background()
	cc := testCLIContext(fx)

	releaseID, err := fx.Services.Releases.CreateTx(ctx, fx.Services.Store.DB(), "Donkey Kong")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "game.bin")
	require.NoError(t, os.WriteFile(src, []byte("rom bytes"), 0o644))
	fx.FS.Put(src, []byte("rom bytes"))
	require.NoError(t, runAddFileSet(ctx, cc, releaseID, "Donkey Kong (USA)", "rom", []importing.FileInput{
		{SourcePath: src, MemberName: "game.bin"},
	}))

	require.NoError(t, runReleaseStatus(ctx, cc, releaseID))
}

func TestRunReleaseStatus_NotFound(t *testing.T) {
	fx := testutil.New(t)
	ctx := context.Background()
	cc := testCLIContext(fx)

	err := runReleaseStatus(ctx, cc, 999)
	require.Error(t, err)
}
