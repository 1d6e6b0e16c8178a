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

func TestRunSyncToCloud_SkippedWhenNothingPending(t *testing.T) {
	fx := testutil.New(t)
	ctx := context.Background()
	cc := testCLIContext(fx)

	require.NoError(t, runSyncToCloud(ctx, cc))
}

func TestRunSyncToCloud_UploadsPendingFiles(t *testing.T) {
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

	require.NoError(t, runSyncToCloud(ctx, cc))
	require.NotEmpty(t, fx.Cloud.UploadCalls)
}

func TestRunRestore(t *testing.T) {
	fx := testutil.New(t)
	ctx := context.Background()
	cc := testCLIContext(fx)

	// RestoreFile commits through the real filesystem directly (the same
	// exception internal/cloudsync's own tests make), so the file_type
	// directory must exist on disk even though the collection's blobs
	// otherwise live in the in-memory FileSystem fake.
	require.NoError(t, os.MkdirAll(filepath.Join(fx.Root, "rom"), 0o755))

	releaseID, err := fx.Services.Releases.CreateTx(ctx, fx.Services.Store.DB(), "Donkey Kong")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "game.bin")
	require.NoError(t, os.WriteFile(src, []byte("rom bytes"), 0o644))
	fx.FS.Put(src, []byte("rom bytes"))
	require.NoError(t, runAddFileSet(ctx, cc, releaseID, "Donkey Kong (USA)", "rom", []importing.FileInput{
		{SourcePath: src, MemberName: "game.bin"},
	}))

	info, err := fx.Services.FileInfo.GetByID(ctx, 1)
	require.NoError(t, err)

	// The fake CloudStorage's Upload stores a content stand-in, not real
	// compressed bytes, so a restore needs the object seeded directly with
	// a valid zstd-framed payload for the integrity check to pass.
	validZstdBytes := append([]byte{0x28, 0xB5, 0x2F, 0xFD}, []byte("fake compressed payload")...)
	fx.Cloud.UploadContent("rom/"+info.ArchiveName+".zst", validZstdBytes)

	require.NoError(t, runRestore(ctx, cc, info.ID))
}
