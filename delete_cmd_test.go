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

func TestRunDeleteFileSet_ReclaimsOrphanedFile(t *testing.T) {
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

	// AddFileSet links the new set to the release; deletion is refused
	// while that link exists.
	require.NoError(t, fx.Services.Releases.UnlinkFileSetTx(ctx, fx.Services.Store.DB(), releaseID, 1))

	require.NoError(t, runDeleteFileSet(ctx, cc, 1))
}

func TestRunDeleteFileSet_NotFound(t *testing.T) {
	fx := testutil.New(t)
	ctx := context.Background()
	cc := testCLIContext(fx)

	require.Error(t, runDeleteFileSet(ctx, cc, 999))
}
