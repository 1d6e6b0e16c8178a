package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/testutil"
)

func TestRunMassImportFilename(t *testing.T) {
	fx := testutil.New(t)
	ctx := context.Background()
	cc := testCLIContext(fx)

	dir := t.TempDir()
	src := filepath.Join(dir, "Super Mario World (USA).sfc")
	require.NoError(t, os.WriteFile(src, []byte("mario content"), 0o644))
	fx.FS.Put(src, []byte("mario content"))

	require.NoError(t, runMassImportFilename(ctx, cc, dir, "rom"))
}

func TestRunMassImportDat(t *testing.T) {
	fx := testutil.New(t)
	ctx := context.Background()
	cc := testCLIContext(fx)

	fx.FS.Put("/dat/catalogue.xml", []byte("<datafile></datafile>"))
	dir := t.TempDir()
	src := filepath.Join(dir, "game.bin")
	require.NoError(t, os.WriteFile(src, []byte("rom bytes"), 0o644))
	fx.FS.Put(src, []byte("rom bytes"))

	require.NoError(t, runMassImportDat(ctx, cc, "/dat/catalogue.xml", dir, "rom"))
}
