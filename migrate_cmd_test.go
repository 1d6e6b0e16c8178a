package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/testutil"
)

func TestRunMigrateFileTypes_NoDeprecatedTypes(t *testing.T) {
	fx := testutil.New(t)
	ctx := context.Background()
	cc := testCLIContext(fx)

	require.NoError(t, runMigrateFileTypes(ctx, cc, false))
}

func TestRunMigrateFileTypes_DryRun(t *testing.T) {
	fx := testutil.New(t)
	ctx := context.Background()
	cc := testCLIContext(fx)

	require.NoError(t, runMigrateFileTypes(ctx, cc, true))
}
