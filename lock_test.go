package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireCollectionLock_CreatesFileWithCurrentPID(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), collectionLockName)

	cleanup, err := acquireCollectionLock(path)
	require.NoError(t, err)
	require.NotNil(t, cleanup)

	defer cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestAcquireCollectionLock_FlockPreventsSecondAcquisition(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), collectionLockName)

	cleanup1, err := acquireCollectionLock(path)
	require.NoError(t, err)
	require.NotNil(t, cleanup1)

	defer cleanup1()

	cleanup2, err := acquireCollectionLock(path)
	require.Error(t, err)
	assert.Nil(t, cleanup2)
	assert.Contains(t, err.Error(), "already running")
}

func TestAcquireCollectionLock_EmptyPathReturnsError(t *testing.T) {
	t.Parallel()

	cleanup, err := acquireCollectionLock("")
	assert.Error(t, err)
	assert.Nil(t, cleanup)
	assert.Contains(t, err.Error(), "empty")
}

func TestAcquireCollectionLock_ReleaseAllowsReacquisition(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), collectionLockName)

	cleanup1, err := acquireCollectionLock(path)
	require.NoError(t, err)
	cleanup1()

	cleanup2, err := acquireCollectionLock(path)
	require.NoError(t, err)
	defer cleanup2()
}
