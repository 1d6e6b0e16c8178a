package cloudsync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/capability/capabilitytest"
	"github.com/arcadekeep/arcadekeep/internal/cloudsync"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

func TestSyncPipeline_UploadsPendingFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info := f.seedFileInfo(t, "aaa111", "rom")
	_, err := f.deps.SyncLog.Append(ctx, db.FileSyncLog{FileInfoID: info.ID, Status: db.SyncStatusUploadPending})
	require.NoError(t, err)

	pipe := cloudsync.NewSyncPipeline(f.deps)
	pc := &cloudsync.SyncContext{Deps: f.deps}

	outcome, err := pipe.Run(ctx, pc)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Continue, outcome)

	assert.Equal(t, 1, pc.Summary.Uploaded)
	require.Len(t, pc.Uploads, 1)
	assert.True(t, pc.Uploads[0].CloudSucceeded)
	assert.True(t, pc.Uploads[0].LogSucceeded)
	assert.True(t, f.cloud.Has("rom/aaa111.zst"))

	latest, err := f.deps.SyncLog.LatestByFileInfoID(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SyncStatusUploadCompleted, latest.Status)
}

func TestSyncPipeline_RetriesPreviouslyFailedUploads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info := f.seedFileInfo(t, "bbb222", "rom")
	_, err := f.deps.SyncLog.Append(ctx, db.FileSyncLog{FileInfoID: info.ID, Status: db.SyncStatusUploadFailed})
	require.NoError(t, err)

	pipe := cloudsync.NewSyncPipeline(f.deps)
	pc := &cloudsync.SyncContext{Deps: f.deps}

	_, err = pipe.Run(ctx, pc)
	require.NoError(t, err)
	assert.Equal(t, 1, pc.Summary.Uploaded)
}

func TestSyncPipeline_OneUploadFailureDoesNotAbortTheBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	good := f.seedFileInfo(t, "good1", "rom")
	bad := f.seedFileInfo(t, "bad1", "rom")

	for _, info := range []db.FileInfo{good, bad} {
		_, err := f.deps.SyncLog.Append(ctx, db.FileSyncLog{FileInfoID: info.ID, Status: db.SyncStatusUploadPending})
		require.NoError(t, err)
	}

	f.cloud.FailUploadKeys["rom/bad1.zst"] = assert.AnError

	pipe := cloudsync.NewSyncPipeline(f.deps)
	pc := &cloudsync.SyncContext{Deps: f.deps}

	outcome, err := pipe.Run(ctx, pc)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Continue, outcome)

	assert.Equal(t, 1, pc.Summary.Uploaded)
	assert.Equal(t, 1, pc.Summary.UploadFailed)

	badLatest, err := f.deps.SyncLog.LatestByFileInfoID(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SyncStatusUploadFailed, badLatest.Status)

	goodLatest, err := f.deps.SyncLog.LatestByFileInfoID(ctx, good.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SyncStatusUploadCompleted, goodLatest.Status)
}

func TestSyncPipeline_DeletesMarkedFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info := f.seedFileInfo(t, "ccc333", "manual")
	f.cloud.UploadContent("manual/ccc333.zst", []byte("blob"))

	_, err := f.deps.SyncLog.Append(ctx, db.FileSyncLog{FileInfoID: info.ID, Status: db.SyncStatusDeletionPending})
	require.NoError(t, err)

	pipe := cloudsync.NewSyncPipeline(f.deps)
	pc := &cloudsync.SyncContext{Deps: f.deps}

	_, err = pipe.Run(ctx, pc)
	require.NoError(t, err)

	assert.Equal(t, 1, pc.Summary.Deleted)
	assert.False(t, f.cloud.Has("manual/ccc333.zst"))

	latest, err := f.deps.SyncLog.LatestByFileInfoID(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SyncStatusDeletionCompleted, latest.Status)
}

func TestSyncPipeline_AbortsWithConfigErrorWhenNoCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.deps.CredentialService = capabilitytest.NewCredentialService(nil)

	pipe := cloudsync.NewSyncPipeline(f.deps)
	pc := &cloudsync.SyncContext{Deps: f.deps}

	outcome, err := pipe.Run(ctx, pc)
	assert.Error(t, err)
	assert.Equal(t, pipeline.Abort, outcome)
}
