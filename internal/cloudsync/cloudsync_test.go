package cloudsync_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/capability/capabilitytest"
	"github.com/arcadekeep/arcadekeep/internal/cloudsync"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/store"
)

type testFixture struct {
	deps  cloudsync.Deps
	cloud *capabilitytest.CloudStorage
	creds *capabilitytest.CredentialService
	conn  *db.Store
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	ctx := context.Background()

	dbStore, err := db.Open(ctx, ":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, dbStore.Close()) })

	fs := capabilitytest.NewFileSystem()
	fileInfo := db.NewFileInfoRepo(dbStore.DB())
	syncLog := db.NewFileSyncLogRepo(dbStore.DB())
	content := store.New("/collection", fs, fileInfo, slog.Default())

	cloud := capabilitytest.NewCloudStorage()
	creds := capabilitytest.NewCredentialService(&capability.Credentials{
		AccessKeyID: "test-access-key", SecretAccessKey: "test-secret-key",
	})

	deps := cloudsync.Deps{
		FileInfo:          fileInfo,
		SyncLog:           syncLog,
		Content:           content,
		CloudStorage:      cloud,
		CredentialService: creds,
		Bucket:            "test-bucket",
		Region:            "us-east-1",
		Getenv:            func(string) string { return "" },
	}

	return &testFixture{deps: deps, cloud: cloud, creds: creds, conn: dbStore}
}

// seedFileInfo registers a FileInfo row directly (no real ingest needed —
// uploads never read the local blob through the fake CloudStorage).
func (f *testFixture) seedFileInfo(t *testing.T, sha1, fileType string) db.FileInfo {
	t.Helper()

	id, err := f.deps.FileInfo.Create(context.Background(), db.FileInfo{
		SHA1: sha1, ArchiveName: sha1, FileType: fileType, UncompressedSize: 1024,
	})
	require.NoError(t, err)

	info, err := f.deps.FileInfo.GetByID(context.Background(), id)
	require.NoError(t, err)

	return *info
}
