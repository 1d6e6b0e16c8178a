package cloudsync

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/arcadekeep/arcadekeep/internal/apperr"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

// zstdMagic is the four-byte frame magic number (RFC 8478 §3.1.1) every
// valid zstd stream begins with.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// RestoreFileInput names the FileInfo whose local blob should be pulled
// back down from the cloud, e.g. after the local copy was deleted to
// reclaim space while the cloud replica was kept.
type RestoreFileInput struct {
	FileInfoID int64
}

// RestoreFileContext is the RestoreFile pipeline's mutable context.
//
// Download addresses real disk paths directly (the production
// CloudStorageOps writes via os.Create, mirroring Upload's use of
// os.Open), the same real-disk exception internal/store.CollectFileMetadata
// already makes to the capability-injection convention used everywhere
// else in this system.
type RestoreFileContext struct {
	Deps
	Input RestoreFileInput

	Info      db.FileInfo
	TempPath  string
	LocalPath string
}

// NewRestoreFilePipeline builds the pipeline that downloads a FileInfo's
// blob from the cloud back onto local disk: the HTTP status is validated
// by the capability's Download call before any byte reaches disk, and the
// zstd frame magic is validated against the downloaded bytes before the
// temporary file is committed over any prior local copy.
func NewRestoreFilePipeline(deps Deps) *pipeline.Pipeline[*RestoreFileContext] {
	return pipeline.New("restore_file", deps.logger(),
		loadFileInfoForRestoreStep{},
		downloadToTempStep{},
		verifyAndCommitStep{},
	)
}

type loadFileInfoForRestoreStep struct{}

func (loadFileInfoForRestoreStep) Name() string { return "load_file_info" }

func (loadFileInfoForRestoreStep) ShouldExecute(context.Context, *RestoreFileContext) bool { return true }

func (loadFileInfoForRestoreStep) Execute(ctx context.Context, c *RestoreFileContext) (pipeline.Outcome, error) {
	info, err := c.Deps.FileInfo.GetByID(ctx, c.Input.FileInfoID)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("loading file_info %d: %w", c.Input.FileInfoID, err)
	}

	c.Info = *info
	c.LocalPath = c.Content.Path(*info)
	c.TempPath = c.LocalPath + ".downloading"

	return pipeline.Continue, nil
}

type downloadToTempStep struct{}

func (downloadToTempStep) Name() string { return "download_to_temp" }

func (downloadToTempStep) ShouldExecute(context.Context, *RestoreFileContext) bool { return true }

func (downloadToTempStep) Execute(ctx context.Context, c *RestoreFileContext) (pipeline.Outcome, error) {
	key := cloudKey(c.Info)

	if err := c.CloudStorage.Download(ctx, key, c.TempPath); err != nil {
		return pipeline.Abort, fmt.Errorf("downloading %s: %w", key, err)
	}

	return pipeline.Continue, nil
}

type verifyAndCommitStep struct{}

func (verifyAndCommitStep) Name() string { return "verify_and_commit" }

func (verifyAndCommitStep) ShouldExecute(context.Context, *RestoreFileContext) bool { return true }

func (verifyAndCommitStep) Execute(_ context.Context, c *RestoreFileContext) (pipeline.Outcome, error) {
	header := make([]byte, len(zstdMagic))

	f, err := os.Open(c.TempPath)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("opening downloaded file %s: %w", c.TempPath, err)
	}

	_, readErr := f.Read(header)
	f.Close()

	if readErr != nil || !bytes.Equal(header, zstdMagic) {
		_ = os.Remove(c.TempPath)

		return pipeline.Abort, &apperr.IntegrityError{
			Path:    c.TempPath,
			Message: "downloaded object is not a valid zstd stream",
		}
	}

	if err := os.Rename(c.TempPath, c.LocalPath); err != nil {
		_ = os.Remove(c.TempPath)
		return pipeline.Abort, fmt.Errorf("committing downloaded file to %s: %w", c.LocalPath, err)
	}

	return pipeline.Continue, nil
}
