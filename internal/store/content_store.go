// Package store implements the content-addressed file store: streaming
// ingest (hash + compress + deduplicate) and extract (decompress +
// integrity verification) of collection files on local disk.
package store

import (
	"context"
	"crypto/sha1" //nolint:gosec // content addressing, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/arcadekeep/arcadekeep/internal/apperr"
	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
)

// ContentStore persists file bytes under the collection root, one
// subdirectory per file_type, as zstd-compressed blobs named after their
// store-assigned archive name.
type ContentStore struct {
	root     string
	fs       capability.FileSystemOps
	fileInfo *db.FileInfoRepo
	logger   *slog.Logger
}

// New creates a ContentStore rooted at root (the collection root
// directory).
func New(root string, fs capability.FileSystemOps, fileInfo *db.FileInfoRepo, logger *slog.Logger) *ContentStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &ContentStore{root: root, fs: fs, fileInfo: fileInfo, logger: logger}
}

// TypeDir returns the absolute path of the subdirectory holding files of
// the given file_type.
func (s *ContentStore) TypeDir(fileType string) string {
	return filepath.Join(s.root, fileType)
}

// Path returns the absolute path of a FileInfo's physical blob.
func (s *ContentStore) Path(f db.FileInfo) string {
	return filepath.Join(s.TypeDir(f.FileType), f.ArchiveName+".zst")
}

// IngestResult reports whether Ingest created a new FileInfo or resolved
// an existing one via deduplication.
type IngestResult struct {
	FileInfo     db.FileInfo
	Deduplicated bool
}

// Ingest streams sourcePath through a SHA-1 hasher and a zstd encoder
// simultaneously, writing a fresh <uuid>.zst under the file_type
// directory. If a FileInfo with the resulting SHA-1 already exists, the
// freshly written file is discarded and the existing row is returned
// (deduplication); otherwise a new FileInfo is registered.
func (s *ContentStore) Ingest(ctx context.Context, sourcePath, fileType string) (*IngestResult, error) {
	src, err := s.fs.Open(sourcePath)
	if err != nil {
		return nil, &apperr.StorageError{Path: sourcePath, Op: "open", Err: err}
	}
	defer src.Close()

	return s.ingestReader(ctx, src, fileType)
}

// ingestReader performs the ingest contract against an already-open
// reader, so archive entries (not standalone files) can share the same
// hash-compress-dedup path.
func (s *ContentStore) ingestReader(ctx context.Context, src io.Reader, fileType string) (*IngestResult, error) {
	newArchiveName := uuid.New().String()
	destPath := filepath.Join(s.TypeDir(fileType), newArchiveName+".zst")

	dest, err := s.fs.Create(destPath)
	if err != nil {
		return nil, &apperr.StorageError{Path: destPath, Op: "create", Err: err}
	}

	hasher := sha1.New() //nolint:gosec // content addressing, not a security boundary
	hashingSrc := io.TeeReader(src, hasher)

	encoder, err := zstd.NewWriter(dest)
	if err != nil {
		dest.Close()
		s.removeQuiet(destPath)
		return nil, &apperr.StorageError{Path: destPath, Op: "zstd encoder init", Err: err}
	}

	size, copyErr := io.Copy(encoder, hashingSrc)
	if copyErr != nil {
		encoder.Close()
		dest.Close()
		s.removeQuiet(destPath)
		return nil, &apperr.StorageError{Path: destPath, Op: "compress", Err: copyErr}
	}

	// Exactly one compression pass: encoder wraps dest directly, never a
	// pre-compressed intermediate.
	if err := encoder.Close(); err != nil {
		dest.Close()
		s.removeQuiet(destPath)
		return nil, &apperr.StorageError{Path: destPath, Op: "zstd finalize", Err: err}
	}

	if err := dest.Close(); err != nil {
		s.removeQuiet(destPath)
		return nil, &apperr.StorageError{Path: destPath, Op: "close", Err: err}
	}

	sha1Hex := hex.EncodeToString(hasher.Sum(nil))

	existing, err := s.fileInfo.GetBySHA1(ctx, sha1Hex)
	switch {
	case err == nil:
		s.logger.Debug("store: ingest deduplicated", slog.String("sha1", sha1Hex))
		s.removeQuiet(destPath)

		return &IngestResult{FileInfo: *existing, Deduplicated: true}, nil
	case !errors.Is(err, db.ErrNotFound):
		s.removeQuiet(destPath)
		return nil, fmt.Errorf("store: checking for existing file_info: %w", err)
	}

	id, err := s.fileInfo.Create(ctx, db.FileInfo{
		SHA1:             sha1Hex,
		UncompressedSize: size,
		ArchiveName:      newArchiveName,
		FileType:         fileType,
	})
	if err != nil {
		s.removeQuiet(destPath)
		return nil, fmt.Errorf("store: registering new file_info: %w", err)
	}

	s.logger.Info("store: ingested new file",
		slog.String("sha1", sha1Hex), slog.Int64("size", size), slog.String("file_type", fileType))

	return &IngestResult{FileInfo: db.FileInfo{
		ID: id, SHA1: sha1Hex, UncompressedSize: size, ArchiveName: newArchiveName, FileType: fileType,
	}}, nil
}

// Extract stream-decompresses a FileInfo's blob into destDir/outputName,
// verifying the decompressed SHA-1 and length match the stored checksum.
func (s *ContentStore) Extract(ctx context.Context, f db.FileInfo, destDir, outputName string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	src, err := s.fs.Open(s.Path(f))
	if err != nil {
		return &apperr.StorageError{Path: s.Path(f), Op: "open", Err: err}
	}
	defer src.Close()

	decoder, err := zstd.NewReader(src)
	if err != nil {
		return &apperr.IntegrityError{Path: s.Path(f), Message: "invalid zstd frame: " + err.Error()}
	}
	defer decoder.Close()

	destPath := filepath.Join(destDir, outputName)

	dest, err := s.fs.Create(destPath)
	if err != nil {
		return &apperr.StorageError{Path: destPath, Op: "create", Err: err}
	}

	hasher := sha1.New() //nolint:gosec // content addressing, not a security boundary
	size, err := io.Copy(io.MultiWriter(dest, hasher), decoder)
	if err != nil {
		dest.Close()
		s.removeQuiet(destPath)
		return &apperr.StorageError{Path: destPath, Op: "decompress", Err: err}
	}

	if err := dest.Close(); err != nil {
		s.removeQuiet(destPath)
		return &apperr.StorageError{Path: destPath, Op: "close", Err: err}
	}

	gotSHA1 := hex.EncodeToString(hasher.Sum(nil))
	if gotSHA1 != f.SHA1 || size != f.UncompressedSize {
		s.removeQuiet(destPath)
		return &apperr.IntegrityError{Path: s.Path(f), Want: f.SHA1, Got: gotSHA1}
	}

	return nil
}

func (s *ContentStore) removeQuiet(path string) {
	if err := s.fs.Remove(path); err != nil {
		s.logger.Warn("store: failed to remove file", slog.String("path", path), slog.Any("error", err))
	}
}
