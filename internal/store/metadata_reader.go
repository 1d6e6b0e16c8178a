package store

import (
	"archive/zip"
	"crypto/sha1" //nolint:gosec // content addressing, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileMetadataEntry is one (relative_path, sha1, uncompressed_size) tuple
// yielded by a FileMetadataReader: one entry for a plain file, many for an
// archive.
type FileMetadataEntry struct {
	RelativePath     string
	SHA1             string
	UncompressedSize int64
}

// FileMetadataReader inspects a source path without committing it to the
// store, for validation workflows such as PrepareFileImport.
type FileMetadataReader interface {
	Read(path string) ([]FileMetadataEntry, error)
}

// plainFileMetadataReader reads a single, non-archive file.
type plainFileMetadataReader struct{}

func (plainFileMetadataReader) Read(path string) ([]FileMetadataEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha1.New() //nolint:gosec // content addressing, not a security boundary

	size, err := io.Copy(hasher, f)
	if err != nil {
		return nil, fmt.Errorf("store: hashing %s: %w", path, err)
	}

	return []FileMetadataEntry{{
		RelativePath:     filepath.Base(path),
		SHA1:             hex.EncodeToString(hasher.Sum(nil)),
		UncompressedSize: size,
	}}, nil
}

// zipArchiveMetadataReader reads every file entry of a zip archive.
type zipArchiveMetadataReader struct{}

func (zipArchiveMetadataReader) Read(path string) ([]FileMetadataEntry, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("store: opening zip %s: %w", path, err)
	}
	defer r.Close()

	var entries []FileMetadataEntry

	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("store: opening zip entry %s: %w", entry.Name, err)
		}

		hasher := sha1.New() //nolint:gosec // content addressing, not a security boundary
		size, copyErr := io.Copy(hasher, rc)
		rc.Close()

		if copyErr != nil {
			return nil, fmt.Errorf("store: hashing zip entry %s: %w", entry.Name, copyErr)
		}

		entries = append(entries, FileMetadataEntry{
			RelativePath:     entry.Name,
			SHA1:             hex.EncodeToString(hasher.Sum(nil)),
			UncompressedSize: size,
		})
	}

	return entries, nil
}

// zipExtensions are recognised by extension before falling back to magic
// byte detection, avoiding an unnecessary read for the common case.
var zipExtensions = map[string]bool{
	".zip": true,
}

// NewFileMetadataReader dispatches to the appropriate FileMetadataReader
// for path, first by extension and then, if inconclusive, by sniffing
// magic bytes via mimetype.
func NewFileMetadataReader(path string) (FileMetadataReader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if zipExtensions[ext] {
		return zipArchiveMetadataReader{}, nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: detecting file type of %s: %w", path, err)
	}

	if mtype.Is("application/zip") {
		return zipArchiveMetadataReader{}, nil
	}

	return plainFileMetadataReader{}, nil
}
