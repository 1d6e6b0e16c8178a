package store

import (
	"archive/zip"
	"context"
	"fmt"

	"github.com/arcadekeep/arcadekeep/internal/apperr"
)

// IngestZipArchive opens a zip archive and ingests every entry as a
// separate FileInfo, each keyed by its own SHA-1. Directory entries are
// skipped. Returns one IngestResult per file entry, in archive order.
func (s *ContentStore) IngestZipArchive(ctx context.Context, archivePath, fileType string) ([]IngestResult, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &apperr.StorageError{Path: archivePath, Op: "open zip", Err: err}
	}
	defer r.Close()

	var results []IngestResult

	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		rc, err := entry.Open()
		if err != nil {
			return results, fmt.Errorf("store: opening zip entry %s: %w", entry.Name, err)
		}

		result, err := s.ingestReader(ctx, rc, fileType)
		rc.Close()

		if err != nil {
			return results, fmt.Errorf("store: ingesting zip entry %s: %w", entry.Name, err)
		}

		results = append(results, *result)
	}

	return results, nil
}
