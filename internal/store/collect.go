package store

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// defaultHashWorkers bounds the parallelism of CollectFileMetadata. Hashing
// is CPU-bound; a small bounded pool avoids contending disk I/O on large
// batches while still overlapping it with SHA-1 computation.
const defaultHashWorkers = 8

// CollectedFile pairs a source path with the metadata read from it.
type CollectedFile struct {
	Path    string
	Entries []FileMetadataEntry
	Err     error
}

// CollectFileMetadata hashes every path in paths in parallel, bounded by
// defaultHashWorkers, dispatching each through NewFileMetadataReader. A
// per-file error is recorded in that file's CollectedFile rather than
// aborting the batch, mirroring the import pipeline's per-item failure
// handling for batched operations.
func CollectFileMetadata(ctx context.Context, paths []string) ([]CollectedFile, error) {
	results := make([]CollectedFile, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultHashWorkers)

	var mu sync.Mutex

	for i, path := range paths {
		i, path := i, path

		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			reader, err := NewFileMetadataReader(path)
			if err != nil {
				mu.Lock()
				results[i] = CollectedFile{Path: path, Err: err}
				mu.Unlock()

				return nil
			}

			entries, err := reader.Read(path)

			mu.Lock()
			results[i] = CollectedFile{Path: path, Entries: entries, Err: err}
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("store: collecting file metadata: %w", err)
	}

	return results, nil
}
