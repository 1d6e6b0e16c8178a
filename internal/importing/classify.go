package importing

import (
	"context"
	"fmt"

	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/store"
)

// FileInput is one source file offered to a pipeline, paired with the
// member name it should be stored under within its FileSet.
type FileInput struct {
	SourcePath string
	MemberName string
}

// FileClassification is the result of hashing a FileInput and checking it
// against the metadata store: Existing is non-nil when a FileInfo with this
// SHA-1 is already registered.
type FileClassification struct {
	SourcePath string
	MemberName string
	SHA1       string
	Size       int64
	Existing   *db.FileInfo
}

// IsNew reports whether no FileInfo exists yet for this classification's
// content.
func (c FileClassification) IsNew() bool { return c.Existing == nil }

// classifyInputs hashes every input (in parallel, via store.CollectFileMetadata)
// and cross-references the digests against the metadata store in one batch
// query. Each input must resolve to exactly one metadata entry; archive
// sources are rejected here because AddFileSet and UpdateFileSet operate on
// one member per source path — mass import is the archive-aware path.
func classifyInputs(ctx context.Context, fileInfoRepo *db.FileInfoRepo, files []FileInput) ([]FileClassification, error) {
	if len(files) == 0 {
		return nil, nil
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.SourcePath
	}

	collected, err := store.CollectFileMetadata(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("importing: collecting file metadata: %w", err)
	}

	classifications := make([]FileClassification, len(files))
	sha1s := make([]string, len(files))

	for i, c := range collected {
		if c.Err != nil {
			return nil, fmt.Errorf("importing: reading %s: %w", c.Path, c.Err)
		}

		if len(c.Entries) != 1 {
			return nil, fmt.Errorf(
				"importing: %s: expected a single file, found %d entries (use mass import for archives)",
				c.Path, len(c.Entries))
		}

		entry := c.Entries[0]
		classifications[i] = FileClassification{
			SourcePath: files[i].SourcePath,
			MemberName: files[i].MemberName,
			SHA1:       entry.SHA1,
			Size:       entry.UncompressedSize,
		}
		sha1s[i] = entry.SHA1
	}

	existing, err := fileInfoRepo.ListBySHA1s(ctx, sha1s)
	if err != nil {
		return nil, fmt.Errorf("importing: looking up existing files: %w", err)
	}

	for i := range classifications {
		if f, ok := existing[classifications[i].SHA1]; ok {
			classifications[i].Existing = f
		}
	}

	return classifications, nil
}
