package exporting

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
)

// ExtractedMember is one file set member decompressed into a scratch
// directory, in the same order its FileSetMembership carried.
type ExtractedMember struct {
	MemberName string
	Path       string
}

// allocateScratchDir creates a fresh, collision-free subdirectory under
// root for one export call.
func allocateScratchDir(fs capability.FileSystemOps, root string) (string, error) {
	dir := filepath.Join(root, uuid.New().String())
	if err := fs.CreateDirAll(dir); err != nil {
		return "", fmt.Errorf("exporting: allocate scratch dir: %w", err)
	}

	return dir, nil
}

// extractFileSetMembers decompresses every member of a FileSet into
// scratchDir, in sort_order, reporting progress on progress if non-nil.
// One member's failure aborts the rest, since a partially-extracted file
// set is not usable by whatever consumes it next.
func extractFileSetMembers(
	ctx context.Context,
	deps Deps,
	memberships []db.FileSetMembership,
	scratchDir string,
) ([]ExtractedMember, error) {
	if len(memberships) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(memberships))
	for i, m := range memberships {
		ids[i] = m.FileInfoID
	}

	infos, err := deps.FileInfo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("exporting: loading file_info for extraction: %w", err)
	}

	byID := make(map[int64]db.FileInfo, len(infos))
	for _, f := range infos {
		byID[f.ID] = f
	}

	extracted := make([]ExtractedMember, 0, len(memberships))

	for _, m := range memberships {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, ok := byID[m.FileInfoID]
		if !ok {
			return nil, fmt.Errorf("exporting: file_info %d referenced by membership not found", m.FileInfoID)
		}

		deps.Progress.Send(capability.ProgressEvent{Type: capability.EventFileStarted, Path: m.MemberName})

		if err := deps.Content.Extract(ctx, info, scratchDir, m.MemberName); err != nil {
			deps.Progress.Send(capability.ProgressEvent{
				Type: capability.EventFileFailed, Path: m.MemberName, Error: err,
			})

			return nil, fmt.Errorf("exporting: extracting %s: %w", m.MemberName, err)
		}

		deps.Progress.Send(capability.ProgressEvent{Type: capability.EventFileCompleted, Path: m.MemberName})

		extracted = append(extracted, ExtractedMember{
			MemberName: m.MemberName,
			Path:       filepath.Join(scratchDir, m.MemberName),
		})
	}

	return extracted, nil
}
