// Package view composes UI-ready read models by joining across the
// metadata store's repositories. Consumers depend only on these flat,
// immutable aggregates, never on the underlying row types.
package view

import (
	"context"
	"fmt"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
)

// Availability is the derived cloud-availability state of a single file:
// the cross product of (local presence) x (latest sync log status).
type Availability int

const (
	AvailabilityAbsent Availability = iota
	AvailabilityLocalOnly
	AvailabilityCloudOnly
	AvailabilityPresentBoth
)

func (a Availability) String() string {
	switch a {
	case AvailabilityLocalOnly:
		return "local-only"
	case AvailabilityCloudOnly:
		return "cloud-only"
	case AvailabilityPresentBoth:
		return "present-both"
	default:
		return "absent"
	}
}

// FileView is a single FileInfo enriched with its membership name, sort
// order within the set, and derived cloud availability.
type FileView struct {
	FileInfo     db.FileInfo
	MemberName   string
	SortOrder    int
	Availability Availability
	SyncStatus   db.SyncStatus
}

// FileSetView is a FileSet with its resolved member files, in sort order.
type FileSetView struct {
	FileSet db.FileSet
	Files   []FileView
}

// ReleaseView is a denormalised Release: its file sets (with files), the
// systems and software titles it belongs to, and its release items.
type ReleaseView struct {
	Release        db.Release
	FileSets       []FileSetView
	Systems        []db.System
	SoftwareTitles []db.SoftwareTitle
	Items          []db.ReleaseItem
	FileCount      int
}

// Assembler composes views from the underlying repositories.
type Assembler struct {
	releases       *db.ReleaseRepo
	fileSets       *db.FileSetRepo
	fileInfo       *db.FileInfoRepo
	systems        *db.SystemRepo
	softwareTitles *db.SoftwareTitleRepo
	syncLog        *db.FileSyncLogRepo
	fs             capability.FileSystemOps
	content        interface{ Path(db.FileInfo) string }
}

// New creates an Assembler. content provides the physical path for a
// FileInfo (the content store), used to probe local presence.
func New(
	releases *db.ReleaseRepo,
	fileSets *db.FileSetRepo,
	fileInfo *db.FileInfoRepo,
	systems *db.SystemRepo,
	softwareTitles *db.SoftwareTitleRepo,
	syncLog *db.FileSyncLogRepo,
	fs capability.FileSystemOps,
	content interface{ Path(db.FileInfo) string },
) *Assembler {
	return &Assembler{
		releases: releases, fileSets: fileSets, fileInfo: fileInfo,
		systems: systems, softwareTitles: softwareTitles, syncLog: syncLog,
		fs: fs, content: content,
	}
}

// Release assembles a ReleaseView for the given release id.
func (a *Assembler) Release(ctx context.Context, releaseID int64) (*ReleaseView, error) {
	release, err := a.releases.GetByID(ctx, releaseID)
	if err != nil {
		return nil, fmt.Errorf("view: loading release %d: %w", releaseID, err)
	}

	fileSetIDs, err := a.releases.LinkedFileSetIDs(ctx, releaseID)
	if err != nil {
		return nil, fmt.Errorf("view: loading linked file sets for release %d: %w", releaseID, err)
	}

	fileSets, err := a.fileSets.ListByIDs(ctx, fileSetIDs)
	if err != nil {
		return nil, fmt.Errorf("view: loading file sets for release %d: %w", releaseID, err)
	}

	fileSetViews := make([]FileSetView, 0, len(fileSets))
	fileCount := 0

	for _, fs := range fileSets {
		fsView, err := a.FileSet(ctx, fs)
		if err != nil {
			return nil, err
		}

		fileCount += len(fsView.Files)
		fileSetViews = append(fileSetViews, *fsView)
	}

	items, err := a.releases.ItemsByRelease(ctx, releaseID)
	if err != nil {
		return nil, fmt.Errorf("view: loading release items for release %d: %w", releaseID, err)
	}

	systemIDs, err := a.releases.LinkedSystemIDs(ctx, releaseID)
	if err != nil {
		return nil, fmt.Errorf("view: loading linked systems for release %d: %w", releaseID, err)
	}

	systems, err := a.systems.ListByIDs(ctx, systemIDs)
	if err != nil {
		return nil, fmt.Errorf("view: resolving systems for release %d: %w", releaseID, err)
	}

	titleIDs, err := a.releases.LinkedSoftwareTitleIDs(ctx, releaseID)
	if err != nil {
		return nil, fmt.Errorf("view: loading linked software titles for release %d: %w", releaseID, err)
	}

	titles, err := a.softwareTitles.ListByIDs(ctx, titleIDs)
	if err != nil {
		return nil, fmt.Errorf("view: resolving software titles for release %d: %w", releaseID, err)
	}

	return &ReleaseView{
		Release:        *release,
		FileSets:       fileSetViews,
		Systems:        systems,
		SoftwareTitles: titles,
		Items:          items,
		FileCount:      fileCount,
	}, nil
}

// FileSet assembles a FileSetView for an already-loaded FileSet row.
func (a *Assembler) FileSet(ctx context.Context, fileSet db.FileSet) (*FileSetView, error) {
	memberships, err := a.fileSets.Memberships(ctx, fileSet.ID)
	if err != nil {
		return nil, fmt.Errorf("view: loading memberships for file_set %d: %w", fileSet.ID, err)
	}

	fileInfoIDs := make([]int64, len(memberships))
	for i, m := range memberships {
		fileInfoIDs[i] = m.FileInfoID
	}

	fileInfos, err := a.fileInfo.ListByIDs(ctx, fileInfoIDs)
	if err != nil {
		return nil, fmt.Errorf("view: loading file_info for file_set %d: %w", fileSet.ID, err)
	}

	byID := make(map[int64]db.FileInfo, len(fileInfos))
	for _, f := range fileInfos {
		byID[f.ID] = f
	}

	latest, err := a.syncLog.LatestByFileInfoIDs(ctx, fileInfoIDs)
	if err != nil {
		return nil, fmt.Errorf("view: loading sync state for file_set %d: %w", fileSet.ID, err)
	}

	files := make([]FileView, 0, len(memberships))

	for _, m := range memberships {
		f, ok := byID[m.FileInfoID]
		if !ok {
			continue
		}

		present := false
		if a.fs != nil && a.content != nil {
			present, _ = a.fs.Exists(a.content.Path(f))
		}

		syncEntry, hasSyncEntry := latest[f.ID]

		files = append(files, FileView{
			FileInfo:     f,
			MemberName:   m.MemberName,
			SortOrder:    m.SortOrder,
			Availability: deriveAvailability(present, hasSyncEntry, syncEntry.Status),
			SyncStatus:   syncEntry.Status,
		})
	}

	return &FileSetView{FileSet: fileSet, Files: files}, nil
}

// deriveAvailability derives the four-state cloud availability from local
// presence and the latest sync log status. A file counts as "present in
// the cloud" once it has reached UploadCompleted and has not since moved
// past DeletionCompleted.
func deriveAvailability(presentLocally, hasSyncEntry bool, status db.SyncStatus) Availability {
	presentCloud := hasSyncEntry && isCloudPresentStatus(status)

	switch {
	case presentLocally && presentCloud:
		return AvailabilityPresentBoth
	case presentLocally:
		return AvailabilityLocalOnly
	case presentCloud:
		return AvailabilityCloudOnly
	default:
		return AvailabilityAbsent
	}
}

func isCloudPresentStatus(status db.SyncStatus) bool {
	switch status {
	case db.SyncStatusUploadCompleted, db.SyncStatusDeletionPending, db.SyncStatusDeletionInProgress, db.SyncStatusDeletionFailed:
		return true
	default:
		return false
	}
}
