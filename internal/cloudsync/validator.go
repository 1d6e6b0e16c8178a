package cloudsync

import "github.com/arcadekeep/arcadekeep/internal/db"

// noPriorState represents a FileInfo with no file_sync_log row yet.
const noPriorState db.SyncStatus = ""

// validTransitions enumerates the allowed status transitions for a single
// FileInfo's sync state. Appending a transition outside this table would
// desynchronise the log from what actually happened in the cloud, so
// every append in this package is checked against it first.
var validTransitions = map[db.SyncStatus][]db.SyncStatus{
	noPriorState:                    {db.SyncStatusUploadPending},
	db.SyncStatusUploadPending:      {db.SyncStatusUploadInProgress},
	db.SyncStatusUploadInProgress:   {db.SyncStatusUploadCompleted, db.SyncStatusUploadFailed},
	db.SyncStatusUploadFailed:       {db.SyncStatusUploadPending, db.SyncStatusUploadInProgress},
	db.SyncStatusUploadCompleted:    {db.SyncStatusDeletionPending},
	db.SyncStatusDeletionPending:    {db.SyncStatusDeletionInProgress},
	db.SyncStatusDeletionInProgress: {db.SyncStatusDeletionCompleted, db.SyncStatusDeletionFailed},
	db.SyncStatusDeletionFailed:     {db.SyncStatusDeletionPending, db.SyncStatusDeletionInProgress},
}

// isValidTransition reports whether moving a FileInfo's sync state from
// 'from' to 'to' is a recognised edge in the state diagram above.
func isValidTransition(from, to db.SyncStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// isCloudPresentStatus reports whether a status implies the file currently
// has (or very recently had) a cloud replica, matching the definition
// already used by internal/importing's removal reconciliation.
func isCloudPresentStatus(s db.SyncStatus) bool {
	switch s {
	case db.SyncStatusUploadCompleted, db.SyncStatusDeletionPending,
		db.SyncStatusDeletionInProgress, db.SyncStatusDeletionFailed:
		return true
	default:
		return false
	}
}
