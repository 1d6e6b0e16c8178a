package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// FileSyncLogRepo provides append-only access to the file_sync_log table.
// Rows are never updated; the highest-id row per file_info_id is current.
type FileSyncLogRepo struct {
	db *sql.DB
}

// NewFileSyncLogRepo creates a FileSyncLogRepo sharing the given connection.
func NewFileSyncLogRepo(db *sql.DB) *FileSyncLogRepo {
	return &FileSyncLogRepo{db: db}
}

// AppendTx inserts a new FileSyncLog row using an externally managed
// transaction. Transitions are always expressed by appending, never by
// updating an existing row.
func (r *FileSyncLogRepo) AppendTx(ctx context.Context, q querier, entry FileSyncLog) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO file_sync_log (file_info_id, status, cloud_key, message, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.FileInfoID, entry.Status, entry.CloudKey, entry.Message, entry.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("db: append file_sync_log for file_info %d: %w", entry.FileInfoID, err)
	}

	return result.LastInsertId()
}

// Append inserts a new FileSyncLog row against the shared connection, for
// callers outside a larger transaction.
func (r *FileSyncLogRepo) Append(ctx context.Context, entry FileSyncLog) (int64, error) {
	return r.AppendTx(ctx, r.db, entry)
}

// LatestByFileInfoID returns the current (highest-id) FileSyncLog row for a
// FileInfo, or nil if the file has never been synced.
func (r *FileSyncLogRepo) LatestByFileInfoID(ctx context.Context, fileInfoID int64) (*FileSyncLog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, file_info_id, status, cloud_key, message, timestamp
		 FROM file_sync_log WHERE file_info_id = ? ORDER BY id DESC LIMIT 1`, fileInfoID)

	entry, err := scanSyncLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence of a sync record is a valid, common state
	}
	if err != nil {
		return nil, fmt.Errorf("db: latest file_sync_log for file_info %d: %w", fileInfoID, err)
	}

	return entry, nil
}

// LatestByFileInfoIDs resolves the current sync state for a batch of
// FileInfo ids in a single query, keyed by file_info_id. Ids with no sync
// history are absent from the result.
func (r *FileSyncLogRepo) LatestByFileInfoIDs(ctx context.Context, ids []int64) (map[int64]FileSyncLog, error) {
	result := make(map[int64]FileSyncLog, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, file_info_id, status, cloud_key, message, timestamp
		FROM file_sync_log
		WHERE id IN (
			SELECT MAX(id) FROM file_sync_log WHERE file_info_id IN (` + placeholders(len(ids)) + `)
			GROUP BY file_info_id
		)`

	rows, err := r.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("db: latest file_sync_log batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, scanErr := scanSyncLog(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("db: scanning file_sync_log: %w", scanErr)
		}

		result[entry.FileInfoID] = *entry
	}

	return result, rows.Err()
}

// ListByStatus returns the FileInfo ids whose latest sync log status is one
// of the given statuses. Used by PrepareFilesForUpload to enumerate
// UploadPending/UploadFailed/UploadInProgress files and by DeleteMarkedFiles
// for DeletionPending/DeletionInProgress files.
func (r *FileSyncLogRepo) ListByStatus(ctx context.Context, statuses []SyncStatus) ([]int64, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}

	query := `SELECT file_info_id FROM file_sync_log l
		WHERE l.id = (SELECT MAX(id) FROM file_sync_log WHERE file_info_id = l.file_info_id)
		AND l.status IN (` + placeholders(len(statuses)) + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db: list file_info by sync status: %w", err)
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db: scanning file_info id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func scanSyncLog(row interface{ Scan(dest ...any) error }) (*FileSyncLog, error) {
	var (
		e       FileSyncLog
		status  string
		message sql.NullString
	)

	if err := row.Scan(&e.ID, &e.FileInfoID, &status, &e.CloudKey, &message, &e.Timestamp); err != nil {
		return nil, err
	}

	e.Status = SyncStatus(status)
	e.Message = message.String

	return &e, nil
}
