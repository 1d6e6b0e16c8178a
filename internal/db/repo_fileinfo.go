package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned by single-row reads when no row matches.
var ErrNotFound = errors.New("db: not found")

// FileInfoRepo provides CRUD access to the file_info table.
type FileInfoRepo struct {
	db *sql.DB
}

// NewFileInfoRepo creates a FileInfoRepo sharing the given connection.
func NewFileInfoRepo(db *sql.DB) *FileInfoRepo {
	return &FileInfoRepo{db: db}
}

const fileInfoSelectCols = `id, sha1, uncompressed_size, archive_name, file_type`

func scanFileInfo(row interface{ Scan(dest ...any) error }) (*FileInfo, error) {
	var f FileInfo
	if err := row.Scan(&f.ID, &f.SHA1, &f.UncompressedSize, &f.ArchiveName, &f.FileType); err != nil {
		return nil, err
	}

	return &f, nil
}

// GetByID fetches a FileInfo by its primary key.
func (r *FileInfoRepo) GetByID(ctx context.Context, id int64) (*FileInfo, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *FileInfoRepo) getByID(ctx context.Context, q querier, id int64) (*FileInfo, error) {
	row := q.QueryRowContext(ctx, `SELECT `+fileInfoSelectCols+` FROM file_info WHERE id = ?`, id)

	f, err := scanFileInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: get file_info %d: %w", id, err)
	}

	return f, nil
}

// GetBySHA1 fetches a FileInfo by its content digest, the primary way
// deduplication checks for an existing file.
func (r *FileInfoRepo) GetBySHA1(ctx context.Context, sha1 string) (*FileInfo, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fileInfoSelectCols+` FROM file_info WHERE sha1 = ?`, sha1)

	f, err := scanFileInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: get file_info by sha1: %w", err)
	}

	return f, nil
}

// ListBySHA1s resolves a batch of SHA-1 digests to their FileInfo rows in a
// single IN-list query, keyed by SHA-1. Digests with no match are absent
// from the result.
func (r *FileInfoRepo) ListBySHA1s(ctx context.Context, sha1s []string) (map[string]*FileInfo, error) {
	result := make(map[string]*FileInfo, len(sha1s))
	if len(sha1s) == 0 {
		return result, nil
	}

	args := make([]any, len(sha1s))
	for i, s := range sha1s {
		args[i] = s
	}

	query := `SELECT ` + fileInfoSelectCols + ` FROM file_info WHERE sha1 IN (` + placeholders(len(sha1s)) + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db: list file_info by sha1s: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f, scanErr := scanFileInfo(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("db: scanning file_info: %w", scanErr)
		}

		result[f.SHA1] = f
	}

	return result, rows.Err()
}

// ListByIDs fetches a batch of FileInfo rows by primary key in a single
// IN-list query.
func (r *FileInfoRepo) ListByIDs(ctx context.Context, ids []int64) ([]FileInfo, error) {
	return r.listByIDs(ctx, r.db, ids)
}

func (r *FileInfoRepo) listByIDs(ctx context.Context, q querier, ids []int64) ([]FileInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + fileInfoSelectCols + ` FROM file_info WHERE id IN (` + placeholders(len(ids)) + `)`

	rows, err := q.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("db: list file_info by ids: %w", err)
	}
	defer rows.Close()

	var result []FileInfo

	for rows.Next() {
		f, scanErr := scanFileInfo(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("db: scanning file_info: %w", scanErr)
		}

		result = append(result, *f)
	}

	return result, rows.Err()
}

// Create inserts a new FileInfo and returns its assigned ID.
func (r *FileInfoRepo) Create(ctx context.Context, f FileInfo) (int64, error) {
	return r.CreateTx(ctx, r.db, f)
}

// CreateTx inserts a new FileInfo using an externally managed transaction.
func (r *FileInfoRepo) CreateTx(ctx context.Context, q querier, f FileInfo) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO file_info (sha1, uncompressed_size, archive_name, file_type) VALUES (?, ?, ?, ?)`,
		f.SHA1, f.UncompressedSize, f.ArchiveName, f.FileType)
	if err != nil {
		return 0, fmt.Errorf("db: insert file_info: %w", err)
	}

	return result.LastInsertId()
}

// DeleteTx removes a FileInfo row using an externally managed transaction.
// Cascades its file_info_system links and file_sync_log rows at the schema
// level; callers must have already verified no FileSet references it.
func (r *FileInfoRepo) DeleteTx(ctx context.Context, q querier, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM file_info WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db: delete file_info %d: %w", id, err)
	}

	return nil
}

// ReferenceCount returns how many file_set_file_info rows reference the
// given FileInfo. A FileInfo is deletable only when this is zero.
func (r *FileInfoRepo) ReferenceCount(ctx context.Context, id int64) (int, error) {
	return r.referenceCount(ctx, r.db, id)
}

func (r *FileInfoRepo) referenceCount(ctx context.Context, q querier, id int64) (int, error) {
	var count int

	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM file_set_file_info WHERE file_info_id = ?`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db: count file_info references %d: %w", id, err)
	}

	return count, nil
}

// MigrateFileTypeTx reclassifies a FileInfo's file_type using an externally
// managed transaction, mirroring FileSetRepo.MigrateFileTypeTx. The caller
// is responsible for having already relocated the physical blob.
func (r *FileInfoRepo) MigrateFileTypeTx(ctx context.Context, q querier, id int64, newType string) error {
	_, err := q.ExecContext(ctx, `UPDATE file_info SET file_type = ? WHERE id = ?`, newType, id)
	if err != nil {
		return fmt.Errorf("db: migrate file_info %d file_type: %w", id, err)
	}

	return nil
}

// LinkSystemTx associates a FileInfo with a System (a manual applying to
// multiple systems).
func (r *FileInfoRepo) LinkSystemTx(ctx context.Context, q querier, fileInfoID, systemID int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO file_info_system (file_info_id, system_id) VALUES (?, ?)`,
		fileInfoID, systemID)
	if err != nil {
		return fmt.Errorf("db: link file_info %d to system %d: %w", fileInfoID, systemID, err)
	}

	return nil
}
