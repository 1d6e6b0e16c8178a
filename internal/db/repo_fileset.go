package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// FileSetRepo provides CRUD access to the file_set table and its
// file_set_file_info membership junction.
type FileSetRepo struct {
	db *sql.DB
}

// NewFileSetRepo creates a FileSetRepo sharing the given connection.
func NewFileSetRepo(db *sql.DB) *FileSetRepo {
	return &FileSetRepo{db: db}
}

const fileSetSelectCols = `id, name, file_type`

func scanFileSet(row interface{ Scan(dest ...any) error }) (*FileSet, error) {
	var s FileSet
	if err := row.Scan(&s.ID, &s.Name, &s.FileType); err != nil {
		return nil, err
	}

	return &s, nil
}

// GetByID fetches a FileSet by its primary key.
func (r *FileSetRepo) GetByID(ctx context.Context, id int64) (*FileSet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fileSetSelectCols+` FROM file_set WHERE id = ?`, id)

	s, err := scanFileSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: get file_set %d: %w", id, err)
	}

	return s, nil
}

// ListByIDs fetches a batch of FileSet rows in a single IN-list query.
func (r *FileSetRepo) ListByIDs(ctx context.Context, ids []int64) ([]FileSet, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + fileSetSelectCols + ` FROM file_set WHERE id IN (` + placeholders(len(ids)) + `)`

	rows, err := r.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("db: list file_set by ids: %w", err)
	}
	defer rows.Close()

	var result []FileSet

	for rows.Next() {
		s, scanErr := scanFileSet(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("db: scanning file_set: %w", scanErr)
		}

		result = append(result, *s)
	}

	return result, rows.Err()
}

// ListByFileType fetches every FileSet of the given file_type, used by the
// file-type migration pipeline to find sets still on a deprecated type.
func (r *FileSetRepo) ListByFileType(ctx context.Context, fileType string) ([]FileSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+fileSetSelectCols+` FROM file_set WHERE file_type = ?`, fileType)
	if err != nil {
		return nil, fmt.Errorf("db: list file_set by file_type %s: %w", fileType, err)
	}
	defer rows.Close()

	var result []FileSet

	for rows.Next() {
		s, scanErr := scanFileSet(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("db: scanning file_set: %w", scanErr)
		}

		result = append(result, *s)
	}

	return result, rows.Err()
}

// MigrateFileTypeTx reclassifies a FileSet's file_type using an externally
// managed transaction. Bypasses UpdateTx's immutability because the caller
// is the file-type migration pipeline itself, which has already moved the
// set's member blobs to match.
func (r *FileSetRepo) MigrateFileTypeTx(ctx context.Context, q querier, id int64, newType string) error {
	_, err := q.ExecContext(ctx, `UPDATE file_set SET file_type = ? WHERE id = ?`, newType, id)
	if err != nil {
		return fmt.Errorf("db: migrate file_set %d file_type: %w", id, err)
	}

	return nil
}

// CreateTx inserts a new FileSet using an externally managed transaction.
func (r *FileSetRepo) CreateTx(ctx context.Context, q querier, s FileSet) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO file_set (name, file_type) VALUES (?, ?)`, s.Name, s.FileType)
	if err != nil {
		return 0, fmt.Errorf("db: insert file_set: %w", err)
	}

	return result.LastInsertId()
}

// UpdateTx renames a FileSet using an externally managed transaction.
// file_type is immutable once created; reclassification goes through the
// file-type migration pipeline instead.
func (r *FileSetRepo) UpdateTx(ctx context.Context, q querier, id int64, name string) error {
	_, err := q.ExecContext(ctx, `UPDATE file_set SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("db: update file_set %d: %w", id, err)
	}

	return nil
}

// DeleteTx removes a FileSet row using an externally managed transaction.
// Cascades file_set_file_info and file_set_item rows at the schema level;
// callers must have already verified no Release references it.
func (r *FileSetRepo) DeleteTx(ctx context.Context, q querier, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM file_set WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db: delete file_set %d: %w", id, err)
	}

	return nil
}

// ReleaseCount returns how many Releases reference the given FileSet. A
// FileSet is deletable only when this is zero.
func (r *FileSetRepo) ReleaseCount(ctx context.Context, id int64) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM release_file_set WHERE file_set_id = ?`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db: count file_set releases %d: %w", id, err)
	}

	return count, nil
}

// Memberships returns the FileSetMembership rows for a FileSet, ordered by
// sort_order.
func (r *FileSetRepo) Memberships(ctx context.Context, fileSetID int64) ([]FileSetMembership, error) {
	return r.memberships(ctx, r.db, fileSetID)
}

func (r *FileSetRepo) memberships(ctx context.Context, q querier, fileSetID int64) ([]FileSetMembership, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT file_set_id, file_info_id, member_name, sort_order
		 FROM file_set_file_info WHERE file_set_id = ? ORDER BY sort_order`, fileSetID)
	if err != nil {
		return nil, fmt.Errorf("db: list memberships of file_set %d: %w", fileSetID, err)
	}
	defer rows.Close()

	var result []FileSetMembership

	for rows.Next() {
		var m FileSetMembership
		if err := rows.Scan(&m.FileSetID, &m.FileInfoID, &m.MemberName, &m.SortOrder); err != nil {
			return nil, fmt.Errorf("db: scanning membership: %w", err)
		}

		result = append(result, m)
	}

	return result, rows.Err()
}

// AddMemberTx links a FileInfo into a FileSet using an externally managed
// transaction.
func (r *FileSetRepo) AddMemberTx(ctx context.Context, q querier, m FileSetMembership) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO file_set_file_info (file_set_id, file_info_id, member_name, sort_order)
		 VALUES (?, ?, ?, ?)`, m.FileSetID, m.FileInfoID, m.MemberName, m.SortOrder)
	if err != nil {
		return fmt.Errorf("db: link file_info %d into file_set %d: %w", m.FileInfoID, m.FileSetID, err)
	}

	return nil
}

// RemoveMemberTx unlinks a FileInfo from a FileSet using an externally
// managed transaction. Does not touch the FileInfo row itself.
func (r *FileSetRepo) RemoveMemberTx(ctx context.Context, q querier, fileSetID, fileInfoID int64) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM file_set_file_info WHERE file_set_id = ? AND file_info_id = ?`,
		fileSetID, fileInfoID)
	if err != nil {
		return fmt.Errorf("db: unlink file_info %d from file_set %d: %w", fileInfoID, fileSetID, err)
	}

	return nil
}

// LinkItemTx associates a FileSet with a ReleaseItem, optional categorisation
// metadata orthogonal to the primary Release<->FileSet relation.
func (r *FileSetRepo) LinkItemTx(ctx context.Context, q querier, fileSetID, releaseItemID int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO file_set_item (file_set_id, release_item_id) VALUES (?, ?)`,
		fileSetID, releaseItemID)
	if err != nil {
		return fmt.Errorf("db: link file_set %d to release_item %d: %w", fileSetID, releaseItemID, err)
	}

	return nil
}

// LinkDatGameTx records the catalogue game a FileSet was matched against
// during DAT-assisted mass import.
func (r *FileSetRepo) LinkDatGameTx(ctx context.Context, q querier, fileSetID, datGameID int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO file_set_dat_game (file_set_id, dat_game_id) VALUES (?, ?)`,
		fileSetID, datGameID)
	if err != nil {
		return fmt.Errorf("db: link file_set %d to dat_game %d: %w", fileSetID, datGameID, err)
	}

	return nil
}

// FindByDatGame looks up the FileSet already matched against a catalogue
// game, if any, so a re-run of mass import recognises already-imported sets.
func (r *FileSetRepo) FindByDatGame(ctx context.Context, datGameID int64) (*FileSet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT fs.id, fs.name, fs.file_type FROM file_set fs
		 JOIN file_set_dat_game fsdg ON fsdg.file_set_id = fs.id
		 WHERE fsdg.dat_game_id = ?`, datGameID)

	s, err := scanFileSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: find file_set by dat_game %d: %w", datGameID, err)
	}

	return s, nil
}
