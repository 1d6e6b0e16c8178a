package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReleaseRepo provides CRUD access to the release table and its junctions
// to FileSet, SoftwareTitle, and System.
type ReleaseRepo struct {
	db *sql.DB
}

// NewReleaseRepo creates a ReleaseRepo sharing the given connection.
func NewReleaseRepo(db *sql.DB) *ReleaseRepo {
	return &ReleaseRepo{db: db}
}

func scanRelease(row interface{ Scan(dest ...any) error }) (*Release, error) {
	var r Release
	if err := row.Scan(&r.ID, &r.Name); err != nil {
		return nil, err
	}

	return &r, nil
}

// GetByID fetches a Release by its primary key.
func (r *ReleaseRepo) GetByID(ctx context.Context, id int64) (*Release, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM release WHERE id = ?`, id)

	rel, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: get release %d: %w", id, err)
	}

	return rel, nil
}

// ListByIDs fetches a batch of Release rows in a single IN-list query.
func (r *ReleaseRepo) ListByIDs(ctx context.Context, ids []int64) ([]Release, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, name FROM release WHERE id IN (` + placeholders(len(ids)) + `)`

	rows, err := r.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("db: list release by ids: %w", err)
	}
	defer rows.Close()

	var result []Release

	for rows.Next() {
		rel, scanErr := scanRelease(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("db: scanning release: %w", scanErr)
		}

		result = append(result, *rel)
	}

	return result, rows.Err()
}

// CreateTx inserts a new Release using an externally managed transaction.
func (r *ReleaseRepo) CreateTx(ctx context.Context, q querier, name string) (int64, error) {
	result, err := q.ExecContext(ctx, `INSERT INTO release (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("db: insert release: %w", err)
	}

	return result.LastInsertId()
}

// UpdateTx renames a Release using an externally managed transaction.
func (r *ReleaseRepo) UpdateTx(ctx context.Context, q querier, id int64, name string) error {
	_, err := q.ExecContext(ctx, `UPDATE release SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("db: update release %d: %w", id, err)
	}

	return nil
}

// DeleteTx removes a Release row using an externally managed transaction.
// Cascades release_file_set, release_software_title, release_system, and
// release_item rows at the schema level; never cascades to FileSet itself.
func (r *ReleaseRepo) DeleteTx(ctx context.Context, q querier, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM release WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db: delete release %d: %w", id, err)
	}

	return nil
}

// LinkedFileSetIDs returns the FileSet ids linked to a Release via the
// release_file_set junction.
func (r *ReleaseRepo) LinkedFileSetIDs(ctx context.Context, releaseID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT file_set_id FROM release_file_set WHERE release_id = ?`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("db: list linked file_set ids for release %d: %w", releaseID, err)
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db: scanning file_set id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// LinkedSystemIDs returns the System ids linked to a Release via the
// release_system junction.
func (r *ReleaseRepo) LinkedSystemIDs(ctx context.Context, releaseID int64) ([]int64, error) {
	return r.linkedIDs(ctx, "release_system", "system_id", releaseID)
}

// LinkedSoftwareTitleIDs returns the SoftwareTitle ids linked to a Release
// via the release_software_title junction.
func (r *ReleaseRepo) LinkedSoftwareTitleIDs(ctx context.Context, releaseID int64) ([]int64, error) {
	return r.linkedIDs(ctx, "release_software_title", "software_title_id", releaseID)
}

func (r *ReleaseRepo) linkedIDs(ctx context.Context, table, column string, releaseID int64) ([]int64, error) {
	query := `SELECT ` + column + ` FROM ` + table + ` WHERE release_id = ?` //nolint:gosec // table/column are compile-time constants, never user input

	rows, err := r.db.QueryContext(ctx, query, releaseID)
	if err != nil {
		return nil, fmt.Errorf("db: list linked %s for release %d: %w", table, releaseID, err)
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db: scanning %s: %w", column, err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ReleasesByFileSetID returns the Release ids linked to a FileSet via the
// release_file_set junction, the reverse direction of LinkedFileSetIDs.
func (r *ReleaseRepo) ReleasesByFileSetID(ctx context.Context, fileSetID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT release_id FROM release_file_set WHERE file_set_id = ?`, fileSetID)
	if err != nil {
		return nil, fmt.Errorf("db: list releases linking file_set %d: %w", fileSetID, err)
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db: scanning release id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// LinkFileSetTx associates a Release with a FileSet.
func (r *ReleaseRepo) LinkFileSetTx(ctx context.Context, q querier, releaseID, fileSetID int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO release_file_set (release_id, file_set_id) VALUES (?, ?)`,
		releaseID, fileSetID)
	if err != nil {
		return fmt.Errorf("db: link release %d to file_set %d: %w", releaseID, fileSetID, err)
	}

	return nil
}

// UnlinkFileSetTx removes the association between a Release and a FileSet.
func (r *ReleaseRepo) UnlinkFileSetTx(ctx context.Context, q querier, releaseID, fileSetID int64) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM release_file_set WHERE release_id = ? AND file_set_id = ?`, releaseID, fileSetID)
	if err != nil {
		return fmt.Errorf("db: unlink release %d from file_set %d: %w", releaseID, fileSetID, err)
	}

	return nil
}

// LinkSoftwareTitleTx associates a Release with a SoftwareTitle.
func (r *ReleaseRepo) LinkSoftwareTitleTx(ctx context.Context, q querier, releaseID, titleID int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO release_software_title (release_id, software_title_id) VALUES (?, ?)`,
		releaseID, titleID)
	if err != nil {
		return fmt.Errorf("db: link release %d to software_title %d: %w", releaseID, titleID, err)
	}

	return nil
}

// LinkSystemTx associates a Release with a System.
func (r *ReleaseRepo) LinkSystemTx(ctx context.Context, q querier, releaseID, systemID int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO release_system (release_id, system_id) VALUES (?, ?)`,
		releaseID, systemID)
	if err != nil {
		return fmt.Errorf("db: link release %d to system %d: %w", releaseID, systemID, err)
	}

	return nil
}

// FileSetCount returns how many FileSets are linked to a Release. Used to
// enforce the invariant that a Release must reference at least one FileSet
// at creation time.
func (r *ReleaseRepo) FileSetCount(ctx context.Context, q querier, releaseID int64) (int, error) {
	var count int

	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM release_file_set WHERE release_id = ?`, releaseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db: count release %d file sets: %w", releaseID, err)
	}

	return count, nil
}

// SystemCount returns how many Systems are linked to a Release. Used to
// enforce the invariant that a Release must reference at least one System
// at creation time.
func (r *ReleaseRepo) SystemCount(ctx context.Context, q querier, releaseID int64) (int, error) {
	var count int

	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM release_system WHERE release_id = ?`, releaseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db: count release %d systems: %w", releaseID, err)
	}

	return count, nil
}

// CreateItemTx creates a ReleaseItem belonging to a Release.
func (r *ReleaseRepo) CreateItemTx(ctx context.Context, q querier, item ReleaseItem) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO release_item (release_id, item_type, notes) VALUES (?, ?, ?)`,
		item.ReleaseID, item.ItemType, item.Notes)
	if err != nil {
		return 0, fmt.Errorf("db: insert release_item for release %d: %w", item.ReleaseID, err)
	}

	return result.LastInsertId()
}

// ItemsByRelease returns the ReleaseItem rows belonging to a Release.
func (r *ReleaseRepo) ItemsByRelease(ctx context.Context, releaseID int64) ([]ReleaseItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, release_id, item_type, notes FROM release_item WHERE release_id = ?`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("db: list release_item for release %d: %w", releaseID, err)
	}
	defer rows.Close()

	var result []ReleaseItem

	for rows.Next() {
		var item ReleaseItem
		var notes sql.NullString

		if err := rows.Scan(&item.ID, &item.ReleaseID, &item.ItemType, &notes); err != nil {
			return nil, fmt.Errorf("db: scanning release_item: %w", err)
		}

		item.Notes = notes.String
		result = append(result, item)
	}

	return result, rows.Err()
}
