package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SoftwareTitleRepo provides CRUD access to the software_title table.
type SoftwareTitleRepo struct {
	db *sql.DB
}

// NewSoftwareTitleRepo creates a SoftwareTitleRepo sharing the given connection.
func NewSoftwareTitleRepo(db *sql.DB) *SoftwareTitleRepo {
	return &SoftwareTitleRepo{db: db}
}

// GetByID fetches a SoftwareTitle by its primary key.
func (r *SoftwareTitleRepo) GetByID(ctx context.Context, id int64) (*SoftwareTitle, error) {
	var t SoftwareTitle

	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM software_title WHERE id = ?`, id).
		Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: get software_title %d: %w", id, err)
	}

	return &t, nil
}

// ListByIDs fetches a batch of SoftwareTitle rows in a single IN-list query.
func (r *SoftwareTitleRepo) ListByIDs(ctx context.Context, ids []int64) ([]SoftwareTitle, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, name FROM software_title WHERE id IN (` + placeholders(len(ids)) + `)`

	rows, err := r.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("db: list software_title by ids: %w", err)
	}
	defer rows.Close()

	var result []SoftwareTitle

	for rows.Next() {
		var t SoftwareTitle
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("db: scanning software_title: %w", err)
		}

		result = append(result, t)
	}

	return result, rows.Err()
}

// CreateTx inserts a new SoftwareTitle using an externally managed transaction.
func (r *SoftwareTitleRepo) CreateTx(ctx context.Context, q querier, name string) (int64, error) {
	result, err := q.ExecContext(ctx, `INSERT INTO software_title (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("db: insert software_title: %w", err)
	}

	return result.LastInsertId()
}

// UpdateTx renames a SoftwareTitle using an externally managed transaction.
func (r *SoftwareTitleRepo) UpdateTx(ctx context.Context, q querier, id int64, name string) error {
	_, err := q.ExecContext(ctx, `UPDATE software_title SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("db: update software_title %d: %w", id, err)
	}

	return nil
}

// DeleteTx removes a SoftwareTitle row using an externally managed transaction.
func (r *SoftwareTitleRepo) DeleteTx(ctx context.Context, q querier, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM software_title WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db: delete software_title %d: %w", id, err)
	}

	return nil
}

// SystemRepo provides CRUD access to the system table.
type SystemRepo struct {
	db *sql.DB
}

// NewSystemRepo creates a SystemRepo sharing the given connection.
func NewSystemRepo(db *sql.DB) *SystemRepo {
	return &SystemRepo{db: db}
}

// GetByID fetches a System by its primary key.
func (r *SystemRepo) GetByID(ctx context.Context, id int64) (*System, error) {
	var s System

	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM system WHERE id = ?`, id).Scan(&s.ID, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: get system %d: %w", id, err)
	}

	return &s, nil
}

// ListByIDs fetches a batch of System rows in a single IN-list query.
func (r *SystemRepo) ListByIDs(ctx context.Context, ids []int64) ([]System, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, name FROM system WHERE id IN (` + placeholders(len(ids)) + `)`

	rows, err := r.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("db: list system by ids: %w", err)
	}
	defer rows.Close()

	var result []System

	for rows.Next() {
		var s System
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("db: scanning system: %w", err)
		}

		result = append(result, s)
	}

	return result, rows.Err()
}

// FindByName looks up a System by its exact name, used when mass-import
// needs to reuse an existing System row rather than create a duplicate.
func (r *SystemRepo) FindByName(ctx context.Context, name string) (*System, error) {
	var s System

	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM system WHERE name = ?`, name).Scan(&s.ID, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: find system by name: %w", err)
	}

	return &s, nil
}

// CreateTx inserts a new System using an externally managed transaction.
func (r *SystemRepo) CreateTx(ctx context.Context, q querier, name string) (int64, error) {
	result, err := q.ExecContext(ctx, `INSERT INTO system (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("db: insert system: %w", err)
	}

	return result.LastInsertId()
}

// DeleteTx removes a System row using an externally managed transaction.
func (r *SystemRepo) DeleteTx(ctx context.Context, q querier, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM system WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db: delete system %d: %w", id, err)
	}

	return nil
}
