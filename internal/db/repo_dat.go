package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DatRepo provides CRUD access to the dat_file, dat_game, and dat_rom
// tables that hold imported No-Intro catalogue metadata.
type DatRepo struct {
	db *sql.DB
}

// NewDatRepo creates a DatRepo sharing the given connection.
func NewDatRepo(db *sql.DB) *DatRepo {
	return &DatRepo{db: db}
}

// FindFileByExternalID looks up a previously-stored DatFile by the
// catalogue's own id, so re-importing the same DAT does not duplicate it.
func (r *DatRepo) FindFileByExternalID(ctx context.Context, externalID string) (*DatFile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, external_id, name, description, version, date, author, homepage, url
		 FROM dat_file WHERE external_id = ?`, externalID)

	f, err := scanDatFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: find dat_file by external_id: %w", err)
	}

	return f, nil
}

// CreateFileTx inserts a new DatFile using an externally managed transaction.
func (r *DatRepo) CreateFileTx(ctx context.Context, q querier, f DatFile) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO dat_file (external_id, name, description, version, date, author, homepage, url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ExternalID, f.Name, f.Description, f.Version, f.Date, f.Author, f.Homepage, f.URL)
	if err != nil {
		return 0, fmt.Errorf("db: insert dat_file: %w", err)
	}

	return result.LastInsertId()
}

// CreateGameTx inserts a new DatGame belonging to a DatFile.
func (r *DatRepo) CreateGameTx(ctx context.Context, q querier, g DatGame) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO dat_game (dat_file_id, external_id, name, description, clone_of)
		 VALUES (?, ?, ?, ?, ?)`,
		g.DatFileID, g.ExternalID, g.Name, g.Description, g.CloneOf)
	if err != nil {
		return 0, fmt.Errorf("db: insert dat_game %q: %w", g.Name, err)
	}

	return result.LastInsertId()
}

// CreateRomTx inserts a new DatRom belonging to a DatGame.
func (r *DatRepo) CreateRomTx(ctx context.Context, q querier, rom DatRom) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO dat_rom (dat_game_id, name, size, crc, md5, sha1, sha256, status, serial, header)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rom.DatGameID, rom.Name, rom.Size, rom.CRC, rom.MD5, rom.SHA1, rom.SHA256, rom.Status, rom.Serial, rom.Header)
	if err != nil {
		return 0, fmt.Errorf("db: insert dat_rom %q: %w", rom.Name, err)
	}

	return result.LastInsertId()
}

// GamesByFile returns every DatGame belonging to a DatFile.
func (r *DatRepo) GamesByFile(ctx context.Context, datFileID int64) ([]DatGame, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, dat_file_id, external_id, name, description, clone_of
		 FROM dat_game WHERE dat_file_id = ?`, datFileID)
	if err != nil {
		return nil, fmt.Errorf("db: list dat_game for dat_file %d: %w", datFileID, err)
	}
	defer rows.Close()

	var result []DatGame

	for rows.Next() {
		var (
			g           DatGame
			description sql.NullString
			cloneOf     sql.NullString
		)

		if err := rows.Scan(&g.ID, &g.DatFileID, &g.ExternalID, &g.Name, &description, &cloneOf); err != nil {
			return nil, fmt.Errorf("db: scanning dat_game: %w", err)
		}

		g.Description = description.String
		g.CloneOf = cloneOf.String
		result = append(result, g)
	}

	return result, rows.Err()
}

// RomsByGame returns every DatRom belonging to a DatGame.
func (r *DatRepo) RomsByGame(ctx context.Context, datGameID int64) ([]DatRom, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, dat_game_id, name, size, crc, md5, sha1, sha256, status, serial, header
		 FROM dat_rom WHERE dat_game_id = ?`, datGameID)
	if err != nil {
		return nil, fmt.Errorf("db: list dat_rom for dat_game %d: %w", datGameID, err)
	}
	defer rows.Close()

	var result []DatRom

	for rows.Next() {
		rom, err := scanDatRom(rows)
		if err != nil {
			return nil, fmt.Errorf("db: scanning dat_rom: %w", err)
		}

		result = append(result, *rom)
	}

	return result, rows.Err()
}

// FindRomsBySHA1s resolves a batch of SHA-1 digests to their DatRom rows in
// a single IN-list query, the core of DAT-assisted matching.
func (r *DatRepo) FindRomsBySHA1s(ctx context.Context, sha1s []string) (map[string]DatRom, error) {
	result := make(map[string]DatRom, len(sha1s))
	if len(sha1s) == 0 {
		return result, nil
	}

	args := make([]any, len(sha1s))
	for i, s := range sha1s {
		args[i] = s
	}

	query := `SELECT id, dat_game_id, name, size, crc, md5, sha1, sha256, status, serial, header
		FROM dat_rom WHERE sha1 IN (` + placeholders(len(sha1s)) + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db: find dat_rom by sha1s: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rom, err := scanDatRom(rows)
		if err != nil {
			return nil, fmt.Errorf("db: scanning dat_rom: %w", err)
		}

		result[rom.SHA1] = *rom
	}

	return result, rows.Err()
}

func scanDatFile(row interface{ Scan(dest ...any) error }) (*DatFile, error) {
	var (
		f                                                  DatFile
		description, version, date, author, homepage, url sql.NullString
	)

	err := row.Scan(&f.ID, &f.ExternalID, &f.Name, &description, &version, &date, &author, &homepage, &url)
	if err != nil {
		return nil, err
	}

	f.Description = description.String
	f.Version = version.String
	f.Date = date.String
	f.Author = author.String
	f.Homepage = homepage.String
	f.URL = url.String

	return &f, nil
}

func scanDatRom(row interface{ Scan(dest ...any) error }) (*DatRom, error) {
	var (
		rom                                  DatRom
		crc, md5, sha1, sha256, status, serial, header sql.NullString
	)

	err := row.Scan(&rom.ID, &rom.DatGameID, &rom.Name, &rom.Size, &crc, &md5, &sha1, &sha256, &status, &serial, &header)
	if err != nil {
		return nil, err
	}

	rom.CRC = crc.String
	rom.MD5 = md5.String
	rom.SHA1 = sha1.String
	rom.SHA256 = sha256.String
	rom.Status = status.String
	rom.Serial = serial.String
	rom.Header = header.String

	return &rom, nil
}
