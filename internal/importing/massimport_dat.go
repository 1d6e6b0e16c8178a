package importing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arcadekeep/arcadekeep/internal/capability"
	"github.com/arcadekeep/arcadekeep/internal/db"
	"github.com/arcadekeep/arcadekeep/internal/pipeline"
)

// MassImportDatInput selects the catalogue and source directory for
// DAT-assisted mass import.
type MassImportDatInput struct {
	DatPath   string
	SourceDir string
	FileType  string
}

// datGameGroup pairs a parsed catalogue game with the local files matched
// against its roms by SHA-1.
type datGameGroup struct {
	externalID string
	name       string
	datGameID  int64
	files      []FileClassification
}

// MassImportDatContext is the DAT-assisted mass import pipeline's context.
type MassImportDatContext struct {
	Deps
	Input MassImportDatInput

	Catalogue  capability.DatFile
	DatFileID  int64
	Groups     []datGameGroup
	Candidates []FileClassification
	Results    []MassImportItemResult

	// gameDBIDs maps a catalogue game's external id (the DAT's own <game
	// id=...> attribute) to the dat_game row's primary key, whether the
	// catalogue was just stored or already existed.
	gameDBIDs map[string]int64
}

// NewMassImportDatPipeline builds the DAT-file mode mass import pipeline:
// parse and store the catalogue, scan the source directory, match local
// files to catalogue games by SHA-1, then create (or link to) one
// FileSet/Release/SoftwareTitle per matched game, each in its own
// transaction.
func NewMassImportDatPipeline(deps Deps) *pipeline.Pipeline[*MassImportDatContext] {
	return pipeline.New("mass_import_dat", deps.logger(),
		parseAndStoreCatalogueStep{},
		scanAndMatchStep{},
		commitGameGroupsStep{},
	)
}

type parseAndStoreCatalogueStep struct{}

func (parseAndStoreCatalogueStep) Name() string { return "parse_and_store_catalogue" }

func (parseAndStoreCatalogueStep) ShouldExecute(context.Context, *MassImportDatContext) bool { return true }

func (parseAndStoreCatalogueStep) Execute(ctx context.Context, c *MassImportDatContext) (pipeline.Outcome, error) {
	r, err := c.FileSystem.Open(c.Input.DatPath)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("opening catalogue %s: %w", c.Input.DatPath, err)
	}
	defer r.Close()

	catalogue, err := c.DatParser.Parse(r)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("parsing catalogue %s: %w", c.Input.DatPath, err)
	}

	c.Catalogue = catalogue

	existing, err := c.Dat.FindFileByExternalID(ctx, catalogue.Header.ID)
	switch {
	case err == nil:
		c.DatFileID = existing.ID

		games, err := c.Dat.GamesByFile(ctx, existing.ID)
		if err != nil {
			return pipeline.Abort, fmt.Errorf("loading previously stored catalogue games: %w", err)
		}

		idByExternal := make(map[string]int64, len(games))
		for _, g := range games {
			idByExternal[g.ExternalID] = g.ID
		}

		c.gameDBIDs = idByExternal
	default:
		datFileID, storeErr := c.storeCatalogue(ctx, catalogue)
		if storeErr != nil {
			return pipeline.Abort, storeErr
		}

		c.DatFileID = datFileID
	}

	return pipeline.Continue, nil
}

// storeCatalogue persists a freshly parsed catalogue (header, games, roms)
// in one transaction and returns the new dat_file id, recording each game's
// assigned id in c.gameDBIDs keyed by its external id.
func (c *MassImportDatContext) storeCatalogue(ctx context.Context, catalogue capability.DatFile) (int64, error) {
	gameDBIDs := make(map[string]int64, len(catalogue.Games))

	var datFileID int64

	err := c.Store.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := c.Dat.CreateFileTx(ctx, tx, db.DatFile{
			ExternalID: catalogue.Header.ID, Name: catalogue.Header.Name, Description: catalogue.Header.Description,
			Version: catalogue.Header.Version, Date: catalogue.Header.Date, Author: catalogue.Header.Author,
			Homepage: catalogue.Header.Homepage, URL: catalogue.Header.URL,
		})
		if err != nil {
			return err
		}

		datFileID = id

		for _, game := range catalogue.Games {
			gameID, err := c.Dat.CreateGameTx(ctx, tx, db.DatGame{
				DatFileID: id, ExternalID: game.ID, Name: game.Name,
				Description: game.Description, CloneOf: game.CloneOf,
			})
			if err != nil {
				return err
			}

			gameDBIDs[game.ID] = gameID

			for _, rom := range game.Roms {
				if _, err := c.Dat.CreateRomTx(ctx, tx, db.DatRom{
					DatGameID: gameID, Name: rom.Name, Size: rom.Size, CRC: rom.CRC, MD5: rom.MD5,
					SHA1: rom.SHA1, SHA256: rom.SHA256, Status: rom.Status, Serial: rom.Serial, Header: rom.Header,
				}); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("storing catalogue %s: %w", catalogue.Header.Name, err)
	}

	c.gameDBIDs = gameDBIDs

	return datFileID, nil
}

type scanAndMatchStep struct{}

func (scanAndMatchStep) Name() string { return "scan_and_match" }

func (scanAndMatchStep) ShouldExecute(context.Context, *MassImportDatContext) bool { return true }

func (scanAndMatchStep) Execute(ctx context.Context, c *MassImportDatContext) (pipeline.Outcome, error) {
	paths, err := c.FileSystem.ReadDir(c.Input.SourceDir)
	if err != nil {
		return pipeline.Abort, fmt.Errorf("scanning %s: %w", c.Input.SourceDir, err)
	}

	files := make([]FileInput, len(paths))
	for i, p := range paths {
		files[i] = FileInput{SourcePath: p}
	}

	candidates, err := classifyInputs(ctx, c.FileInfo, files)
	if err != nil {
		return pipeline.Abort, err
	}

	c.Candidates = candidates

	romGameExternalID := make(map[string]string) // sha1 -> owning game's external id

	for _, game := range c.Catalogue.Games {
		for _, rom := range game.Roms {
			romGameExternalID[rom.SHA1] = game.ID
		}
	}

	groupsByGame := make(map[string]*datGameGroup)

	for _, cl := range candidates {
		externalID, matched := romGameExternalID[cl.SHA1]
		if !matched {
			continue
		}

		group, ok := groupsByGame[externalID]
		if !ok {
			group = &datGameGroup{externalID: externalID, datGameID: c.gameDBIDs[externalID]}
			groupsByGame[externalID] = group
		}

		group.files = append(group.files, cl)
	}

	for _, game := range c.Catalogue.Games {
		if group, ok := groupsByGame[game.ID]; ok {
			group.name = game.Name
		}
	}

	for _, group := range groupsByGame {
		c.Groups = append(c.Groups, *group)
	}

	return pipeline.Continue, nil
}

type commitGameGroupsStep struct{}

func (commitGameGroupsStep) Name() string { return "commit_game_groups" }

func (commitGameGroupsStep) ShouldExecute(context.Context, *MassImportDatContext) bool { return true }

func (commitGameGroupsStep) Execute(ctx context.Context, c *MassImportDatContext) (pipeline.Outcome, error) {
	for _, group := range c.Groups {
		select {
		case <-ctx.Done():
			return pipeline.Abort, ctx.Err()
		default:
		}

		c.Results = append(c.Results, c.commitGameGroup(ctx, group))
	}

	return pipeline.Continue, nil
}

func (c *MassImportDatContext) commitGameGroup(ctx context.Context, group datGameGroup) MassImportItemResult {
	sendProgress(c.Progress, capability.ProgressEvent{Type: capability.EventFileStarted, Path: group.name})

	result := MassImportItemResult{SourcePath: group.name, ReleaseName: group.name, TitleName: group.name}

	if existingSet, err := c.FileSets.FindByDatGame(ctx, group.datGameID); err == nil {
		if err := c.FileSets.LinkDatGameTx(ctx, c.Store.DB(), existingSet.ID, group.datGameID); err != nil {
			result.Err = fmt.Errorf("linking existing file set to catalogue game %s: %w", group.name, err)
			return result
		}

		result.Skipped = true
		result.FileSetID = existingSet.ID

		return result
	}

	for i, cl := range group.files {
		if cl.IsNew() {
			ingested, err := c.Content.Ingest(ctx, cl.SourcePath, c.Input.FileType)
			if err != nil {
				result.Err = fmt.Errorf("importing %s: %w", cl.SourcePath, err)
				return result
			}

			group.files[i].Existing = &ingested.FileInfo
		}
	}

	err := c.Store.WithTx(ctx, func(tx *sql.Tx) error {
		fileSetID, err := c.FileSets.CreateTx(ctx, tx, db.FileSet{Name: group.name, FileType: c.Input.FileType})
		if err != nil {
			return err
		}

		for i, cl := range group.files {
			if err := c.FileSets.AddMemberTx(ctx, tx, db.FileSetMembership{
				FileSetID: fileSetID, FileInfoID: cl.Existing.ID, MemberName: cl.SourcePath, SortOrder: i,
			}); err != nil {
				return err
			}
		}

		if err := c.FileSets.LinkDatGameTx(ctx, tx, fileSetID, group.datGameID); err != nil {
			return err
		}

		releaseID, err := c.Releases.CreateTx(ctx, tx, group.name)
		if err != nil {
			return err
		}

		if err := c.Releases.LinkFileSetTx(ctx, tx, releaseID, fileSetID); err != nil {
			return err
		}

		titleID, err := c.Titles.CreateTx(ctx, tx, group.name)
		if err != nil {
			return err
		}

		if err := c.Releases.LinkSoftwareTitleTx(ctx, tx, releaseID, titleID); err != nil {
			return err
		}

		result.ReleaseID = releaseID
		result.FileSetID = fileSetID
		result.SoftwareTitleID = titleID

		return nil
	})
	if err != nil {
		result.Err = fmt.Errorf("committing catalogue game %s: %w", group.name, err)
		return result
	}

	for _, cl := range group.files {
		_, err := c.SyncLog.Append(ctx, db.FileSyncLog{
			FileInfoID: cl.Existing.ID,
			Status:     db.SyncStatusUploadPending,
			CloudKey:   fmt.Sprintf("%s/%s.zst", c.Input.FileType, cl.Existing.ArchiveName),
			Timestamp:  time.Now().Unix(),
		})
		if err != nil {
			result.Err = fmt.Errorf("marking %s for upload: %w", cl.SourcePath, err)
			return result
		}
	}

	sendProgress(c.Progress, capability.ProgressEvent{Type: capability.EventFileCompleted, Path: group.name})

	return result
}
