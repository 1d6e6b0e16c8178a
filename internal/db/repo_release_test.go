package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/db"
)

func TestReleaseRepo_LinkCountsEnforceCreationInvariant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	relRepo := db.NewReleaseRepo(store.DB())
	fsRepo := db.NewFileSetRepo(store.DB())
	sysRepo := db.NewSystemRepo(store.DB())

	relID, err := relRepo.CreateTx(ctx, store.DB(), "Donkey Kong (USA)")
	require.NoError(t, err)

	fsCount, err := relRepo.FileSetCount(ctx, store.DB(), relID)
	require.NoError(t, err)
	sysCount, err := relRepo.SystemCount(ctx, store.DB(), relID)
	require.NoError(t, err)
	assert.Zero(t, fsCount)
	assert.Zero(t, sysCount)

	fsID, err := fsRepo.CreateTx(ctx, store.DB(), db.FileSet{Name: "Donkey Kong (USA)", FileType: "rom"})
	require.NoError(t, err)
	sysID, err := sysRepo.CreateTx(ctx, store.DB(), "Nintendo Entertainment System")
	require.NoError(t, err)

	require.NoError(t, relRepo.LinkFileSetTx(ctx, store.DB(), relID, fsID))
	require.NoError(t, relRepo.LinkSystemTx(ctx, store.DB(), relID, sysID))

	fsCount, err = relRepo.FileSetCount(ctx, store.DB(), relID)
	require.NoError(t, err)
	sysCount, err = relRepo.SystemCount(ctx, store.DB(), relID)
	require.NoError(t, err)
	assert.Equal(t, 1, fsCount)
	assert.Equal(t, 1, sysCount)
}

func TestReleaseRepo_DeleteTx_CascadesJunctionsNotFileSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	relRepo := db.NewReleaseRepo(store.DB())
	fsRepo := db.NewFileSetRepo(store.DB())

	relID, err := relRepo.CreateTx(ctx, store.DB(), "Donkey Kong (USA)")
	require.NoError(t, err)
	fsID, err := fsRepo.CreateTx(ctx, store.DB(), db.FileSet{Name: "Donkey Kong (USA)", FileType: "rom"})
	require.NoError(t, err)
	require.NoError(t, relRepo.LinkFileSetTx(ctx, store.DB(), relID, fsID))

	_, err = relRepo.CreateItemTx(ctx, store.DB(), db.ReleaseItem{ReleaseID: relID, ItemType: "Cartridge"})
	require.NoError(t, err)

	require.NoError(t, relRepo.DeleteTx(ctx, store.DB(), relID))

	items, err := relRepo.ItemsByRelease(ctx, relID)
	require.NoError(t, err)
	assert.Empty(t, items)

	fs, err := fsRepo.GetByID(ctx, fsID)
	require.NoError(t, err)
	assert.Equal(t, fsID, fs.ID, "deleting a release must not cascade to its file sets")
}

func TestSystemRepo_FindByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sysRepo := db.NewSystemRepo(store.DB())

	_, err := sysRepo.FindByName(ctx, "Commodore 64")
	assert.ErrorIs(t, err, db.ErrNotFound)

	id, err := sysRepo.CreateTx(ctx, store.DB(), "Commodore 64")
	require.NoError(t, err)

	found, err := sysRepo.FindByName(ctx, "Commodore 64")
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)
}
