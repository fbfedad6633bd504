package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.Open(database.Options{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, &Creature{}))
	return NewRepository(db)
}

func TestRepository_UpsertAndQuery(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	line := bulbasaurLine()
	for i := range line {
		line[i].ID = ""
	}
	require.NoError(t, repo.Upsert(ctx, line))

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 1, all[0].PokedexNumber)
	assert.NotEmpty(t, all[0].ID)
	assert.Equal(t, "Bulbizarre", all[0].EvolutionChain.BasePokemon)
	assert.Len(t, all[0].Types, 2)

	c, err := repo.ByNumber(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Ivysaur", c.NameEn)

	byID, err := repo.ByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, byID.PokedexNumber)

	_, err = repo.ByNumber(ctx, 999)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	// re-seeding replaces by pokedex number
	update := []Creature{{PokedexNumber: 2, NameFr: "Herbizarre", NameEn: "Ivysaur", Category: "Graine"}}
	require.NoError(t, repo.Upsert(ctx, update))
	c, err = repo.ByNumber(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Graine", c.Category)

	all, err = repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepository_Page(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, bulbasaurLine()))

	items, total, err := repo.Page(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].PokedexNumber)
}
