// internal/domain/cart/repository_test.go
package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCartDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Row{}))
	return db
}

func TestUpsertLineCreatesRow(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(setupCartDB(t))

	err := repo.UpsertLine(ctx, 1, Line{ItemID: 10, Name: "Record Player", UnitPrice: 9500, Quantity: 1})
	require.NoError(t, err)

	lines, err := repo.FetchCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Record Player", lines[0].Name)
	assert.Equal(t, int64(9500), lines[0].UnitPrice)
}

func TestUpsertLineOverwritesExistingRow(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(setupCartDB(t))

	require.NoError(t, repo.UpsertLine(ctx, 1, Line{ItemID: 10, Name: "Record Player", UnitPrice: 9500, Quantity: 1}))
	require.NoError(t, repo.UpsertLine(ctx, 1, Line{ItemID: 10, Name: "Record Player", UnitPrice: 9000, Quantity: 3}))

	lines, err := repo.FetchCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	// Last writer wins: the second write replaces, never sums
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, int64(9000), lines[0].UnitPrice)
}

func TestUpsertLineIsScopedPerUser(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(setupCartDB(t))

	require.NoError(t, repo.UpsertLine(ctx, 1, Line{ItemID: 10, Name: "Record Player", UnitPrice: 9500, Quantity: 1}))
	require.NoError(t, repo.UpsertLine(ctx, 2, Line{ItemID: 10, Name: "Record Player", UnitPrice: 9500, Quantity: 5}))

	lines, err := repo.FetchCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestDeleteLine(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(setupCartDB(t))

	require.NoError(t, repo.UpsertLine(ctx, 1, Line{ItemID: 10, Name: "Record Player", UnitPrice: 9500, Quantity: 1}))
	require.NoError(t, repo.DeleteLine(ctx, 1, 10))

	lines, err := repo.FetchCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Deleting an absent row is not an error
	assert.NoError(t, repo.DeleteLine(ctx, 1, 10))
}

func TestDeleteAllLines(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(setupCartDB(t))

	require.NoError(t, repo.UpsertLine(ctx, 1, Line{ItemID: 10, Name: "Record Player", UnitPrice: 9500, Quantity: 1}))
	require.NoError(t, repo.UpsertLine(ctx, 1, Line{ItemID: 11, Name: "Speakers", UnitPrice: 4500, Quantity: 2}))
	require.NoError(t, repo.UpsertLine(ctx, 2, Line{ItemID: 10, Name: "Record Player", UnitPrice: 9500, Quantity: 1}))

	require.NoError(t, repo.DeleteAllLines(ctx, 1))

	lines, err := repo.FetchCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Other users' carts are untouched
	lines, err = repo.FetchCart(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestFetchCartOrdersByItemID(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(setupCartDB(t))

	require.NoError(t, repo.UpsertLine(ctx, 1, Line{ItemID: 20, Name: "Speakers", UnitPrice: 4500, Quantity: 1}))
	require.NoError(t, repo.UpsertLine(ctx, 1, Line{ItemID: 5, Name: "Turntable Mat", UnitPrice: 800, Quantity: 1}))

	lines, err := repo.FetchCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, uint(5), lines[0].ItemID)
	assert.Equal(t, uint(20), lines[1].ItemID)
}
