package repository

import (
	"testing"

	"github.com/jtaylor/mealcart-backend/internal/app/model"
	"github.com/jtaylor/mealcart-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartRepoTest(t *testing.T) (CartRepository, *model.User, *model.Recipe, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	user := &model.User{Email: "repo@example.com", Username: "repo", PasswordHash: "hash"}
	require.NoError(t, testDB.Create(user).Error)

	recipe := &model.Recipe{Title: "Test Recipe"}
	require.NoError(t, testDB.Create(recipe).Error)

	return NewCartRepository(testDB), user, recipe, testDB
}

func TestCartRepository_UpsertEntry_InsertsThenIncrements(t *testing.T) {
	repo, user, recipe, _ := setupCartRepoTest(t)

	cart := &model.Cart{UserID: user.ID}
	require.NoError(t, repo.Create(cart))
	assert.Equal(t, model.DefaultCartName, cart.Name)

	require.NoError(t, repo.UpsertEntry(cart.ID, recipe.ID, decimal.NewFromInt(1)))
	entry, err := repo.FindEntry(cart.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, entry.Quantity.Equal(decimal.NewFromInt(1)))

	// A second upsert adds to the stored quantity instead of replacing it.
	require.NoError(t, repo.UpsertEntry(cart.ID, recipe.ID, decimal.RequireFromString("2.5")))
	entry, err = repo.FindEntry(cart.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "3.5", entry.Quantity.String())
}

func TestCartRepository_UpsertEntry_PerCart(t *testing.T) {
	repo, user, recipe, _ := setupCartRepoTest(t)

	cart1 := &model.Cart{UserID: user.ID}
	require.NoError(t, repo.Create(cart1))
	cart2 := &model.Cart{UserID: user.ID}
	require.NoError(t, repo.Create(cart2))

	require.NoError(t, repo.UpsertEntry(cart1.ID, recipe.ID, decimal.NewFromInt(1)))
	require.NoError(t, repo.UpsertEntry(cart2.ID, recipe.ID, decimal.NewFromInt(7)))

	entry, err := repo.FindEntry(cart1.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, entry.Quantity.Equal(decimal.NewFromInt(1)))
}

func TestCartRepository_UpdateEntryQuantity(t *testing.T) {
	repo, user, recipe, _ := setupCartRepoTest(t)

	cart := &model.Cart{UserID: user.ID}
	require.NoError(t, repo.Create(cart))
	require.NoError(t, repo.UpsertEntry(cart.ID, recipe.ID, decimal.NewFromInt(2)))

	rows, err := repo.UpdateEntryQuantity(cart.ID, recipe.ID, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	entry, err := repo.FindEntry(cart.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, entry.Quantity.Equal(decimal.NewFromInt(5)))

	// Absent entries report zero rows, they are never created.
	rows, err = repo.UpdateEntryQuantity(cart.ID, 9999, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestCartRepository_DeleteEntry(t *testing.T) {
	repo, user, recipe, _ := setupCartRepoTest(t)

	cart := &model.Cart{UserID: user.ID}
	require.NoError(t, repo.Create(cart))
	require.NoError(t, repo.UpsertEntry(cart.ID, recipe.ID, decimal.NewFromInt(2)))

	rows, err := repo.DeleteEntry(cart.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.DeleteEntry(cart.ID, recipe.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestCartRepository_Delete_RemovesEntries(t *testing.T) {
	repo, user, recipe, testDB := setupCartRepoTest(t)

	cart := &model.Cart{UserID: user.ID}
	require.NoError(t, repo.Create(cart))
	require.NoError(t, repo.UpsertEntry(cart.ID, recipe.ID, decimal.NewFromInt(1)))

	require.NoError(t, repo.Delete(cart.ID))

	var carts int64
	require.NoError(t, testDB.Model(&model.Cart{}).Where("id = ?", cart.ID).Count(&carts).Error)
	assert.Zero(t, carts)

	var entries int64
	require.NoError(t, testDB.Model(&model.RecipeCartEntry{}).Where("cart_id = ?", cart.ID).Count(&entries).Error)
	assert.Zero(t, entries)
}

func TestCartRepository_CopyEntries(t *testing.T) {
	repo, user, recipe, testDB := setupCartRepoTest(t)

	recipe2 := &model.Recipe{Title: "Second Recipe"}
	require.NoError(t, testDB.Create(recipe2).Error)

	src := &model.Cart{UserID: user.ID}
	require.NoError(t, repo.Create(src))
	require.NoError(t, repo.UpsertEntry(src.ID, recipe.ID, decimal.NewFromInt(2)))
	require.NoError(t, repo.UpsertEntry(src.ID, recipe2.ID, decimal.RequireFromString("0.5")))

	dst := &model.Cart{UserID: user.ID}
	require.NoError(t, repo.Create(dst))
	require.NoError(t, repo.CopyEntries(src.ID, dst.ID))

	entries, err := repo.FindEntries(dst.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// The copy is a snapshot; mutating the source leaves it untouched.
	_, err = repo.UpdateEntryQuantity(src.ID, recipe.ID, decimal.NewFromInt(9))
	require.NoError(t, err)
	entry, err := repo.FindEntry(dst.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, entry.Quantity.Equal(decimal.NewFromInt(2)))
}

func TestCartRepository_FindByUserID(t *testing.T) {
	repo, user, _, testDB := setupCartRepoTest(t)

	other := &model.User{Email: "b@example.com", Username: "b", PasswordHash: "hash"}
	require.NoError(t, testDB.Create(other).Error)

	require.NoError(t, repo.Create(&model.Cart{UserID: user.ID, Name: "one"}))
	require.NoError(t, repo.Create(&model.Cart{UserID: user.ID, Name: "two"}))
	require.NoError(t, repo.Create(&model.Cart{UserID: other.ID, Name: "theirs"}))

	carts, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Len(t, carts, 2)
}
