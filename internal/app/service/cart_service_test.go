package service

import (
	"context"
	"testing"

	"github.com/jtaylor/mealcart-backend/internal/app/model"
	"github.com/jtaylor/mealcart-backend/internal/app/repository"
	"github.com/jtaylor/mealcart-backend/internal/app/session"
	"github.com/jtaylor/mealcart-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type cartServiceFixture struct {
	cartService CartService
	activeCarts session.ActiveCartStore
	user        *model.User
	other       *model.User
	recipe1     *model.Recipe // 3 ounces of chicken breast (factor 1)
	recipe2     *model.Recipe // 2 whole chicken breasts (factor 5 -> ounces)
	db          *gorm.DB
}

func setupCartServiceTest(t *testing.T) *cartServiceFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	catalogRepo := repository.NewCatalogRepository(testDB)
	catalogService := NewCatalogService(catalogRepo)
	activeCarts := session.NewMemoryStore()
	cartService := NewCartService(cartRepo, catalogService, activeCarts, testDB)

	user := &model.User{Email: "test@example.com", Username: "tester", PasswordHash: "hash"}
	require.NoError(t, testDB.Create(user).Error)
	other := &model.User{Email: "other@example.com", Username: "other", PasswordHash: "hash"}
	require.NoError(t, testDB.Create(other).Error)

	category := &model.Category{CategoryLabel: "Meat"}
	require.NoError(t, testDB.Create(category).Error)

	conv1 := &model.Conversion{
		UnitFrom: "ounces", UnitTo: "ounces", FoodType: "chicken",
		ConversionFactor: decimal.NewFromInt(1),
	}
	require.NoError(t, testDB.Create(conv1).Error)
	conv2 := &model.Conversion{
		UnitFrom: "whole", UnitTo: "ounces", FoodType: "chicken",
		ConversionFactor: decimal.NewFromInt(5),
	}
	require.NoError(t, testDB.Create(conv2).Error)

	ing1 := &model.Ingredient{
		FoodName: "chicken breast", Unit: "ounces",
		CategoryID: category.ID, ConversionID: conv1.ID,
	}
	require.NoError(t, testDB.Create(ing1).Error)
	ing2 := &model.Ingredient{
		FoodName: "chicken breast", Unit: "whole",
		CategoryID: category.ID, ConversionID: conv2.ID,
	}
	require.NoError(t, testDB.Create(ing2).Error)

	recipe1 := &model.Recipe{Title: "Grilled Chicken", Category: "dinner"}
	require.NoError(t, testDB.Create(recipe1).Error)
	require.NoError(t, testDB.Create(&model.RecipeIngredient{
		RecipeID: recipe1.ID, IngredientID: ing1.ID, Quantity: decimal.NewFromInt(3),
	}).Error)

	recipe2 := &model.Recipe{Title: "Roast Chicken", Category: "dinner"}
	require.NoError(t, testDB.Create(recipe2).Error)
	require.NoError(t, testDB.Create(&model.RecipeIngredient{
		RecipeID: recipe2.ID, IngredientID: ing2.ID, Quantity: decimal.NewFromInt(2),
	}).Error)

	return &cartServiceFixture{
		cartService: cartService,
		activeCarts: activeCarts,
		user:        user,
		other:       other,
		recipe1:     recipe1,
		recipe2:     recipe2,
		db:          testDB,
	}
}

func TestCartService_AddOrIncrement_CreatesActiveCart(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	entry, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.True(t, entry.Quantity.Equal(decimal.NewFromInt(1)))

	// A cart was created with the default name and made active.
	cartID, ok, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)
	require.True(t, ok)

	cart, err := fx.cartService.GetCart(fx.user.ID, cartID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCartName, cart.Name)
	assert.False(t, cart.IsComplete)
}

func TestCartService_AddOrIncrement_IncrementsExisting(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	entry, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.RequireFromString("1.5"))
	require.NoError(t, err)

	assert.Equal(t, "2.5", entry.Quantity.String())
}

func TestCartService_AddOrIncrement_Validation(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(-2))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = fx.cartService.AddOrIncrement(ctx, fx.user.ID, 9999, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestCartService_SetQuantity(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	// No active cart yet.
	err := fx.cartService.SetQuantity(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(2))
	assert.ErrorIs(t, err, ErrNoActiveCart)

	_, err = fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)

	// Replaces, not increments.
	err = fx.cartService.SetQuantity(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(4))
	require.NoError(t, err)

	cartID, _, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)
	var entry model.RecipeCartEntry
	require.NoError(t, fx.db.Where("cart_id = ? AND recipe_id = ?", cartID, fx.recipe1.ID).First(&entry).Error)
	assert.True(t, entry.Quantity.Equal(decimal.NewFromInt(4)))

	// Editing never inserts.
	err = fx.cartService.SetQuantity(ctx, fx.user.ID, fx.recipe2.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrEntryNotFound)

	err = fx.cartService.SetQuantity(ctx, fx.user.ID, fx.recipe1.ID, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartService_RemoveEntry(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)

	err = fx.cartService.RemoveEntry(ctx, fx.user.ID, fx.recipe1.ID)
	require.NoError(t, err)

	err = fx.cartService.RemoveEntry(ctx, fx.user.ID, fx.recipe1.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestCartService_CreateAndListCarts(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	first, err := fx.cartService.CreateCart(ctx, fx.user.ID, "Week One")
	require.NoError(t, err)
	second, err := fx.cartService.CreateCart(ctx, fx.user.ID, "Week Two")
	require.NoError(t, err)

	// The newest cart is active; the older one moved to saved.
	overview, err := fx.cartService.GetUserCarts(ctx, fx.user.ID)
	require.NoError(t, err)
	require.NotNil(t, overview.Active)
	assert.Equal(t, second.ID, overview.Active.ID)
	require.Len(t, overview.Saved, 1)
	assert.Equal(t, first.ID, overview.Saved[0].ID)
	assert.Empty(t, overview.Historical)
}

func TestCartService_RenameCart(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	cart, err := fx.cartService.CreateCart(ctx, fx.user.ID, "dinner plan")
	require.NoError(t, err)

	err = fx.cartService.RenameCart(fx.user.ID, cart.ID, "")
	assert.ErrorIs(t, err, ErrEmptyCartName)

	err = fx.cartService.RenameCart(fx.other.ID, cart.ID, "hijack")
	assert.ErrorIs(t, err, ErrCartNotOwned)

	err = fx.cartService.RenameCart(fx.user.ID, cart.ID, "weekly shop")
	require.NoError(t, err)

	renamed, err := fx.cartService.GetCart(fx.user.ID, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, "weekly shop", renamed.Name)
}

func TestCartService_ActivateCart(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	first, err := fx.cartService.CreateCart(ctx, fx.user.ID, "first")
	require.NoError(t, err)
	_, err = fx.cartService.CreateCart(ctx, fx.user.ID, "second")
	require.NoError(t, err)

	require.NoError(t, fx.cartService.ActivateCart(ctx, fx.user.ID, first.ID))

	cartID, ok, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, cartID)

	err = fx.cartService.ActivateCart(ctx, fx.other.ID, first.ID)
	assert.ErrorIs(t, err, ErrCartNotOwned)

	err = fx.cartService.ActivateCart(ctx, fx.user.ID, 9999)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartService_ActivateCart_Historical(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	cartID, _, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)

	_, err = fx.cartService.Checkout(ctx, fx.user.ID, cartID)
	require.NoError(t, err)

	err = fx.cartService.ActivateCart(ctx, fx.user.ID, cartID)
	assert.ErrorIs(t, err, ErrCartCompleted)
}

func TestCartService_CopyCart(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(2))
	require.NoError(t, err)
	srcID, _, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)

	src, err := fx.cartService.GetCart(fx.user.ID, srcID)
	require.NoError(t, err)

	copied, err := fx.cartService.CopyCart(fx.user.ID, srcID)
	require.NoError(t, err)
	assert.Equal(t, src.Name+"(copy)", copied.Name)
	assert.False(t, copied.IsComplete)

	// Copying does not steal the active pointer.
	activeID, ok, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, srcID, activeID)

	// Entries are snapshot-copied.
	var entries []model.RecipeCartEntry
	require.NoError(t, fx.db.Where("cart_id = ?", copied.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Quantity.Equal(decimal.NewFromInt(2)))

	_, err = fx.cartService.CopyCart(fx.other.ID, srcID)
	assert.ErrorIs(t, err, ErrCartNotOwned)
}

func TestCartService_CopyCart_Historical(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	cartID, _, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)

	_, err = fx.cartService.Checkout(ctx, fx.user.ID, cartID)
	require.NoError(t, err)

	// Historical carts can still be copied; the copy is editable.
	copied, err := fx.cartService.CopyCart(fx.user.ID, cartID)
	require.NoError(t, err)
	assert.False(t, copied.IsComplete)
}

func TestCartService_DeleteCart(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	cartID, _, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)

	err = fx.cartService.DeleteCart(ctx, fx.other.ID, cartID)
	assert.ErrorIs(t, err, ErrCartNotOwned)

	require.NoError(t, fx.cartService.DeleteCart(ctx, fx.user.ID, cartID))

	// Pointer cleared, cart and entries gone.
	_, ok, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = fx.cartService.GetCart(fx.user.ID, cartID)
	assert.ErrorIs(t, err, ErrCartNotFound)

	var count int64
	require.NoError(t, fx.db.Model(&model.RecipeCartEntry{}).Where("cart_id = ?", cartID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCartService_Checkout(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	// 1x (3 ounces) + 2x (2 whole at 5 ounces each) = 23 ounces.
	_, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe2.ID, decimal.NewFromInt(2))
	require.NoError(t, err)

	cartID, _, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)

	list, err := fx.cartService.Checkout(ctx, fx.user.ID, cartID)
	require.NoError(t, err)

	require.Len(t, list.Groups, 1)
	assert.Equal(t, "Meat", list.Groups[0].Category)
	require.Len(t, list.Groups[0].Items, 1)
	assert.Equal(t, "chicken breast", list.Groups[0].Items[0].FoodName)
	assert.Equal(t, "ounces", list.Groups[0].Items[0].Unit)
	assert.Equal(t, "23", list.Groups[0].Items[0].Quantity)

	// Cart is historical and the active pointer is gone.
	cart, err := fx.cartService.GetCart(fx.user.ID, cartID)
	require.NoError(t, err)
	assert.True(t, cart.IsComplete)

	_, ok, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCartService_Checkout_Twice(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	cartID, _, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)

	_, err = fx.cartService.Checkout(ctx, fx.user.ID, cartID)
	require.NoError(t, err)

	_, err = fx.cartService.Checkout(ctx, fx.user.ID, cartID)
	assert.ErrorIs(t, err, ErrCartCompleted)
}

func TestCartService_Checkout_Ownership(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	cart, err := fx.cartService.CreateCart(ctx, fx.user.ID, "mine")
	require.NoError(t, err)

	_, err = fx.cartService.Checkout(ctx, fx.other.ID, cart.ID)
	assert.ErrorIs(t, err, ErrCartNotOwned)
}

func TestCartService_HistoricalCartIsImmutable(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	cartID, _, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)

	_, err = fx.cartService.Checkout(ctx, fx.user.ID, cartID)
	require.NoError(t, err)

	err = fx.cartService.RenameCart(fx.user.ID, cartID, "still mine")
	assert.ErrorIs(t, err, ErrCartCompleted)

	// The active pointer was cleared at checkout, so entry mutations see no
	// active cart rather than touching the historical one.
	err = fx.cartService.SetQuantity(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(2))
	assert.ErrorIs(t, err, ErrNoActiveCart)
}

func TestCartService_StaleActivePointer(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	cart, err := fx.cartService.CreateCart(ctx, fx.user.ID, "doomed")
	require.NoError(t, err)

	// Simulate a pointer left behind by an out-of-band deletion.
	require.NoError(t, fx.db.Where("cart_id = ?", cart.ID).Delete(&model.RecipeCartEntry{}).Error)
	require.NoError(t, fx.db.Delete(&model.Cart{}, cart.ID).Error)

	err = fx.cartService.SetQuantity(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNoActiveCart)

	// The stale pointer was cleared; adding starts a fresh cart.
	entry, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.NotEqual(t, cart.ID, entry.CartID)
}

func TestCartService_ConsolidatePreviewDoesNotComplete(t *testing.T) {
	fx := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := fx.cartService.AddOrIncrement(ctx, fx.user.ID, fx.recipe1.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	cartID, _, err := fx.activeCarts.Get(ctx, fx.user.ID)
	require.NoError(t, err)

	list, err := fx.cartService.Consolidate(cartID)
	require.NoError(t, err)
	require.Len(t, list.Groups, 1)
	assert.Equal(t, "3", list.Groups[0].Items[0].Quantity)

	cart, err := fx.cartService.GetCart(fx.user.ID, cartID)
	require.NoError(t, err)
	assert.False(t, cart.IsComplete)

	_, err = fx.cartService.Consolidate(9999)
	assert.ErrorIs(t, err, ErrCartNotFound)
}
