package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jtaylor/mealcart-backend/internal/app/model"
	"github.com/jtaylor/mealcart-backend/internal/app/repository"
	"github.com/jtaylor/mealcart-backend/internal/app/session"
	"github.com/jtaylor/mealcart-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrCartNotOwned    = errors.New("cart does not belong to user")
	ErrCartCompleted   = errors.New("cart is completed and read-only")
	ErrEntryNotFound   = errors.New("recipe not in cart")
	ErrNoActiveCart    = errors.New("user has no active cart")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrEmptyCartName   = errors.New("cart name must not be empty")
)

// CartOverview partitions a user's carts the way the cart index presents
// them: the active cart, saved-for-later carts, and historical (checked out)
// carts.
type CartOverview struct {
	Active     *model.Cart  `json:"active,omitempty"`
	Saved      []model.Cart `json:"saved"`
	Historical []model.Cart `json:"historical"`
}

// CartService owns the cart lifecycle: entry mutations on the active cart,
// create/rename/activate/copy/delete, and checkout, which consolidates the
// cart into a shopping list and permanently completes it.
type CartService interface {
	GetUserCarts(ctx context.Context, userID uint) (*CartOverview, error)
	GetCart(userID, cartID uint) (*model.Cart, error)
	CreateCart(ctx context.Context, userID uint, name string) (*model.Cart, error)
	RenameCart(userID, cartID uint, name string) error
	ActivateCart(ctx context.Context, userID, cartID uint) error
	CopyCart(userID, cartID uint) (*model.Cart, error)
	DeleteCart(ctx context.Context, userID, cartID uint) error

	AddOrIncrement(ctx context.Context, userID, recipeID uint, delta decimal.Decimal) (*model.RecipeCartEntry, error)
	SetQuantity(ctx context.Context, userID, recipeID uint, quantity decimal.Decimal) error
	RemoveEntry(ctx context.Context, userID, recipeID uint) error

	Checkout(ctx context.Context, userID, cartID uint) (*ShoppingList, error)
	Consolidate(cartID uint) (*ShoppingList, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	catalog     CatalogService
	activeStore session.ActiveCartStore
	db          *gorm.DB
}

func NewCartService(
	cartRepo repository.CartRepository,
	catalog CatalogService,
	activeStore session.ActiveCartStore,
	db *gorm.DB,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		catalog:     catalog,
		activeStore: activeStore,
		db:          db,
	}
}

func (s *cartService) GetUserCarts(ctx context.Context, userID uint) (*CartOverview, error) {
	carts, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user carts", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	activeID, hasActive, err := s.activeStore.Get(ctx, userID)
	if err != nil {
		logger.Error("Failed to read active cart pointer", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	overview := &CartOverview{
		Saved:      []model.Cart{},
		Historical: []model.Cart{},
	}
	for i := range carts {
		cart := carts[i]
		switch {
		case cart.IsComplete:
			overview.Historical = append(overview.Historical, cart)
		case hasActive && cart.ID == activeID:
			overview.Active = &carts[i]
		default:
			overview.Saved = append(overview.Saved, cart)
		}
	}

	logger.Debug("User carts fetched", map[string]interface{}{
		"user_id":    userID,
		"count":      len(carts),
		"has_active": overview.Active != nil,
	})
	return overview, nil
}

// GetCart fetches a single cart, enforcing ownership.
func (s *cartService) GetCart(userID, cartID uint) (*model.Cart, error) {
	return s.ownedCart(userID, cartID)
}

// CreateCart creates a new cart and makes it the user's active cart. A
// previously active cart stays saved; only the pointer moves.
func (s *cartService) CreateCart(ctx context.Context, userID uint, name string) (*model.Cart, error) {
	cart := &model.Cart{Name: name, UserID: userID}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, err
	}

	if err := s.activeStore.Set(ctx, userID, cart.ID); err != nil {
		logger.Error("Failed to set active cart pointer", err, map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, err
	}

	logger.Info("Cart created", map[string]interface{}{
		"user_id": userID,
		"cart_id": cart.ID,
		"name":    cart.Name,
	})
	return cart, nil
}

func (s *cartService) RenameCart(userID, cartID uint, name string) error {
	if name == "" {
		return ErrEmptyCartName
	}

	cart, err := s.ownedCart(userID, cartID)
	if err != nil {
		return err
	}
	if cart.IsComplete {
		return ErrCartCompleted
	}

	if err := s.cartRepo.UpdateName(cartID, name); err != nil {
		return err
	}

	logger.Info("Cart renamed", map[string]interface{}{
		"user_id": userID,
		"cart_id": cartID,
		"name":    name,
	})
	return nil
}

// ActivateCart points the user's active pointer at a saved cart. Historical
// carts cannot be reactivated; copying is the sanctioned way to reuse their
// contents.
func (s *cartService) ActivateCart(ctx context.Context, userID, cartID uint) error {
	cart, err := s.ownedCart(userID, cartID)
	if err != nil {
		return err
	}
	if cart.IsComplete {
		logger.Warn("Cannot activate historical cart", map[string]interface{}{
			"user_id": userID,
			"cart_id": cartID,
		})
		return ErrCartCompleted
	}

	if err := s.activeStore.Set(ctx, userID, cartID); err != nil {
		logger.Error("Failed to set active cart pointer", err, map[string]interface{}{
			"user_id": userID,
			"cart_id": cartID,
		})
		return err
	}

	logger.Info("Cart activated", map[string]interface{}{
		"user_id": userID,
		"cart_id": cartID,
	})
	return nil
}

// CopyCart snapshot-copies a cart's entries into a brand-new saved cart. The
// source may be historical; the copy never is, and it does not become the
// active cart.
func (s *cartService) CopyCart(userID, cartID uint) (*model.Cart, error) {
	src, err := s.ownedCart(userID, cartID)
	if err != nil {
		return nil, err
	}

	copyCart := &model.Cart{
		Name:   fmt.Sprintf("%s(copy)", src.Name),
		UserID: userID,
	}
	if err := s.cartRepo.Create(copyCart); err != nil {
		return nil, err
	}

	if err := s.cartRepo.CopyEntries(src.ID, copyCart.ID); err != nil {
		return nil, err
	}

	logger.Info("Cart copied", map[string]interface{}{
		"user_id":     userID,
		"src_cart_id": src.ID,
		"new_cart_id": copyCart.ID,
	})
	return copyCart, nil
}

func (s *cartService) DeleteCart(ctx context.Context, userID, cartID uint) error {
	if _, err := s.ownedCart(userID, cartID); err != nil {
		return err
	}

	activeID, hasActive, err := s.activeStore.Get(ctx, userID)
	if err != nil {
		return err
	}
	if hasActive && activeID == cartID {
		if err := s.activeStore.Clear(ctx, userID); err != nil {
			logger.Error("Failed to clear active cart pointer", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
			return err
		}
	}

	if err := s.cartRepo.Delete(cartID); err != nil {
		return err
	}

	logger.Info("Cart deleted", map[string]interface{}{
		"user_id": userID,
		"cart_id": cartID,
	})
	return nil
}

// AddOrIncrement adds a recipe to the user's active cart, incrementing the
// quantity if the recipe is already there. If the user has no active cart a
// new one is created and activated, matching the storefront flow. The
// increment is a single ON CONFLICT statement, so concurrent adds to the
// same (cart, recipe) pair never lose updates.
func (s *cartService) AddOrIncrement(ctx context.Context, userID, recipeID uint, delta decimal.Decimal) (*model.RecipeCartEntry, error) {
	if delta.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.catalog.GetRecipe(recipeID); err != nil {
		if errors.Is(err, ErrRecipeNotFound) {
			logger.Warn("Cannot add to cart: recipe not found", map[string]interface{}{
				"user_id":   userID,
				"recipe_id": recipeID,
			})
		}
		return nil, err
	}

	cart, err := s.activeCart(ctx, userID)
	if errors.Is(err, ErrNoActiveCart) {
		cart, err = s.CreateCart(ctx, userID, "")
	}
	if err != nil {
		return nil, err
	}

	var entry *model.RecipeCartEntry
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var locked model.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, cart.ID).Error; err != nil {
			return err
		}
		if locked.IsComplete {
			return ErrCartCompleted
		}

		txRepo := repository.NewCartRepository(tx)
		if err := txRepo.UpsertEntry(cart.ID, recipeID, delta); err != nil {
			return err
		}

		var err error
		entry, err = txRepo.FindEntry(cart.ID, recipeID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrCartCompleted) {
			logger.Error("Failed to add recipe to cart", err, map[string]interface{}{
				"user_id":   userID,
				"cart_id":   cart.ID,
				"recipe_id": recipeID,
			})
		}
		return nil, err
	}

	logger.Info("Recipe added to cart", map[string]interface{}{
		"user_id":   userID,
		"cart_id":   cart.ID,
		"recipe_id": recipeID,
		"quantity":  entry.Quantity,
	})
	return entry, nil
}

// SetQuantity replaces the quantity of a recipe already in the active cart.
// Editing never inserts: an absent entry is ErrEntryNotFound.
func (s *cartService) SetQuantity(ctx context.Context, userID, recipeID uint, quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return ErrInvalidQuantity
	}

	cart, err := s.activeCart(ctx, userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var locked model.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, cart.ID).Error; err != nil {
			return err
		}
		if locked.IsComplete {
			return ErrCartCompleted
		}

		rows, err := repository.NewCartRepository(tx).UpdateEntryQuantity(cart.ID, recipeID, quantity)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrEntryNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Cart entry quantity updated", map[string]interface{}{
		"user_id":   userID,
		"cart_id":   cart.ID,
		"recipe_id": recipeID,
		"quantity":  quantity,
	})
	return nil
}

func (s *cartService) RemoveEntry(ctx context.Context, userID, recipeID uint) error {
	cart, err := s.activeCart(ctx, userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var locked model.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, cart.ID).Error; err != nil {
			return err
		}
		if locked.IsComplete {
			return ErrCartCompleted
		}

		rows, err := repository.NewCartRepository(tx).DeleteEntry(cart.ID, recipeID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrEntryNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Cart entry removed", map[string]interface{}{
		"user_id":   userID,
		"cart_id":   cart.ID,
		"recipe_id": recipeID,
	})
	return nil
}

// Checkout consolidates the cart into a shopping list and permanently flips
// it to historical. The flip is a conditional update on is_complete, so a
// double checkout fails instead of re-running consolidation, and a mutation
// racing the flip either lands before it (and is consolidated) or is
// rejected by the immutability check.
func (s *cartService) Checkout(ctx context.Context, userID, cartID uint) (*ShoppingList, error) {
	if _, err := s.ownedCart(userID, cartID); err != nil {
		return nil, err
	}

	logger.Info("Checking out cart", map[string]interface{}{
		"user_id": userID,
		"cart_id": cartID,
	})

	var list *ShoppingList
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var locked model.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, cartID).Error; err != nil {
			return err
		}
		if locked.IsComplete {
			return ErrCartCompleted
		}

		entries, err := repository.NewCartRepository(tx).FindEntries(cartID)
		if err != nil {
			return err
		}

		list, err = Consolidate(entries, s.catalog)
		if err != nil {
			return err
		}

		result := tx.Model(&model.Cart{}).
			Where("id = ? AND is_complete = ?", cartID, false).
			Update("is_complete", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCartCompleted
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrCartCompleted) {
			logger.Error("Checkout failed", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
		}
		return nil, err
	}

	activeID, hasActive, err := s.activeStore.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if hasActive && activeID == cartID {
		if err := s.activeStore.Clear(ctx, userID); err != nil {
			logger.Error("Failed to clear active cart pointer after checkout", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
			return nil, err
		}
	}

	logger.Info("Cart checked out", map[string]interface{}{
		"user_id": userID,
		"cart_id": cartID,
		"groups":  len(list.Groups),
	})
	return list, nil
}

// Consolidate computes the shopping list for a cart without changing any
// state. It backs the pre-checkout preview and works on historical carts.
func (s *cartService) Consolidate(cartID uint) (*ShoppingList, error) {
	if _, err := s.cartRepo.FindByID(cartID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	entries, err := s.cartRepo.FindEntries(cartID)
	if err != nil {
		return nil, err
	}

	return Consolidate(entries, s.catalog)
}

// ownedCart fetches a cart and verifies ownership.
func (s *cartService) ownedCart(userID, cartID uint) (*model.Cart, error) {
	cart, err := s.cartRepo.FindByID(cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	if cart.UserID != userID {
		logger.Warn("Cart access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"cart_id":  cartID,
			"owner_id": cart.UserID,
		})
		return nil, ErrCartNotOwned
	}
	return cart, nil
}

// activeCart resolves the user's active cart. A pointer at a deleted,
// foreign, or completed cart is stale session state; it is cleared and
// treated as no active cart.
func (s *cartService) activeCart(ctx context.Context, userID uint) (*model.Cart, error) {
	cartID, ok, err := s.activeStore.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveCart
	}

	cart, err := s.cartRepo.FindByID(cartID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err != nil || cart.UserID != userID || cart.IsComplete {
		logger.Warn("Clearing stale active cart pointer", map[string]interface{}{
			"user_id": userID,
			"cart_id": cartID,
		})
		if clearErr := s.activeStore.Clear(ctx, userID); clearErr != nil {
			return nil, clearErr
		}
		return nil, ErrNoActiveCart
	}
	return cart, nil
}
