package repository

import (
	"github.com/jtaylor/mealcart-backend/internal/app/model"
	"github.com/jtaylor/mealcart-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	Create(cart *model.Cart) error
	FindByID(id uint) (*model.Cart, error)
	FindByUserID(userID uint) ([]model.Cart, error)
	UpdateName(cartID uint, name string) error
	Delete(cartID uint) error

	FindEntries(cartID uint) ([]model.RecipeCartEntry, error)
	FindEntry(cartID, recipeID uint) (*model.RecipeCartEntry, error)
	UpsertEntry(cartID, recipeID uint, delta decimal.Decimal) error
	UpdateEntryQuantity(cartID, recipeID uint, quantity decimal.Decimal) (int64, error)
	DeleteEntry(cartID, recipeID uint) (int64, error)
	CopyEntries(srcCartID, dstCartID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(cart *model.Cart) error {
	logger.Debug("Creating cart in database", map[string]interface{}{
		"user_id": cart.UserID,
		"name":    cart.Name,
	})

	if err := r.db.Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"user_id": cart.UserID,
			"name":    cart.Name,
		})
		return err
	}
	return nil
}

func (r *cartRepository) FindByID(id uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.First(&cart, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart by ID in database", err, map[string]interface{}{
				"cart_id": id,
			})
		}
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindByUserID(userID uint) ([]model.Cart, error) {
	var carts []model.Cart
	err := r.db.Where("user_id = ?", userID).
		Preload("Entries").
		Preload("Entries.Recipe").
		Order("id").
		Find(&carts).Error
	if err != nil {
		logger.Error("Failed to find carts by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return carts, nil
}

func (r *cartRepository) UpdateName(cartID uint, name string) error {
	if err := r.db.Model(&model.Cart{}).Where("id = ?", cartID).
		Update("name", name).Error; err != nil {
		logger.Error("Failed to update cart name in database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}

// Delete removes the cart and its entries. The entries are deleted
// explicitly instead of relying on the database cascade so the behavior is
// identical across postgres and the sqlite test database.
func (r *cartRepository) Delete(cartID uint) error {
	logger.Debug("Deleting cart from database", map[string]interface{}{
		"cart_id": cartID,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).
			Delete(&model.RecipeCartEntry{}).Error; err != nil {
			logger.Error("Failed to delete cart entries from database", err, map[string]interface{}{
				"cart_id": cartID,
			})
			return err
		}
		if err := tx.Delete(&model.Cart{}, cartID).Error; err != nil {
			logger.Error("Failed to delete cart from database", err, map[string]interface{}{
				"cart_id": cartID,
			})
			return err
		}
		return nil
	})
}

func (r *cartRepository) FindEntries(cartID uint) ([]model.RecipeCartEntry, error) {
	var entries []model.RecipeCartEntry
	err := r.db.Where("cart_id = ?", cartID).
		Preload("Recipe").
		Order("recipe_id").
		Find(&entries).Error
	if err != nil {
		logger.Error("Failed to find cart entries in database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}
	return entries, nil
}

func (r *cartRepository) FindEntry(cartID, recipeID uint) (*model.RecipeCartEntry, error) {
	var entry model.RecipeCartEntry
	err := r.db.Where("cart_id = ? AND recipe_id = ?", cartID, recipeID).
		First(&entry).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart entry in database", err, map[string]interface{}{
				"cart_id":   cartID,
				"recipe_id": recipeID,
			})
		}
		return nil, err
	}
	return &entry, nil
}

// UpsertEntry inserts the entry or increments its quantity in a single
// statement. Read-modify-write increments lose updates under concurrency;
// the ON CONFLICT arithmetic happens inside the database instead.
func (r *cartRepository) UpsertEntry(cartID, recipeID uint, delta decimal.Decimal) error {
	entry := model.RecipeCartEntry{
		CartID:   cartID,
		RecipeID: recipeID,
		Quantity: delta,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "recipe_id"}, {Name: "cart_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("recipe_cart_entries.quantity + excluded.quantity"),
		}),
	}).Create(&entry).Error
	if err != nil {
		logger.Error("Failed to upsert cart entry in database", err, map[string]interface{}{
			"cart_id":   cartID,
			"recipe_id": recipeID,
			"delta":     delta,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateEntryQuantity(cartID, recipeID uint, quantity decimal.Decimal) (int64, error) {
	result := r.db.Model(&model.RecipeCartEntry{}).
		Where("cart_id = ? AND recipe_id = ?", cartID, recipeID).
		Update("quantity", quantity)
	if result.Error != nil {
		logger.Error("Failed to update cart entry quantity in database", result.Error, map[string]interface{}{
			"cart_id":   cartID,
			"recipe_id": recipeID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *cartRepository) DeleteEntry(cartID, recipeID uint) (int64, error) {
	result := r.db.Where("cart_id = ? AND recipe_id = ?", cartID, recipeID).
		Delete(&model.RecipeCartEntry{})
	if result.Error != nil {
		logger.Error("Failed to delete cart entry from database", result.Error, map[string]interface{}{
			"cart_id":   cartID,
			"recipe_id": recipeID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CopyEntries value-copies every entry of the source cart into the
// destination cart. The destination is expected to be empty.
func (r *cartRepository) CopyEntries(srcCartID, dstCartID uint) error {
	entries, err := r.FindEntries(srcCartID)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	copies := make([]model.RecipeCartEntry, 0, len(entries))
	for _, entry := range entries {
		copies = append(copies, model.RecipeCartEntry{
			RecipeID: entry.RecipeID,
			CartID:   dstCartID,
			Quantity: entry.Quantity,
		})
	}

	if err := r.db.Create(&copies).Error; err != nil {
		logger.Error("Failed to copy cart entries in database", err, map[string]interface{}{
			"src_cart_id": srcCartID,
			"dst_cart_id": dstCartID,
		})
		return err
	}
	return nil
}
