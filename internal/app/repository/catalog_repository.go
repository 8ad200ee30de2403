package repository

import (
	"github.com/jtaylor/mealcart-backend/internal/app/model"
	"github.com/jtaylor/mealcart-backend/pkg/logger"
	"gorm.io/gorm"
)

// CatalogRepository is the read-only view over recipes, their ingredient
// lines and the conversion table. Catalog writes belong to the importer, not
// to this service.
type CatalogRepository interface {
	ListRecipes() ([]model.Recipe, error)
	FindRecipeByID(id uint) (*model.Recipe, error)
	FindRecipeIngredients(recipeID uint) ([]model.RecipeIngredient, error)
	FindIngredientByID(id uint) (*model.Ingredient, error)
	FindConversionByID(id uint) (*model.Conversion, error)
	ListConversions() ([]model.Conversion, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListRecipes() ([]model.Recipe, error) {
	var recipes []model.Recipe
	if err := r.db.Order("title").Find(&recipes).Error; err != nil {
		logger.Error("Failed to list recipes from database", err)
		return nil, err
	}
	return recipes, nil
}

func (r *catalogRepository) FindRecipeByID(id uint) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.db.First(&recipe, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find recipe by ID in database", err, map[string]interface{}{
				"recipe_id": id,
			})
		}
		return nil, err
	}
	return &recipe, nil
}

func (r *catalogRepository) FindRecipeIngredients(recipeID uint) ([]model.RecipeIngredient, error) {
	logger.Debug("Finding ingredient lines by recipe ID in database", map[string]interface{}{
		"recipe_id": recipeID,
	})

	var lines []model.RecipeIngredient
	err := r.db.Where("recipe_id = ?", recipeID).
		Preload("Ingredient").
		Preload("Ingredient.Category").
		Order("ingredient_id").
		Find(&lines).Error
	if err != nil {
		logger.Error("Failed to find ingredient lines in database", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		return nil, err
	}

	logger.Debug("Ingredient lines found in database", map[string]interface{}{
		"recipe_id": recipeID,
		"count":     len(lines),
	})
	return lines, nil
}

func (r *catalogRepository) FindIngredientByID(id uint) (*model.Ingredient, error) {
	var ingredient model.Ingredient
	if err := r.db.Preload("Category").First(&ingredient, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find ingredient by ID in database", err, map[string]interface{}{
				"ingredient_id": id,
			})
		}
		return nil, err
	}
	return &ingredient, nil
}

func (r *catalogRepository) FindConversionByID(id uint) (*model.Conversion, error) {
	var conversion model.Conversion
	if err := r.db.First(&conversion, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find conversion by ID in database", err, map[string]interface{}{
				"conversion_id": id,
			})
		}
		return nil, err
	}
	return &conversion, nil
}

func (r *catalogRepository) ListConversions() ([]model.Conversion, error) {
	var conversions []model.Conversion
	if err := r.db.Find(&conversions).Error; err != nil {
		logger.Error("Failed to list conversions from database", err)
		return nil, err
	}
	return conversions, nil
}
