package service

import (
	"errors"
	"sync"

	"github.com/jtaylor/mealcart-backend/internal/app/model"
	"github.com/jtaylor/mealcart-backend/internal/app/repository"
	"github.com/jtaylor/mealcart-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
	// ErrConversionNotFound means an ingredient's conversion reference is
	// dangling. The catalog importer writes the conversion before the
	// ingredient, so this is a data-integrity fault, not a user error.
	ErrConversionNotFound = errors.New("conversion not found")
)

// CatalogService is the read-only catalog collaborator: recipes, ingredient
// lines, conversion resolution. The conversion table is owned by the
// out-of-scope importer, so it can be cached here without invalidation
// concerns; RefreshConversionCache re-snapshots it on a schedule.
type CatalogService interface {
	CatalogIndex
	ListRecipes() ([]model.Recipe, error)
	GetRecipe(recipeID uint) (*model.Recipe, error)
	RefreshConversionCache() error
}

type catalogService struct {
	catalogRepo repository.CatalogRepository

	mu          sync.RWMutex
	conversions map[uint]model.Conversion
}

func NewCatalogService(catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogService{
		catalogRepo: catalogRepo,
		conversions: make(map[uint]model.Conversion),
	}
}

func (s *catalogService) ListRecipes() ([]model.Recipe, error) {
	return s.catalogRepo.ListRecipes()
}

func (s *catalogService) GetRecipe(recipeID uint) (*model.Recipe, error) {
	recipe, err := s.catalogRepo.FindRecipeByID(recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (s *catalogService) GetRecipeIngredients(recipeID uint) ([]IngredientLine, error) {
	rows, err := s.catalogRepo.FindRecipeIngredients(recipeID)
	if err != nil {
		return nil, err
	}

	lines := make([]IngredientLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, IngredientLine{
			Ingredient: row.Ingredient,
			Quantity:   row.Quantity,
		})
	}
	return lines, nil
}

func (s *catalogService) ResolveConversion(ingredientID uint) (ResolvedConversion, error) {
	ingredient, err := s.catalogRepo.FindIngredientByID(ingredientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ResolvedConversion{}, ErrIngredientNotFound
		}
		return ResolvedConversion{}, err
	}

	if conv, ok := s.cachedConversion(ingredient.ConversionID); ok {
		return ResolvedConversion{CanonicalUnit: conv.UnitTo, Factor: conv.ConversionFactor}, nil
	}

	conv, err := s.catalogRepo.FindConversionByID(ingredient.ConversionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Dangling conversion reference", ErrConversionNotFound, map[string]interface{}{
				"ingredient_id": ingredientID,
				"conversion_id": ingredient.ConversionID,
			})
			return ResolvedConversion{}, ErrConversionNotFound
		}
		return ResolvedConversion{}, err
	}

	s.mu.Lock()
	s.conversions[conv.ID] = *conv
	s.mu.Unlock()

	return ResolvedConversion{CanonicalUnit: conv.UnitTo, Factor: conv.ConversionFactor}, nil
}

func (s *catalogService) cachedConversion(id uint) (model.Conversion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversions[id]
	return conv, ok
}

// RefreshConversionCache replaces the cached conversion table with a fresh
// snapshot.
func (s *catalogService) RefreshConversionCache() error {
	conversions, err := s.catalogRepo.ListConversions()
	if err != nil {
		logger.Error("Failed to refresh conversion cache", err)
		return err
	}

	snapshot := make(map[uint]model.Conversion, len(conversions))
	for _, conv := range conversions {
		snapshot[conv.ID] = conv
	}

	s.mu.Lock()
	s.conversions = snapshot
	s.mu.Unlock()

	logger.Debug("Conversion cache refreshed", map[string]interface{}{
		"count": len(snapshot),
	})
	return nil
}
