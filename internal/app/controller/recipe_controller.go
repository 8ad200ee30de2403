package controller

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jtaylor/mealcart-backend/internal/app/service"
	"github.com/jtaylor/mealcart-backend/internal/errors"
	"github.com/jtaylor/mealcart-backend/internal/middleware"
)

type RecipeController struct {
	catalogService service.CatalogService
}

func NewRecipeController(catalogService service.CatalogService) *RecipeController {
	return &RecipeController{
		catalogService: catalogService,
	}
}

// ListRecipes returns the recipe catalog.
// GET /api/v1/recipes
func (ctrl *RecipeController) ListRecipes(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	recipes, err := ctrl.catalogService.ListRecipes()
	if err != nil {
		log.Error("Failed to list recipes", err, nil)
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes": recipes,
		"count":   len(recipes),
	})
}

// GetRecipe returns one recipe with its ingredient lines.
// GET /api/v1/recipes/:id
func (ctrl *RecipeController) GetRecipe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	recipeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	recipe, err := ctrl.catalogService.GetRecipe(recipeID)
	if err != nil {
		if stderrors.Is(err, service.ErrRecipeNotFound) {
			errors.NotFound(c, errors.RecipeNotFound, "Recipe not found")
			return
		}
		log.Error("Failed to fetch recipe", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		errors.InternalError(c, "")
		return
	}

	lines, err := ctrl.catalogService.GetRecipeIngredients(recipeID)
	if err != nil {
		log.Error("Failed to fetch recipe ingredients", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe":      recipe,
		"ingredients": lines,
	})
}

// parseIDParam parses a positive integer path parameter, responding with a
// validation error on failure.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID parameter", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}
