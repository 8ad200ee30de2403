package controller

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jtaylor/mealcart-backend/internal/app/service"
	"github.com/jtaylor/mealcart-backend/internal/errors"
	"github.com/jtaylor/mealcart-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

type CartController struct {
	cartService   service.CartService
	exportService service.ExportService
}

func NewCartController(cartService service.CartService, exportService service.ExportService) *CartController {
	return &CartController{
		cartService:   cartService,
		exportService: exportService,
	}
}

type AddToCartRequest struct {
	// Quantity defaults to 1 when omitted, matching the storefront's
	// one-click add.
	Quantity *decimal.Decimal `json:"quantity"`
}

type CreateCartRequest struct {
	Name string `json:"name"`
}

type RenameCartRequest struct {
	Name string `json:"name" binding:"required"`
}

type SetQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// respondCartError maps cart service sentinels onto the HTTP error surface.
// Unknown errors become 500s and are logged by the caller.
func respondCartError(c *gin.Context, err error) bool {
	switch {
	case stderrors.Is(err, service.ErrInvalidQuantity):
		errors.BadRequest(c, errors.ValidationInvalidQuantity, "Quantity must be greater than zero")
	case stderrors.Is(err, service.ErrEmptyCartName):
		errors.BadRequest(c, errors.ValidationRequired, "Cart name must not be empty")
	case stderrors.Is(err, service.ErrCartNotOwned):
		errors.Forbidden(c, errors.CartNotOwned, "Cart belongs to another user")
	case stderrors.Is(err, service.ErrCartNotFound):
		errors.NotFound(c, errors.CartNotFound, "Cart not found")
	case stderrors.Is(err, service.ErrEntryNotFound):
		errors.NotFound(c, errors.CartEntryNotFound, "Recipe is not in the cart")
	case stderrors.Is(err, service.ErrRecipeNotFound):
		errors.NotFound(c, errors.RecipeNotFound, "Recipe not found")
	case stderrors.Is(err, service.ErrNoActiveCart):
		errors.NotFound(c, errors.CartNoneActive, "No active cart")
	case stderrors.Is(err, service.ErrCartCompleted):
		errors.Conflict(c, errors.CartCompleted, "Cart is already checked out")
	case stderrors.Is(err, service.ErrCorruptTotal):
		errors.RespondWithError(c, http.StatusInternalServerError, errors.DataIntegrity, "Shopping list aggregation failed")
	case stderrors.Is(err, service.ErrConversionNotFound):
		errors.RespondWithError(c, http.StatusInternalServerError, errors.ConversionNotFound, "Ingredient conversion is missing")
	default:
		return false
	}
	return true
}

// ListCarts returns the user's carts partitioned into active / saved /
// historical.
// GET /api/v1/carts
func (ctrl *CartController) ListCarts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	overview, err := ctrl.cartService.GetUserCarts(c.Request.Context(), userID)
	if err != nil {
		log.Error("Failed to list carts", err, map[string]interface{}{
			"user_id": userID,
		})
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, overview)
}

// CreateCart creates a new cart and makes it active.
// POST /api/v1/carts
func (ctrl *CartController) CreateCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	var req CreateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		log.Warn("Invalid create cart request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	cart, err := ctrl.cartService.CreateCart(c.Request.Context(), userID, req.Name)
	if err != nil {
		log.Error("Failed to create cart", err, map[string]interface{}{
			"user_id": userID,
		})
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"cart": cart})
}

// RenameCart renames a saved or active cart.
// PUT /api/v1/carts/:id
func (ctrl *CartController) RenameCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RenameCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationRequired, "Cart name is required")
		return
	}

	if err := ctrl.cartService.RenameCart(userID, cartID, req.Name); err != nil {
		if !respondCartError(c, err) {
			log.Error("Failed to rename cart", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart renamed"})
}

// ActivateCart makes a saved cart the active one.
// POST /api/v1/carts/:id/activate
func (ctrl *CartController) ActivateCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.cartService.ActivateCart(c.Request.Context(), userID, cartID); err != nil {
		if !respondCartError(c, err) {
			log.Error("Failed to activate cart", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart activated"})
}

// CopyCart snapshot-copies a cart into a new saved cart.
// POST /api/v1/carts/:id/copy
func (ctrl *CartController) CopyCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	cart, err := ctrl.cartService.CopyCart(userID, cartID)
	if err != nil {
		if !respondCartError(c, err) {
			log.Error("Failed to copy cart", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"cart": cart})
}

// DeleteCart deletes a cart and its entries.
// DELETE /api/v1/carts/:id
func (ctrl *CartController) DeleteCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.cartService.DeleteCart(c.Request.Context(), userID, cartID); err != nil {
		if !respondCartError(c, err) {
			log.Error("Failed to delete cart", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart deleted"})
}

// AddToCart adds a recipe to the active cart, incrementing if present.
// POST /api/v1/recipes/:id/add-to-cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	recipeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"user_id":   userID,
			"recipe_id": recipeID,
			"error":     err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	quantity := decimal.NewFromInt(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	entry, err := ctrl.cartService.AddOrIncrement(c.Request.Context(), userID, recipeID, quantity)
	if err != nil {
		if !respondCartError(c, err) {
			log.Error("Failed to add recipe to cart", err, map[string]interface{}{
				"user_id":   userID,
				"recipe_id": recipeID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// SetQuantity replaces the quantity of a recipe in the active cart.
// PUT /api/v1/carts/recipes/:recipe_id
func (ctrl *CartController) SetQuantity(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	recipeID, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidQuantity, "Quantity is required")
		return
	}

	if err := ctrl.cartService.SetQuantity(c.Request.Context(), userID, recipeID, req.Quantity); err != nil {
		if !respondCartError(c, err) {
			log.Error("Failed to set cart entry quantity", err, map[string]interface{}{
				"user_id":   userID,
				"recipe_id": recipeID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quantity updated"})
}

// RemoveEntry removes a recipe from the active cart.
// DELETE /api/v1/carts/recipes/:recipe_id
func (ctrl *CartController) RemoveEntry(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	recipeID, ok := parseIDParam(c, "recipe_id")
	if !ok {
		return
	}

	if err := ctrl.cartService.RemoveEntry(c.Request.Context(), userID, recipeID); err != nil {
		if !respondCartError(c, err) {
			log.Error("Failed to remove cart entry", err, map[string]interface{}{
				"user_id":   userID,
				"recipe_id": recipeID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recipe removed from cart"})
}

// Consolidation returns the consolidated shopping list without checking out.
// GET /api/v1/carts/:id/consolidation
func (ctrl *CartController) Consolidation(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := ctrl.cartService.GetCart(userID, cartID); err != nil {
		if !respondCartError(c, err) {
			log.Error("Failed to fetch cart", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	list, err := ctrl.cartService.Consolidate(cartID)
	if err != nil {
		if !respondCartError(c, err) {
			log.Error("Failed to consolidate cart", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"shopping_list": list})
}

// Checkout consolidates the cart and flips it to historical.
// POST /api/v1/carts/:id/checkout
func (ctrl *CartController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := ctrl.cartService.Checkout(c.Request.Context(), userID, cartID)
	if err != nil {
		if !respondCartError(c, err) {
			log.Error("Checkout failed", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"shopping_list": list})
}

// Export consolidates the cart, renders it to a workbook, and uploads it.
// POST /api/v1/carts/:id/export
func (ctrl *CartController) Export(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := ctrl.cartService.GetCart(userID, cartID); err != nil {
		if !respondCartError(c, err) {
			log.Error("Failed to fetch cart", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	list, err := ctrl.cartService.Consolidate(cartID)
	if err != nil {
		if !respondCartError(c, err) {
			log.Error("Failed to consolidate cart for export", err, map[string]interface{}{
				"user_id": userID,
				"cart_id": cartID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	result, err := ctrl.exportService.ExportShoppingList(c.Request.Context(), cartID, list)
	if err != nil {
		log.Error("Failed to export shopping list", err, map[string]interface{}{
			"user_id": userID,
			"cart_id": cartID,
		})
		errors.RespondWithError(c, http.StatusInternalServerError, errors.InternalExportError, "Failed to export shopping list")
		return
	}

	c.JSON(http.StatusOK, gin.H{"export": result})
}
