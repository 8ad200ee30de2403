package errors

// Error code constants, format CATEGORY_SPECIFIC_DETAIL.
// The web client maps these codes to display messages; the code, not the
// message text, is the contract.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED" // login required
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput    = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID       = "VALIDATION_INVALID_ID"
	ValidationInvalidQuantity = "VALIDATION_INVALID_QUANTITY" // quantity must be > 0
	ValidationRequired        = "VALIDATION_REQUIRED"         // missing required field

	// ==================== Cart (CART_) ====================
	CartNotFound      = "CART_NOT_FOUND"
	CartCompleted     = "CART_COMPLETED" // historical carts are read-only
	CartNotOwned      = "CART_NOT_OWNED"
	CartEntryNotFound = "CART_ENTRY_NOT_FOUND" // recipe not in cart
	CartNoneActive    = "CART_NONE_ACTIVE"     // operation needs an active cart

	// ==================== Catalog (CATALOG_) ====================
	RecipeNotFound     = "RECIPE_NOT_FOUND"
	ConversionNotFound = "CONVERSION_NOT_FOUND" // dangling conversion reference

	// ==================== Integrity (DATA_) ====================
	DataIntegrity = "DATA_INTEGRITY" // impossible aggregate, corrupt catalog

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
	InternalExportError = "INTERNAL_EXPORT_ERROR" // shopping list export failed
)
