package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jtaylor/mealcart-backend/config"
	"github.com/jtaylor/mealcart-backend/internal/app/controller"
	"github.com/jtaylor/mealcart-backend/internal/middleware"
)

type Router struct {
	authController   *controller.AuthController
	recipeController *controller.RecipeController
	cartController   *controller.CartController
	authMiddleware   *middleware.AuthMiddleware
	config           *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	recipeController *controller.RecipeController,
	cartController *controller.CartController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:   authController,
		recipeController: recipeController,
		cartController:   cartController,
		authMiddleware:   authMiddleware,
		config:           cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "MealCart API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
		}

		recipes := v1.Group("/recipes")
		{
			recipes.GET("", r.recipeController.ListRecipes)
			recipes.GET("/:id", r.recipeController.GetRecipe)
			recipes.POST("/:id/add-to-cart",
				r.authMiddleware.Authenticate(),
				r.cartController.AddToCart,
			)
		}

		carts := v1.Group("/carts", r.authMiddleware.Authenticate())
		{
			carts.GET("", r.cartController.ListCarts)
			carts.POST("", r.cartController.CreateCart)
			carts.PUT("/:id", r.cartController.RenameCart)
			carts.DELETE("/:id", r.cartController.DeleteCart)
			carts.POST("/:id/activate", r.cartController.ActivateCart)
			carts.POST("/:id/copy", r.cartController.CopyCart)
			carts.POST("/:id/checkout", r.cartController.Checkout)
			carts.GET("/:id/consolidation", r.cartController.Consolidation)
			carts.POST("/:id/export", r.cartController.Export)

			// Active-cart entry mutations are keyed by recipe, not entry ID.
			carts.PUT("/recipes/:recipe_id", r.cartController.SetQuantity)
			carts.DELETE("/recipes/:recipe_id", r.cartController.RemoveEntry)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
