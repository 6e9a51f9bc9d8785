package router

import (
	"github.com/gin-gonic/gin"

	"github.com/recipeshare/backend/internal/api"
	"github.com/recipeshare/backend/internal/middleware"
)

// SetupRouter configures the application routes. The rate limiter is
// optional; mutation routes run without one when redis is not configured.
func SetupRouter(
	recipeHandler *api.RecipeHandler,
	healthHandler *api.HealthHandler,
	resolver middleware.UserResolver,
	limiter *middleware.RateLimiter,
	allowedOrigins []string,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS(allowedOrigins))

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")

	recipes := v1.Group("/recipes")
	{
		// Public browsing; a valid token still resolves the caller so
		// view-models can reflect ownership.
		recipes.GET("", middleware.OptionalAuth(resolver), recipeHandler.ListRecipes)
		recipes.GET("/:id", recipeHandler.GetRecipe)

		recipes.GET("/new", middleware.RequireAuth(resolver), recipeHandler.NewRecipe)
		recipes.GET("/:id/edit", middleware.RequireAuth(resolver), recipeHandler.EditRecipe)

		mutations := recipes.Group("")
		mutations.Use(middleware.RequireAuth(resolver))
		if limiter != nil {
			mutations.Use(limiter.Middleware())
		}
		{
			mutations.POST("", recipeHandler.CreateRecipe)
			mutations.PUT("/:id", recipeHandler.UpdateRecipe)
			mutations.DELETE("/:id", recipeHandler.DeleteRecipe)
		}
	}

	return router
}
