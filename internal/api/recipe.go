package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recipeshare/backend/internal/middleware"
	"github.com/recipeshare/backend/internal/models"
	"github.com/recipeshare/backend/internal/policy"
	"github.com/recipeshare/backend/internal/service"
)

// RecipeHandler exposes the recipe HTTP surface.
type RecipeHandler struct {
	recipeService *service.RecipeService
	logger        *zap.Logger
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(recipeService *service.RecipeService, logger *zap.Logger) *RecipeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeHandler{recipeService: recipeService, logger: logger}
}

// ListRecipes returns a page of recipes together with the distinct cuisine
// types and the echoed filters. Open to guests.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	params := service.ListParams{
		Search:      c.Query("search"),
		CuisineType: c.Query("cuisine_type"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil {
		params.PageSize = size
	}

	page, err := h.recipeService.ListPaginated(c.Request.Context(), params)
	if err != nil {
		h.logger.Error("failed to list recipes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	cuisineTypes, err := h.recipeService.DistinctCuisineTypes(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to fetch cuisine types", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes":       page.Recipes,
		"total":         page.Total,
		"page":          page.Page,
		"page_size":     page.PageSize,
		"cuisine_types": cuisineTypes,
		"filters": gin.H{
			"search":       params.Search,
			"cuisine_type": params.CuisineType,
		},
	})
}

// NewRecipe returns the blank creation form view-model.
func (h *RecipeHandler) NewRecipe(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if !policy.CanCreate(user) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to create recipes"})
		return
	}

	cuisineTypes, err := h.recipeService.DistinctCuisineTypes(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to fetch cuisine types", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load form"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cuisine_types": cuisineTypes})
}

// CreateRecipe validates the submitted form and creates a recipe owned by
// the acting user.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if !policy.CanCreate(user) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to create recipes"})
		return
	}

	input, ok := h.bindRecipeForm(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), input, user)
	if err != nil {
		h.logger.Error("failed to create recipe", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recipe"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"recipe":  recipe,
		"message": "Recipe created successfully!",
	})
}

// GetRecipe returns a single recipe with its owner. Open to guests.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipe, ok := h.loadRecipe(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

// EditRecipe returns the prefilled form view-model for the owner or an
// admin.
func (h *RecipeHandler) EditRecipe(c *gin.Context) {
	recipe, ok := h.loadRecipe(c)
	if !ok {
		return
	}

	if !policy.CanUpdate(middleware.CurrentUser(c), recipe) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to modify this recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

// UpdateRecipe applies a validated form to an existing recipe.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	recipe, ok := h.loadRecipe(c)
	if !ok {
		return
	}

	if !policy.CanUpdate(middleware.CurrentUser(c), recipe) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to modify this recipe"})
		return
	}

	input, ok := h.bindRecipeForm(c)
	if !ok {
		return
	}

	updated, err := h.recipeService.Update(c.Request.Context(), recipe, input)
	if err != nil {
		h.logger.Error("failed to update recipe", zap.String("id", recipe.ID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe":  updated,
		"message": "Recipe updated successfully!",
	})
}

// DeleteRecipe removes a recipe and its stored picture.
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	recipe, ok := h.loadRecipe(c)
	if !ok {
		return
	}

	if !policy.CanDelete(middleware.CurrentUser(c), recipe) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to modify this recipe"})
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), recipe); err != nil {
		h.logger.Error("failed to delete recipe", zap.String("id", recipe.ID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe deleted successfully!",
		"id":      recipe.ID.String(),
	})
}

// loadRecipe resolves the :id route parameter. Unknown and malformed ids
// both answer 404 so the response does not depend on who is asking.
func (h *RecipeHandler) loadRecipe(c *gin.Context) (*models.Recipe, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return nil, false
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return nil, false
		}
		h.logger.Error("failed to load recipe", zap.String("id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipe"})
		return nil, false
	}
	return recipe, true
}

// bindRecipeForm validates the form fields and the optional picture and
// answers 400 with field-level errors itself on failure.
func (h *RecipeHandler) bindRecipeForm(c *gin.Context) (service.RecipeInput, bool) {
	var form RecipeForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": bindingErrors(err)})
		return service.RecipeInput{}, false
	}

	picture, pictureErr := pictureUpload(c)
	if pictureErr != "" {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"picture": pictureErr}})
		return service.RecipeInput{}, false
	}

	return service.RecipeInput{
		Name:        form.Name,
		CuisineType: form.CuisineType,
		Ingredients: form.Ingredients,
		Steps:       form.Steps,
		Picture:     picture,
	}, true
}
