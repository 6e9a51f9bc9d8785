package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recipeshare/backend/internal/models"
	"github.com/recipeshare/backend/internal/storage"
)

// DefaultPageSize is the page size used when the caller does not ask for
// another one.
const DefaultPageSize = 12

// MaxPageSize caps client-supplied page sizes.
const MaxPageSize = 100

// RecipeService orchestrates recipe persistence and the picture lifecycle.
type RecipeService struct {
	db     *gorm.DB
	store  storage.Store
	logger *zap.Logger
}

// NewRecipeService creates a new RecipeService instance.
func NewRecipeService(db *gorm.DB, store storage.Store, logger *zap.Logger) *RecipeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeService{db: db, store: store, logger: logger}
}

// ListParams are the filters and paging inputs for ListPaginated. Search
// is a case-insensitive substring match on the recipe name; CuisineType is
// an exact match. Both compose with AND.
type ListParams struct {
	Search      string
	CuisineType string
	Page        int
	PageSize    int
}

// RecipePage is one page of recipes plus the total match count.
type RecipePage struct {
	Recipes  []models.Recipe
	Total    int64
	Page     int
	PageSize int
}

// RecipeInput carries the validated fields for create and update. Picture
// is nil when the request did not include an upload.
type RecipeInput struct {
	Name        string
	CuisineType string
	Ingredients string
	Steps       string
	Picture     *storage.Upload
}

// ListPaginated returns recipes ordered by creation time descending with
// the owning user preloaded.
func (s *RecipeService) ListPaginated(ctx context.Context, params ListParams) (*RecipePage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = DefaultPageSize
	}
	if params.PageSize > MaxPageSize {
		params.PageSize = MaxPageSize
	}

	filtered := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.Recipe{})
		if params.Search != "" {
			query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(params.Search)+"%")
		}
		if params.CuisineType != "" {
			query = query.Where("cuisine_type = ?", params.CuisineType)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, err
	}

	var recipes []models.Recipe
	err := filtered().Preload("User").
		Order("created_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}

	return &RecipePage{
		Recipes:  recipes,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}

// DistinctCuisineTypes returns every cuisine type currently present.
func (s *RecipeService) DistinctCuisineTypes(ctx context.Context) ([]string, error) {
	var cuisineTypes []string
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Distinct().
		Pluck("cuisine_type", &cuisineTypes).Error
	if err != nil {
		return nil, err
	}
	return cuisineTypes, nil
}

// Get retrieves a recipe with its owner attached.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Preload("User").First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Create stores the picture (if any) and inserts the recipe owned by the
// acting user. The picture is written before the row; if the insert fails
// the freshly stored file is removed best-effort.
func (s *RecipeService) Create(ctx context.Context, input RecipeInput, actingUser *models.User) (*models.Recipe, error) {
	recipe := &models.Recipe{
		Name:        input.Name,
		CuisineType: input.CuisineType,
		Ingredients: input.Ingredients,
		Steps:       input.Steps,
		UserID:      actingUser.ID,
	}

	if input.Picture != nil {
		path, err := s.store.Save(ctx, input.Picture)
		if err != nil {
			return nil, err
		}
		recipe.Picture = &path
	}

	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		if recipe.Picture != nil {
			s.removePicture(ctx, *recipe.Picture)
		}
		return nil, err
	}

	return recipe, nil
}

// Update applies the input to an existing recipe. A new picture replaces
// the stored one (old file deleted first); when no picture is supplied the
// stored path is left untouched. Returns the refreshed entity.
func (s *RecipeService) Update(ctx context.Context, recipe *models.Recipe, input RecipeInput) (*models.Recipe, error) {
	updates := map[string]interface{}{
		"name":         input.Name,
		"cuisine_type": input.CuisineType,
		"ingredients":  input.Ingredients,
		"steps":        input.Steps,
	}

	var newPath string
	if input.Picture != nil {
		if recipe.Picture != nil {
			s.removePicture(ctx, *recipe.Picture)
		}
		path, err := s.store.Save(ctx, input.Picture)
		if err != nil {
			return nil, err
		}
		newPath = path
		updates["picture"] = path
	}

	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ?", recipe.ID).
		Updates(updates).Error
	if err != nil {
		if newPath != "" {
			s.removePicture(ctx, newPath)
		}
		return nil, err
	}

	return s.Get(ctx, recipe.ID)
}

// Delete removes the stored picture (best-effort, the row is the
// authority) and then the row itself.
func (s *RecipeService) Delete(ctx context.Context, recipe *models.Recipe) error {
	if recipe.Picture != nil {
		s.removePicture(ctx, *recipe.Picture)
	}
	return s.db.WithContext(ctx).Delete(&models.Recipe{}, "id = ?", recipe.ID).Error
}

// CanModify reports whether the user may update or delete the recipe.
// Same rule as the policy's update/delete predicates, kept here so
// non-HTTP callers need not depend on the policy package.
func (s *RecipeService) CanModify(user *models.User, recipe *models.Recipe) bool {
	if user == nil {
		return false
	}
	return user.IsAdmin() || user.ID == recipe.UserID
}

func (s *RecipeService) removePicture(ctx context.Context, path string) {
	if err := s.store.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to delete stored picture",
			zap.String("path", path),
			zap.Error(err))
	}
}
