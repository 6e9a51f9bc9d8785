package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/recipeshare/backend/internal/database"
	"github.com/recipeshare/backend/internal/middleware"
	"github.com/recipeshare/backend/internal/models"
	"github.com/recipeshare/backend/internal/service"
	"github.com/recipeshare/backend/internal/storage"
)

type testEnv struct {
	router    *gin.Engine
	db        *gorm.DB
	auth      *service.AuthService
	storeRoot string
}

func setupRecipeTestRouter(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.NewSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	storeRoot := t.TempDir()
	store := storage.NewLocal(storeRoot)
	auth := service.NewAuthService(db, "test-secret")
	recipeService := service.NewRecipeService(db, store, nil)
	handler := NewRecipeHandler(recipeService, nil)

	router := gin.New()
	recipes := router.Group("/api/v1/recipes")
	{
		recipes.GET("", middleware.OptionalAuth(auth), handler.ListRecipes)
		recipes.GET("/:id", handler.GetRecipe)
		recipes.GET("/new", middleware.RequireAuth(auth), handler.NewRecipe)
		recipes.GET("/:id/edit", middleware.RequireAuth(auth), handler.EditRecipe)
		recipes.POST("", middleware.RequireAuth(auth), handler.CreateRecipe)
		recipes.PUT("/:id", middleware.RequireAuth(auth), handler.UpdateRecipe)
		recipes.DELETE("/:id", middleware.RequireAuth(auth), handler.DeleteRecipe)
	}

	return &testEnv{router: router, db: db, auth: auth, storeRoot: storeRoot}
}

func (e *testEnv) createUserAndToken(t *testing.T, role string) (*models.User, string) {
	user := &models.User{
		Name:         "Test User",
		Email:        fmt.Sprintf("%s@example.com", uuid.New().String()),
		PasswordHash: "irrelevant",
		Role:         role,
	}
	require.NoError(t, e.db.Create(user).Error)

	token, err := e.auth.GenerateToken(user.ID)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) createRecipe(t *testing.T, owner *models.User, name, cuisineType string) *models.Recipe {
	recipe := &models.Recipe{
		Name:        name,
		CuisineType: cuisineType,
		Ingredients: "Ingredient 1\nIngredient 2",
		Steps:       "Step 1\nStep 2",
		UserID:      owner.ID,
	}
	require.NoError(t, e.db.Create(recipe).Error)
	return recipe
}

// pngBytes carries a real PNG signature so content sniffing sees an image.
func pngBytes(size int) []byte {
	header := []byte("\x89PNG\r\n\x1a\n")
	if size < len(header) {
		size = len(header)
	}
	out := make([]byte, size)
	copy(out, header)
	return out
}

func recipeFormBody(t *testing.T, fields map[string]string, pictureName string, picture []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if picture != nil {
		part, err := writer.CreateFormFile("picture", pictureName)
		require.NoError(t, err)
		_, err = part.Write(picture)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"name":         "Test Recipe",
		"cuisine_type": "Italian",
		"ingredients":  "Ingredient 1\nIngredient 2",
		"steps":        "Step 1\nStep 2",
	}
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestListRecipesIsPublic(t *testing.T) {
	env := setupRecipeTestRouter(t)
	owner, _ := env.createUserAndToken(t, models.RoleUser)
	env.createRecipe(t, owner, "Carbonara", "Italian")
	env.createRecipe(t, owner, "Tacos", "Mexican")

	req := httptest.NewRequest("GET", "/api/v1/recipes", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Len(t, body["recipes"], 2)
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 12, body["page_size"])
	assert.ElementsMatch(t, []interface{}{"Italian", "Mexican"}, body["cuisine_types"])
}

func TestListRecipesEchoesFilters(t *testing.T) {
	env := setupRecipeTestRouter(t)
	owner, _ := env.createUserAndToken(t, models.RoleUser)
	env.createRecipe(t, owner, "Pasta Carbonara", "Italian")
	env.createRecipe(t, owner, "Chicken Tikka", "Indian")
	env.createRecipe(t, owner, "Pasta Bolognese", "Italian")

	req := httptest.NewRequest("GET", "/api/v1/recipes?search=Pasta&cuisine_type=Italian", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Len(t, body["recipes"], 2)
	filters := body["filters"].(map[string]interface{})
	assert.Equal(t, "Pasta", filters["search"])
	assert.Equal(t, "Italian", filters["cuisine_type"])
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	env := setupRecipeTestRouter(t)

	body, contentType := recipeFormBody(t, validFields(), "", nil)
	req := httptest.NewRequest("POST", "/api/v1/recipes", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRecipeWithoutPicture(t *testing.T) {
	env := setupRecipeTestRouter(t)
	user, token := env.createUserAndToken(t, models.RoleUser)

	body, contentType := recipeFormBody(t, validFields(), "", nil)
	req := httptest.NewRequest("POST", "/api/v1/recipes", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeJSON(t, w)
	assert.Equal(t, "Recipe created successfully!", resp["message"])

	recipe := resp["recipe"].(map[string]interface{})
	assert.Equal(t, user.ID.String(), recipe["user_id"])
	assert.Nil(t, recipe["picture"])
}

func TestCreateRecipeWithPicture(t *testing.T) {
	env := setupRecipeTestRouter(t)
	_, token := env.createUserAndToken(t, models.RoleUser)

	body, contentType := recipeFormBody(t, validFields(), "dish.png", pngBytes(128))
	req := httptest.NewRequest("POST", "/api/v1/recipes", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	recipe := decodeJSON(t, w)["recipe"].(map[string]interface{})

	picture, ok := recipe["picture"].(string)
	require.True(t, ok, "picture path must be set")
	assert.True(t, strings.HasPrefix(picture, "recipes/"))
	assert.FileExists(t, filepath.Join(env.storeRoot, filepath.FromSlash(picture)))
}

func TestCreateRecipeValidation(t *testing.T) {
	env := setupRecipeTestRouter(t)
	_, token := env.createUserAndToken(t, models.RoleUser)

	for _, missing := range []string{"name", "cuisine_type", "ingredients", "steps"} {
		t.Run("missing "+missing, func(t *testing.T) {
			fields := validFields()
			delete(fields, missing)

			body, contentType := recipeFormBody(t, fields, "", nil)
			req := httptest.NewRequest("POST", "/api/v1/recipes", body)
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)
			errs := decodeJSON(t, w)["errors"].(map[string]interface{})
			assert.Contains(t, errs, missing)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count, "validation failures must not mutate state")
}

func TestCreateRecipeRejectsOverlongName(t *testing.T) {
	env := setupRecipeTestRouter(t)
	_, token := env.createUserAndToken(t, models.RoleUser)

	fields := validFields()
	fields["name"] = strings.Repeat("x", 256)

	body, contentType := recipeFormBody(t, fields, "", nil)
	req := httptest.NewRequest("POST", "/api/v1/recipes", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decodeJSON(t, w)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "name")
}

func TestCreateRecipeRejectsNonImagePicture(t *testing.T) {
	env := setupRecipeTestRouter(t)
	_, token := env.createUserAndToken(t, models.RoleUser)

	body, contentType := recipeFormBody(t, validFields(), "notes.txt", []byte("just some text, not an image"))
	req := httptest.NewRequest("POST", "/api/v1/recipes", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decodeJSON(t, w)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "picture")
}

func TestCreateRecipeRejectsOversizedPicture(t *testing.T) {
	env := setupRecipeTestRouter(t)
	_, token := env.createUserAndToken(t, models.RoleUser)

	body, contentType := recipeFormBody(t, validFields(), "huge.png", pngBytes(MaxPictureBytes+1))
	req := httptest.NewRequest("POST", "/api/v1/recipes", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decodeJSON(t, w)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "picture")
}

func TestGetRecipe(t *testing.T) {
	env := setupRecipeTestRouter(t)
	owner, _ := env.createUserAndToken(t, models.RoleUser)
	recipe := env.createRecipe(t, owner, "Shown Recipe", "French")

	req := httptest.NewRequest("GET", "/api/v1/recipes/"+recipe.ID.String(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeJSON(t, w)["recipe"].(map[string]interface{})
	assert.Equal(t, "Shown Recipe", got["name"])

	user, ok := got["user"].(map[string]interface{})
	require.True(t, ok, "owner must be attached")
	assert.Equal(t, owner.ID.String(), user["id"])
}

func TestGetRecipeNotFound(t *testing.T) {
	env := setupRecipeTestRouter(t)

	for _, id := range []string{uuid.New().String(), "not-a-uuid"} {
		req := httptest.NewRequest("GET", "/api/v1/recipes/"+id, nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
}

func TestNewRecipeForm(t *testing.T) {
	env := setupRecipeTestRouter(t)
	owner, token := env.createUserAndToken(t, models.RoleUser)
	env.createRecipe(t, owner, "Carbonara", "Italian")

	req := httptest.NewRequest("GET", "/api/v1/recipes/new", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "form requires authentication")

	req = httptest.NewRequest("GET", "/api/v1/recipes/new", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []interface{}{"Italian"}, decodeJSON(t, w)["cuisine_types"])
}

func TestEditRecipeAuthorization(t *testing.T) {
	env := setupRecipeTestRouter(t)
	owner, ownerToken := env.createUserAndToken(t, models.RoleUser)
	_, otherToken := env.createUserAndToken(t, models.RoleUser)
	recipe := env.createRecipe(t, owner, "Editable", "Thai")

	req := httptest.NewRequest("GET", "/api/v1/recipes/"+recipe.ID.String()+"/edit", nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest("GET", "/api/v1/recipes/"+recipe.ID.String()+"/edit", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeJSON(t, w)["recipe"].(map[string]interface{})
	assert.Equal(t, "Editable", got["name"])
}

func TestUpdateRecipe(t *testing.T) {
	env := setupRecipeTestRouter(t)
	owner, token := env.createUserAndToken(t, models.RoleUser)
	recipe := env.createRecipe(t, owner, "Original", "Italian")

	fields := validFields()
	fields["name"] = "Updated Recipe"
	fields["cuisine_type"] = "French"

	body, contentType := recipeFormBody(t, fields, "", nil)
	req := httptest.NewRequest("PUT", "/api/v1/recipes/"+recipe.ID.String(), body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON(t, w)
	assert.Equal(t, "Recipe updated successfully!", resp["message"])

	got := resp["recipe"].(map[string]interface{})
	assert.Equal(t, "Updated Recipe", got["name"])
	assert.Equal(t, "French", got["cuisine_type"])
}

func TestUpdateRecipeForbiddenForNonOwner(t *testing.T) {
	env := setupRecipeTestRouter(t)
	owner, _ := env.createUserAndToken(t, models.RoleUser)
	_, otherToken := env.createUserAndToken(t, models.RoleUser)
	recipe := env.createRecipe(t, owner, "Guarded", "Italian")

	body, contentType := recipeFormBody(t, validFields(), "", nil)
	req := httptest.NewRequest("PUT", "/api/v1/recipes/"+recipe.ID.String(), body)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var stored models.Recipe
	require.NoError(t, env.db.First(&stored, "id = ?", recipe.ID).Error)
	assert.Equal(t, "Guarded", stored.Name, "request state unchanged on rejection")
}

func TestUpdateRecipeAllowedForAdmin(t *testing.T) {
	env := setupRecipeTestRouter(t)
	owner, _ := env.createUserAndToken(t, models.RoleUser)
	_, adminToken := env.createUserAndToken(t, models.RoleAdmin)
	recipe := env.createRecipe(t, owner, "Admin Target", "Italian")

	fields := validFields()
	fields["name"] = "Admin Updated"

	body, contentType := recipeFormBody(t, fields, "", nil)
	req := httptest.NewRequest("PUT", "/api/v1/recipes/"+recipe.ID.String(), body)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Recipe
	require.NoError(t, env.db.First(&stored, "id = ?", recipe.ID).Error)
	assert.Equal(t, "Admin Updated", stored.Name)
	assert.Equal(t, owner.ID, stored.UserID, "ownership survives admin edits")
}

func TestDeleteRecipe(t *testing.T) {
	env := setupRecipeTestRouter(t)
	owner, token := env.createUserAndToken(t, models.RoleUser)
	recipe := env.createRecipe(t, owner, "Doomed", "Mexican")

	req := httptest.NewRequest("DELETE", "/api/v1/recipes/"+recipe.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Recipe deleted successfully!", decodeJSON(t, w)["message"])

	req = httptest.NewRequest("GET", "/api/v1/recipes/"+recipe.ID.String(), nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRecipeForbiddenForNonOwner(t *testing.T) {
	env := setupRecipeTestRouter(t)
	owner, _ := env.createUserAndToken(t, models.RoleUser)
	_, otherToken := env.createUserAndToken(t, models.RoleUser)
	recipe := env.createRecipe(t, owner, "Survivor", "Thai")

	req := httptest.NewRequest("DELETE", "/api/v1/recipes/"+recipe.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpdateRecipeWithPictureReplacesStoredFile(t *testing.T) {
	env := setupRecipeTestRouter(t)
	_, token := env.createUserAndToken(t, models.RoleUser)

	// Create with an initial picture.
	body, contentType := recipeFormBody(t, validFields(), "first.png", pngBytes(64))
	req := httptest.NewRequest("POST", "/api/v1/recipes", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeJSON(t, w)["recipe"].(map[string]interface{})
	recipeID := created["id"].(string)
	oldPath := created["picture"].(string)

	// Replace it.
	body, contentType = recipeFormBody(t, validFields(), "second.png", pngBytes(64))
	req = httptest.NewRequest("PUT", "/api/v1/recipes/"+recipeID, body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	updated := decodeJSON(t, w)["recipe"].(map[string]interface{})
	newPath := updated["picture"].(string)
	assert.NotEqual(t, oldPath, newPath)

	assert.NoFileExists(t, filepath.Join(env.storeRoot, filepath.FromSlash(oldPath)))
	assert.FileExists(t, filepath.Join(env.storeRoot, filepath.FromSlash(newPath)))
}
