package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/recipeshare/backend/internal/storage"
)

// MaxPictureBytes is the upload size limit for recipe pictures (2 MiB).
const MaxPictureBytes = 2 << 20

var allowedPictureTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// RecipeForm carries the writable recipe fields. The picture arrives as a
// separate multipart file part.
type RecipeForm struct {
	Name        string `form:"name" binding:"required,max=255"`
	CuisineType string `form:"cuisine_type" binding:"required,max=255"`
	Ingredients string `form:"ingredients" binding:"required"`
	Steps       string `form:"steps" binding:"required"`
}

// bindingErrors turns a gin binding failure into field-level messages.
func bindingErrors(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["form"] = err.Error()
		return out
	}

	for _, fe := range verrs {
		field := formFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = fmt.Sprintf("the %s field is required", field)
		case "max":
			out[field] = fmt.Sprintf("the %s may not be greater than %s characters", field, fe.Param())
		default:
			out[field] = fmt.Sprintf("the %s field is invalid", field)
		}
	}
	return out
}

func formFieldName(structField string) string {
	switch structField {
	case "Name":
		return "name"
	case "CuisineType":
		return "cuisine_type"
	case "Ingredients":
		return "ingredients"
	case "Steps":
		return "steps"
	}
	return strings.ToLower(structField)
}

// pictureUpload extracts and validates the optional picture file part.
// Returns (nil, "") when the request carries no picture.
func pictureUpload(c *gin.Context) (*storage.Upload, string) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, ""
	}

	fileHeader, err := c.FormFile("picture")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, ""
	}
	if err != nil {
		return nil, "the picture could not be read"
	}

	if fileHeader.Size > MaxPictureBytes {
		return nil, "the picture may not be greater than 2 MB"
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "the picture could not be read"
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, "the picture could not be read"
	}

	if _, ok := allowedPictureTypes[http.DetectContentType(content)]; !ok {
		return nil, "the picture must be an image"
	}

	return &storage.Upload{Filename: fileHeader.Filename, Content: content}, ""
}
