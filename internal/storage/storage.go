// Package storage persists uploaded recipe pictures. The database stores
// only the relative path returned by Save; everything under the "recipes/"
// namespace belongs to this package.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Upload is a picture payload about to be stored. Filename is the
// client-supplied name and is only consulted for its extension.
type Upload struct {
	Filename string
	Content  []byte
}

// Store saves and removes picture files. Implementations must treat
// Delete of a missing path as a no-op so callers can stay idempotent.
type Store interface {
	Save(ctx context.Context, upload *Upload) (string, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

const keyPrefix = "recipes"

// objectKey generates a fresh storage key, keeping the upload's extension.
func objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", keyPrefix, uuid.New().String(), ext)
}

// validKey rejects paths outside the recipes namespace, including
// traversal attempts smuggled in from the database.
func validKey(path string) bool {
	clean := filepath.ToSlash(filepath.Clean(path))
	return strings.HasPrefix(clean, keyPrefix+"/") && !strings.Contains(clean, "..")
}
