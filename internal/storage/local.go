package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores pictures on disk under a public root directory.
type Local struct {
	root string
}

// NewLocal creates a local store rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

func (l *Local) Save(ctx context.Context, upload *Upload) (string, error) {
	key := objectKey(upload.Filename)
	full := filepath.Join(l.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(full, upload.Content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write picture: %w", err)
	}
	return key, nil
}

func (l *Local) Delete(ctx context.Context, path string) error {
	if !validKey(path) {
		return fmt.Errorf("invalid storage path: %q", path)
	}
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(path)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	if !validKey(path) {
		return false, nil
	}
	_, err := os.Stat(filepath.Join(l.root, filepath.FromSlash(path)))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
