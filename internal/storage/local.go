package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dooshek/honey/internal/logger"
)

// LocalStore writes clips under Path. The storage reference is the key,
// i.e. the path relative to Path.
type LocalStore struct {
	Path string
}

func NewLocalStore(path string) *LocalStore {
	return &LocalStore{Path: path}
}

func (s *LocalStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !filepath.IsLocal(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}

	path := filepath.Join(s.Path, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	logger.Debugf("Wrote %d bytes of %s to %s", len(data), contentType, path)
	return key, nil
}
