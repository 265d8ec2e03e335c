package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bads1de/CareerRise/internal/shared/storage/object"
)

// Store implements ObjectStore using the local filesystem. Objects are
// expected to be served under publicBaseURL by the HTTP router.
type Store struct {
	baseDir       string
	publicBaseURL string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir, publicBaseURL string) *Store {
	return &Store{baseDir: baseDir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Dir returns the root directory, used to mount a static file route.
func (s *Store) Dir() string { return s.baseDir }

// Put writes the reader to disk at key.
func (s *Store) Put(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write body: %w", err)
	}
	_ = contentType
	return s.publicBaseURL + "/" + filepath.ToSlash(filepath.Clean(key)), nil
}

// Delete removes the file behind url.
func (s *Store) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := object.KeyFromURL(s.publicBaseURL, url)
	if err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(key)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) || clean == "." {
		return "", fmt.Errorf("invalid storage key")
	}
	return filepath.Join(s.baseDir, clean), nil
}

var _ object.ObjectStore = (*Store)(nil)
