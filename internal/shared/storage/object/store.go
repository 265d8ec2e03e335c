package object

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrForeignURL is returned by Delete when the URL does not belong to the store.
var ErrForeignURL = errors.New("url not owned by this store")

// ObjectStore stores public binary objects addressed by URL.
type ObjectStore interface {
	// Put writes r under key and returns the public URL of the stored object.
	Put(ctx context.Context, key string, contentType string, r io.Reader) (url string, err error)
	// Delete removes the object behind url. Deleting a missing object is not an error.
	Delete(ctx context.Context, url string) error
}

// KeyFromURL strips base from rawURL, returning the object key.
func KeyFromURL(base, rawURL string) (string, error) {
	base = strings.TrimRight(base, "/")
	if base == "" || !strings.HasPrefix(rawURL, base+"/") {
		return "", ErrForeignURL
	}
	key := strings.TrimPrefix(rawURL, base+"/")
	if key == "" || strings.Contains(key, "..") {
		return "", ErrForeignURL
	}
	return key, nil
}
