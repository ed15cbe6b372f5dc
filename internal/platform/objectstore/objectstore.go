package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned by Stat and Delete when no object exists at the path.
var ErrNotFound = errors.New("object not found")

// Store is the binary object collaborator behind the media store.
type Store interface {
	Put(ctx context.Context, path string, r io.Reader, contentType string) error
	Delete(ctx context.Context, path string) error
	// SignedGet returns a retrieval URL that the store stops honouring after ttl.
	SignedGet(ctx context.Context, path string, ttl time.Duration) (string, error)
	Stat(ctx context.Context, path string) (*ObjectAttrs, error)
}

// PrefixDeleter is implemented by stores that can sweep every object under a prefix.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

type ObjectAttrs struct {
	Path        string
	Size        int64
	ContentType string
	Updated     time.Time
}

// CleanPath validates an object path and returns its canonical form. Absolute paths,
// parent references and empty segments are rejected.
func CleanPath(p string) (string, error) {
	raw := strings.TrimSpace(p)
	if raw == "" {
		return "", fmt.Errorf("object path is empty")
	}
	if strings.HasPrefix(raw, "/") || strings.Contains(raw, "\\") {
		return "", fmt.Errorf("object path %q must be relative", p)
	}
	for _, seg := range strings.Split(raw, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("object path %q has an invalid segment", p)
		}
	}
	return path.Clean(raw), nil
}
