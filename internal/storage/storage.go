// Package storage stores question images and avatars in an object store.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
)

// ErrObjectNotFound is returned by Download when the object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// FileStore is the object store port. Upload returns the public URL of the
// stored object. Delete and Download accept either that URL or the bare
// object path.
type FileStore interface {
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) (string, error)
	Download(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// ObjectPath extracts the object path from a Firebase Storage download URL
// ("…/o/<escaped path>?alt=media…"). Anything else is treated as a path and
// only unescaped.
func ObjectPath(ref string) string {
	if strings.Contains(ref, "/o/") {
		ref = strings.SplitN(ref, "?alt=media", 2)[0]
		ref = strings.SplitN(ref, "/o/", 2)[1]
	}
	if p, err := url.PathUnescape(ref); err == nil {
		return p
	}
	return ref
}

// Extension returns the file extension for a MIME type ("image/png" → "png").
func Extension(contentType string) string {
	parts := strings.SplitN(contentType, "/", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.SplitN(parts[1], ";", 2)[0]
}
