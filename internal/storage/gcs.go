package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const firebaseDownloadURL = "https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media"

// GCS stores objects in the Firebase Storage bucket.
type GCS struct {
	bucket *gcs.BucketHandle
	name   string
}

func NewGCS(bucket *gcs.BucketHandle, name string) *GCS {
	return &GCS{bucket: bucket, name: name}
}

func (s *GCS) Upload(ctx context.Context, path string, r io.Reader, _ int64, contentType string) (string, error) {
	w := s.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("gcs upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs upload %s: %w", path, err)
	}
	return fmt.Sprintf(firebaseDownloadURL, s.name, url.PathEscape(path)), nil
}

func (s *GCS) Download(ctx context.Context, ref string) (io.ReadCloser, error) {
	path := ObjectPath(ref)
	rc, err := s.bucket.Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("gcs download %s: %w", path, err)
	}
	return rc, nil
}

func (s *GCS) Delete(ctx context.Context, ref string) error {
	path := ObjectPath(ref)
	if err := s.bucket.Object(path).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete %s: %w", path, err)
	}
	return nil
}

func (s *GCS) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.bucket.Objects(ctx, &gcs.Query{Prefix: prefix})
	var out []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list %s: %w", prefix, err)
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}
