package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/config"
)

// MinIO stores objects in an S3 compatible bucket.
type MinIO struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinIO creates a MinIO client and ensures the bucket exists.
func NewMinIO(cfg config.MinIOConfig) (*MinIO, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = scheme + "://" + cfg.Endpoint
	}
	s := &MinIO{client: mc, bucket: cfg.Bucket, publicURL: public}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// already exists is fine
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

func (s *MinIO) Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) (string, error) {
	if _, err := s.client.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("minio upload %s: %w", path, err)
	}
	return s.publicURL + "/" + s.bucket + "/" + path, nil
}

func (s *MinIO) Download(ctx context.Context, ref string) (io.ReadCloser, error) {
	key := s.key(ref)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio download %s: %w", key, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("minio stat %s: %w", key, err)
	}
	return obj, nil
}

func (s *MinIO) Delete(ctx context.Context, ref string) error {
	key := s.key(ref)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio delete %s: %w", key, err)
	}
	return nil
}

func (s *MinIO) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio list %s: %w", prefix, obj.Err)
		}
		out = append(out, obj.Key)
	}
	return out, nil
}

func (s *MinIO) key(ref string) string {
	ref = strings.TrimPrefix(ref, s.publicURL+"/"+s.bucket+"/")
	return ObjectPath(ref)
}
