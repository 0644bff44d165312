package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"baches/internal/config"
)

// PhotoStore keeps report photos in an S3-compatible bucket and hands back
// the URL stored on the report.
type PhotoStore struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
}

func NewPhotoStore(cfg config.StorageConfig) (*PhotoStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	public := cfg.PublicURL
	if public == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		public = scheme + "://" + endpoint
	}

	return &PhotoStore{
		client:    client,
		bucket:    cfg.BucketPhoto,
		region:    cfg.Region,
		publicURL: strings.TrimRight(public, "/"),
	}, nil
}

func (s *PhotoStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *PhotoStore) Put(ctx context.Context, id, contentType string, data []byte) (string, error) {
	key := ObjectKey(id, contentType)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return PublicURL(s.publicURL, s.bucket, key), nil
}

// ObjectKey places photos under reports/ with an extension matching their type.
func ObjectKey(id, contentType string) string {
	return "reports/" + id + extension(contentType)
}

func PublicURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + key
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/heic", "image/heif":
		return ".heic"
	case "image/svg+xml":
		return ".svg"
	}
	return ""
}
