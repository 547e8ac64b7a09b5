// Package objectstore stores uploaded report images.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/harentsoaR/reliefnet-api/internal/config"
)

// Store puts an object and returns the URL clients fetch it from.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// ObjectKey returns a collision-free key under prefix keeping the
// extension of filename.
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(prefix, uuid.NewString()+ext)
}

type MinIO struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinIO connects to the endpoint in cfg and creates the bucket if it
// does not exist yet.
func NewMinIO(ctx context.Context, cfg config.StorageConfig) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, errExists := client.BucketExists(ctx, cfg.Bucket)
		if errExists != nil || !exists {
			return nil, fmt.Errorf("minio bucket %s: %w", cfg.Bucket, err)
		}
	}

	base := cfg.PublicURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return &MinIO{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(base, "/") + "/" + cfg.Bucket,
	}, nil
}

func (m *MinIO) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return m.baseURL + "/" + key, nil
}
