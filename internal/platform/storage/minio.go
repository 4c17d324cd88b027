package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO stores blobs in an S3 compatible bucket.
type MinIO struct {
	client   *minio.Client
	bucket   string
	endpoint string
	secure   bool
}

// NewMinIO connects to an S3 compatible endpoint.
func NewMinIO(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIO, error) {
	if endpoint == "" || bucket == "" {
		return nil, errors.New("storage: minio endpoint and bucket required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: minio client: %w", err)
	}
	return &MinIO{client: client, bucket: bucket, endpoint: endpoint, secure: useSSL}, nil
}

// Put uploads r as key. size may be -1 when unknown.
func (m *MinIO) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}
	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return Object{}, fmt.Errorf("storage: minio upload: %w", err)
	}
	scheme := "http"
	if m.secure {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s/%s/%s", scheme, m.endpoint, m.bucket, key)
	return Object{Key: key, URL: url, Size: info.Size}, nil
}

// Delete removes key from the bucket.
func (m *MinIO) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage: minio delete: %w", err)
	}
	return nil
}
