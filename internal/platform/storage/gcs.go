package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores blobs in a Google Cloud Storage bucket.
type GCS struct {
	client  *gcs.Client
	bucket  string
	baseURL string
}

// NewGCS creates a GCS store. Explicit credentials JSON wins over application
// default credentials.
func NewGCS(ctx context.Context, bucket, credentialsJSON, baseURL string) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("storage: gcs bucket required")
	}
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCS{client: client, bucket: bucket, baseURL: baseURL}, nil
}

// Put streams r into the bucket under key.
func (g *GCS) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}
	wc := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	written, err := io.Copy(wc, r)
	if err != nil {
		_ = wc.Close()
		return Object{}, fmt.Errorf("storage: gcs upload: %w", err)
	}
	if err := wc.Close(); err != nil {
		return Object{}, fmt.Errorf("storage: gcs close writer: %w", err)
	}
	return Object{Key: key, URL: joinURL(g.baseURL, key), Size: written}, nil
}

// Delete removes key from the bucket. Missing objects are ignored.
func (g *GCS) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("storage: gcs delete: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
