// Package storage uploads backup archives to object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Providers understood by New.
const (
	ProviderLocal = "local"
	ProviderGCS   = "gcs"
	ProviderMinIO = "minio"
)

// ErrInvalidKey is returned for object keys that escape the store root.
var ErrInvalidKey = errors.New("storage: invalid object key")

// Object describes a stored blob.
type Object struct {
	Key  string
	URL  string
	Size int64
}

// Store persists and removes blobs addressed by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// Config selects and configures a Store implementation.
type Config struct {
	Provider      string
	Bucket        string
	LocalDir      string
	PublicBaseURL string

	GCSCredentialsJSON string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
}

// New builds the Store named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderLocal:
		store, err = NewLocal(cfg.LocalDir, cfg.PublicBaseURL)
	case ProviderGCS:
		store, err = NewGCS(ctx, cfg.Bucket, cfg.GCSCredentialsJSON, cfg.PublicBaseURL)
	case ProviderMinIO:
		store, err = NewMinIO(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.Bucket, cfg.MinIOUseSSL)
	default:
		return nil, fmt.Errorf("storage: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
