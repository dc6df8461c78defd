package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// ObjectStorage is the object-store surface the avatar upload flow needs.
type ObjectStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an object store and knows how to build the public URL an
// uploaded object is served under.
type Storage struct {
	store   ObjectStorage
	baseURL string
}

func NewStorage(store ObjectStorage, baseURL string) *Storage {
	return &Storage{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload stores an object and returns its public URL.
func (s *Storage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := s.store.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return s.PublicURL(key), nil
}

// Delete removes an object by key. Missing objects are not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// PublicURL builds the public URL for an object key.
func (s *Storage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.store.Bucket(), key)
}
