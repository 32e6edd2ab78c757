package supabase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	storage_go "github.com/supabase-community/storage-go"
)

// Storage addresses one storage bucket.
type Storage struct {
	c      *Client
	bucket string
	// storage-go sets file options on its shared header set, so uploads
	// through one client must not overlap.
	mu sync.Mutex
}

// Storage returns a handle on bucket.
func (c *Client) Storage(bucket string) *Storage {
	return &Storage{c: c, bucket: bucket}
}

// Upload writes data under key, overwriting any existing object.
func (s *Storage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if len(data) == 0 {
		return errors.New("storage upload: empty object")
	}
	upsert := true
	opts := storage_go.FileOptions{ContentType: &contentType, Upsert: &upsert}

	return s.c.await(ctx, "storage upload", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := s.c.storage.UploadFile(s.bucket, s.objectKey(key), bytes.NewReader(data), opts)
		return err
	})
}

// PublicURL returns the public download URL for key.
func (s *Storage) PublicURL(key string) string {
	return s.c.storage.GetPublicUrl(s.bucket, s.objectKey(key)).SignedURL
}

func (s *Storage) objectKey(key string) string {
	return strings.TrimLeft(key, "/")
}
