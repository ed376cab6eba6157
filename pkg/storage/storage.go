// Package storage keeps uploaded prescription images and generated audio.
// Objects are addressed by a flat key; keys never contain path separators.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mediscribe/mediscribe_backend/config"
	"github.com/mediscribe/mediscribe_backend/pkg/s3"
)

var (
	ErrNotFound   = errors.New("storage: object not found")
	ErrInvalidKey = errors.New("storage: invalid object key")
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	ContentType string
	Size        int64
}

// Store is a flat key/value object store.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// Buckets groups the two stores the service writes to.
type Buckets struct {
	Images Store
	Audio  Store
}

// ValidateKey rejects empty keys, dot segments and anything containing a
// path separator.
func ValidateKey(key string) error {
	switch {
	case key == "", key == ".", key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case strings.ContainsAny(key, `/\`), strings.ContainsRune(key, 0):
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// New builds the buckets for the configured driver. s3Client is only used
// by the s3 driver and may be nil otherwise.
func New(cfg config.StorageConfig, s3Client *s3.Client) (*Buckets, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		images, err := NewLocal(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		audio, err := NewLocal(cfg.AudioDir)
		if err != nil {
			return nil, err
		}
		return &Buckets{Images: images, Audio: audio}, nil
	case "s3":
		if s3Client == nil {
			return nil, errors.New("storage: s3 driver selected but no s3 client configured")
		}
		return &Buckets{
			Images: NewS3(s3Client, "images/"),
			Audio:  NewS3(s3Client, "audio/"),
		}, nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
