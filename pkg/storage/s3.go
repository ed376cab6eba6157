package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mediscribe/mediscribe_backend/pkg/s3"
)

// ObjectClient is the subset of *s3.Client the driver needs.
type ObjectClient interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Download(ctx context.Context, key string) (*s3.Object, error)
	Delete(ctx context.Context, key string) error
}

// S3 stores objects under a key prefix in a bucket.
type S3 struct {
	client ObjectClient
	prefix string
}

func NewS3(client ObjectClient, prefix string) *S3 {
	return &S3{client: client, prefix: prefix}
}

func (s *S3) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.client.Upload(ctx, s.prefix+key, contentType, body, size)
}

func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	if err := ValidateKey(key); err != nil {
		return nil, nil, err
	}
	obj, err := s.client.Download(ctx, s.prefix+key)
	if err != nil {
		if errors.Is(err, s3.ErrNoSuchKey) {
			return nil, nil, fmt.Errorf("%w: %q", ErrNotFound, key)
		}
		return nil, nil, err
	}
	return obj.Body, &ObjectInfo{Key: key, ContentType: obj.ContentType, Size: obj.Size}, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.client.Delete(ctx, s.prefix+key)
}
