package prescription

import "errors"

var (
	ErrNotFound      = errors.New("prescription not found")
	ErrAssetNotFound = errors.New("file not found")
	ErrInvalidUpload = errors.New("invalid upload")
	ErrInvalidName   = errors.New("invalid file name")
)
