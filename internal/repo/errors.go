package repo

import "errors"

var ErrNotFound = errors.New("prescription not found")
