package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Local stores objects as files in a single directory.
type Local struct {
	dir string
}

// NewLocal creates dir if needed.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("storage: local directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %q: %w", dir, err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Dir() string { return l.dir }

// ContentTypeOf guesses the MIME type of a key from its extension.
func ContentTypeOf(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	if ct, ok := knownTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// The stdlib table lacks audio types on hosts without /etc/mime.types.
var knownTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Put writes body to a temporary file and renames it into place so readers
// never observe a partial object.
func (l *Local) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: put %q: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: put %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: put %q: %w", key, err)
	}
	if err := os.Rename(tmpName, filepath.Join(l.dir, key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: put %q: %w", key, err)
	}
	return nil
}

func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	if err := ValidateKey(key); err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(l.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %q", ErrNotFound, key)
		}
		return nil, nil, fmt.Errorf("storage: open %q: %w", key, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("storage: stat %q: %w", key, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	return f, &ObjectInfo{
		Key:         key,
		ContentType: ContentTypeOf(key),
		Size:        st.Size(),
	}, nil
}

// Delete removes the file. A missing file is not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(l.dir, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}
