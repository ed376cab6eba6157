package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mediscribe/mediscribe_backend/config"
	"github.com/mediscribe/mediscribe_backend/pkg/s3"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"abc.mp3", false},
		{"0b9c_rx photo.png", false},
		{"", true},
		{".", true},
		{"..", true},
		{"../etc/passwd", true},
		{"a/b.png", true},
		{`a\b.png`, true},
		{"a\x00b", true},
	}
	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ValidateKey(%q) error does not wrap ErrInvalidKey", tt.key)
		}
	}
}

func TestLocal_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "audio")
	store, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	payload := []byte("ID3 fake mp3")
	if err := store.Put(ctx, "abc.mp3", "audio/mpeg", bytes.NewReader(payload), int64(len(payload))); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	rc, info, err := store.Open(ctx, "abc.mp3")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, payload) {
		t.Errorf("Open() body = %q", got)
	}
	if info.Size != int64(len(payload)) || info.ContentType != "audio/mpeg" {
		t.Errorf("Open() info = %+v", info)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the stored file, found %d entries", len(entries))
	}

	if err := store.Delete(ctx, "abc.mp3"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "abc.mp3"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
	if _, _, err := store.Open(ctx, "abc.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open() after delete error = %v, want ErrNotFound", err)
	}
}

func TestLocal_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocal(filepath.Join(root, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "secret.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := store.Open(ctx, "../secret.txt"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Open(traversal) error = %v, want ErrInvalidKey", err)
	}
	if err := store.Put(ctx, "../x.png", "image/png", strings.NewReader("x"), 1); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Put(traversal) error = %v, want ErrInvalidKey", err)
	}
}

type fakeObjectClient struct {
	objects map[string][]byte
}

func (f *fakeObjectClient) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectClient) Download(ctx context.Context, key string) (*s3.Object, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, s3.ErrNoSuchKey
	}
	return &s3.Object{Body: io.NopCloser(bytes.NewReader(data)), ContentType: "image/png", Size: int64(len(data))}, nil
}

func (f *fakeObjectClient) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func TestS3_PrefixesKeys(t *testing.T) {
	ctx := context.Background()
	client := &fakeObjectClient{objects: map[string][]byte{}}
	store := NewS3(client, "images/")

	if err := store.Put(ctx, "a.png", "image/png", strings.NewReader("png"), 3); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := client.objects["images/a.png"]; !ok {
		t.Fatalf("object stored under %v, want images/a.png", client.objects)
	}

	rc, info, err := store.Open(ctx, "a.png")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	rc.Close()
	if info.Key != "a.png" || info.Size != 3 {
		t.Errorf("Open() info = %+v", info)
	}

	if _, _, err := store.Open(ctx, "missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrNotFound", err)
	}
}

func TestNew_Drivers(t *testing.T) {
	dir := t.TempDir()
	b, err := New(config.StorageConfig{
		Driver:    "local",
		UploadDir: filepath.Join(dir, "uploads"),
		AudioDir:  filepath.Join(dir, "audio"),
	}, nil)
	if err != nil {
		t.Fatalf("New(local) error = %v", err)
	}
	if b.Images == nil || b.Audio == nil {
		t.Fatal("New(local) returned empty buckets")
	}

	if _, err := New(config.StorageConfig{Driver: "s3"}, nil); err == nil {
		t.Error("New(s3) without a client should fail")
	}
	if _, err := New(config.StorageConfig{Driver: "ftp"}, nil); err == nil {
		t.Error("New(ftp) should fail")
	}
}
