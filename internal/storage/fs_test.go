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

	"github.com/starford/offcuts/internal/apperr"
)

func tempPhotos(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func readAll(t *testing.T, s Provider, name string) ([]byte, Object) {
	t.Helper()
	rc, obj, err := s.Open(context.Background(), name)
	if err != nil {
		t.Fatalf("Open(%s): %v", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return data, obj
}

func TestPutAndOpen(t *testing.T) {
	s := tempPhotos(t)
	content := []byte("\x89PNG fake")
	if err := s.Put(context.Background(), "oak.png", bytes.NewReader(content), int64(len(content)), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, obj := readAll(t, s, "oak.png")
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch: got %q", got)
	}
	if obj.Size != int64(len(content)) || obj.ContentType != "image/png" {
		t.Errorf("object = %+v", obj)
	}
}

func TestOpen_Missing(t *testing.T) {
	s := tempPhotos(t)
	if _, _, err := s.Open(context.Background(), "nope.png"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Open err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempPhotos(t)
	ctx := context.Background()
	_ = s.Put(ctx, "del.png", strings.NewReader("bye"), 3, "image/png")
	if err := s.Delete(ctx, "del.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := s.Open(ctx, "del.png"); err == nil {
		t.Error("expected error opening deleted object")
	}
	if err := s.Delete(ctx, "del.png"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempPhotos(t)
	ctx := context.Background()

	cases := []string{
		"../../etc/passwd",
		"../outside.png",
		"/etc/shadow",
		"sub/inner.png",
		".hidden",
		"",
	}
	for _, p := range cases {
		if _, _, err := s.Open(ctx, p); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Open(%q) err = %v, want ErrInvalidInput", p, err)
		}
		if err := s.Put(ctx, p, strings.NewReader("x"), 1, "image/png"); err == nil {
			t.Errorf("expected error for put to %q", p)
		}
	}
}

func TestAtomicPutNoLeftovers(t *testing.T) {
	s := tempPhotos(t)
	ctx := context.Background()
	_ = s.Put(ctx, "atomic.png", strings.NewReader("original"), -1, "image/png")
	if err := s.Put(ctx, "atomic.png", strings.NewReader("updated"), -1, "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _ := readAll(t, s, "atomic.png")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".offcuts-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestPhotoExt(t *testing.T) {
	cases := map[string]string{
		"image/png":                 ".png",
		"image/jpeg":                ".jpg",
		"IMAGE/WEBP":                ".webp",
		"image/gif; charset=binary": ".gif",
	}
	for ct, want := range cases {
		if got, ok := PhotoExt(ct); !ok || got != want {
			t.Errorf("PhotoExt(%q) = %q, %v; want %q", ct, got, ok, want)
		}
	}
	if _, ok := PhotoExt("application/pdf"); ok {
		t.Error("pdf should not be accepted")
	}
}

func TestNewName(t *testing.T) {
	a, b := NewName(".png"), NewName(".png")
	if a == b || !strings.HasSuffix(a, ".png") || !ValidName(a) {
		t.Errorf("NewName = %q, %q", a, b)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/offcuts-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "offcuts-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
