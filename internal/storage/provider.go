// Package storage keeps uploaded photos in a blob store.
package storage

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object describes a stored photo.
type Object struct {
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// Provider is the interface for photo blob operations.
// Missing objects are reported with an error matching apperr.ErrNotFound.
type Provider interface {
	// Put stores r under name. size may be -1 when unknown.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Open returns a reader over the named object. The caller closes it.
	Open(ctx context.Context, name string) (io.ReadCloser, Object, error)
	// Delete removes the named object.
	Delete(ctx context.Context, name string) error
}

var photoTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PhotoExt returns the file extension for an accepted photo content type.
func PhotoExt(contentType string) (string, bool) {
	ct, _, _ := strings.Cut(contentType, ";")
	ext, ok := photoTypes[strings.TrimSpace(strings.ToLower(ct))]
	return ext, ok
}

// NewName returns a fresh object name with the given extension.
func NewName(ext string) string {
	return uuid.NewString() + ext
}

// ValidName reports whether name is a plain object name without any path component.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
