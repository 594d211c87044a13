// Package storage keeps uploaded files on local disk or in S3 and resolves
// them to retrievable URLs.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidPath = errors.New("storage: invalid path")

type PutInput struct {
	// Path is the key to store under, such as reviews/1700000000_photo.jpg.
	// When empty a random key is generated.
	Path        string
	Filename    string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	// URL resolves a stored key to a URL a browser can fetch.
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// objectKey derives the storage key for in.
func objectKey(in PutInput) (string, error) {
	if in.Path == "" {
		return uuid.NewString() + safeExt(in.Filename), nil
	}
	clean := path.Clean("/" + strings.ReplaceAll(in.Path, "\\", "/"))[1:]
	if clean == "" || clean != strings.TrimPrefix(in.Path, "/") || strings.Contains(clean, "..") {
		return "", ErrInvalidPath
	}
	return clean, nil
}

// SafeName strips directories and anything outside [A-Za-z0-9._-] from a
// client supplied file name.
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	default:
		return ""
	}
}
