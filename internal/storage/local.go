package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Local struct {
	BaseDir   string
	URLPrefix string
}

func NewLocal(baseDir, urlPrefix string) *Local {
	return &Local{BaseDir: baseDir, URLPrefix: urlPrefix}
}

func (l *Local) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	key, err := objectKey(in)
	if err != nil {
		return PutResult{}, err
	}
	dstPath := filepath.Join(l.BaseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return PutResult{}, err
	}

	f, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return PutResult{}, err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return PutResult{}, err
	}
	u, _ := l.URL(ctx, key)
	return PutResult{Key: key, URL: u}, nil
}

func (l *Local) URL(_ context.Context, key string) (string, error) {
	return strings.TrimRight(l.URLPrefix, "/") + "/" + strings.TrimLeft(key, "/"), nil
}

// Delete removes a stored file. Missing files are ignored.
func (l *Local) Delete(_ context.Context, key string) error {
	clean, err := objectKey(PutInput{Path: key})
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(l.BaseDir, filepath.FromSlash(clean)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }
