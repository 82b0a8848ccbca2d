package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mayoristas-py/directory-admin/internal/observability"
)

const LocalURLPrefix = "/uploads/"

// LocalStorage keeps uploads on disk and serves them under /uploads/. It is
// meant for development.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, publicBaseURL string) (*LocalStorage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: abs, baseURL: strings.TrimRight(publicBaseURL, "/") + LocalURLPrefix}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, file Upload, folder string) (string, error) {
	obj, err := prepare(file, folder)
	if err != nil {
		observability.RecordStorageOperation(ctx, "local", "upload", "rejected", 0)
		return "", err
	}
	target := filepath.Join(s.dir, filepath.FromSlash(obj.name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		observability.RecordStorageOperation(ctx, "local", "upload", "error", 0)
		return "", fmt.Errorf("%w: could not upload file: %w", ErrStorage, err)
	}
	if err := os.WriteFile(target, obj.data, 0o644); err != nil {
		observability.RecordStorageOperation(ctx, "local", "upload", "error", 0)
		return "", fmt.Errorf("%w: could not upload file: %w", ErrStorage, err)
	}
	observability.RecordStorageOperation(ctx, "local", "upload", "success", int64(len(obj.data)))
	return s.baseURL + obj.name, nil
}

func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	target, ok := s.pathFor(url)
	if !ok {
		return fmt.Errorf("%w: url is not a local upload", ErrInvalidFile)
	}
	err := os.Remove(target)
	switch {
	case err == nil:
		observability.RecordStorageOperation(ctx, "local", "delete", "success", 0)
	case errors.Is(err, fs.ErrNotExist):
		observability.RecordStorageOperation(ctx, "local", "delete", "missing", 0)
	default:
		observability.RecordStorageOperation(ctx, "local", "delete", "error", 0)
		return fmt.Errorf("%w: could not delete file: %w", ErrStorage, err)
	}
	return nil
}

// Check verifies the upload directory is writable.
func (s *LocalStorage) Check(context.Context) error {
	f, err := os.CreateTemp(s.dir, ".check-*")
	if err != nil {
		return fmt.Errorf("upload dir %s: %w", s.dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// Handler serves stored files. Mount it at /uploads/.
func (s *LocalStorage) Handler() http.Handler {
	return http.StripPrefix(LocalURLPrefix, http.FileServer(http.Dir(s.dir)))
}

// pathFor maps a public URL back to a file inside dir.
func (s *LocalStorage) pathFor(url string) (string, bool) {
	name, ok := strings.CutPrefix(url, s.baseURL)
	if !ok {
		name, ok = strings.CutPrefix(url, LocalURLPrefix)
	}
	if !ok || name == "" {
		return "", false
	}
	target := filepath.Join(s.dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.dir, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return target, true
}
