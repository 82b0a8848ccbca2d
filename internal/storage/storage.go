package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"
)

const MaxUploadSize = 5 << 20

var (
	ErrInvalidFile = errors.New("invalid file")
	ErrStorage     = errors.New("object storage failure")
)

var (
	AllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "webp"}
	Folders           = []string{"banners", "shops", "categories", "branding", "recommended", "other-businesses"}
)

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Body     io.Reader
}

// ObjectStorage stores public images and hands back their URLs.
type ObjectStorage interface {
	Upload(ctx context.Context, file Upload, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}

// Checker is implemented by backends that can verify their configuration.
type Checker interface {
	Check(ctx context.Context) error
}

type object struct {
	name        string
	contentType string
	data        []byte
}

func ValidFolder(folder string) bool {
	return slices.Contains(Folders, folder)
}

// prepare reads and validates the upload and picks its object name.
func prepare(file Upload, folder string) (*object, error) {
	if folder != "" && !ValidFolder(folder) {
		return nil, fmt.Errorf("%w: unknown folder %q", ErrInvalidFile, folder)
	}
	if file.Body == nil {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidFile)
	}
	data, err := io.ReadAll(io.LimitReader(file.Body, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", ErrInvalidFile, err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("%w: file too large", ErrInvalidFile)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidFile)
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: file type not allowed", ErrInvalidFile)
	}
	ext := extension(file.Filename)
	if !slices.Contains(AllowedExtensions, ext) {
		return nil, fmt.Errorf("%w: file extension not allowed", ErrInvalidFile)
	}

	name := uuid.NewString() + "." + ext
	if folder != "" {
		name = folder + "/" + name
	}
	return &object{name: name, contentType: contentType, data: bytes.Clone(data)}, nil
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}
