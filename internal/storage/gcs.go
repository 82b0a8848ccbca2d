package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/mayoristas-py/directory-admin/internal/observability"
)

const gcsPublicHost = "https://storage.googleapis.com/"

type GCSStorage struct {
	client *gcs.Client
	bucket string
}

// NewGCSStorage opens a client with the service account file when one is
// given, else with application default credentials.
func NewGCSStorage(ctx context.Context, bucket, credentialsFile string) (*GCSStorage, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket}, nil
}

func (s *GCSStorage) Upload(ctx context.Context, file Upload, folder string) (string, error) {
	obj, err := prepare(file, folder)
	if err != nil {
		observability.RecordStorageOperation(ctx, "gcs", "upload", "rejected", 0)
		return "", err
	}
	w := s.client.Bucket(s.bucket).Object(obj.name).NewWriter(ctx)
	w.ContentType = obj.contentType
	if _, err := w.Write(obj.data); err != nil {
		_ = w.Close()
		observability.RecordStorageOperation(ctx, "gcs", "upload", "error", 0)
		return "", fmt.Errorf("%w: could not upload file: %w", ErrStorage, err)
	}
	if err := w.Close(); err != nil {
		observability.RecordStorageOperation(ctx, "gcs", "upload", "error", 0)
		return "", fmt.Errorf("%w: could not upload file: %w", ErrStorage, err)
	}
	observability.RecordStorageOperation(ctx, "gcs", "upload", "success", int64(len(obj.data)))
	return s.publicURL(obj.name), nil
}

// Delete removes the object behind url. Missing objects are not an error.
func (s *GCSStorage) Delete(ctx context.Context, url string) error {
	name := s.objectName(url)
	if name == "" {
		return fmt.Errorf("%w: url does not point into bucket %s", ErrInvalidFile, s.bucket)
	}
	err := s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	switch {
	case err == nil:
		observability.RecordStorageOperation(ctx, "gcs", "delete", "success", 0)
	case errors.Is(err, gcs.ErrObjectNotExist):
		observability.RecordStorageOperation(ctx, "gcs", "delete", "missing", 0)
	default:
		observability.RecordStorageOperation(ctx, "gcs", "delete", "error", 0)
		return fmt.Errorf("%w: could not delete file: %w", ErrStorage, err)
	}
	return nil
}

// Check verifies the bucket exists and the credentials can see it.
func (s *GCSStorage) Check(ctx context.Context) error {
	if _, err := s.client.Bucket(s.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) publicURL(name string) string {
	return gcsPublicHost + s.bucket + "/" + name
}

func (s *GCSStorage) objectName(url string) string {
	_, name, ok := strings.Cut(url, s.bucket+"/")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return name
}
