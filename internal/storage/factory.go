package storage

import (
	"context"
	"fmt"

	"github.com/mayoristas-py/directory-admin/internal/config"
)

func New(ctx context.Context, cfg *config.Config) (ObjectStorage, error) {
	switch cfg.ObjectStorage {
	case config.ObjectStorageGCS:
		return NewGCSStorage(ctx, cfg.GCPBucketName, cfg.GoogleCredentialsFile)
	case config.ObjectStorageLocal:
		return NewLocalStorage(cfg.LocalUploadDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported object storage %q", cfg.ObjectStorage)
	}
}
