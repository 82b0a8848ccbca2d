package admincli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mayoristas-py/directory-admin/internal/config"
	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/storage"
	"github.com/mayoristas-py/directory-admin/internal/tools/common"
	"github.com/mayoristas-py/directory-admin/internal/tools/ui"
)

const doctorTitle = "directory-admin doctor"

type doctorOptions struct {
	ci      bool
	timeout time.Duration
}

func newDoctorCommand() *cobra.Command {
	opts := &doctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check config, document store, Redis and object storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := runDoctor(opts, doctorTitle, func(ctx context.Context) ([]string, error) {
				cfg, err := config.Load()
				if err != nil {
					return []string{"config: invalid"}, err
				}
				return doctorChecks(ctx, cfg)
			})
			if opts.ci {
				common.PrintCIResult(err == nil, doctorTitle, details, err)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall check timeout")
	return cmd
}

func runDoctor(opts *doctorOptions, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, fn)
}

// doctorChecks stops at the first failing dependency and returns the
// details gathered so far.
func doctorChecks(ctx context.Context, cfg *config.Config) ([]string, error) {
	details := []string{"config: ok"}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return details, fmt.Errorf("document: %w", err)
	}
	var summary string
	err = store.View(ctx, func(doc *domain.Document) error {
		summary = fmt.Sprintf("document: ok (%s) shops=%d devices=%d features=%d",
			cfg.StorageDriver, len(doc.Shops), len(doc.DeviceRegistrations), len(doc.FeatureAccess))
		return nil
	})
	if err != nil {
		return details, fmt.Errorf("document: %w", err)
	}
	details = append(details, summary)

	if cfg.RedisAddr == "" {
		details = append(details, "redis: not configured, using in-memory caches")
	} else {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		err := client.Ping(ctx).Err()
		_ = client.Close()
		if err != nil {
			return details, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		details = append(details, "redis: ok ("+cfg.RedisAddr+")")
	}

	objects, err := storage.New(ctx, cfg)
	if err != nil {
		return details, fmt.Errorf("object storage: %w", err)
	}
	if gcs, ok := objects.(*storage.GCSStorage); ok {
		defer func() { _ = gcs.Close() }()
	}
	checker, ok := objects.(storage.Checker)
	if !ok {
		return details, errors.New("object storage: backend cannot be checked")
	}
	if err := checker.Check(ctx); err != nil {
		return details, fmt.Errorf("object storage: %w", err)
	}
	details = append(details, "object storage: ok ("+cfg.ObjectStorage+")")
	return details, nil
}
