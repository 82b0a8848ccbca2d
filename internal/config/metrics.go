package config

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	loadCounterOnce sync.Once
	loadCounter     metric.Int64Counter
)

type loadEvent struct {
	profile       string
	storageDriver string
	objectStorage string
	dotenv        bool
	errorClass    string
}

func loadEventFor(cfg *Config, dotenv bool, err error) loadEvent {
	ev := loadEvent{
		profile:    os.Getenv("APP_ENV"),
		dotenv:     dotenv,
		errorClass: classifyConfigLoadError(err),
	}
	if cfg != nil {
		ev.profile = cfg.AppEnv
		ev.storageDriver = cfg.StorageDriver
		ev.objectStorage = cfg.ObjectStorage
	}
	return ev
}

// recordConfigLoad counts configuration loads. Load runs before the meter
// provider is installed; the global delegate forwards once it is.
func recordConfigLoad(ctx context.Context, ev loadEvent) {
	loadCounterOnce.Do(func() {
		counter, err := otel.Meter("directory-admin/config").Int64Counter("config.validation.events")
		if err == nil {
			loadCounter = counter
		}
	})
	if loadCounter == nil {
		return
	}
	outcome := "success"
	if ev.errorClass != "none" {
		outcome = "error"
	}
	loadCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("profile", normalizeConfigProfile(ev.profile)),
		attribute.String("outcome", outcome),
		attribute.String("error_class", ev.errorClass),
		attribute.String("storage_driver", normalizeConfigProfile(ev.storageDriver)),
		attribute.String("object_storage", normalizeConfigProfile(ev.objectStorage)),
		attribute.Bool("dotenv", ev.dotenv),
	))
}

func normalizeConfigProfile(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "unknown"
	}
	return v
}

func classifyConfigLoadError(err error) string {
	if err == nil {
		return "none"
	}
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "validate config:"):
		return "validation"
	case strings.HasPrefix(msg, "parse "):
		return "parse"
	default:
		return "load"
	}
}
