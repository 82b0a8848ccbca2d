package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/mayoristas-py/directory-admin/internal/config"
)

const instrumentationName = "directory-admin"

type AppMetrics struct {
	authLoginCounter     metric.Int64Counter
	accessDecision       metric.Int64Counter
	deviceTouchCounter   metric.Int64Counter
	adminMutationCounter metric.Int64Counter
	repositoryCounter    metric.Int64Counter
	storageCounter       metric.Int64Counter
	storageBytes         metric.Int64Histogram
	sessionCounter       metric.Int64Counter
	rateLimitCounter     metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	var mp *sdkmetric.MeterProvider
	if !cfg.OTELMetricsEnabled {
		mp = sdkmetric.NewMeterProvider()
		logger.Info("otel metrics disabled")
	} else {
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
		if cfg.OTELExporterOTLPInsecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp metric exporter: %w", err)
		}
		res, err := newResource(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create metric resource: %w", err)
		}
		reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
		mp = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(reader),
		)
		logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	}
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var (
		m   AppMetrics
		err error
	)
	if m.authLoginCounter, err = meter.Int64Counter("auth.login.attempts"); err != nil {
		return nil, err
	}
	if m.accessDecision, err = meter.Int64Counter("access.decisions"); err != nil {
		return nil, err
	}
	if m.deviceTouchCounter, err = meter.Int64Counter("device.touch"); err != nil {
		return nil, err
	}
	if m.adminMutationCounter, err = meter.Int64Counter("admin.mutations"); err != nil {
		return nil, err
	}
	if m.repositoryCounter, err = meter.Int64Counter("repository.operations"); err != nil {
		return nil, err
	}
	if m.storageCounter, err = meter.Int64Counter("storage.operations"); err != nil {
		return nil, err
	}
	if m.storageBytes, err = meter.Int64Histogram("storage.upload.bytes", metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if m.sessionCounter, err = meter.Int64Counter("auth.session.validations"); err != nil {
		return nil, err
	}
	if m.rateLimitCounter, err = meter.Int64Counter("http.rate_limit.decisions"); err != nil {
		return nil, err
	}
	return &m, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAuthLogin(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAccessDecision(ctx context.Context, feature, outcome, reason string) {
	m := current()
	if m == nil {
		return
	}
	m.accessDecision.Add(ctx, 1, metric.WithAttributes(
		attribute.String("feature", feature),
		attribute.String("outcome", outcome),
		attribute.String("reason", reason),
	))
}

func RecordDeviceTouch(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.deviceTouchCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAdminMutation(ctx context.Context, entity, action string) {
	m := current()
	if m == nil {
		return
	}
	m.adminMutationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("action", action),
	))
}

func RecordRepositoryOperation(ctx context.Context, entity, op, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.repositoryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

func RecordStorageOperation(ctx context.Context, backend, op, outcome string, size int64) {
	m := current()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
	m.storageCounter.Add(ctx, 1, attrs)
	if size > 0 {
		m.storageBytes.Record(ctx, size, attrs)
	}
}

func RecordSessionValidation(ctx context.Context, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.sessionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.rateLimitCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
	))
}
