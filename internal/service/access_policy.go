package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/observability"
	"github.com/mayoristas-py/directory-admin/internal/repository"
)

// Deny reasons double as the machine-readable codes of 403 responses.
const (
	ReasonFeatureNotFound     = "FEATURE_NOT_FOUND"
	ReasonFeatureDisabled     = "FEATURE_DISABLED"
	ReasonDeviceRequired      = "DEVICE_REQUIRED"
	ReasonDeviceNotRegistered = "DEVICE_NOT_REGISTERED"
	ReasonDeviceInactive      = "DEVICE_INACTIVE"
	ReasonDeviceExpired       = "DEVICE_EXPIRED"
	ReasonDeviceNotAuthorized = "DEVICE_NOT_AUTHORIZED"

	ReasonOpenFeature = "OPEN_FEATURE"
	ReasonAllowListed = "ALLOW_LISTED"
)

const (
	defaultTouchTimeout = 5 * time.Second
	// A device validated again within this interval keeps its last_used.
	defaultTouchInterval = time.Minute
)

type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Reason: reason} }

// AccessPolicy decides whether a device may use a feature.
type AccessPolicy struct {
	store    repository.DocumentStore
	registry *Registry
	negCache NegativeLookupCacheStore
	cacheTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time

	touches       sync.WaitGroup
	touchGroup    singleflight.Group
	touchTimeout  time.Duration
	touchInterval time.Duration
}

func NewAccessPolicy(store repository.DocumentStore, registry *Registry, negCache NegativeLookupCacheStore, cacheTTL time.Duration, logger *slog.Logger) *AccessPolicy {
	if negCache == nil {
		negCache = NewNoopNegativeLookupCacheStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessPolicy{
		store:         store,
		registry:      registry,
		negCache:      negCache,
		cacheTTL:      cacheTTL,
		logger:        logger,
		now:           time.Now,
		touchTimeout:  defaultTouchTimeout,
		touchInterval: defaultTouchInterval,
	}
}

type policyFacts struct {
	featureFound  bool
	enabled       bool
	requiresAuth  bool
	listed        bool
	deviceFound   bool
	deviceActive  bool
	deviceExpired bool
	lastUsed      *domain.Timestamp
}

// Authorize evaluates, in order: feature existence and state, presence of a
// device UUID, the device registration, and finally the allow-list when the
// feature requires device authorization. A device that passes the
// registration check gets its last_used refreshed in the background.
func (p *AccessPolicy) Authorize(ctx context.Context, deviceUUID, featureID string) Decision {
	ctx, span := observability.Tracer().Start(ctx, "access.authorize")
	defer span.End()

	d := p.evaluate(ctx, deviceUUID, featureID)
	span.SetAttributes(
		attribute.String("feature", featureID),
		attribute.Bool("allowed", d.Allowed),
		attribute.String("reason", d.Reason),
	)
	outcome := "deny"
	if d.Allowed {
		outcome = "allow"
	}
	observability.RecordAccessDecision(ctx, featureID, outcome, d.Reason)
	if !d.Allowed {
		p.logger.DebugContext(ctx, "feature access denied", "feature", featureID, "device_uuid", deviceUUID, "reason", d.Reason)
	}
	return d
}

func (p *AccessPolicy) Allowed(ctx context.Context, deviceUUID, featureID string) bool {
	return p.Authorize(ctx, deviceUUID, featureID).Allowed
}

func (p *AccessPolicy) evaluate(ctx context.Context, deviceUUID, featureID string) Decision {
	knownMissing := false
	if deviceUUID != "" {
		hit, err := p.negCache.Get(ctx, UnknownDeviceNamespace, deviceUUID)
		if err != nil {
			p.logger.WarnContext(ctx, "unknown device cache lookup failed", "error", err)
		}
		knownMissing = hit
	}

	now := p.now()
	var facts policyFacts
	err := p.store.View(ctx, func(doc *domain.Document) error {
		f := doc.Feature(featureID)
		if f == nil {
			return nil
		}
		facts.featureFound = true
		facts.enabled = f.IsEnabled
		facts.requiresAuth = f.RequiresDeviceAuth
		if deviceUUID == "" || knownMissing {
			return nil
		}
		facts.listed = f.HasDevice(deviceUUID)
		if dev := doc.Device(deviceUUID); dev != nil {
			facts.deviceFound = true
			facts.deviceActive = dev.IsActive
			facts.deviceExpired = dev.ExpiredAt(now)
			facts.lastUsed = dev.LastUsed
		}
		return nil
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "access policy read failed", "error", err)
		return deny(ReasonFeatureNotFound)
	}

	switch {
	case !facts.featureFound:
		return deny(ReasonFeatureNotFound)
	case !facts.enabled:
		return deny(ReasonFeatureDisabled)
	case deviceUUID == "":
		return deny(ReasonDeviceRequired)
	case knownMissing:
		return deny(ReasonDeviceNotRegistered)
	case !facts.deviceFound:
		p.rememberUnknown(ctx, deviceUUID)
		return deny(ReasonDeviceNotRegistered)
	case !facts.deviceActive:
		return deny(ReasonDeviceInactive)
	case facts.deviceExpired:
		return deny(ReasonDeviceExpired)
	}

	if facts.lastUsed == nil || now.Sub(facts.lastUsed.Time) >= p.touchInterval {
		p.touchAsync(ctx, deviceUUID, now)
	}

	if !facts.requiresAuth {
		return allow(ReasonOpenFeature)
	}
	if facts.listed {
		return allow(ReasonAllowListed)
	}
	return deny(ReasonDeviceNotAuthorized)
}

// rememberUnknown caches a miss, then checks the registry again. A device
// registered between the read and the Set had its invalidation land first,
// so the entry it would leave behind is dropped here.
func (p *AccessPolicy) rememberUnknown(ctx context.Context, deviceUUID string) {
	if err := p.negCache.Set(ctx, UnknownDeviceNamespace, deviceUUID, p.cacheTTL); err != nil {
		p.logger.WarnContext(ctx, "unknown device cache store failed", "error", err)
		return
	}
	registered := false
	err := p.store.View(ctx, func(doc *domain.Document) error {
		registered = doc.Device(deviceUUID) != nil
		return nil
	})
	if err != nil || !registered {
		return
	}
	if err := p.negCache.InvalidateNamespace(ctx, UnknownDeviceNamespace); err != nil {
		p.logger.WarnContext(ctx, "unknown device cache invalidate failed", "error", err)
	}
}

// touchAsync persists last_used without holding up the request. Concurrent
// touches of one device share a single write. Failures are logged and
// dropped.
func (p *AccessPolicy) touchAsync(ctx context.Context, deviceUUID string, at time.Time) {
	if p.registry == nil {
		return
	}
	p.touches.Add(1)
	go func() {
		defer p.touches.Done()
		_, _, _ = p.touchGroup.Do(deviceUUID, func() (any, error) {
			tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.touchTimeout)
			defer cancel()
			if err := p.registry.TouchDevice(tctx, deviceUUID, at); err != nil {
				observability.RecordDeviceTouch(tctx, "error")
				p.logger.WarnContext(tctx, "device last_used update failed", "device_uuid", deviceUUID, "error", err)
				return nil, err
			}
			observability.RecordDeviceTouch(tctx, "success")
			return nil, nil
		})
	}()
}

// Wait blocks until every pending last_used update has finished.
func (p *AccessPolicy) Wait() {
	p.touches.Wait()
}
