package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/mayoristas-py/directory-admin/internal/config"
	"github.com/mayoristas-py/directory-admin/internal/http/handler"
	"github.com/mayoristas-py/directory-admin/internal/http/middleware"
	"github.com/mayoristas-py/directory-admin/internal/http/router"
	"github.com/mayoristas-py/directory-admin/internal/repository"
	"github.com/mayoristas-py/directory-admin/internal/security"
	"github.com/mayoristas-py/directory-admin/internal/service"
	"github.com/mayoristas-py/directory-admin/internal/storage"
	"github.com/mayoristas-py/directory-admin/internal/web"
)

var ProviderSet = wire.NewSet(
	ProvideDocumentStore,
	wire.Bind(new(repository.DocumentStore), new(*repository.Store)),
	ProvideRedisClient,
	ProvideNegativeLookupCache,
	ProvideRateLimiter,
	ProvideRegistry,
	ProvideAccessPolicy,
	ProvideAuthService,
	service.NewCatalogService,
	service.NewAnalyticsService,
	ProvideObjectStorage,
	web.NewRenderer,
	ProvideAuthHandler,
	handler.NewCatalogHandler,
	handler.NewDeviceHandler,
	handler.NewFeatureHandler,
	handler.NewStorageHandler,
	handler.NewPageHandler,
	handler.NewHealthHandler,
	ProvideRouter,
	ProvideHTTPServer,
	New,
)

// ProvideDocumentStore loads the document from the configured backend.
func ProvideDocumentStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.Store, error) {
	backend, err := repository.NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewStore(ctx, backend, repository.WithLogger(logger))
}

// ProvideRedisClient returns a nil client when REDIS_ADDR is unset, in
// which case every Redis-backed concern falls back to process memory.
func ProvideRedisClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("redis connected", "addr", cfg.RedisAddr)
	return client, func() { _ = client.Close() }, nil
}

func ProvideNegativeLookupCache(client redis.UniversalClient) service.NegativeLookupCacheStore {
	return service.NewNegativeLookupCacheStore(client)
}

func ProvideRateLimiter(client redis.UniversalClient) middleware.Limiter {
	if client == nil {
		return middleware.NewLocalLimiter()
	}
	return middleware.NewRedisLimiter(client, "")
}

func ProvideRegistry(ctx context.Context, store repository.DocumentStore, negCache service.NegativeLookupCacheStore, logger *slog.Logger) (*service.Registry, error) {
	registry := service.NewRegistry(store, negCache, logger)
	added, err := registry.SeedFeatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed features: %w", err)
	}
	if added > 0 {
		logger.Info("seeded feature flags", "added", added)
	}
	return registry, nil
}

func ProvideAccessPolicy(cfg *config.Config, store repository.DocumentStore, registry *service.Registry, negCache service.NegativeLookupCacheStore, logger *slog.Logger) *service.AccessPolicy {
	return service.NewAccessPolicy(store, registry, negCache, cfg.NegativeCacheTTL, logger)
}

func ProvideAuthService(cfg *config.Config, registry *service.Registry, logger *slog.Logger) *service.AuthService {
	verifier := security.NewPasswordVerifier(cfg.AdminPassword, cfg.AllowPlaintextPassword)
	if !verifier.Hashed() {
		if cfg.AllowPlaintextPassword {
			logger.Warn("ADMIN_PASSWORD is not a bcrypt hash; run `directory-admin hash-password` and set ADMIN_PASSWORD_ALLOW_PLAINTEXT=false")
		} else {
			logger.Error("ADMIN_PASSWORD is not a bcrypt hash and plaintext passwords are disabled; logins will fail")
		}
	}
	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.SecretKey)
	return service.NewAuthService(cfg.AdminUsername, cfg.SessionTTL, verifier, jwtMgr, registry, logger)
}

func ProvideObjectStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, func(), error) {
	objects, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}
	if gcs, ok := objects.(*storage.GCSStorage); ok {
		cleanup = func() { _ = gcs.Close() }
	}
	return objects, cleanup, nil
}

func ProvideAuthHandler(cfg *config.Config, auth *service.AuthService, pages *web.Renderer) *handler.AuthHandler {
	return handler.NewAuthHandler(auth, pages, cfg.CookieSecure)
}

func ProvideRouter(
	cfg *config.Config,
	logger *slog.Logger,
	auth *service.AuthService,
	policy *service.AccessPolicy,
	objects storage.ObjectStorage,
	limiter middleware.Limiter,
	authHandler *handler.AuthHandler,
	catalogHandler *handler.CatalogHandler,
	deviceHandler *handler.DeviceHandler,
	featureHandler *handler.FeatureHandler,
	storageHandler *handler.StorageHandler,
	pageHandler *handler.PageHandler,
	healthHandler *handler.HealthHandler,
) http.Handler {
	dep := router.Dependencies{
		AuthHandler:       authHandler,
		CatalogHandler:    catalogHandler,
		DeviceHandler:     deviceHandler,
		FeatureHandler:    featureHandler,
		StorageHandler:    storageHandler,
		PageHandler:       pageHandler,
		HealthHandler:     healthHandler,
		Sessions:          auth,
		Features:          policy,
		Limiter:           limiter,
		LoginRateLimitRPM: cfg.LoginRateLimitRPM,
		APIRateLimitRPM:   cfg.APIRateLimitRPM,
		Logger:            logger,
		EnableOTelHTTP:    cfg.OTELHTTPEnabled,
	}
	if local, ok := objects.(*storage.LocalStorage); ok {
		dep.Uploads = local.Handler()
	}
	return router.NewRouter(dep)
}

func ProvideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
