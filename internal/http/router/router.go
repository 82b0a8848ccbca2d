package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/http/handler"
	"github.com/mayoristas-py/directory-admin/internal/http/middleware"
	"github.com/mayoristas-py/directory-admin/internal/service"
)

const (
	defaultBodyLimit = 1 << 20
	uploadBodyLimit  = 6 << 20
)

type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	CatalogHandler *handler.CatalogHandler
	DeviceHandler  *handler.DeviceHandler
	FeatureHandler *handler.FeatureHandler
	StorageHandler *handler.StorageHandler
	PageHandler    *handler.PageHandler
	HealthHandler  *handler.HealthHandler

	Sessions service.SessionAuthenticator
	Features service.FeatureAuthorizer

	// Uploads serves locally stored files under /uploads/ when set.
	Uploads http.Handler

	Limiter           middleware.Limiter
	LoginRateLimitRPM int
	APIRateLimitRPM   int

	Logger         *slog.Logger
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	logger := dep.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger(logger))
	r.Use(middleware.SecurityHeaders)

	loginLimiter := middleware.NewRateLimiter(dep.Limiter, dep.LoginRateLimitRPM, time.Minute, middleware.FailClosed, "login").Middleware()
	apiLimiter := middleware.NewRateLimiter(dep.Limiter, dep.APIRateLimitRPM, time.Minute, middleware.FailOpen, "api").Middleware()

	session := middleware.SessionGuard(dep.Sessions)
	requires := func(featureID string) func(http.Handler) http.Handler {
		return middleware.Require(session, middleware.FeatureGuard(dep.Features, featureID))
	}
	sessionOnly := middleware.Require(session)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BodyLimit(defaultBodyLimit))

		r.Get("/health/live", dep.HealthHandler.Live)
		r.Get("/health/ready", dep.HealthHandler.Ready)

		r.Get("/", dep.AuthHandler.LoginPage)
		r.With(loginLimiter).Post("/login", dep.AuthHandler.Login)
		r.Get("/logout", dep.AuthHandler.Logout)

		r.Route("/admin", func(r chi.Router) {
			r.Use(requires(domain.FeatureDashboard))
			r.Get("/", dep.PageHandler.Dashboard)
			r.Get("/devices", dep.PageHandler.Devices)
			r.Get("/features", dep.PageHandler.Features)
			r.Get("/shops", dep.PageHandler.Shops)
			r.Get("/analytics/{chart}", dep.PageHandler.Chart)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLimiter)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(defaultBodyLimit))

			r.Get("/data", dep.CatalogHandler.PublicData)

			r.Route("/shops", func(r chi.Router) {
				r.Get("/", dep.CatalogHandler.ListShops)
				r.Get("/{id}", dep.CatalogHandler.GetShop)
				r.Group(func(r chi.Router) {
					r.Use(requires(domain.FeatureShopManagement))
					r.Post("/", dep.CatalogHandler.CreateShop)
					r.Put("/{id}", dep.CatalogHandler.ReplaceShop)
					r.Patch("/{id}", dep.CatalogHandler.PatchShop)
					r.Delete("/{id}", dep.CatalogHandler.DeleteShop)
				})
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", dep.CatalogHandler.ListCategories)
				r.Get("/{id}", dep.CatalogHandler.GetCategory)
				r.Group(func(r chi.Router) {
					r.Use(requires(domain.FeatureCategoryManagement))
					r.Post("/", dep.CatalogHandler.CreateCategory)
					r.Put("/{id}", dep.CatalogHandler.UpdateCategory)
					r.Delete("/{id}", dep.CatalogHandler.DeleteCategory)
				})
			})

			r.Route("/zones", func(r chi.Router) {
				r.Get("/", dep.CatalogHandler.ListZones)
				r.Get("/{id}", dep.CatalogHandler.GetZone)
				r.Group(func(r chi.Router) {
					r.Use(requires(domain.FeatureZoneManagement))
					r.Post("/", dep.CatalogHandler.CreateZone)
					r.Put("/{id}", dep.CatalogHandler.UpdateZone)
					r.Delete("/{id}", dep.CatalogHandler.DeleteZone)
				})
			})

			r.Get("/banners", dep.CatalogHandler.GetBanners)
			r.With(requires(domain.FeatureBannerManagement)).Put("/banners/{slot}", dep.CatalogHandler.SetBanner)
			r.With(requires(domain.FeatureBannerManagement)).Put("/images/{slot}", dep.CatalogHandler.SetImage)

			r.Get("/branding", dep.CatalogHandler.GetBranding)
			r.With(requires(domain.FeatureBrandingManagement)).Put("/branding", dep.CatalogHandler.SetBranding)

			r.Route("/devices", func(r chi.Router) {
				r.Use(requires(domain.FeatureDeviceManagement))
				r.Get("/", dep.DeviceHandler.List)
				r.Post("/", dep.DeviceHandler.Create)
				r.Get("/{uuid}", dep.DeviceHandler.Get)
				r.Put("/{uuid}", dep.DeviceHandler.Update)
				r.Delete("/{uuid}", dep.DeviceHandler.Delete)
				r.Post("/{uuid}/toggle", dep.DeviceHandler.Toggle)
			})

			// Feature endpoints only need a session so the flags can always
			// be repaired.
			r.Route("/features", func(r chi.Router) {
				r.Use(sessionOnly)
				r.Get("/", dep.FeatureHandler.List)
				r.Get("/{id}", dep.FeatureHandler.Get)
				r.Post("/{id}/toggle", dep.FeatureHandler.Toggle)
				r.Post("/{id}/auth", dep.FeatureHandler.SetAuth)
				r.Post("/{id}/devices/{deviceID}", dep.FeatureHandler.GrantDevice)
				r.Delete("/{id}/devices/{deviceID}", dep.FeatureHandler.RevokeDevice)
			})

			r.With(requires(domain.FeatureBannerManagement)).Delete("/storage/delete", dep.StorageHandler.Delete)
		})

		r.With(middleware.BodyLimit(uploadBodyLimit), requires(domain.FeatureBannerManagement)).
			Post("/storage/upload/{folder}", dep.StorageHandler.Upload)
	})

	if dep.Uploads != nil {
		r.Handle("/uploads/*", dep.Uploads)
	}

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
