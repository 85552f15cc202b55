// Package pdfswift предоставляет маршруты для основного приложения.
package pdfswift

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/jarrod640-svg/pdfswift/internal/http/handlers/auth/login"
	"github.com/jarrod640-svg/pdfswift/internal/http/handlers/auth/me"
	"github.com/jarrod640-svg/pdfswift/internal/http/handlers/auth/register"
	"github.com/jarrod640-svg/pdfswift/internal/http/handlers/conversion/track"
	"github.com/jarrod640-svg/pdfswift/internal/http/handlers/conversion/usage"
	"github.com/jarrod640-svg/pdfswift/internal/http/handlers/health"
	"github.com/jarrod640-svg/pdfswift/internal/http/handlers/payment/cancel"
	"github.com/jarrod640-svg/pdfswift/internal/http/handlers/payment/checkout"
	"github.com/jarrod640-svg/pdfswift/internal/http/handlers/payment/status"
	"github.com/jarrod640-svg/pdfswift/internal/http/handlers/payment/webhook"
	"github.com/jarrod640-svg/pdfswift/internal/http/middlewarectx"
	authservice "github.com/jarrod640-svg/pdfswift/internal/services/auth"
	billingservice "github.com/jarrod640-svg/pdfswift/internal/services/billing"
	meteringservice "github.com/jarrod640-svg/pdfswift/internal/services/metering"
	"github.com/jarrod640-svg/pdfswift/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	authService *authservice.AuthService, meteringService *meteringservice.MeteringService,
	billingService *billingservice.BillingService, webhookSecret string) {

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Учёт конвертаций доступен и анонимным сессиям
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.OptionalJWTMiddleware(authService, logger))
			r.Post("/conversions/track", track.New(logger, meteringService).ServeHTTP)
			r.Get("/conversions/usage", usage.New(logger, meteringService).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, rate.Limit(10), 20))
			r.Get("/me", me.New(logger, authService).ServeHTTP)
			r.Post("/payments/checkout", checkout.New(logger, billingService).ServeHTTP)
			r.Get("/payments/subscription-status", status.New(logger, billingService).ServeHTTP)
			r.Post("/payments/cancel", cancel.New(logger, billingService).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации, подпись проверяется в обработчике)
		r.Post("/payments/webhook", webhook.New(logger, billingService, webhookSecret).ServeHTTP)
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
