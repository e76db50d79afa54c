// Package blogsaas предоставляет маршруты для основного приложения.
package blogsaas

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ekunemmanuel/blog-saas/internal/http/handlers/auth/login"
	"github.com/ekunemmanuel/blog-saas/internal/http/handlers/auth/register"
	"github.com/ekunemmanuel/blog-saas/internal/http/handlers/billing/paymentcreate"
	"github.com/ekunemmanuel/blog-saas/internal/http/handlers/billing/paymentverify"
	"github.com/ekunemmanuel/blog-saas/internal/http/handlers/billing/plans"
	"github.com/ekunemmanuel/blog-saas/internal/http/handlers/billing/subscriptiondisable"
	"github.com/ekunemmanuel/blog-saas/internal/http/handlers/billing/subscriptionread"
	"github.com/ekunemmanuel/blog-saas/internal/http/handlers/billing/webhook"
	"github.com/ekunemmanuel/blog-saas/internal/http/handlers/health"
	"github.com/ekunemmanuel/blog-saas/internal/http/middlewarectx"
	authservice "github.com/ekunemmanuel/blog-saas/internal/services/auth"
	billingservice "github.com/ekunemmanuel/blog-saas/internal/services/billing"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	billingService *billingservice.BillingService,
	authService *authservice.AuthService,
	verifier webhook.Verifier) {
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
		r.Get("/billing/plans", plans.New(logger, billingService).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/billing/payment", paymentcreate.New(logger, billingService).ServeHTTP)
			r.Get("/billing/payment/{reference}", paymentverify.New(logger, billingService).ServeHTTP)
			r.Get("/billing/subscription", subscriptionread.New(logger, billingService).ServeHTTP)
			r.Delete("/billing/subscription", subscriptiondisable.New(logger, billingService).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации, подпись проверяется сама)
		r.Post("/billing/webhook", webhook.New(logger, billingService, verifier).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
