// Package productrental предоставляет маршруты для основного приложения.
package productrental

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"product-rental/internal/http/handlers/auth/login"
	"product-rental/internal/http/handlers/auth/register"
	"product-rental/internal/http/handlers/product/create"
	"product-rental/internal/http/handlers/product/list"
	"product-rental/internal/http/handlers/product/purchase"
	"product-rental/internal/http/handlers/product/rent"
	"product-rental/internal/http/handlers/product/status"
	"product-rental/internal/http/handlers/transaction/extend"
	"product-rental/internal/http/handlers/transaction/history"
	"product-rental/internal/http/handlers/user/balance"
	"product-rental/internal/http/middlewarectx"
	authservice "product-rental/internal/services/auth"
	ledgerservice "product-rental/internal/services/ledger"
	tradeservice "product-rental/internal/services/trade"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, authService *authservice.AuthService, ledgerService *ledgerservice.LedgerService, tradeService *tradeservice.TradeService) {
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

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/products", list.New(logger, tradeService).ServeHTTP)
			r.Post("/products/{id}/purchase", purchase.New(logger, tradeService).ServeHTTP)
			r.Post("/products/{id}/rent", rent.New(logger, tradeService).ServeHTTP)
			r.Get("/products/{id}/status", status.New(logger, tradeService).ServeHTTP)
			r.Post("/transactions/{id}/extend", extend.New(logger, tradeService).ServeHTTP)
			r.Get("/transactions", history.New(logger, tradeService).ServeHTTP)
			r.Get("/balance", balance.New(logger, ledgerService).ServeHTTP)

			// Управление каталогом доступно только администраторам
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRoleMiddleware(logger, "admin"))
				r.Post("/products", create.New(logger, tradeService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
