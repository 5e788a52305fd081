package http

import (
	_ "github.com/DRSN-tech/order-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Handlers: обработчики, которые монтируются под /api/v1.
type Handlers struct {
	Auth      *AuthHandler
	Products  *ProductHandler
	Inventory *InventoryHandler
	Orders    *OrderHandler
}

func (r *Router) Init(mw *Middleware, h Handlers) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(middleware.Recoverer)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(mw.Authenticate)
		v1.Use(mw.RateLimit)

		registerAuthRoutes(v1, h.Auth)
		registerProductRoutes(v1, h.Products, h.Inventory)
		registerInventoryRoutes(v1, h.Inventory)
		registerOrderRoutes(v1, h.Orders)
	})
}

func registerAuthRoutes(router chi.Router, h *AuthHandler) {
	router.Route("/auth", func(a chi.Router) {
		a.Post("/register", h.register)
		a.Post("/login", h.login)
		a.Post("/refresh", h.refresh)

		a.Group(func(private chi.Router) {
			private.Use(RequireAuth)
			private.Get("/me", h.me)
			private.Post("/logout", h.logout)
		})
	})
}

func registerProductRoutes(router chi.Router, h *ProductHandler, inv *InventoryHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.listProducts)
		pr.Get("/{id}", h.getProduct)

		pr.Group(func(manage chi.Router) {
			manage.Use(RequireRole(domain.RoleAdmin, domain.RoleVendor))
			manage.Post("/", h.createProduct)
			manage.Post("/import", h.importProducts)
			manage.Patch("/{id}", h.updateProduct)
			manage.Delete("/{id}", h.deleteProduct)
			manage.Post("/{id}/stock", inv.adjustStock)
			manage.Get("/{id}/history", inv.productHistory)
		})
	})
}

func registerInventoryRoutes(router chi.Router, h *InventoryHandler) {
	router.Route("/inventory", func(inv chi.Router) {
		inv.Use(RequireRole(domain.RoleAdmin, domain.RoleVendor))
		inv.Get("/low-stock", h.lowStock)
		inv.With(RequireRole(domain.RoleAdmin)).Post("/low-stock/alert", h.alertLowStock)
	})
}

func registerOrderRoutes(router chi.Router, h *OrderHandler) {
	router.Route("/orders", func(or chi.Router) {
		or.Use(RequireAuth)
		or.Post("/", h.createOrder)
		or.Get("/", h.listOrders)
		or.Get("/{id}", h.getOrder)
		or.Patch("/{id}/status", h.updateStatus)
		or.Post("/{id}/cancel", h.cancelOrder)
		or.Get("/{id}/invoice", h.downloadInvoice)
	})
}
