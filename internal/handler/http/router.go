package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justinloleng/ecommerce/internal/service"
	"github.com/justinloleng/ecommerce/pkg/health"
	"github.com/justinloleng/ecommerce/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig carries the transport settings of the router.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	CatalogMaxAge  int
	RequestTimeout time.Duration
}

// Services groups the application services the routes delegate to.
type Services struct {
	Cart     *service.Reconciler
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Catalog  *service.CatalogService
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig, svc Services, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(svc.Cart, logger)
	orderHandler := NewOrderHandler(svc.Checkout, svc.Orders, logger)
	catalogHandler := NewCatalogHandler(svc.Catalog, logger)

	r.Route("/api/v1/storefront", func(r chi.Router) {
		// Catalog reads are public and cacheable.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CatalogMaxAge))

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/featured", catalogHandler.Featured)
			r.Get("/products/{productID}", catalogHandler.GetProduct)
			r.Get("/categories", catalogHandler.ListCategories)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Shopper)
			r.Use(middleware.RequestLogger(logger))
			r.Use(middleware.NoStore)

			// Payment proofs arrive as multipart forms.
			r.Post("/orders/{orderID}/payment-proof", orderHandler.UploadPaymentProof)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)

				r.Get("/cart", cartHandler.GetCart)
				r.Delete("/cart", cartHandler.ClearCart)
				r.Post("/cart/items", cartHandler.AddItem)
				r.Put("/cart/items/{itemID}", cartHandler.UpdateItem)
				r.Delete("/cart/items/{itemID}", cartHandler.RemoveItem)
				r.Put("/cart/selection", cartHandler.SelectAll)
				r.Put("/cart/selection/{itemID}", cartHandler.SelectItem)

				r.Post("/checkout/begin", cartHandler.BeginCheckout)
				r.Post("/checkout", orderHandler.PlaceOrder)
				r.Delete("/checkout", cartHandler.EndCheckout)

				r.Get("/orders", orderHandler.ListOrders)
				r.Get("/orders/{orderID}", orderHandler.GetOrder)
				r.Put("/orders/{orderID}/cancel", orderHandler.CancelOrder)

				r.Route("/admin/orders", func(r chi.Router) {
					r.Use(middleware.RequireRole("admin"))

					r.Get("/", orderHandler.AdminListOrders)
					r.Put("/{orderID}/approve", orderHandler.ApproveOrder)
					r.Put("/{orderID}/decline", orderHandler.DeclineOrder)
					r.Put("/{orderID}/status", orderHandler.UpdateStatus)
				})
			})
		})
	})

	return r
}
