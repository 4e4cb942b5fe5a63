package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lbksmart/storefront/pkg/health"
	"github.com/lbksmart/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig tunes the cross-cutting middleware.
type RouterConfig struct {
	AllowedOrigins []string
	// CheckoutPerMinute and CheckoutBurst bound checkout attempts per
	// session. Zero disables the limit.
	CheckoutPerMinute float64
	CheckoutBurst     int
	// CatalogMaxAge is the Cache-Control max-age of catalog responses, in
	// seconds.
	CatalogMaxAge int
}

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Order    *OrderHandler
	Catalog  *CatalogHandler
}

// NewRouter creates a chi router with all storefront routes registered. ctx
// bounds the background goroutines of the rate limiter.
func NewRouter(
	ctx context.Context,
	h Handlers,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Use(middleware.NoStore)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Get("/suggestions", h.Cart.GetSuggestions)
				r.Put("/shipping", h.Cart.SetShipping)

				r.Post("/items", h.Cart.AddItem)
				r.Patch("/items/{index}/quantity", h.Cart.UpdateItemQuantity)
				r.Put("/items/{index}/variants", h.Cart.EditItemVariants)
				r.Delete("/items/{index}", h.Cart.RemoveItem)
			})

			r.Group(func(r chi.Router) {
				if cfg.CheckoutPerMinute > 0 {
					r.Use(middleware.RateLimit(ctx, cfg.CheckoutPerMinute, cfg.CheckoutBurst, middleware.SessionOrIP, logger))
				}
				r.Post("/checkout", h.Checkout.Checkout)
				r.Post("/checkout/prompt", h.Checkout.StartPromptedCheckout)
			})
			r.Post("/checkout/prompt/answer", h.Checkout.AnswerPrompt)

			r.Get("/orders", h.Order.ListOrders)
			r.Get("/orders/{id}", h.Order.GetOrder)
		})

		r.Route("/catalog", func(r chi.Router) {
			if cfg.CatalogMaxAge > 0 {
				r.Use(middleware.CacheControl(cfg.CatalogMaxAge))
			}
			r.Get("/categories", h.Catalog.ListCategories)
			r.Get("/categories/{category}/variant-template", h.Catalog.GetVariantTemplate)
			r.Get("/pharmacie/template", h.Catalog.GetPharmacyTemplate)
			r.Post("/pharmacie/validate", h.Catalog.ValidatePharmacy)
			r.Post("/pharmacie/message", h.Catalog.PharmacyMessage)
		})
	})

	return r
}
