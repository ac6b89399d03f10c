package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/orders-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/orders-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/orders-backend/api/controllers/orders"
	"github.com/angelmondragon/orders-backend/api/middleware"
	"github.com/angelmondragon/orders-backend/internal/address"
	"github.com/angelmondragon/orders-backend/internal/cart"
	"github.com/angelmondragon/orders-backend/internal/catalog"
	"github.com/angelmondragon/orders-backend/internal/contacts"
	"github.com/angelmondragon/orders-backend/internal/orders"
	"github.com/angelmondragon/orders-backend/pkg/auth/session"
	"github.com/angelmondragon/orders-backend/pkg/config"
	"github.com/angelmondragon/orders-backend/pkg/db"
	"github.com/angelmondragon/orders-backend/pkg/logger"
	"github.com/angelmondragon/orders-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/orders-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface is wired to. Nil infra
// entries disable the matching concern: no session check, no idempotency
// replay, no /metrics endpoint.
type Dependencies struct {
	DB          db.Pinger
	Redis       pkgredis.Pinger
	Sessions    session.AccessSessionChecker
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Catalog   catalog.Service
	Cart      cart.Service
	Orders    orders.Service
	Contacts  contacts.Service
	Addresses address.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessChecks(deps)))
	})

	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, metrics.Handler(deps.Gatherer))
	}

	var sessions session.AccessSessionChecker
	if cfg.JWT.RequireSession {
		sessions = deps.Sessions
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		if deps.Idempotency != nil {
			r.Use(middleware.Idempotency(deps.Idempotency, logg))
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Catalog, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{itemId}/increase", cartcontrollers.CartIncreaseItem(deps.Cart, logg))
			r.Patch("/items/{itemId}/decrease", cartcontrollers.CartDecreaseItem(deps.Cart, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
			r.Put("/delivery-address", cartcontrollers.CartSetDeliveryAddress(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/history", ordercontrollers.OrderHistory(deps.Orders, logg))
			r.Post("/confirm", ordercontrollers.OrderConfirm(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.OrderDetail(deps.Orders, logg))
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", controllers.ContactList(deps.Contacts, logg))
			r.Post("/", controllers.ContactCreate(deps.Contacts, logg))
			r.Get("/{contactId}", controllers.ContactGet(deps.Contacts, logg))
			r.Put("/{contactId}", controllers.ContactUpdate(deps.Contacts, logg))
			r.Delete("/{contactId}", controllers.ContactDelete(deps.Contacts, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(deps.Addresses, logg))
			r.Post("/", controllers.AddressCreate(deps.Addresses, logg))
			r.Get("/{addressId}", controllers.AddressGet(deps.Addresses, logg))
			r.Put("/{addressId}", controllers.AddressUpdate(deps.Addresses, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(deps.Addresses, logg))
		})
	})

	return r
}

func readinessChecks(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["database"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
