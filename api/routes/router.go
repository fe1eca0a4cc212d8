package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storiqateam/stq-orders/api/controllers"
	"github.com/storiqateam/stq-orders/api/middleware"
	"github.com/storiqateam/stq-orders/internal/cart"
	"github.com/storiqateam/stq-orders/internal/orders"
	"github.com/storiqateam/stq-orders/internal/roles"
	"github.com/storiqateam/stq-orders/pkg/config"
	"github.com/storiqateam/stq-orders/pkg/db"
	"github.com/storiqateam/stq-orders/pkg/logger"
	"github.com/storiqateam/stq-orders/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	roleLister middleware.RoleLister,
	cartService cart.Service,
	ordersService orders.Service,
	rolesService roles.Service,
) http.Handler {
	// A missing Redis endpoint disables idempotency storage and the redis
	// readiness check; the interface values stay nil so both fall through.
	var idemStore redis.IdempotencyStore
	var redisP controllers.Pinger
	if redisClient != nil {
		idemStore = redisClient
		redisP = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Identity(roleLister, logg),
		middleware.Idempotency(idemStore, logg),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, dbP, redisP))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/cart", func(r chi.Router) {
		r.Use(middleware.RequireIdentity(logg))
		r.Get("/", controllers.CartFetch(cartService, logg))
		r.Post("/clear", controllers.CartClear(cartService, logg))
		r.With(middleware.RequireUser(logg)).Post("/merge", controllers.CartMerge(cartService, logg))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.CartProducts(cartService, logg))
			r.Route("/{productID}", func(r chi.Router) {
				r.Post("/increment", controllers.CartIncrement(cartService, logg))
				r.Put("/quantity", controllers.CartSetQuantity(cartService, logg))
				r.Put("/selection", controllers.CartSetSelection(cartService, logg))
				r.Put("/comment", controllers.CartSetComment(cartService, logg))
				r.Delete("/", controllers.CartDeleteProduct(cartService, logg))
			})
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(middleware.RequireUser(logg))
		r.Get("/", controllers.OrdersListMine(ordersService, logg))
		r.Post("/search", controllers.OrdersSearch(ordersService, logg))
		r.Post("/create_from_cart", controllers.OrdersCreateFromCart(ordersService, logg))
		r.Post("/create_from_cart/revert", controllers.OrdersRevertConversion(ordersService, logg))
		r.Get("/by-store/{storeID}", controllers.OrdersByStore(ordersService, logg))
		r.Get("/by-slug/{orderSlug}", controllers.OrderBySlug(ordersService, logg))
		r.Route("/by-id/{orderID}", func(r chi.Router) {
			r.Get("/", controllers.OrderByID(ordersService, logg))
			r.Put("/status", controllers.OrderSetStatus(ordersService, logg))
		})
	})

	r.With(middleware.RequireUser(logg)).
		Get("/order_diff/by-id/{orderID}", controllers.OrderDiffsByID(ordersService, logg))

	r.Route("/roles", func(r chi.Router) {
		r.Use(middleware.RequireUser(logg))
		r.Get("/", controllers.RolesOwn(rolesService, logg))
		r.Post("/", controllers.RoleGrant(rolesService, logg))
		r.Delete("/", controllers.RoleRevoke(rolesService, logg))
		r.Get("/by-user-id/{userID}", controllers.RolesByUserID(rolesService, logg))
	})

	return r
}
