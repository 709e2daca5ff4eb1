// Package httpapi exposes the catalog, cart and account services over HTTP.
//
// Handlers are thin: they decode and shape-check the request, call one
// service operation and map its error code to a status. Error bodies are
// the JSON form of the error (see errors.ToJSON).
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/cart"
	"github.com/goliatone/go-storefront/catalog"
)

// RequestObserver records one served request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// HealthFunc reports the health of one dependency.
type HealthFunc func(ctx context.Context) error

// Deps are the collaborators served by the router. Catalog, Carts and
// Accounts are required; the rest are optional.
type Deps struct {
	Catalog  *catalog.Service
	Carts    *cart.Service
	Accounts *auth.Service

	// StoreHealth failing makes /health report 503.
	StoreHealth HealthFunc
	// CacheHealth failing only degrades /health; the cache is optional.
	CacheHealth HealthFunc

	Metrics        RequestObserver
	MetricsHandler http.Handler
	Logger         *zap.Logger
	CORSOrigins    []string
}

// Router builds the HTTP handler tree.
type Router struct {
	deps   Deps
	logger *zap.Logger
}

// NewRouter creates a router for deps.
func NewRouter(deps Deps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{deps: deps, logger: logger}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(accessLog(rt.logger, rt.deps.Metrics))

	router.Use(cors.Handler(corsOptions(rt.deps.CORSOrigins)))

	router.Get("/health", rt.health)
	if rt.deps.MetricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", rt.deps.MetricsHandler)
	}

	authn := authenticate(rt.deps.Accounts.Tokens(), rt.logger)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			h := &accountHandler{accounts: rt.deps.Accounts, logger: rt.logger}
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.With(authn).Get("/profile", h.profile)
		})

		r.Route("/products", func(r chi.Router) {
			h := &productHandler{catalog: rt.deps.Catalog, logger: rt.logger}
			r.Get("/", h.list)
			r.Get("/{productID}", h.get)

			r.Group(func(r chi.Router) {
				r.Use(authn, requireAdmin(rt.logger))
				r.Post("/", h.create)
				r.Put("/{productID}", h.update)
				r.Delete("/{productID}", h.delete)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(authn)
			h := &cartHandler{carts: rt.deps.Carts, logger: rt.logger}
			r.Get("/", h.get)
			r.Post("/add", h.add)
			r.Put("/update", h.update)
			r.Delete("/remove", h.remove)
			r.Delete("/clear", h.clear)
		})
	})

	return router
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// health reports "ok", "degraded" when only the cache is down, or
// "unavailable" with a 503 when the store is down.
func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK

	if check := rt.deps.StoreHealth; check != nil {
		if err := check(r.Context()); err != nil {
			rt.logger.Error("store health check failed", zap.Error(err))
			resp.Checks["store"] = "down"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["store"] = "ok"
		}
	}

	if check := rt.deps.CacheHealth; check != nil {
		if err := check(r.Context()); err != nil {
			rt.logger.Warn("cache health check failed", zap.Error(err))
			resp.Checks["cache"] = "down"
			if status == http.StatusOK {
				resp.Status = "degraded"
			}
		} else {
			resp.Checks["cache"] = "ok"
		}
	}

	respondJSON(w, rt.logger, status, resp)
}

// corsOptions allows credentials only for an explicit origin list. No
// origins, or any wildcard, means every origin without credentials.
func corsOptions(origins []string) cors.Options {
	credentials := len(origins) > 0
	for _, o := range origins {
		if strings.Contains(o, "*") {
			credentials = false
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match", "X-Request-ID"},
		ExposedHeaders:   []string{"ETag", "X-Request-ID"},
		AllowCredentials: credentials,
		MaxAge:           300,
	}
}
