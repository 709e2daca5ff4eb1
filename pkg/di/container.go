// Package di wires the storefront from a config.Config. The container owns
// every long-lived resource it creates and releases them in reverse order
// on Shutdown.
package di

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/cache"
	"github.com/goliatone/go-storefront/cart"
	"github.com/goliatone/go-storefront/catalog"
	"github.com/goliatone/go-storefront/config"
	"github.com/goliatone/go-storefront/httpapi"
	"github.com/goliatone/go-storefront/internal/observability"
	"github.com/goliatone/go-storefront/store"
	"github.com/goliatone/go-storefront/store/bunstore"
	"github.com/goliatone/go-storefront/store/memstore"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "storefront"

// Container holds the singleton services of one storefront instance.
type Container struct {
	config  config.Config
	logger  *zap.Logger
	metrics *observability.Collector

	products store.ProductStore
	carts    store.CartStore
	users    store.UserStore
	pinger   store.Pinger

	cache    *cache.Store
	catalog  *catalog.Service
	cartSvc  *cart.Service
	accounts *auth.Service
	handler  http.Handler

	shutdownFunctions []func() error
}

// Option adjusts container construction.
type Option func(*Container)

// WithLogger replaces the logger built from the log config.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// NewContainer validates cfg and builds every component. The SQL schema is
// created when missing. On error, anything already opened is released.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initialize(ctx); err != nil {
		_ = c.Shutdown(context.Background())
		return nil, err
	}
	return c, nil
}

func (c *Container) initialize(ctx context.Context) error {
	if c.logger == nil {
		logger, err := observability.NewLogger(c.config.Log)
		if err != nil {
			return fmt.Errorf("di: logger: %w", err)
		}
		c.logger = logger
		c.addShutdownFunction(func() error {
			_ = logger.Sync()
			return nil
		})
	}
	c.metrics = observability.NewCollector(MetricsNamespace)

	if err := c.initializeStore(ctx); err != nil {
		return err
	}
	if err := c.initializeServices(); err != nil {
		return err
	}
	c.initializeRouter()

	c.logger.Info("container initialized",
		zap.String("store", c.config.Store.Driver),
		zap.String("cache", c.config.Cache.Backend),
	)
	return nil
}

func (c *Container) initializeStore(ctx context.Context) error {
	switch c.config.Store.Driver {
	case config.DriverMemory:
		mem := memstore.New()
		c.products, c.carts, c.users, c.pinger = mem.Products(), mem.Carts(), mem.Users(), mem
		return nil
	case config.DriverSQLite, config.DriverPostgres:
		db, err := bunstore.Open(c.config.Store.Driver, c.config.Store.DSN)
		if err != nil {
			return fmt.Errorf("di: open store: %w", err)
		}
		c.addShutdownFunction(db.Close)

		if err := bunstore.Migrate(ctx, db); err != nil {
			return fmt.Errorf("di: %w", err)
		}
		sqlStore := bunstore.New(db)
		c.products, c.carts, c.users, c.pinger = sqlStore.Products(), sqlStore.Carts(), sqlStore.Users(), sqlStore
		return nil
	default:
		return fmt.Errorf("di: unsupported store driver %q", c.config.Store.Driver)
	}
}

func (c *Container) initializeServices() error {
	cacheStore, err := cache.NewStoreFromConfig(c.config.Cache, c.logger, c.metrics)
	if err != nil {
		return fmt.Errorf("di: cache: %w", err)
	}
	c.cache = cacheStore
	c.addShutdownFunction(cacheStore.Close)

	c.catalog = catalog.NewService(c.products, cacheStore,
		catalog.WithLogger(c.logger),
		catalog.WithMetrics(c.metrics),
	)

	cartOpts := []cart.Option{cart.WithLogger(c.logger), cart.WithMetrics(c.metrics)}
	if c.config.Cart.SerializedWrites {
		cartOpts = append(cartOpts, cart.WithSerializedWrites())
	}
	c.cartSvc = cart.NewService(c.carts, c.catalog, cartOpts...)

	tokens, err := auth.NewTokens(auth.TokenConfig{
		Secret: c.config.Auth.JWTSecret,
		Issuer: c.config.Auth.Issuer,
		TTL:    c.config.Auth.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("di: tokens: %w", err)
	}
	c.accounts = auth.NewService(c.users, tokens,
		auth.WithLogger(c.logger),
		auth.WithBcryptCost(c.config.Auth.BcryptCost),
		auth.WithAdminRegistration(c.config.Auth.AllowAdminRegistration),
	)
	return nil
}

func (c *Container) initializeRouter() {
	c.handler = httpapi.NewRouter(httpapi.Deps{
		Catalog:        c.catalog,
		Carts:          c.cartSvc,
		Accounts:       c.accounts,
		StoreHealth:    c.pinger.Ping,
		CacheHealth:    c.cache.Healthy,
		Metrics:        c.metrics,
		MetricsHandler: c.metrics.Handler(),
		Logger:         c.logger,
		CORSOrigins:    c.config.Server.CORSOrigins,
	}).Setup()
}

func (c *Container) addShutdownFunction(fn func() error) {
	c.shutdownFunctions = append(c.shutdownFunctions, fn)
}

// Shutdown releases resources in reverse creation order. Pending cache
// writes are drained before the backend closes. Every step runs even when
// an earlier one fails.
func (c *Container) Shutdown(_ context.Context) error {
	var failed int
	for i := len(c.shutdownFunctions) - 1; i >= 0; i-- {
		if err := c.shutdownFunctions[i](); err != nil {
			failed++
			if c.logger != nil {
				c.logger.Error("shutdown step failed", zap.Error(err))
			}
		}
	}
	c.shutdownFunctions = nil

	if failed > 0 {
		return fmt.Errorf("di: shutdown completed with %d errors", failed)
	}
	return nil
}

// Health reports each dependency as "healthy" or "unhealthy".
func (c *Container) Health(ctx context.Context) map[string]string {
	health := map[string]string{"store": "healthy", "cache": "healthy"}
	if err := c.pinger.Ping(ctx); err != nil {
		health["store"] = "unhealthy"
	}
	if err := c.cache.Healthy(ctx); err != nil {
		health["cache"] = "unhealthy"
	}
	return health
}

// Config returns a copy of the configuration the container was built from.
func (c *Container) Config() config.Config { return c.config }

func (c *Container) Logger() *zap.Logger               { return c.logger }
func (c *Container) Metrics() *observability.Collector { return c.metrics }
func (c *Container) Cache() *cache.Store               { return c.cache }
func (c *Container) Catalog() *catalog.Service         { return c.catalog }
func (c *Container) Carts() *cart.Service              { return c.cartSvc }
func (c *Container) Accounts() *auth.Service           { return c.accounts }
func (c *Container) Handler() http.Handler             { return c.handler }
