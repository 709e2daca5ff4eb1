package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-storefront/cache"
	"github.com/goliatone/go-storefront/domain"
	"github.com/goliatone/go-storefront/store"
)

// Metrics receives store failure observations.
type Metrics interface {
	StoreFailure(op string)
}

type nopMetrics struct{}

func (nopMetrics) StoreFailure(string) {}

// Service is the catalog cache engine.
type Service struct {
	products store.ProductStore
	cache    *cache.Store
	logger   *zap.Logger
	metrics  Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for store failures and writes.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the store failure sink.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService creates a catalog over products. A nil cache store disables
// caching.
func NewService(products store.ProductStore, cacheStore *cache.Store, opts ...Option) *Service {
	if cacheStore == nil {
		cacheStore = cache.NewStore(nil)
	}
	s := &Service{
		products: products,
		cache:    cacheStore,
		logger:   zap.NewNop(),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetProduct returns the product with the given id.
func (s *Service) GetProduct(ctx context.Context, rawID string) (*domain.Product, error) {
	id, err := domain.ParseID("product id", rawID)
	if err != nil {
		return nil, err
	}
	return s.FindProduct(ctx, id)
}

// FindProduct is GetProduct for an already parsed id.
func (s *Service) FindProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := cache.GetOrFetch(ctx, s.cache, cache.ProductKey(id), func(ctx context.Context) (domain.Product, error) {
		p, err := s.products.FindByID(ctx, id)
		if err != nil {
			return domain.Product{}, s.storeError(err, "product.find", id)
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns every product.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return cache.GetOrFetch(ctx, s.cache, cache.ProductListKey, func(ctx context.Context) ([]domain.Product, error) {
		products, err := s.products.Find(ctx)
		if err != nil {
			return nil, s.storeError(err, "product.list", uuid.Nil)
		}
		if products == nil {
			products = []domain.Product{}
		}
		return products, nil
	})
}

// CreateProduct validates in, persists a new product and invalidates the
// product list.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	in = in.trimmed()
	if err := in.validateCreate(); err != nil {
		return nil, invalidInput(err)
	}

	created, err := s.products.Create(ctx, in.newProduct())
	if err != nil {
		return nil, s.storeError(err, "product.create", uuid.Nil)
	}

	s.cache.DeleteAsync(ctx, cache.ProductListKey)
	s.logger.Info("product created", zap.String("product_id", created.ID.String()))
	return created, nil
}

// UpdateProduct merges in into the stored product and invalidates both the
// list and the product key.
func (s *Service) UpdateProduct(ctx context.Context, rawID string, in ProductInput) (*domain.Product, error) {
	id, err := domain.ParseID("product id", rawID)
	if err != nil {
		return nil, err
	}
	in = in.trimmed()
	if err := in.validateUpdate(); err != nil {
		return nil, invalidInput(err)
	}

	current, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "product.find", id)
	}
	in.applyTo(current)

	updated, err := s.products.Update(ctx, current)
	if err != nil {
		return nil, s.storeError(err, "product.update", id)
	}

	s.invalidate(ctx, id)
	s.logger.Info("product updated", zap.String("product_id", id.String()))
	return updated, nil
}

// DeleteProduct removes the product and invalidates both keys.
func (s *Service) DeleteProduct(ctx context.Context, rawID string) error {
	id, err := domain.ParseID("product id", rawID)
	if err != nil {
		return err
	}

	if _, err := s.products.FindByID(ctx, id); err != nil {
		return s.storeError(err, "product.find", id)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return s.storeError(err, "product.delete", id)
	}

	s.invalidate(ctx, id)
	s.logger.Info("product deleted", zap.String("product_id", id.String()))
	return nil
}

// Flush waits for background cache work started by this service's store.
func (s *Service) Flush() {
	s.cache.Flush()
}

// Close drains background cache work and closes the cache store.
func (s *Service) Close() error {
	return s.cache.Close()
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	s.cache.DeleteAsync(ctx, cache.ProductListKey, cache.ProductKey(id))
}

// storeError maps store.ErrNotFound to the product NotFound error and wraps
// everything else as a store failure.
func (s *Service) storeError(err error, op string, id uuid.UUID) error {
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrProductNotFound
	}
	s.metrics.StoreFailure(op)
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if id != uuid.Nil {
		fields = append(fields, zap.String("product_id", id.String()))
	}
	s.logger.Error("product store failure", fields...)
	return domain.StoreFailure(err, op)
}
