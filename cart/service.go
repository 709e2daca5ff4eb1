package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/goliatone/go-storefront/domain"
	"github.com/goliatone/go-storefront/store"
)

// ProductLookup resolves product references. catalog.Service implements it.
type ProductLookup interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

// Metrics receives cart observations.
type Metrics interface {
	StoreFailure(op string)
	OrphansSwept(n int)
}

type nopMetrics struct{}

func (nopMetrics) StoreFailure(string) {}
func (nopMetrics) OrphansSwept(int)    {}

// Service is the cart consolidation engine.
type Service struct {
	carts    store.CartStore
	products ProductLookup
	logger   *zap.Logger
	metrics  Metrics

	serialize bool
	locks     *xsync.MapOf[uuid.UUID, *sync.Mutex]
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSerializedWrites makes read-modify-write cycles for the same user run
// one at a time within this process.
func WithSerializedWrites() Option {
	return func(s *Service) {
		s.serialize = true
	}
}

// NewService creates a cart service.
func NewService(carts store.CartStore, products ProductLookup, opts ...Option) *Service {
	s := &Service{
		carts:    carts,
		products: products,
		logger:   zap.NewNop(),
		metrics:  nopMetrics{},
		locks:    xsync.NewMapOf[uuid.UUID, *sync.Mutex](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem adds quantity of the product to the user's cart, creating the cart
// on first use. An existing item has its quantity increased.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, rawProductID string, quantity int) (*domain.CartView, error) {
	if quantity <= 0 {
		return nil, domain.Invalid("quantity must be greater than 0")
	}
	if quantity > domain.MaxItemQuantity {
		return nil, domain.ErrQuantityLimit
	}
	productID, err := domain.ParseID("product id", rawProductID)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.FindProduct(ctx, productID); err != nil {
		return nil, err
	}

	unlock := s.lock(userID)
	defer unlock()

	cart, err := s.carts.FindByUser(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.createWith(ctx, userID, productID, quantity)
	case err != nil:
		return nil, s.storeError(err, "cart.find", userID)
	}

	if err := cart.Merge(productID, quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, cart, "cart.add")
}

// createWith persists a new cart holding a single item. If another writer
// created the cart in the meantime the item is merged into theirs.
func (s *Service) createWith(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartView, error) {
	cart := domain.NewCart(userID)
	if err := cart.Merge(productID, quantity); err != nil {
		return nil, err
	}

	view, err := s.resolve(ctx, cart)
	if err != nil {
		return nil, err
	}

	created, err := s.carts.Create(ctx, cart)
	if errors.Is(err, store.ErrDuplicate) {
		existing, err := s.carts.FindByUser(ctx, userID)
		if err != nil {
			return nil, s.storeError(err, "cart.find", userID)
		}
		if err := existing.Merge(productID, quantity); err != nil {
			return nil, err
		}
		return s.save(ctx, existing, "cart.add")
	}
	if err != nil {
		return nil, s.storeError(err, "cart.create", userID)
	}

	view.ID = created.ID
	return view, nil
}

// UpdateItemQuantity replaces the quantity of an item already in the cart.
// A quantity of zero or less removes the item.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID uuid.UUID, rawProductID string, quantity int) (*domain.CartView, error) {
	if quantity > domain.MaxItemQuantity {
		return nil, domain.ErrQuantityLimit
	}
	productID, err := domain.ParseID("product id", rawProductID)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.FindProduct(ctx, productID); err != nil {
		return nil, err
	}

	unlock := s.lock(userID)
	defer unlock()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := cart.IndexOf(productID)
	if i < 0 {
		return nil, domain.ErrItemNotFound
	}
	if quantity <= 0 {
		cart.RemoveAt(i)
	} else {
		cart.Items[i].Quantity = quantity
	}
	return s.save(ctx, cart, "cart.update")
}

// RemoveItem drops the item for the product. The product itself does not
// need to exist, so orphans can be removed explicitly.
func (s *Service) RemoveItem(ctx context.Context, userID uuid.UUID, rawProductID string) (*domain.CartView, error) {
	productID, err := domain.ParseID("product id", rawProductID)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(userID)
	defer unlock()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := cart.IndexOf(productID)
	if i < 0 {
		return nil, domain.ErrItemNotFound
	}
	cart.RemoveAt(i)
	return s.save(ctx, cart, "cart.remove")
}

// GetCart returns the resolved cart. A user without a cart gets an empty
// view and no record is created.
func (s *Service) GetCart(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	unlock := s.lock(userID)
	defer unlock()

	cart, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return emptyView(userID), nil
	}
	if err != nil {
		return nil, s.storeError(err, "cart.find", userID)
	}

	before := len(cart.Items)
	view, err := s.resolve(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == before {
		return view, nil
	}

	if _, err := s.carts.Update(ctx, cart); err != nil {
		return nil, s.persistError(err, "cart.sweep", userID)
	}
	return view, nil
}

// ClearCart empties the cart but keeps the record.
func (s *Service) ClearCart(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	unlock := s.lock(userID)
	defer unlock()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Items = []domain.CartItem{}
	if _, err := s.carts.Update(ctx, cart); err != nil {
		return nil, s.persistError(err, "cart.clear", userID)
	}
	view := emptyView(userID)
	view.ID = cart.ID
	return view, nil
}

func (s *Service) load(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, s.storeError(err, "cart.find", userID)
	}
	return cart, nil
}

// save resolves the cart, dropping orphans, and writes it back.
func (s *Service) save(ctx context.Context, cart *domain.Cart, op string) (*domain.CartView, error) {
	view, err := s.resolve(ctx, cart)
	if err != nil {
		return nil, err
	}
	if _, err := s.carts.Update(ctx, cart); err != nil {
		return nil, s.persistError(err, op, cart.UserID)
	}
	return view, nil
}

// resolve looks up every item's product. Items whose product is gone are
// removed from cart.Items and left out of the view; any other lookup error
// aborts.
func (s *Service) resolve(ctx context.Context, cart *domain.Cart) (*domain.CartView, error) {
	view := &domain.CartView{
		ID:         cart.ID,
		UserID:     cart.UserID,
		Items:      make([]domain.LineItem, 0, len(cart.Items)),
		TotalPrice: decimal.Zero,
	}
	kept := make([]domain.CartItem, 0, len(cart.Items))

	for _, item := range cart.Items {
		product, err := s.products.FindProduct(ctx, item.ProductID)
		if domain.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		kept = append(kept, item)

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, domain.LineItem{
			Product:  *product,
			Quantity: item.Quantity,
			Subtotal: subtotal,
		})
		view.TotalItems += item.Quantity
		view.TotalPrice = view.TotalPrice.Add(subtotal)
	}

	if swept := len(cart.Items) - len(kept); swept > 0 {
		s.metrics.OrphansSwept(swept)
		s.logger.Info("swept orphaned cart items",
			zap.String("user_id", cart.UserID.String()),
			zap.Int("count", swept),
		)
	}
	cart.Items = kept
	return view, nil
}

func (s *Service) lock(userID uuid.UUID) func() {
	if !s.serialize {
		return func() {}
	}
	mu, _ := s.locks.LoadOrCompute(userID, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	mu.Lock()
	return mu.Unlock
}

// persistError maps a cart vanishing between read and write to
// ErrCartNotFound.
func (s *Service) persistError(err error, op string, userID uuid.UUID) error {
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrCartNotFound
	}
	return s.storeError(err, op, userID)
}

func (s *Service) storeError(err error, op string, userID uuid.UUID) error {
	s.metrics.StoreFailure(op)
	s.logger.Error("cart store failure",
		zap.String("op", op),
		zap.String("user_id", userID.String()),
		zap.Error(err),
	)
	return domain.StoreFailure(err, op)
}

func emptyView(userID uuid.UUID) *domain.CartView {
	return &domain.CartView{
		UserID:     userID,
		Items:      []domain.LineItem{},
		TotalPrice: decimal.Zero,
	}
}
