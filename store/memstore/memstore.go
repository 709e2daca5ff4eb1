// Package memstore is an in-process store adapter backed by concurrent maps.
// It is used for development and tests; records are copied on the way in
// and out so callers never share memory with the store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-storefront/domain"
	"github.com/goliatone/go-storefront/store"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// Store implements store.ProductStore, store.CartStore and store.UserStore.
type Store struct {
	products *xsync.MapOf[uuid.UUID, domain.Product]
	carts    *xsync.MapOf[uuid.UUID, domain.Cart]
	users    *xsync.MapOf[uuid.UUID, domain.User]
	emails   *xsync.MapOf[string, uuid.UUID]
	now      func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		products: xsync.NewMapOf[uuid.UUID, domain.Product](),
		carts:    xsync.NewMapOf[uuid.UUID, domain.Cart](),
		users:    xsync.NewMapOf[uuid.UUID, domain.User](),
		emails:   xsync.NewMapOf[string, uuid.UUID](),
		now:      time.Now,
	}
}

// Products returns the product view of the store.
func (s *Store) Products() store.ProductStore { return productStore{s} }

// Carts returns the cart view of the store.
func (s *Store) Carts() store.CartStore { return cartStore{s} }

// Users returns the user view of the store.
func (s *Store) Users() store.UserStore { return userStore{s} }

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

type productStore struct{ s *Store }

func (p productStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	product, ok := p.s.products.Load(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	out := product.Clone()
	return &out, nil
}

func (p productStore) Find(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, p.s.products.Size())
	p.s.products.Range(func(_ uuid.UUID, product domain.Product) bool {
		products = append(products, product.Clone())
		return true
	})
	sort.Slice(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID.String() < products[j].ID.String()
		}
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
	return products, nil
}

func (p productStore) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record := product.Clone()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := p.s.now()
	record.CreatedAt, record.UpdatedAt = now, now
	if _, loaded := p.s.products.LoadOrStore(record.ID, record); loaded {
		return nil, store.ErrDuplicate
	}
	out := record.Clone()
	return &out, nil
}

func (p productStore) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record := product.Clone()
	record.UpdatedAt = p.s.now()
	found := false
	p.s.products.Compute(record.ID, func(old domain.Product, loaded bool) (domain.Product, bool) {
		if !loaded {
			return old, true
		}
		found = true
		record.CreatedAt = old.CreatedAt
		return record, false
	})
	if !found {
		return nil, store.ErrNotFound
	}
	out := record.Clone()
	return &out, nil
}

func (p productStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, loaded := p.s.products.LoadAndDelete(id); !loaded {
		return store.ErrNotFound
	}
	return nil
}

type cartStore struct{ s *Store }

func (c cartStore) FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cart, ok := c.s.carts.Load(userID)
	if !ok {
		return nil, store.ErrNotFound
	}
	return cart.Clone(), nil
}

func (c cartStore) Create(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record := cart.Clone()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := c.s.now()
	record.CreatedAt, record.UpdatedAt = now, now
	if _, loaded := c.s.carts.LoadOrStore(record.UserID, *record); loaded {
		return nil, store.ErrDuplicate
	}
	return record.Clone(), nil
}

func (c cartStore) Update(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record := cart.Clone()
	record.UpdatedAt = c.s.now()
	found := false
	c.s.carts.Compute(record.UserID, func(old domain.Cart, loaded bool) (domain.Cart, bool) {
		if !loaded || old.ID != record.ID {
			return old, !loaded
		}
		found = true
		record.CreatedAt = old.CreatedAt
		return *record, false
	})
	if !found {
		return nil, store.ErrNotFound
	}
	return record.Clone(), nil
}

type userStore struct{ s *Store }

func (u userStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, ok := u.s.users.Load(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (u userStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, ok := u.s.emails.Load(strings.ToLower(email))
	if !ok {
		return nil, store.ErrNotFound
	}
	return u.FindByID(ctx, id)
}

func (u userStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record := *user
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Email = strings.ToLower(record.Email)
	record.CreatedAt = u.s.now()
	if _, loaded := u.s.emails.LoadOrStore(record.Email, record.ID); loaded {
		return nil, store.ErrDuplicate
	}
	u.s.users.Store(record.ID, record)
	return &record, nil
}
