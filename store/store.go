// Package store defines the persistence contracts consumed by the catalog,
// cart and identity services.
//
// Adapters are plain CRUD: no caching and no business rules. Every call is
// strongly consistent for the single record it touches and nothing spans
// more than one record. A missing record is reported as ErrNotFound; any
// other error is a store failure the caller must surface.
package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-storefront/domain"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("store: duplicate record")
)

// ProductStore persists catalog products.
type ProductStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Find(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CartStore persists carts. Items are written as part of the cart record.
type CartStore interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	Create(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
	Update(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
}

// UserStore persists accounts.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
