package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/domain"
	"github.com/goliatone/go-storefront/store"
)

// Store implements the store contracts on top of a bun database.
type Store struct {
	db       *bun.DB
	products repository.Repository[*domain.Product]
	users    repository.Repository[*domain.User]
	now      func() time.Time
}

// New wraps db. The schema must already exist (see Migrate).
func New(db *bun.DB) *Store {
	return &Store{
		db:       db,
		products: repository.NewRepository[*domain.Product](db, productHandlers()),
		users:    repository.NewRepository[*domain.User](db, userHandlers()),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func productHandlers() repository.ModelHandlers[*domain.Product] {
	return repository.ModelHandlers[*domain.Product]{
		NewRecord: func() *domain.Product { return &domain.Product{} },
		GetID: func(p *domain.Product) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID:         func(p *domain.Product, id uuid.UUID) { p.ID = id },
		GetIdentifier: func() string { return "name" },
	}
}

func userHandlers() repository.ModelHandlers[*domain.User] {
	return repository.ModelHandlers[*domain.User]{
		NewRecord: func() *domain.User { return &domain.User{} },
		GetID: func(u *domain.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID:         func(u *domain.User, id uuid.UUID) { u.ID = id },
		GetIdentifier: func() string { return "email" },
	}
}

// DB exposes the underlying handle for lifecycle management.
func (s *Store) DB() *bun.DB { return s.db }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Products() store.ProductStore { return productStore{s} }
func (s *Store) Carts() store.CartStore       { return cartStore{s} }
func (s *Store) Users() store.UserStore       { return userStore{s} }

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case isUniqueViolation(err):
		return store.ErrDuplicate
	default:
		return err
	}
}

// isUniqueViolation matches both the sqlite3 and the pq messages.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

type productStore struct{ s *Store }

func (p productStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product := new(domain.Product)
	err := p.s.db.NewSelect().
		Model(product).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return product, nil
}

func (p productStore) Find(ctx context.Context) ([]domain.Product, error) {
	records, _, err := p.s.products.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("created_at ASC", "id ASC")
	})
	if err != nil {
		return nil, translate(err)
	}
	products := make([]domain.Product, 0, len(records))
	for _, record := range records {
		products = append(products, *record)
	}
	return products, nil
}

func (p productStore) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	record := product.Clone()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := p.s.now()
	record.CreatedAt, record.UpdatedAt = now, now
	created, err := p.s.products.Create(ctx, &record)
	if err != nil {
		return nil, translate(err)
	}
	return created, nil
}

func (p productStore) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	record := product.Clone()
	record.UpdatedAt = p.s.now()
	// explicit columns so zero values such as CountInStock 0 are written
	res, err := p.s.db.NewUpdate().
		Model(&record).
		Column("name", "description", "price", "brand", "category", "count_in_stock", "images", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, translate(err)
	}
	if err := expectRow(res); err != nil {
		return nil, err
	}
	return p.FindByID(ctx, record.ID)
}

func (p productStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := p.s.db.NewDelete().
		Model((*domain.Product)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return translate(err)
	}
	return expectRow(res)
}

// expectRow reports ErrNotFound when a statement touched nothing.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type cartStore struct{ s *Store }

func (c cartStore) FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart := new(domain.Cart)
	err := c.s.db.NewSelect().
		Model(cart).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, translate(err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}

func (c cartStore) Create(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	record := cart.Clone()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := c.s.now()
	record.CreatedAt, record.UpdatedAt = now, now
	if _, err := c.s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, translate(err)
	}
	return record, nil
}

func (c cartStore) Update(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	record := cart.Clone()
	record.UpdatedAt = c.s.now()
	res, err := c.s.db.NewUpdate().
		Model(record).
		Column("items", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, translate(err)
	}
	if err := expectRow(res); err != nil {
		return nil, err
	}
	return record, nil
}

type userStore struct{ s *Store }

func (u userStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user := new(domain.User)
	err := u.s.db.NewSelect().
		Model(user).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (u userStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := new(domain.User)
	err := u.s.db.NewSelect().
		Model(user).
		Where("?TableAlias.email = ?", strings.ToLower(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (u userStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	record := *user
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Email = strings.ToLower(record.Email)
	record.CreatedAt = u.s.now()
	created, err := u.s.users.Create(ctx, &record)
	if err != nil {
		return nil, translate(err)
	}
	return created, nil
}
