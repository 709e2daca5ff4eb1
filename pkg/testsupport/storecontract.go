package testsupport

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-storefront/domain"
	"github.com/goliatone/go-storefront/store"
)

// Stores groups the three store views an adapter exposes.
type Stores struct {
	Products store.ProductStore
	Carts    store.CartStore
	Users    store.UserStore
}

// StoreFactory returns an empty set of stores. It is called once per subtest.
type StoreFactory func(t *testing.T) Stores

// RunStoreContract checks the behaviour every store adapter must share.
func RunStoreContract(t *testing.T, newStores StoreFactory) {
	t.Run("products", func(t *testing.T) { productContract(t, newStores) })
	t.Run("carts", func(t *testing.T) { cartContract(t, newStores) })
	t.Run("users", func(t *testing.T) { userContract(t, newStores) })
}

func productContract(t *testing.T, newStores StoreFactory) {
	ctx := context.Background()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		products := newStores(t).Products
		sample := SampleProducts(t)[0]

		created, err := products.Create(ctx, &sample)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if created.ID == uuid.Nil {
			t.Fatal("expected an id to be assigned")
		}
		if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
			t.Fatal("expected timestamps to be set")
		}
		if sample.ID != uuid.Nil {
			t.Fatal("input record must not be modified")
		}

		got, err := products.FindByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		assertSameProduct(t, *created, *got)
	})

	t.Run("find returns every product", func(t *testing.T) {
		products := newStores(t).Products
		seeded := SeedProducts(t, products)

		all, err := products.Find(ctx)
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if len(all) != len(seeded) {
			t.Fatalf("expected %d products, got %d", len(seeded), len(all))
		}
		byID := make(map[uuid.UUID]domain.Product, len(all))
		for _, p := range all {
			byID[p.ID] = p
		}
		for _, want := range seeded {
			got, ok := byID[want.ID]
			if !ok {
				t.Fatalf("product %s missing from Find", want.Name)
			}
			assertSameProduct(t, want, got)
		}
	})

	t.Run("find on empty store", func(t *testing.T) {
		all, err := newStores(t).Products.Find(ctx)
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if len(all) != 0 {
			t.Fatalf("expected no products, got %d", len(all))
		}
	})

	t.Run("update writes zero values", func(t *testing.T) {
		products := newStores(t).Products
		seeded := SeedProducts(t, products)[0]

		seeded.Name = "Widget v2"
		seeded.Price = decimal.RequireFromString("12.75")
		seeded.CountInStock = 0
		updated, err := products.Update(ctx, &seeded)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if updated.Name != "Widget v2" || updated.CountInStock != 0 {
			t.Fatalf("unexpected update result: %+v", updated)
		}

		got, err := products.FindByID(ctx, seeded.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Name != "Widget v2" || got.CountInStock != 0 || !got.Price.Equal(seeded.Price) {
			t.Fatalf("update not persisted: %+v", got)
		}
	})

	t.Run("missing product", func(t *testing.T) {
		products := newStores(t).Products
		missing := uuid.New()

		if _, err := products.FindByID(ctx, missing); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("FindByID: expected ErrNotFound, got %v", err)
		}
		ghost := SampleProducts(t)[0]
		ghost.ID = missing
		if _, err := products.Update(ctx, &ghost); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Update: expected ErrNotFound, got %v", err)
		}
		if err := products.Delete(ctx, missing); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete removes the product", func(t *testing.T) {
		products := newStores(t).Products
		seeded := SeedProducts(t, products)

		if err := products.Delete(ctx, seeded[1].ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := products.FindByID(ctx, seeded[1].ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		all, err := products.Find(ctx)
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if len(all) != len(seeded)-1 {
			t.Fatalf("expected %d products, got %d", len(seeded)-1, len(all))
		}
	})
}

func cartContract(t *testing.T, newStores StoreFactory) {
	ctx := context.Background()

	t.Run("create and find by user", func(t *testing.T) {
		carts := newStores(t).Carts
		userID := uuid.New()

		if _, err := carts.FindByUser(ctx, userID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound before create, got %v", err)
		}

		cart := domain.NewCart(userID)
		cart.Merge(uuid.New(), 2)
		created, err := carts.Create(ctx, cart)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		got, err := carts.FindByUser(ctx, userID)
		if err != nil {
			t.Fatalf("FindByUser: %v", err)
		}
		if got.ID != created.ID || len(got.Items) != 1 || got.Items[0].Quantity != 2 {
			t.Fatalf("unexpected cart: %+v", got)
		}
	})

	t.Run("empty cart has non-nil items", func(t *testing.T) {
		carts := newStores(t).Carts
		userID := uuid.New()
		if _, err := carts.Create(ctx, domain.NewCart(userID)); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := carts.FindByUser(ctx, userID)
		if err != nil {
			t.Fatalf("FindByUser: %v", err)
		}
		if got.Items == nil || len(got.Items) != 0 {
			t.Fatalf("expected empty items, got %#v", got.Items)
		}
	})

	t.Run("second cart for a user is a duplicate", func(t *testing.T) {
		carts := newStores(t).Carts
		userID := uuid.New()
		if _, err := carts.Create(ctx, domain.NewCart(userID)); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := carts.Create(ctx, domain.NewCart(userID)); !errors.Is(err, store.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("update replaces items in order", func(t *testing.T) {
		carts := newStores(t).Carts
		userID := uuid.New()
		created, err := carts.Create(ctx, domain.NewCart(userID))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		first, second := uuid.New(), uuid.New()
		created.Merge(first, 1)
		created.Merge(second, 3)
		created.Merge(first, 2)
		if _, err := carts.Update(ctx, created); err != nil {
			t.Fatalf("Update: %v", err)
		}

		got, err := carts.FindByUser(ctx, userID)
		if err != nil {
			t.Fatalf("FindByUser: %v", err)
		}
		want := []domain.CartItem{{ProductID: first, Quantity: 3}, {ProductID: second, Quantity: 3}}
		if len(got.Items) != len(want) {
			t.Fatalf("expected %d items, got %d", len(want), len(got.Items))
		}
		for i := range want {
			if got.Items[i] != want[i] {
				t.Fatalf("item %d: expected %+v, got %+v", i, want[i], got.Items[i])
			}
		}
	})

	t.Run("update of unknown cart", func(t *testing.T) {
		carts := newStores(t).Carts
		if _, err := carts.Update(ctx, domain.NewCart(uuid.New())); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func userContract(t *testing.T, newStores StoreFactory) {
	ctx := context.Background()

	newUser := func(email string) *domain.User {
		return &domain.User{
			Name:         "Ada",
			Email:        email,
			PasswordHash: "hash",
			Role:         domain.RoleCustomer,
		}
	}

	t.Run("create and find", func(t *testing.T) {
		users := newStores(t).Users
		created, err := users.Create(ctx, newUser("Ada@Example.com"))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if created.Email != "ada@example.com" {
			t.Fatalf("expected lowercased email, got %q", created.Email)
		}

		byID, err := users.FindByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if byID.Email != created.Email || byID.Role != domain.RoleCustomer {
			t.Fatalf("unexpected user: %+v", byID)
		}

		byEmail, err := users.FindByEmail(ctx, "ADA@example.com")
		if err != nil {
			t.Fatalf("FindByEmail: %v", err)
		}
		if byEmail.ID != created.ID {
			t.Fatalf("expected %s, got %s", created.ID, byEmail.ID)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		users := newStores(t).Users
		if _, err := users.Create(ctx, newUser("ada@example.com")); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := users.Create(ctx, newUser("ADA@example.com")); !errors.Is(err, store.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		users := newStores(t).Users
		if _, err := users.FindByID(ctx, uuid.New()); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("FindByID: expected ErrNotFound, got %v", err)
		}
		if _, err := users.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("FindByEmail: expected ErrNotFound, got %v", err)
		}
	})
}

func assertSameProduct(t *testing.T, want, got domain.Product) {
	t.Helper()

	if got.ID != want.ID || got.Name != want.Name || got.Description != want.Description ||
		got.Brand != want.Brand || got.Category != want.Category || got.CountInStock != want.CountInStock {
		t.Fatalf("product mismatch:\nwant %+v\ngot  %+v", want, got)
	}
	if !got.Price.Equal(want.Price) {
		t.Fatalf("price mismatch: want %s, got %s", want.Price, got.Price)
	}
	if len(got.Images) != len(want.Images) {
		t.Fatalf("images mismatch: want %v, got %v", want.Images, got.Images)
	}
	for i := range want.Images {
		if got.Images[i] != want.Images[i] {
			t.Fatalf("images mismatch: want %v, got %v", want.Images, got.Images)
		}
	}
}
