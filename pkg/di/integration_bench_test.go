package di

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-storefront/cache"
	"github.com/goliatone/go-storefront/config"
	"github.com/goliatone/go-storefront/domain"
)

func TestConcurrentCartAdds_Serialized(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig()
	cfg.Cart.SerializedWrites = true
	container := newTestContainer(t, cfg)

	product, err := container.Catalog().CreateProduct(ctx, widgetInput())
	if err != nil {
		t.Fatalf("CreateProduct() failed: %v", err)
	}

	const numGoroutines = 25
	userID := uuid.New()

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := container.Carts().AddItem(ctx, userID, product.ID.String(), 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("AddItem() failed: %v", err)
	}

	view, err := container.Carts().GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("GetCart() failed: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != numGoroutines {
		t.Fatalf("expected one item with quantity %d, got %+v", numGoroutines, view.Items)
	}
}

func TestConcurrentProductReads(t *testing.T) {
	ctx := context.Background()
	container := newTestContainer(t, testConfig())

	product, err := container.Catalog().CreateProduct(ctx, widgetInput())
	if err != nil {
		t.Fatalf("CreateProduct() failed: %v", err)
	}

	const numGoroutines = 50
	const readsPerGoroutine = 20

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines*readsPerGoroutine)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < readsPerGoroutine; j++ {
				got, err := container.Catalog().FindProduct(ctx, product.ID)
				if err != nil {
					errs <- err
					continue
				}
				if got.ID != product.ID {
					errs <- domain.ErrProductNotFound
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent read failed: %v", err)
	}
}

func benchmarkProductRead(b *testing.B, backend string) {
	ctx := context.Background()
	cfg := sqliteConfig()
	cfg.Cache.Backend = backend
	container := newTestContainer(b, cfg)

	product, err := container.Catalog().CreateProduct(ctx, widgetInput())
	if err != nil {
		b.Fatalf("CreateProduct() failed: %v", err)
	}
	if _, err := container.Catalog().FindProduct(ctx, product.ID); err != nil {
		b.Fatalf("warm-up read failed: %v", err)
	}
	container.Cache().Flush()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := container.Catalog().FindProduct(ctx, product.ID); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkProductRead_MemoryCache(b *testing.B) {
	benchmarkProductRead(b, cache.BackendMemory)
}

func BenchmarkProductRead_NoCache(b *testing.B) {
	benchmarkProductRead(b, cache.BackendNone)
}

func BenchmarkCartAdd(b *testing.B) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Store.Driver = config.DriverMemory
	container := newTestContainer(b, cfg)

	product, err := container.Catalog().CreateProduct(ctx, widgetInput())
	if err != nil {
		b.Fatalf("CreateProduct() failed: %v", err)
	}
	userID := uuid.New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := container.Carts().AddItem(ctx, userID, product.ID.String(), 1); err != nil {
			b.Fatal(err)
		}
	}
}
