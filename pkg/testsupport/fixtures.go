// Package testsupport holds helpers shared by the test suites: fixture
// loading, a sample catalog, and a contract suite every store adapter runs.
package testsupport

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-storefront/domain"
	"github.com/goliatone/go-storefront/store"
)

//go:embed testdata/products.json
var sampleProducts []byte

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	decodeJSON(t, path, LoadFixture(t, path), dest)
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// SampleProducts returns the bundled sample catalog. Records carry no ids
// or timestamps; every call returns fresh copies.
func SampleProducts(t testing.TB) []domain.Product {
	t.Helper()

	var products []domain.Product
	decodeJSON(t, "testdata/products.json", sampleProducts, &products)
	return products
}

// SeedProducts writes the sample catalog to products and returns the
// stored records in fixture order.
func SeedProducts(t testing.TB, products store.ProductStore) []domain.Product {
	t.Helper()

	samples := SampleProducts(t)
	out := make([]domain.Product, 0, len(samples))
	for i := range samples {
		created, err := products.Create(context.Background(), &samples[i])
		if err != nil {
			t.Fatalf("failed to seed product %q: %v", samples[i].Name, err)
		}
		out = append(out, *created)
	}
	return out
}

func decodeJSON(t testing.TB, name string, data []byte, dest any) {
	t.Helper()

	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", name, err)
	}
}
