package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-storefront/catalog"
)

//go:embed seed.json
var seedProducts []byte

// seedCatalog creates the bundled products when the catalog is empty and
// returns how many were created.
func seedCatalog(ctx context.Context, svc *catalog.Service, logger *zap.Logger) (int, error) {
	existing, err := svc.ListProducts(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		logger.Info("catalog already populated, skipping seed", zap.Int("products", len(existing)))
		return 0, nil
	}

	var inputs []catalog.ProductInput
	if err := json.Unmarshal(seedProducts, &inputs); err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}

	for i, in := range inputs {
		if _, err := svc.CreateProduct(ctx, in); err != nil {
			return i, fmt.Errorf("seed product %d: %w", i, err)
		}
	}
	logger.Info("catalog seeded", zap.Int("products", len(inputs)))
	return len(inputs), nil
}
