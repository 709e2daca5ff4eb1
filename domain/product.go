package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// PlaceholderImageBase is used to build an image reference for products
// created without one.
const PlaceholderImageBase = "https://via.placeholder.com/300x300?text="

// Product is a catalog entry. ID is assigned on create and never changes.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p" json:"-" msgpack:"-"`

	ID           uuid.UUID       `bun:"id,pk,type:uuid" json:"id" msgpack:"id"`
	Name         string          `bun:"name,notnull" json:"name" msgpack:"name"`
	Description  string          `bun:"description,notnull" json:"description" msgpack:"description"`
	Price        decimal.Decimal `bun:"price,type:numeric,notnull" json:"price" msgpack:"price"`
	Brand        string          `bun:"brand,notnull" json:"brand" msgpack:"brand"`
	Category     string          `bun:"category,notnull" json:"category" msgpack:"category"`
	CountInStock int             `bun:"count_in_stock,notnull" json:"countInStock" msgpack:"count_in_stock"`
	Images       []string        `bun:"images" json:"images" msgpack:"images"`
	CreatedAt    time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt" msgpack:"created_at"`
	UpdatedAt    time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt" msgpack:"updated_at"`
}

// PlaceholderImage returns the generated image reference for a product name.
// Spaces are encoded as %20.
func PlaceholderImage(name string) string {
	return PlaceholderImageBase + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	out := p
	if p.Images != nil {
		out.Images = append([]string(nil), p.Images...)
	}
	return out
}
