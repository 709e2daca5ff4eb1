package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// MaxItemQuantity bounds the quantity held by a single cart item.
const MaxItemQuantity = 1_000_000

// CartItem is a weak reference to a product. Quantity is always positive
// while the item is stored.
type CartItem struct {
	ProductID uuid.UUID `json:"product"`
	Quantity  int       `json:"quantity"`
}

// Cart is the single cart owned by a user. Items keep insertion order and
// hold at most one entry per product.
type Cart struct {
	bun.BaseModel `bun:"table:carts,alias:c" json:"-"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	UserID    uuid.UUID  `bun:"user_id,notnull,unique,type:uuid" json:"user"`
	Items     []CartItem `bun:"items" json:"items"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// NewCart returns an empty cart for userID with a fresh id.
func NewCart(userID uuid.UUID) *Cart {
	return &Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items:  []CartItem{},
	}
}

// IndexOf returns the position of the item for productID, or -1.
func (c *Cart) IndexOf(productID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Merge adds quantity to the existing item for productID or appends a new one.
// A result above MaxItemQuantity leaves the cart unchanged and returns
// ErrQuantityLimit.
func (c *Cart) Merge(productID uuid.UUID, quantity int) error {
	i := c.IndexOf(productID)
	existing := 0
	if i >= 0 {
		existing = c.Items[i].Quantity
	}
	if quantity > MaxItemQuantity-existing {
		return ErrQuantityLimit
	}
	if i >= 0 {
		c.Items[i].Quantity += quantity
		return nil
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

// RemoveAt drops the item at index i, keeping the order of the rest.
func (c *Cart) RemoveAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = append([]CartItem{}, c.Items...)
	return &out
}

// LineItem is a cart item resolved against its product.
type LineItem struct {
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartView is the computed representation returned to callers. Orphaned
// items never appear in it.
type CartView struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user"`
	Items      []LineItem      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}
