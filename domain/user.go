package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is an account able to own a cart. Email is unique.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u" json:"-"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	Phone        string    `bun:"phone" json:"phone,omitempty"`
	Role         string    `bun:"role,notnull" json:"userType"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// IsAdmin reports whether the user may mutate the catalog.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
