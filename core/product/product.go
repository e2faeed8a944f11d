package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a shop item. Inactive products stay visible to admins but
// cannot be checked out.
type Product struct {
	ID          string          `json:"id" db:"product_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	ImageURL    string          `json:"imageUrl" db:"image_url"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Active      bool            `json:"active" db:"active"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
	Version     int             `json:"-" db:"version"`
}

type ProductNew struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"gte=0,lte=10000"`
	ImageURL    string          `json:"imageUrl" validate:"required"`
	Active      *bool           `json:"active"`
}

type ProductUp struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0,lte=10000"`
	ImageURL    *string          `json:"imageUrl"`
	Active      *bool            `json:"active"`
}

type Filter struct {
	Search     string `db:"search"`
	ActiveOnly bool   `db:"active_only"`
}
