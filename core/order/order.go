package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Completed  Status = "completed"
	Failed     Status = "failed"
	Refunded   Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case Pending, Processing, Completed, Failed, Refunded:
		return true
	}
	return false
}

// Item types as written by checkout. Readers classify by substring, so
// older free-text values such as "online-course" still count.
const (
	ItemCourse       = "course"
	ItemProduct      = "product"
	ItemSubscription = "subscription"
)

const (
	MethodPaypal = "paypal"
	MethodStripe = "stripe"
)

type Order struct {
	ID            string          `json:"id" db:"order_id"`
	UserID        string          `json:"userId" db:"user_id"`
	ProviderID    string          `json:"providerId" db:"provider_id"`
	PaymentMethod string          `json:"paymentMethod" db:"payment_method"`
	Status        Status          `json:"status" db:"status"`
	Total         decimal.Decimal `json:"total" db:"total"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
	Items         []Item          `json:"items" db:"-"`
}

type Item struct {
	ID        string          `json:"id" db:"item_id"`
	OrderID   string          `json:"orderId" db:"order_id"`
	RefID     string          `json:"refId" db:"ref_id"`
	Name      string          `json:"name" db:"name"`
	ItemType  string          `json:"itemType" db:"item_type"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

type StatusUp struct {
	ID        string    `db:"order_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

type AdminStatusUp struct {
	Status Status `json:"status" validate:"required,oneof=pending processing completed failed refunded"`
}

// Checkout lists what the caller wants to buy. Tier, when set, buys a
// membership upgrade.
type Checkout struct {
	CourseIDs  []string `json:"courseIds" validate:"omitempty,dive,uuid"`
	ProductIDs []string `json:"productIds" validate:"omitempty,dive,uuid"`
	Tier       string   `json:"tier" validate:"omitempty,oneof=premium ultimate"`
}

// Filter narrows order listings. Sort is "asc" or "desc" on created_at.
type Filter struct {
	UserID string `db:"user_id"`
	Status string `db:"status"`
	Search string `db:"search"`
	Sort   string `db:"-"`
}

// CompletedOnly keeps the orders whose status is completed.
func CompletedOnly(orders []Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == Completed {
			out = append(out, o)
		}
	}
	return out
}
