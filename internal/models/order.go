package models

import "time"

// Order statuses. An order is created pending and becomes paid only on a
// successful payment callback; abandoned attempts stay pending.
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

// Shipping methods and their flat surcharges in rupiah.
const (
	ShippingRegular = "regular"
	ShippingExpress = "express"

	ExpressShippingCost = 25000
)

// ShippingCost returns the surcharge for a shipping method, or false for an
// unknown method.
func ShippingCost(method string) (float64, bool) {
	switch method {
	case ShippingRegular:
		return 0, true
	case ShippingExpress:
		return ExpressShippingCost, true
	}
	return 0, false
}

// Order represents a checkout attempt. TotalPrice is fixed at creation time
// and never recomputed from the cart afterwards. IdempotencyKey carries the
// client's per-attempt key; its unique index makes replayed submissions
// return the already-created order. Nil when the client sent no key, so
// keyless orders do not collide on the index.
type Order struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	TotalPrice     float64   `json:"total_price"`
	Status         string    `json:"status" gorm:"type:varchar(20);default:'pending'"`
	PaymentMethod  string    `json:"payment_method" gorm:"type:varchar(50)"`
	ShippingMethod string    `json:"shipping_method" gorm:"type:varchar(50)"`
	SnapToken      string    `json:"snap_token,omitempty" gorm:"type:varchar(255)"`
	IdempotencyKey *string   `json:"-" gorm:"uniqueIndex;type:varchar(64)"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
