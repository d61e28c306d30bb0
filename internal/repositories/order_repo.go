package repositories

import "fixiestore/internal/models"

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByUser(userID string) ([]models.Order, error)
	GetAll() ([]models.Order, error)
	// GetByIdempotencyKey returns (nil, nil) when no order carries the key.
	GetByIdempotencyKey(key string) (*models.Order, error)
	SetSnapToken(id string, token string) error
	UpdateStatus(id string, status string) error
	// MarkPaidAndClearCart flips the order to paid and removes the user's
	// cart rows as one atomic unit.
	MarkPaidAndClearCart(orderID string, userID string) error
}
