package repositories

import "fixiestore/internal/models"

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// GetByUser returns the user's cart lines with product data loaded.
	GetByUser(userID string) ([]models.CartItem, error)
	// AddOrIncrement merges the item into the cart: an existing
	// (user, product) row has its quantity incremented, otherwise a new
	// row is inserted.
	AddOrIncrement(item *models.CartItem) error
	CountByUser(userID string) (int64, error)
	ClearByUser(userID string) error
}
