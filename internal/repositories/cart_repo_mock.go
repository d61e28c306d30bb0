package repositories

import (
	"sync"
	"time"

	"fixiestore/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	items map[string]models.CartItem
	mu    sync.RWMutex

	// products, when set, is consulted to fill CartItem.Product on reads
	// the way the GORM implementation preloads it.
	products ProductRepository
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository(products ProductRepository) *MockCartRepository {
	return &MockCartRepository{
		items:    make(map[string]models.CartItem),
		products: products,
	}
}

// GetByUser returns the user's cart lines.
func (r *MockCartRepository) GetByUser(userID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	itemList := make([]models.CartItem, 0)
	for _, item := range r.items {
		if item.UserID != userID {
			continue
		}
		if r.products != nil {
			if product, err := r.products.GetByID(item.ProductID); err == nil {
				item.Product = product
			}
		}
		itemList = append(itemList, item)
	}
	return itemList, nil
}

// AddOrIncrement merges the item into the cart.
func (r *MockCartRepository) AddOrIncrement(item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.items {
		if existing.UserID == item.UserID && existing.ProductID == item.ProductID {
			existing.Quantity += item.Quantity
			existing.UpdatedAt = time.Now()
			r.items[id] = existing
			*item = existing
			return nil
		}
	}

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	r.items[item.ID] = *item
	return nil
}

// CountByUser returns the number of cart rows belonging to the user.
func (r *MockCartRepository) CountByUser(userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, item := range r.items {
		if item.UserID == userID {
			count++
		}
	}
	return count, nil
}

// ClearByUser deletes all cart rows belonging to the user.
func (r *MockCartRepository) ClearByUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}
