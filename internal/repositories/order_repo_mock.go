package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"fixiestore/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// The transactional MarkPaidAndClearCart write pairs with a MockCartRepository
// when one is supplied.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex

	carts CartRepository
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository(carts CartRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
		carts:  carts,
	}
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.IdempotencyKey != nil {
		for _, existing := range r.orders {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *order.IdempotencyKey {
				return fmt.Errorf("order with idempotency key %s already exists", *order.IdempotencyKey)
			}
		}
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s not found", id)
	}
	return &order, nil
}

// GetByUser returns the user's orders, newest first.
func (r *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.UserID == userID {
			orderList = append(orderList, order)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// GetAll returns all orders.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// GetByIdempotencyKey returns the order carrying the key, or (nil, nil).
func (r *MockOrderRepository) GetByIdempotencyKey(key string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.IdempotencyKey != nil && *order.IdempotencyKey == key {
			return &order, nil
		}
	}
	return nil, nil
}

// SetSnapToken stores the payment token issued for the order.
func (r *MockOrderRepository) SetSnapToken(id string, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s not found for token update", id)
	}
	order.SnapToken = token
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s not found for status update", id)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// MarkPaidAndClearCart flips the order to paid and clears the user's cart.
func (r *MockOrderRepository) MarkPaidAndClearCart(orderID string, userID string) error {
	r.mu.Lock()
	order, ok := r.orders[orderID]
	if !ok || order.UserID != userID {
		r.mu.Unlock()
		return fmt.Errorf("order with ID %s not found for user %s", orderID, userID)
	}
	order.Status = models.OrderStatusPaid
	order.UpdatedAt = time.Now()
	r.orders[orderID] = order
	r.mu.Unlock()

	if r.carts != nil {
		return r.carts.ClearByUser(userID)
	}
	return nil
}
