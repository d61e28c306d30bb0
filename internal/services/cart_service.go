package services

import (
	"errors"
	"fmt"

	"fixiestore/internal/models"
	"fixiestore/internal/repositories"
)

// ErrOutOfStock is returned when a zero-stock product is added to a cart.
var ErrOutOfStock = errors.New("product is out of stock")

// CartService handles business logic for the shopping cart.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// AddItem adds a product to the user's cart. An existing (user, product)
// row has its quantity incremented instead of a duplicate row appearing.
func (s *CartService) AddItem(userID, productID string, quantity int) (*models.CartItem, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if !product.InStock() {
		return nil, ErrOutOfStock
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.cartRepo.AddOrIncrement(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Items returns the user's cart lines with product data loaded.
func (s *CartService) Items(userID string) ([]models.CartItem, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.cartRepo.GetByUser(userID)
}

// Count returns the cart-count badge value: the number of cart rows
// belonging to the user.
func (s *CartService) Count(userID string) (int64, error) {
	if userID == "" {
		return 0, ErrNotAuthenticated
	}
	return s.cartRepo.CountByUser(userID)
}
