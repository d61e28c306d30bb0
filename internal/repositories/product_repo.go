package repositories

import "fixiestore/internal/models"

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// List returns products newest first, optionally filtered by category.
	// An empty categoryID means no filter.
	List(categoryID string) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
