package services

import (
	"fmt"
	"strings"

	"fixiestore/internal/models"
	"fixiestore/internal/repositories"
)

// CatalogService handles business logic for categories and products.
type CatalogService struct {
	productRepo  repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(productRepo repositories.ProductRepository, categoryRepo repositories.CategoryRepository) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// ListCategories retrieves all categories.
func (s *CatalogService) ListCategories() ([]models.Category, error) {
	return s.categoryRepo.GetAll()
}

// GetCategory retrieves a single category by its ID.
func (s *CatalogService) GetCategory(id string) (*models.Category, error) {
	return s.categoryRepo.GetByID(id)
}

// CreateCategory creates a new category, deriving the slug from the name
// when none is given.
func (s *CatalogService) CreateCategory(category *models.Category) error {
	if category.Slug == "" {
		category.Slug = Slugify(category.Name)
	}
	return s.categoryRepo.Create(category)
}

// UpdateCategory updates an existing category.
func (s *CatalogService) UpdateCategory(category *models.Category) error {
	return s.categoryRepo.Update(category)
}

// DeleteCategory deletes a category by its ID. Fails while products still
// reference it.
func (s *CatalogService) DeleteCategory(id string) error {
	return s.categoryRepo.Delete(id)
}

// ListProducts retrieves products, optionally filtered by category and by a
// case-insensitive substring match over name and brand.
func (s *CatalogService) ListProducts(categoryID, query string) ([]models.Product, error) {
	products, err := s.productRepo.List(categoryID)
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, query), nil
}

// GetProduct retrieves a single product by its ID.
func (s *CatalogService) GetProduct(id string) (*models.Product, error) {
	return s.productRepo.GetByID(id)
}

// CreateProduct creates a new product after checking its category exists.
func (s *CatalogService) CreateProduct(product *models.Product) error {
	if product.CategoryID != nil && *product.CategoryID != "" {
		if _, err := s.categoryRepo.GetByID(*product.CategoryID); err != nil {
			return fmt.Errorf("invalid category: %w", err)
		}
	}
	return s.productRepo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *CatalogService) UpdateProduct(product *models.Product) error {
	if product.CategoryID != nil && *product.CategoryID != "" {
		if _, err := s.categoryRepo.GetByID(*product.CategoryID); err != nil {
			return fmt.Errorf("invalid category: %w", err)
		}
	}
	return s.productRepo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *CatalogService) DeleteProduct(id string) error {
	return s.productRepo.Delete(id)
}

// FilterProducts returns the products whose name or brand contains the
// query, case-insensitively. An empty query matches everything.
func FilterProducts(products []models.Product, query string) []models.Product {
	if query == "" {
		return products
	}
	query = strings.ToLower(query)
	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Brand), query) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Slugify lowercases the name and replaces whitespace runs with dashes.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
