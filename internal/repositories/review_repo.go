package repositories

import "fixiestore/internal/models"

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(review *models.Review) error
	// ListByProduct returns the product's reviews, newest first.
	ListByProduct(productID string) ([]models.Review, error)
}
