package services

import (
	"fmt"

	"fixiestore/internal/models"
	"fixiestore/internal/repositories"
)

// ReviewService handles business logic for product reviews.
type ReviewService struct {
	reviewRepo  repositories.ReviewRepository
	productRepo repositories.ProductRepository
}

// NewReviewService creates a new ReviewService.
func NewReviewService(reviewRepo repositories.ReviewRepository, productRepo repositories.ProductRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
	}
}

// Submit stores a review from the authenticated user. Nothing stops a user
// from reviewing the same product twice.
func (s *ReviewService) Submit(profileID string, review *models.Review) error {
	if profileID == "" {
		return ErrNotAuthenticated
	}
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", review.Rating)
	}
	if review.Comment == "" {
		return fmt.Errorf("comment is required")
	}

	if _, err := s.productRepo.GetByID(review.ProductID); err != nil {
		return err
	}

	review.ProfileID = profileID
	return s.reviewRepo.Create(review)
}

// ListByProduct returns the product's reviews, newest first.
func (s *ReviewService) ListByProduct(productID string) ([]models.Review, error) {
	return s.reviewRepo.ListByProduct(productID)
}
