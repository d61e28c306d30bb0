package handlers

import (
	"errors"
	"log"
	"strings"

	"fixiestore/internal/middleware"
	"fixiestore/internal/models"
	"fixiestore/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service  *services.ReviewService
	validate *validator.Validate
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes registers the read-only review listing.
func (h *ReviewHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Get("/products/:id/reviews", h.HandleListReviews)
}

// RegisterProtectedRoutes registers review submission, which requires auth.
func (h *ReviewHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/products/:id/reviews", h.HandleSubmitReview)
}

// HandleListReviews returns a product's reviews, newest first.
func (h *ReviewHandler) HandleListReviews(c *fiber.Ctx) error {
	productID := c.Params("id")
	reviews, err := h.service.ListByProduct(productID)
	if err != nil {
		log.Printf("Error listing reviews for product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve reviews",
			"error":   err.Error(),
		})
	}
	return c.JSON(reviews)
}

// SubmitReviewRequest represents the request body for posting a review.
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// HandleSubmitReview stores a review from the authenticated user.
func (h *ReviewHandler) HandleSubmitReview(c *fiber.Ctx) error {
	var req SubmitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErrorMap(err),
		})
	}

	review := &models.Review{
		ProductID: c.Params("id"),
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.service.Submit(middleware.UserID(c), review); err != nil {
		log.Printf("Error submitting review for product %s: %v", review.ProductID, err)
		switch {
		case errors.Is(err, services.ErrNotAuthenticated):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		case strings.Contains(err.Error(), "not found"):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not submit review",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(review)
}
