package handlers

import (
	"errors"
	"log"
	"strings"

	"fixiestore/internal/middleware"
	"fixiestore/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes. All of them require auth.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Get("/count", h.HandleGetCount)
	cartRoutes.Post("/items", h.HandleAddItem)
}

// AddItemRequest represents the request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1"`
}

// HandleAddItem adds a product to the authenticated user's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
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
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.service.AddItem(middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error adding product %s to cart: %v", req.ProductID, err)
		switch {
		case errors.Is(err, services.ErrNotAuthenticated):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		case errors.Is(err, services.ErrOutOfStock):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Product is out of stock",
			})
		case strings.Contains(err.Error(), "not found"):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not add product to cart",
			"error":   err.Error(),
		})
	}

	count, err := h.service.Count(middleware.UserID(c))
	if err != nil {
		log.Printf("Error refreshing cart count: %v", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Product added to cart",
		"item":       item,
		"cart_count": count,
	})
}

// HandleGetCart returns the authenticated user's cart lines.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	items, err := h.service.Items(middleware.UserID(c))
	if err != nil {
		log.Printf("Error getting cart: %v", err)
		if errors.Is(err, services.ErrNotAuthenticated) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(items)
}

// HandleGetCount returns the cart-count badge value.
func (h *CartHandler) HandleGetCount(c *fiber.Ctx) error {
	count, err := h.service.Count(middleware.UserID(c))
	if err != nil {
		log.Printf("Error counting cart items: %v", err)
		if errors.Is(err, services.ErrNotAuthenticated) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not count cart items",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"count": count,
	})
}
