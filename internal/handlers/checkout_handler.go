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

// CheckoutHandler handles HTTP requests for the order-and-pay flow.
type CheckoutHandler struct {
	service  *services.CheckoutService
	validate *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the checkout and order routes. All require auth.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)
	router.Post("/checkout/:id/payment", h.HandlePaymentResult)
	router.Get("/orders", h.HandleGetOrders)
}

// RegisterAdminRoutes registers the admin order listing.
func (h *CheckoutHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/orders", h.HandleGetAllOrders)
}

// CheckoutRequestBody represents the request body for placing an order.
type CheckoutRequestBody struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	PaymentMethod  string `json:"payment_method" validate:"required,oneof=transfer ewallet"`
	ShippingMethod string `json:"shipping_method" validate:"required"`
	IdempotencyKey string `json:"idempotency_key" validate:"omitempty,max=64"`
}

// HandleCheckout places an order for the authenticated user's cart and
// returns the pending order together with its Snap token.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequestBody
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

	result, err := h.service.Checkout(middleware.UserID(c), services.CheckoutRequest{
		Name:           req.Name,
		Email:          req.Email,
		PaymentMethod:  req.PaymentMethod,
		ShippingMethod: req.ShippingMethod,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		log.Printf("Error during checkout: %v", err)
		switch {
		case errors.Is(err, services.ErrNotAuthenticated):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		case errors.Is(err, services.ErrEmptyCart):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Cannot place an order with an empty cart",
			})
		case errors.Is(err, services.ErrUnknownShippingMethod):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Unknown shipping method",
				"error":   err.Error(),
			})
		case errors.Is(err, services.ErrSnapTokenRequest):
			// The pending order is left behind on purpose.
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "Failed to request payment token",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not place order",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// PaymentResultRequest represents the payment widget outcome reported back
// by the client.
type PaymentResultRequest struct {
	Result string `json:"result" validate:"required,oneof=success pending error close"`
}

// HandlePaymentResult applies the payment widget's callback outcome to the
// order. Only success mutates: the order becomes paid and the cart is
// cleared atomically.
func (h *CheckoutHandler) HandlePaymentResult(c *fiber.Ctx) error {
	orderID := c.Params("id")

	var req PaymentResultRequest
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

	if err := h.service.ResolvePayment(middleware.UserID(c), orderID, req.Result); err != nil {
		log.Printf("Error resolving payment for order %s: %v", orderID, err)
		switch {
		case errors.Is(err, services.ErrNotAuthenticated):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		case strings.Contains(err.Error(), "not found"):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not resolve payment",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Payment result recorded",
		"result":  req.Result,
	})
}

// HandleGetOrders returns the authenticated user's order history.
func (h *CheckoutHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.OrdersForUser(middleware.UserID(c))
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		if errors.Is(err, services.ErrNotAuthenticated) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetAllOrders returns every order for the admin view.
func (h *CheckoutHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.AllOrders()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}
