package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"fixiestore/internal/payment"

	"github.com/gofiber/fiber/v2"
)

// SnapGateway is the slice of the Snap client the proxy needs.
type SnapGateway interface {
	CreateTransactionRaw(req payment.TransactionRequest) (int, []byte, error)
}

// PaymentProxyHandler reproduces the original standalone payment proxy: it
// accepts the order amount and customer info, attaches the server-side key,
// forwards the transaction-creation request to the gateway, and relays the
// gateway's JSON untouched.
type PaymentProxyHandler struct {
	gateway SnapGateway
	now     func() time.Time
}

// NewPaymentProxyHandler creates a new PaymentProxyHandler.
func NewPaymentProxyHandler(gateway SnapGateway) *PaymentProxyHandler {
	return &PaymentProxyHandler{
		gateway: gateway,
		now:     time.Now,
	}
}

// RegisterRoutes registers the proxy endpoint at the app root, outside the
// versioned API group, matching the original contract.
func (h *PaymentProxyHandler) RegisterRoutes(app fiber.Router) {
	app.Post("/api/create-transaction", h.HandleCreateTransaction)
}

// CreateTransactionRequest represents the proxy's request body.
type CreateTransactionRequest struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Amount float64 `json:"amount"`
}

// HandleCreateTransaction forwards the request to the gateway. The gateway's
// JSON comes back verbatim with HTTP 200; any failure becomes a fixed 500
// body. There is no input validation, by contract.
func (h *PaymentProxyHandler) HandleCreateTransaction(c *fiber.Ctx) error {
	var req CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error server: %v", err)
		return h.internalServerError(c)
	}

	// Order identifier synthesized from the current timestamp.
	orderID := fmt.Sprintf("order-%d", h.now().UnixMilli())

	_, body, err := h.gateway.CreateTransactionRaw(payment.TransactionRequest{
		TransactionDetails: payment.TransactionDetails{
			OrderID:     orderID,
			GrossAmount: req.Amount,
		},
		CustomerDetails: payment.CustomerDetails{
			FirstName: req.Name,
			Email:     req.Email,
		},
		ItemDetails: []payment.ItemDetail{
			{
				ID:       "fixie001",
				Price:    req.Amount,
				Quantity: 1,
				Name:     "FixieStore Order",
			},
		},
	})
	if err != nil {
		log.Printf("Error server: %v", err)
		return h.internalServerError(c)
	}
	if !json.Valid(body) {
		log.Printf("Error server: gateway returned malformed JSON")
		return h.internalServerError(c)
	}

	log.Printf("Response Midtrans: %s", body)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(body)
}

func (h *PaymentProxyHandler) internalServerError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal Server Error",
	})
}
