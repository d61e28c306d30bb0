package services

import (
	"errors"
	"fmt"
	"log"

	"fixiestore/internal/models"
	"fixiestore/internal/payment"
	"fixiestore/internal/repositories"
)

// Checkout precondition and failure errors.
var (
	ErrNotAuthenticated      = errors.New("authentication required")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrUnknownShippingMethod = errors.New("unknown shipping method")
	ErrSnapTokenRequest      = errors.New("failed to request snap token")
)

// Payment widget outcomes reported back by the client.
const (
	PaymentResultSuccess = "success"
	PaymentResultPending = "pending"
	PaymentResultError   = "error"
	PaymentResultClose   = "close"
)

// SnapTokenRequester requests a payment token from the gateway.
type SnapTokenRequester interface {
	CreateTransaction(req payment.TransactionRequest) (string, error)
}

// OrderEventPublisher publishes order lifecycle events. Publishing is
// best-effort; failures never fail the checkout itself.
type OrderEventPublisher interface {
	PublishOrderCreated(event map[string]interface{}) error
	PublishOrderPaid(event map[string]interface{}) error
}

// CheckoutRequest carries the user-selected checkout options.
type CheckoutRequest struct {
	Name           string
	Email          string
	PaymentMethod  string
	ShippingMethod string
	IdempotencyKey string
}

// CheckoutResult is the outcome of a successful checkout: a pending order
// and the Snap token the client hands to the payment widget.
type CheckoutResult struct {
	Order        *models.Order `json:"order"`
	SnapToken    string        `json:"snap_token"`
	Subtotal     float64       `json:"subtotal"`
	ShippingCost float64       `json:"shipping_cost"`
}

// CheckoutService drives the order-and-pay sequence: load cart, compute the
// total, insert a pending order, request a Snap token, and later resolve the
// widget outcome.
type CheckoutService struct {
	cartRepo  repositories.CartRepository
	orderRepo repositories.OrderRepository
	snap      SnapTokenRequester
	events    OrderEventPublisher
}

// NewCheckoutService creates a new CheckoutService. events may be nil.
func NewCheckoutService(cartRepo repositories.CartRepository, orderRepo repositories.OrderRepository, snap SnapTokenRequester, events OrderEventPublisher) *CheckoutService {
	return &CheckoutService{
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		snap:      snap,
		events:    events,
	}
}

// Totals computes the cart subtotal and the shipping surcharge for the
// selected method.
func Totals(items []models.CartItem, shippingMethod string) (subtotal, shipping, total float64, err error) {
	for _, item := range items {
		if item.Product == nil {
			return 0, 0, 0, fmt.Errorf("cart item %s has no product loaded", item.ID)
		}
		subtotal += item.Product.Price * float64(item.Quantity)
	}
	shipping, ok := models.ShippingCost(shippingMethod)
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %s", ErrUnknownShippingMethod, shippingMethod)
	}
	return subtotal, shipping, subtotal + shipping, nil
}

// Checkout runs the place-order sequence for the authenticated user. The
// order's total is fixed here, before the token request, and is never
// recomputed from the cart afterwards. A token-request failure leaves the
// pending order in place.
func (s *CheckoutService) Checkout(userID string, req CheckoutRequest) (*CheckoutResult, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	// A replayed idempotency key resumes the already-created order rather
	// than inserting a second one.
	if req.IdempotencyKey != "" {
		existing, err := s.orderRepo.GetByIdempotencyKey(req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.UserID != userID {
				return nil, fmt.Errorf("idempotency key already used by another user")
			}
			return s.resumeCheckout(existing, req)
		}
	}

	items, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal, shipping, total, err := Totals(items, req.ShippingMethod)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:         userID,
		TotalPrice:     total,
		Status:         models.OrderStatusPending,
		PaymentMethod:  req.PaymentMethod,
		ShippingMethod: req.ShippingMethod,
	}
	if req.IdempotencyKey != "" {
		order.IdempotencyKey = &req.IdempotencyKey
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	token, err := s.snap.CreateTransaction(buildTransactionRequest(order, req, items))
	if err != nil {
		// The pending order stays behind; the attempt can be retried with
		// a fresh checkout.
		return nil, fmt.Errorf("%w: %v", ErrSnapTokenRequest, err)
	}

	order.SnapToken = token
	if err := s.orderRepo.SetSnapToken(order.ID, token); err != nil {
		log.Printf("Warning: failed to store snap token for order %s: %v", order.ID, err)
	}

	s.publishOrderCreated(order)

	return &CheckoutResult{
		Order:        order,
		SnapToken:    token,
		Subtotal:     subtotal,
		ShippingCost: shipping,
	}, nil
}

// resumeCheckout finishes a replayed checkout attempt. An order stranded
// without a token by an earlier gateway failure gets a fresh token request
// against the same order ID and stored total; an order that already holds a
// token is returned as-is, without touching the gateway.
func (s *CheckoutService) resumeCheckout(order *models.Order, req CheckoutRequest) (*CheckoutResult, error) {
	if order.SnapToken == "" {
		items, err := s.cartRepo.GetByUser(order.UserID)
		if err != nil {
			return nil, err
		}

		token, err := s.snap.CreateTransaction(buildTransactionRequest(order, req, items))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSnapTokenRequest, err)
		}

		order.SnapToken = token
		if err := s.orderRepo.SetSnapToken(order.ID, token); err != nil {
			log.Printf("Warning: failed to store snap token for order %s: %v", order.ID, err)
		}
		s.publishOrderCreated(order)
	}

	shipping, _ := models.ShippingCost(order.ShippingMethod)
	return &CheckoutResult{
		Order:        order,
		SnapToken:    order.SnapToken,
		Subtotal:     order.TotalPrice - shipping,
		ShippingCost: shipping,
	}, nil
}

// ResolvePayment applies the payment widget's outcome to the order. Only a
// success mutates state: the order becomes paid and the cart is cleared in
// one transaction. Pending, error and close leave everything untouched.
func (s *CheckoutService) ResolvePayment(userID, orderID, result string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return fmt.Errorf("order with ID %s not found", orderID)
	}

	switch result {
	case PaymentResultSuccess:
		if err := s.orderRepo.MarkPaidAndClearCart(orderID, userID); err != nil {
			return err
		}
		s.publishOrderPaid(order)
		return nil
	case PaymentResultPending, PaymentResultError, PaymentResultClose:
		return nil
	default:
		return fmt.Errorf("unknown payment result: %s", result)
	}
}

// OrdersForUser returns the user's order history, newest first.
func (s *CheckoutService) OrdersForUser(userID string) ([]models.Order, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.orderRepo.GetByUser(userID)
}

// AllOrders returns every order for the admin view. Abandoned checkouts show
// up here as permanently pending orders.
func (s *CheckoutService) AllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

func buildTransactionRequest(order *models.Order, req CheckoutRequest, items []models.CartItem) payment.TransactionRequest {
	itemDetails := make([]payment.ItemDetail, 0, len(items)+1)
	for _, item := range items {
		itemDetails = append(itemDetails, payment.ItemDetail{
			ID:       item.ProductID,
			Price:    item.Product.Price,
			Quantity: item.Quantity,
			Name:     item.Product.Name,
		})
	}
	if shipping, ok := models.ShippingCost(order.ShippingMethod); ok && shipping > 0 {
		itemDetails = append(itemDetails, payment.ItemDetail{
			ID:       "shipping-" + order.ShippingMethod,
			Price:    shipping,
			Quantity: 1,
			Name:     "Express Shipping",
		})
	}

	return payment.TransactionRequest{
		TransactionDetails: payment.TransactionDetails{
			// The order UUID makes every attempt unique at the gateway.
			OrderID:     order.ID,
			GrossAmount: order.TotalPrice,
		},
		CustomerDetails: payment.CustomerDetails{
			FirstName: req.Name,
			Email:     req.Email,
		},
		ItemDetails: itemDetails,
	}
}

func (s *CheckoutService) publishOrderCreated(order *models.Order) {
	if s.events == nil {
		return
	}
	err := s.events.PublishOrderCreated(map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
		"total":    order.TotalPrice,
	})
	if err != nil {
		log.Printf("Warning: failed to publish order created event for order %s: %v", order.ID, err)
	}
}

func (s *CheckoutService) publishOrderPaid(order *models.Order) {
	if s.events == nil {
		return
	}
	err := s.events.PublishOrderPaid(map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalPrice,
	})
	if err != nil {
		log.Printf("Warning: failed to publish order paid event for order %s: %v", order.ID, err)
	}
}
