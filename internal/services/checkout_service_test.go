package services_test

import (
	"errors"
	"fmt"
	"testing"

	"fixiestore/internal/models"
	"fixiestore/internal/payment"
	"fixiestore/internal/repositories"
	"fixiestore/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSnap is a stand-in for the Midtrans client.
type fakeSnap struct {
	token string
	err   error
	calls int
}

func (f *fakeSnap) CreateTransaction(req payment.TransactionRequest) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

type checkoutFixture struct {
	products *repositories.MockProductRepository
	carts    *repositories.MockCartRepository
	orders   *repositories.MockOrderRepository
	snap     *fakeSnap
	service  *services.CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	products := repositories.NewMockProductRepository()
	carts := repositories.NewMockCartRepository(products)
	orders := repositories.NewMockOrderRepository(carts)
	snap := &fakeSnap{token: "snap-token-123"}
	return &checkoutFixture{
		products: products,
		carts:    carts,
		orders:   orders,
		snap:     snap,
		service:  services.NewCheckoutService(carts, orders, snap, nil),
	}
}

// seedCart puts qty units of a price-priced product into the user's cart.
func (f *checkoutFixture) seedCart(t *testing.T, userID string, price float64, qty int) {
	t.Helper()
	product := &models.Product{Name: "Fixie Frame", Price: price, Stock: 10}
	require.NoError(t, f.products.Create(product))
	require.NoError(t, f.carts.AddOrIncrement(&models.CartItem{
		UserID:    userID,
		ProductID: product.ID,
		Quantity:  qty,
	}))
}

func checkoutRequest(shipping string) services.CheckoutRequest {
	return services.CheckoutRequest{
		Name:           "Neil SJ",
		Email:          "neil@example.com",
		PaymentMethod:  "transfer",
		ShippingMethod: shipping,
	}
}

func TestCheckout_TotalRegularShipping(t *testing.T) {
	f := newCheckoutFixture()
	f.seedCart(t, "user-1", 100000, 2)

	result, err := f.service.Checkout("user-1", checkoutRequest(models.ShippingRegular))
	require.NoError(t, err)

	assert.Equal(t, float64(200000), result.Order.TotalPrice)
	assert.Equal(t, float64(200000), result.Subtotal)
	assert.Equal(t, float64(0), result.ShippingCost)
	assert.Equal(t, models.OrderStatusPending, result.Order.Status)
	assert.Equal(t, "snap-token-123", result.SnapToken)
	assert.Equal(t, 1, f.snap.calls)
}

func TestCheckout_TotalExpressShipping(t *testing.T) {
	f := newCheckoutFixture()
	f.seedCart(t, "user-1", 100000, 2)

	result, err := f.service.Checkout("user-1", checkoutRequest(models.ShippingExpress))
	require.NoError(t, err)

	assert.Equal(t, float64(225000), result.Order.TotalPrice)
	assert.Equal(t, float64(25000), result.ShippingCost)
}

func TestCheckout_UnknownShippingMethod(t *testing.T) {
	f := newCheckoutFixture()
	f.seedCart(t, "user-1", 100000, 1)

	_, err := f.service.Checkout("user-1", checkoutRequest("teleport"))
	assert.ErrorIs(t, err, services.ErrUnknownShippingMethod)

	orders, _ := f.orders.GetAll()
	assert.Empty(t, orders)
}

func TestCheckout_EmptyCartCreatesNothing(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.service.Checkout("user-1", checkoutRequest(models.ShippingRegular))
	assert.ErrorIs(t, err, services.ErrEmptyCart)

	orders, _ := f.orders.GetAll()
	assert.Empty(t, orders, "empty cart must not create an order")
	assert.Zero(t, f.snap.calls, "empty cart must not call the gateway")
}

func TestCheckout_UnauthenticatedCreatesNothing(t *testing.T) {
	f := newCheckoutFixture()
	f.seedCart(t, "user-1", 100000, 1)

	_, err := f.service.Checkout("", checkoutRequest(models.ShippingRegular))
	assert.ErrorIs(t, err, services.ErrNotAuthenticated)

	orders, _ := f.orders.GetAll()
	assert.Empty(t, orders)
	assert.Zero(t, f.snap.calls)
}

func TestCheckout_GatewayFailureLeavesOrderPending(t *testing.T) {
	f := newCheckoutFixture()
	f.seedCart(t, "user-1", 150000, 1)
	f.snap.err = fmt.Errorf("gateway returned status 503")

	_, err := f.service.Checkout("user-1", checkoutRequest(models.ShippingRegular))
	assert.ErrorIs(t, err, services.ErrSnapTokenRequest)

	orders, _ := f.orders.GetAll()
	require.Len(t, orders, 1, "the order insert happens before the token request")
	assert.Equal(t, models.OrderStatusPending, orders[0].Status)
	assert.Empty(t, orders[0].SnapToken)
}

func TestCheckout_IdempotencyKeyReturnsExistingOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.seedCart(t, "user-1", 100000, 2)

	req := checkoutRequest(models.ShippingRegular)
	req.IdempotencyKey = "attempt-1"

	first, err := f.service.Checkout("user-1", req)
	require.NoError(t, err)

	second, err := f.service.Checkout("user-1", req)
	require.NoError(t, err)

	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, first.SnapToken, second.SnapToken)
	assert.Equal(t, first.Subtotal, second.Subtotal)
	assert.Equal(t, first.ShippingCost, second.ShippingCost)
	assert.Equal(t, 1, f.snap.calls, "a replayed key must not hit the gateway again")

	orders, _ := f.orders.GetAll()
	assert.Len(t, orders, 1, "exactly one order per checkout attempt")
}

func TestCheckout_IdempotentRetryAfterGatewayFailure(t *testing.T) {
	f := newCheckoutFixture()
	f.seedCart(t, "user-1", 100000, 2)

	req := checkoutRequest(models.ShippingExpress)
	req.IdempotencyKey = "attempt-1"

	f.snap.err = fmt.Errorf("gateway returned status 503")
	_, err := f.service.Checkout("user-1", req)
	require.ErrorIs(t, err, services.ErrSnapTokenRequest)

	// The gateway recovers; the replayed key finishes the stranded order
	// instead of handing back a tokenless one.
	f.snap.err = nil
	result, err := f.service.Checkout("user-1", req)
	require.NoError(t, err)
	assert.Equal(t, "snap-token-123", result.SnapToken)
	assert.Equal(t, 2, f.snap.calls, "the retry must contact the gateway again")

	orders, _ := f.orders.GetAll()
	require.Len(t, orders, 1, "the retry must reuse the stranded order")
	assert.Equal(t, result.Order.ID, orders[0].ID)
	assert.Equal(t, "snap-token-123", orders[0].SnapToken)

	assert.Equal(t, float64(225000), result.Order.TotalPrice)
	assert.Equal(t, float64(200000), result.Subtotal)
	assert.Equal(t, float64(25000), result.ShippingCost)

	// A further replay returns the stored token without another call
	again, err := f.service.Checkout("user-1", req)
	require.NoError(t, err)
	assert.Equal(t, "snap-token-123", again.SnapToken)
	assert.Equal(t, 2, f.snap.calls)
}

func TestResolvePayment_SuccessMarksPaidAndClearsCart(t *testing.T) {
	f := newCheckoutFixture()
	f.seedCart(t, "user-1", 100000, 2)

	result, err := f.service.Checkout("user-1", checkoutRequest(models.ShippingRegular))
	require.NoError(t, err)

	err = f.service.ResolvePayment("user-1", result.Order.ID, services.PaymentResultSuccess)
	require.NoError(t, err)

	order, err := f.orders.GetByID(result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)

	count, err := f.carts.CountByUser("user-1")
	require.NoError(t, err)
	assert.Zero(t, count, "cart must be empty after a successful payment")
}

func TestResolvePayment_NonSuccessOutcomesMutateNothing(t *testing.T) {
	for _, outcome := range []string{
		services.PaymentResultPending,
		services.PaymentResultError,
		services.PaymentResultClose,
	} {
		t.Run(outcome, func(t *testing.T) {
			f := newCheckoutFixture()
			f.seedCart(t, "user-1", 100000, 1)

			result, err := f.service.Checkout("user-1", checkoutRequest(models.ShippingRegular))
			require.NoError(t, err)

			require.NoError(t, f.service.ResolvePayment("user-1", result.Order.ID, outcome))

			order, err := f.orders.GetByID(result.Order.ID)
			require.NoError(t, err)
			assert.Equal(t, models.OrderStatusPending, order.Status)

			count, err := f.carts.CountByUser("user-1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, count, "cart must survive a %s outcome", outcome)
		})
	}
}

func TestResolvePayment_WrongUserIsNotFound(t *testing.T) {
	f := newCheckoutFixture()
	f.seedCart(t, "user-1", 100000, 1)

	result, err := f.service.Checkout("user-1", checkoutRequest(models.ShippingRegular))
	require.NoError(t, err)

	err = f.service.ResolvePayment("user-2", result.Order.ID, services.PaymentResultSuccess)
	assert.ErrorContains(t, err, "not found")

	order, _ := f.orders.GetByID(result.Order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestResolvePayment_UnknownResult(t *testing.T) {
	f := newCheckoutFixture()
	f.seedCart(t, "user-1", 100000, 1)

	result, err := f.service.Checkout("user-1", checkoutRequest(models.ShippingRegular))
	require.NoError(t, err)

	err = f.service.ResolvePayment("user-1", result.Order.ID, "exploded")
	assert.ErrorContains(t, err, "unknown payment result")
}

func TestTotals(t *testing.T) {
	price := func(p float64) *models.Product { return &models.Product{Price: p} }
	items := []models.CartItem{
		{Product: price(100000), Quantity: 2},
		{Product: price(35000), Quantity: 3},
	}

	subtotal, shipping, total, err := services.Totals(items, models.ShippingRegular)
	require.NoError(t, err)
	assert.Equal(t, float64(305000), subtotal)
	assert.Equal(t, float64(0), shipping)
	assert.Equal(t, float64(305000), total)

	_, shipping, total, err = services.Totals(items, models.ShippingExpress)
	require.NoError(t, err)
	assert.Equal(t, float64(25000), shipping)
	assert.Equal(t, float64(330000), total)

	_, _, _, err = services.Totals(items, "carrier-pigeon")
	assert.True(t, errors.Is(err, services.ErrUnknownShippingMethod))
}
