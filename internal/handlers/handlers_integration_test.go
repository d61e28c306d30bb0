package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"fixiestore/internal/handlers"
	"fixiestore/internal/middleware"
	"fixiestore/internal/models"
	"fixiestore/internal/payment"
	"fixiestore/internal/repositories"
	"fixiestore/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test_jwt_secret"

var dbCounter int64

// fakeGateway stands in for the Midtrans Snap client.
type fakeGateway struct {
	token     string
	tokenErr  error
	rawStatus int
	rawBody   []byte
	rawErr    error
	calls     int
}

func (g *fakeGateway) CreateTransaction(req payment.TransactionRequest) (string, error) {
	g.calls++
	if g.tokenErr != nil {
		return "", g.tokenErr
	}
	return g.token, nil
}

func (g *fakeGateway) CreateTransactionRaw(req payment.TransactionRequest) (int, []byte, error) {
	g.calls++
	if g.rawErr != nil {
		return 0, nil, g.rawErr
	}
	return g.rawStatus, g.rawBody, nil
}

// setupApp builds a Fiber app over a fresh in-memory SQLite database with the
// full route tree: proxy, public, authenticated and admin groups.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *fakeGateway) {
	t.Helper()

	// Each setup gets its own named in-memory database so tests cannot see
	// each other's rows.
	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.Review{},
	))

	gateway := &fakeGateway{
		token:     "snap-token-abc",
		rawStatus: http.StatusOK,
		rawBody:   []byte(`{"token":"proxy-token","redirect_url":"https://example.test/pay"}`),
	}

	userRepo := repositories.NewGORMUserRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	reviewRepo := repositories.NewGORMReviewRepository(db)

	authService := services.NewAuthService(userRepo, testJWTSecret)
	catalogService := services.NewCatalogService(productRepo, categoryRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	checkoutService := services.NewCheckoutService(cartRepo, orderRepo, gateway, nil)
	reviewService := services.NewReviewService(reviewRepo, productRepo)

	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	proxyHandler := handlers.NewPaymentProxyHandler(gateway)

	app := fiber.New()

	proxyHandler.RegisterRoutes(app)

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	catalogHandler.RegisterPublicRoutes(apiV1)
	reviewHandler.RegisterPublicRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	cartHandler.RegisterRoutes(protected)
	checkoutHandler.RegisterRoutes(protected)
	reviewHandler.RegisterProtectedRoutes(protected)

	admin := apiV1.Group("/admin", middleware.AuthRequired(authService), middleware.AdminRequired())
	catalogHandler.RegisterAdminRoutes(admin)
	checkoutHandler.RegisterAdminRoutes(admin)

	return app, db, gateway
}

// doJSON sends a JSON request, optionally authenticated, and returns the
// response with its decoded body.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

// registerAndLogin creates a customer account through the public endpoints
// and returns its JWT.
func registerAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, status)

	return login(t, app, username, "password123")
}

func login(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)

	var loginResp map[string]string
	require.NoError(t, json.Unmarshal(body, &loginResp))
	require.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

// adminToken seeds an admin account directly, since self-registration can
// only produce customers, and logs it in.
func adminToken(t *testing.T, app *fiber.App, db *gorm.DB) string {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("adminpass123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, repositories.NewGORMUserRepository(db).Create(&models.User{
		Username: "storeadmin",
		Email:    "admin@example.com",
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}))

	return login(t, app, "storeadmin", "adminpass123")
}

// seedProduct creates a product through the admin API and returns it.
func seedProduct(t *testing.T, app *fiber.App, admin string, body map[string]interface{}) models.Product {
	t.Helper()

	status, respBody := doJSON(t, app, http.MethodPost, "/api/v1/admin/products", admin, body)
	require.Equal(t, http.StatusCreated, status, "seed product: %s", respBody)

	var product models.Product
	require.NoError(t, json.Unmarshal(respBody, &product))
	require.NotEmpty(t, product.ID)
	return product
}

func TestMain(m *testing.M) {
	// Suppress handler logging for cleaner test output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, _, _ := setupApp(t)

	userToRegister := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusCreated, status)

	var registerResp map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &registerResp))
	assert.Equal(t, "User registered successfully", registerResp["message"])

	// Duplicate registration conflicts
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusConflict, status)

	// Login and check the token's claims
	token := login(t, app, "testuser", "password123")
	authService := services.NewAuthService(nil, testJWTSecret)
	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims["username"])
	assert.Equal(t, models.RoleCustomer, claims["role"], "self-registered accounts are customers")
}

func TestAdminRoutesAuthorization(t *testing.T) {
	app, db, _ := setupApp(t)

	category := map[string]string{"name": "Frames"}

	// No token
	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/admin/categories", "", category)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Customer token
	customer := registerAndLogin(t, app, "plaincustomer")
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/categories", customer, category)
	assert.Equal(t, http.StatusForbidden, status)

	// Admin token
	admin := adminToken(t, app, db)
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/admin/categories", admin, category)
	assert.Equal(t, http.StatusCreated, status)

	var created models.Category
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "frames", created.Slug)
}

func TestCatalogBrowsing(t *testing.T) {
	app, db, _ := setupApp(t)
	admin := adminToken(t, app, db)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/admin/categories", admin, map[string]string{"name": "Complete Bikes"})
	require.Equal(t, http.StatusCreated, status)
	var category models.Category
	require.NoError(t, json.Unmarshal(body, &category))

	seedProduct(t, app, admin, map[string]interface{}{
		"name":        "Aventon Cordoba",
		"description": "Track geometry street fixie",
		"price":       5200000,
		"stock":       4,
		"brand":       "Aventon",
		"category_id": category.ID,
		"specifications": map[string]string{
			"frame":  "6061 aluminium",
			"gear":   "46x16",
			"weight": "9.2 kg",
		},
	})
	seedProduct(t, app, admin, map[string]interface{}{
		"name":  "Pure Fix Original",
		"price": 3800000,
		"stock": 2,
		"brand": "Pure Cycles",
	})

	// Full listing, public
	status, body = doJSON(t, app, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, status)
	var products []models.Product
	require.NoError(t, json.Unmarshal(body, &products))
	assert.Len(t, products, 2)

	// Substring search over name and brand
	status, body = doJSON(t, app, http.MethodGet, "/api/v1/products?q=cordoba", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Aventon Cordoba", products[0].Name)

	// Category filter
	status, body = doJSON(t, app, http.MethodGet, "/api/v1/products?category_id="+category.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products, 1)

	// Detail view carries the specifications map through the JSON column
	status, body = doJSON(t, app, http.MethodGet, "/api/v1/products/"+products[0].ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var detail models.Product
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, "46x16", detail.Specifications.Data()["gear"])
	require.NotNil(t, detail.Category)
	assert.Equal(t, "Complete Bikes", detail.Category.Name)

	// Unknown product
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/products/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCartEndpoints(t *testing.T) {
	app, db, _ := setupApp(t)
	admin := adminToken(t, app, db)
	customer := registerAndLogin(t, app, "cartuser")

	product := seedProduct(t, app, admin, map[string]interface{}{
		"name":  "Drop Bar",
		"price": 450000,
		"stock": 8,
	})
	soldOut := seedProduct(t, app, admin, map[string]interface{}{
		"name":  "Sold Out Saddle",
		"price": 120000,
		"stock": 0,
	})

	// Cart routes require auth
	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// First add
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/cart/items", customer, map[string]interface{}{
		"product_id": product.ID,
	})
	require.Equal(t, http.StatusCreated, status, "add to cart: %s", body)
	var addResp struct {
		Item      models.CartItem `json:"item"`
		CartCount int64           `json:"cart_count"`
	}
	require.NoError(t, json.Unmarshal(body, &addResp))
	assert.Equal(t, 1, addResp.Item.Quantity)
	assert.EqualValues(t, 1, addResp.CartCount)

	// Second add merges into the same line
	status, body = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", customer, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   2,
	})
	require.Equal(t, http.StatusCreated, status)
	require.NoError(t, json.Unmarshal(body, &addResp))
	assert.Equal(t, 3, addResp.Item.Quantity)
	assert.EqualValues(t, 1, addResp.CartCount, "cart count stays at one line")

	// The cart listing joins the product in
	status, body = doJSON(t, app, http.MethodGet, "/api/v1/cart", customer, nil)
	require.Equal(t, http.StatusOK, status)
	var items []models.CartItem
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, "Drop Bar", items[0].Product.Name)

	// Out-of-stock and unknown products are rejected
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", customer, map[string]interface{}{
		"product_id": soldOut.ID,
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", customer, map[string]interface{}{
		"product_id": "missing",
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCheckoutFlow(t *testing.T) {
	app, db, gateway := setupApp(t)
	admin := adminToken(t, app, db)
	customer := registerAndLogin(t, app, "buyer")

	product := seedProduct(t, app, admin, map[string]interface{}{
		"name":  "Fixie Frame",
		"price": 100000,
		"stock": 10,
	})
	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/cart/items", customer, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   2,
	})
	require.Equal(t, http.StatusCreated, status)

	// Place the order with express shipping
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/checkout", customer, map[string]string{
		"name":            "Neil SJ",
		"email":           "buyer@example.com",
		"payment_method":  "transfer",
		"shipping_method": models.ShippingExpress,
	})
	require.Equal(t, http.StatusCreated, status, "checkout: %s", body)

	var result services.CheckoutResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "snap-token-abc", result.SnapToken)
	assert.Equal(t, float64(200000), result.Subtotal)
	assert.Equal(t, float64(25000), result.ShippingCost)
	assert.Equal(t, float64(225000), result.Order.TotalPrice)
	assert.Equal(t, models.OrderStatusPending, result.Order.Status)
	assert.Equal(t, 1, gateway.calls)

	// Report a successful payment
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/checkout/"+result.Order.ID+"/payment", customer, map[string]string{
		"result": "success",
	})
	require.Equal(t, http.StatusOK, status)

	// The order is paid and the cart is empty
	status, body = doJSON(t, app, http.MethodGet, "/api/v1/orders", customer, nil)
	require.Equal(t, http.StatusOK, status)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(body, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusPaid, orders[0].Status)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/cart/count", customer, nil)
	require.Equal(t, http.StatusOK, status)
	var countResp map[string]int64
	require.NoError(t, json.Unmarshal(body, &countResp))
	assert.Zero(t, countResp["count"])

	// Another customer cannot resolve this order
	other := registerAndLogin(t, app, "othercustomer")
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/checkout/"+result.Order.ID+"/payment", other, map[string]string{
		"result": "success",
	})
	assert.Equal(t, http.StatusNotFound, status)

	// The admin listing sees the order too
	status, body = doJSON(t, app, http.MethodGet, "/api/v1/admin/orders", admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &orders))
	assert.Len(t, orders, 1)
}

func TestCheckoutEmptyCart(t *testing.T) {
	app, _, gateway := setupApp(t)
	customer := registerAndLogin(t, app, "emptybuyer")

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/checkout", customer, map[string]string{
		"name":            "Neil SJ",
		"email":           "empty@example.com",
		"payment_method":  "transfer",
		"shipping_method": models.ShippingRegular,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Zero(t, gateway.calls)
}

func TestCheckoutGatewayFailure(t *testing.T) {
	app, db, gateway := setupApp(t)
	admin := adminToken(t, app, db)
	customer := registerAndLogin(t, app, "unluckybuyer")
	gateway.tokenErr = fmt.Errorf("gateway returned status 503")

	product := seedProduct(t, app, admin, map[string]interface{}{
		"name":  "Riser Bar",
		"price": 150000,
		"stock": 3,
	})
	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/cart/items", customer, map[string]interface{}{
		"product_id": product.ID,
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/checkout", customer, map[string]string{
		"name":            "Neil SJ",
		"email":           "unlucky@example.com",
		"payment_method":  "ewallet",
		"shipping_method": models.ShippingRegular,
	})
	assert.Equal(t, http.StatusBadGateway, status)

	// The pending order is left behind for the admin to see
	status, body := doJSON(t, app, http.MethodGet, "/api/v1/admin/orders", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(body, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusPending, orders[0].Status)
}

func TestReviewEndpoints(t *testing.T) {
	app, db, _ := setupApp(t)
	admin := adminToken(t, app, db)
	customer := registerAndLogin(t, app, "reviewer")

	product := seedProduct(t, app, admin, map[string]interface{}{
		"name":  "Track Wheel",
		"price": 800000,
		"stock": 2,
	})

	review := map[string]interface{}{
		"rating":  5,
		"comment": "Spins forever.",
	}

	// Submission requires auth
	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/products/"+product.ID+"/reviews", "", review)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/products/"+product.ID+"/reviews", customer, review)
	assert.Equal(t, http.StatusCreated, status)

	// Rating bounds are enforced
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/products/"+product.ID+"/reviews", customer, map[string]interface{}{
		"rating":  6,
		"comment": "Too good.",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	// Reviews for a missing product 404
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/products/missing/reviews", customer, review)
	assert.Equal(t, http.StatusNotFound, status)

	// Listing is public
	status, body := doJSON(t, app, http.MethodGet, "/api/v1/products/"+product.ID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, status)
	var reviews []models.Review
	require.NoError(t, json.Unmarshal(body, &reviews))
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
}

func TestPaymentProxyEndpoint(t *testing.T) {
	app, _, gateway := setupApp(t)

	// The gateway's JSON comes back verbatim, no auth required
	status, body := doJSON(t, app, http.MethodPost, "/api/create-transaction", "", map[string]interface{}{
		"name":   "Neil SJ",
		"email":  "neil@example.com",
		"amount": 225000,
	})
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, string(gateway.rawBody), string(body))

	// Any failure collapses to the fixed 500 body
	gateway.rawErr = fmt.Errorf("connection refused")
	status, body = doJSON(t, app, http.MethodPost, "/api/create-transaction", "", map[string]interface{}{
		"amount": 1000,
	})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, string(body))
}
