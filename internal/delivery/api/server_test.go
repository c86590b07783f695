package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp/config"
	"erp/internal/delivery/api"
	apimiddleware "erp/internal/delivery/api/middleware"
	"erp/internal/delivery/api/router"
	"erp/internal/delivery/api/router/handler"
	deliverycontext "erp/internal/delivery/context"
	"erp/internal/infra/auth"
	"erp/internal/infra/persistence/database"
	"erp/internal/testutil"
	"erp/internal/usecase/impl"
)

const (
	adminUsername = "admin"
	adminPassword = "admin-password"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

type testAPI struct {
	t    *testing.T
	echo *echo.Echo
}

func newTestAPI(t *testing.T, tweak ...func(*config.Config)) *testAPI {
	t.Helper()

	cfg := testutil.SQLiteConfig(t)
	cfg.HTTP.MaxRequestBodySize = "100KB"
	cfg.Auth.AccessTokenTTL = 20 * time.Minute
	cfg.Auth.BootstrapAdmin = &config.BootstrapAdminConfig{Username: adminUsername, Password: adminPassword}
	cfg.Auth.LoginRateLimit = &config.RateLimitConfig{Rate: 100, Burst: 100, ExpiresIn: time.Minute}
	for _, fn := range tweak {
		fn(cfg)
	}

	db := testutil.OpenSQLite(t, cfg)
	logger := testutil.DiscardLogger()

	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	txManager := database.NewTransactionManager(db)
	userRepo := database.NewUserRepository(db)
	customerRepo := database.NewCustomerRepository(db)
	productRepo := database.NewProductRepository(db)
	orderRepo := database.NewOrderRepository(db)

	userUC := impl.NewUserService(impl.UserServiceParams{
		TxManager: txManager, UserRepo: userRepo, CustomerRepo: customerRepo,
		Hasher: auth.NewBcryptHasher(cfg), TokenService: tokenService, Config: cfg, Logger: logger,
	})
	require.NoError(t, userUC.EnsureBootstrapAdmin(t.Context()))

	customerUC := impl.NewCustomerService(impl.CustomerServiceParams{
		TxManager: txManager, CustomerRepo: customerRepo, UserRepo: userRepo, Logger: logger,
	})
	productUC := impl.NewProductService(impl.ProductServiceParams{
		TxManager: txManager, ProductRepo: productRepo, Logger: logger,
	})
	orderUC := impl.NewOrderService(impl.OrderServiceParams{
		TxManager: txManager, OrderRepo: orderRepo, UserRepo: userRepo, Logger: logger,
	})
	exportUC := impl.NewExportService(impl.ExportServiceParams{
		CustomerRepo: customerRepo, OrderRepo: orderRepo, ProductRepo: productRepo, Logger: logger,
	})

	e := api.NewEcho(cfg, logger, router.RouterParams{
		AuthHandler:     handler.NewAuthHandler(handler.AuthHandlerParams{UserUC: userUC, Logger: logger}),
		CustomerHandler: handler.NewCustomerHandler(handler.CustomerHandlerParams{CustomerUC: customerUC, Logger: logger}),
		ProductHandler:  handler.NewProductHandler(handler.ProductHandlerParams{ProductUC: productUC, Logger: logger}),
		OrderHandler:    handler.NewOrderHandler(handler.OrderHandlerParams{OrderUC: orderUC, Logger: logger}),
		ExportHandler:   handler.NewExportHandler(handler.ExportHandlerParams{ExportUC: exportUC, Logger: logger}),
		HealthHandler:   handler.NewHealthHandler(handler.HealthHandlerParams{DB: db}),
		AuthMiddleware:  apimiddleware.NewAuthMiddleware(apimiddleware.AuthMiddlewareParams{UserUC: userUC}),
		Config:          cfg,
	})

	return &testAPI{t: t, echo: e}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	return rec
}

func (a *testAPI) login(username, password string) *httptest.ResponseRecorder {
	a.t.Helper()

	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.RemoteAddr = "192.0.2.10:4321"

	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	return rec
}

func (a *testAPI) token(username, password string) string {
	a.t.Helper()

	rec := a.login(username, password)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var doc handler.TokenResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &doc))

	return doc.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Nil(t, env.Error, rec.Body.String())

	var data T
	require.NoError(t, json.Unmarshal(env.Data, &data))

	return data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.NotNil(t, env.Error, rec.Body.String())

	return env.Error.Code
}

func (a *testAPI) registerShopper(email string) string {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/auth/register_with_customer", "", map[string]any{
		"email":      email,
		"first_name": "Test",
		"last_name":  "Shopper",
		"phone":      "0912345678",
		"password":   "password123",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	return a.token(email, "password123")
}

func (a *testAPI) createProduct(adminToken string, name string, price float64, stock int) handler.ProductResponse {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/products", adminToken, map[string]any{
		"name": name, "price": price, "stock": stock, "category": "general", "is_active": true,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	return decode[handler.ProductResponse](a.t, rec)
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(deliverycontext.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(deliverycontext.HeaderXRequestID, "req-123")
	rec = httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(deliverycontext.HeaderXRequestID))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "req-123", env.Meta.RequestID)
}

func TestToken(t *testing.T) {
	a := newTestAPI(t)

	rec := a.login(adminUsername, adminPassword)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "bearer", doc["token_type"])
	assert.EqualValues(t, 1200, doc["expires_in"])
	assert.NotEmpty(t, doc["access_token"])

	rec = a.login(adminUsername, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	rec = a.login("ghost", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
}

func TestTokenRateLimited(t *testing.T) {
	a := newTestAPI(t, func(cfg *config.Config) {
		cfg.Auth.LoginRateLimit = &config.RateLimitConfig{Rate: 0.001, Burst: 2, ExpiresIn: time.Minute}
	})

	assert.Equal(t, http.StatusUnauthorized, a.login("ghost", "x").Code)
	assert.Equal(t, http.StatusUnauthorized, a.login("ghost", "x").Code)

	rec := a.login(adminUsername, adminPassword)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", errorCode(t, rec))
}

func TestAuthentication(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTHENTICATION_FAILED", errorCode(t, rec))
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))

	rec = a.do(http.MethodGet, "/orders", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	shopper := a.registerShopper("alice@example.com")
	rec = a.do(http.MethodGet, "/auth/me", shopper, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[handler.ClaimsResponse](t, rec)
	assert.Equal(t, "customer", me.Role)
	assert.NotNil(t, me.CustomerID)

	rec = a.do(http.MethodGet, "/customers", shopper, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = a.do(http.MethodGet, "/exports/orders", shopper, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterAdminNeedsAdminToken(t *testing.T) {
	a := newTestAPI(t)
	body := map[string]any{"username": "boss", "email": "boss@example.com", "password": "password123", "role": "admin"}

	rec := a.do(http.MethodPost, "/auth/", "", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, "/auth/", a.token(adminUsername, adminPassword), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[handler.RegisterResponse](t, rec)
	assert.Equal(t, "admin", created.User.Role)

	rec = a.do(http.MethodPost, "/auth/", "", map[string]any{"email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
}

func TestOrderScenario(t *testing.T) {
	a := newTestAPI(t)
	admin := a.token(adminUsername, adminPassword)
	shopper := a.registerShopper("alice@example.com")
	product := a.createProduct(admin, "Widget", 10, 5)

	rec := a.do(http.MethodPost, "/orders", shopper, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[handler.OrderResponse](t, rec)
	assert.InDelta(t, 30, order.TotalAmount, 1e-9)
	assert.Equal(t, "pending", order.PaymentStatus)

	rec = a.do(http.MethodGet, "/products/"+itoa(product.ID), shopper, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[handler.ProductResponse](t, rec).Stock)

	rec = a.do(http.MethodPatch, "/orders/"+itoa(order.ID)+"/cancel", shopper, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", decode[handler.OrderResponse](t, rec).PaymentStatus)

	rec = a.do(http.MethodGet, "/products/"+itoa(product.ID), shopper, nil)
	assert.Equal(t, 5, decode[handler.ProductResponse](t, rec).Stock)

	rec = a.do(http.MethodPatch, "/orders/"+itoa(order.ID)+"/pay", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, rec))

	rec = a.do(http.MethodPatch, "/orders/"+itoa(order.ID)+"/pay", shopper, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderRejections(t *testing.T) {
	a := newTestAPI(t)
	admin := a.token(adminUsername, adminPassword)
	shopper := a.registerShopper("alice@example.com")
	product := a.createProduct(admin, "Widget", 10, 1)

	rec := a.do(http.MethodPost, "/orders", shopper, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 0}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))

	rec = a.do(http.MethodPost, "/orders", shopper, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 2}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PRODUCT_UNAVAILABLE", errorCode(t, rec))

	rec = a.do(http.MethodGet, "/orders/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ORDER_NOT_FOUND", errorCode(t, rec))

	rec = a.do(http.MethodGet, "/orders/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomerSelfService(t *testing.T) {
	a := newTestAPI(t)
	shopper := a.registerShopper("alice@example.com")

	rec := a.do(http.MethodPut, "/customers/me", shopper, map[string]any{"name": "Alice", "email": "evil@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FIELD_NOT_ALLOWED", errorCode(t, rec))

	rec = a.do(http.MethodPut, "/customers/me", shopper, map[string]any{"name": "Alice", "credit": 100})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FIELD_NOT_ALLOWED", errorCode(t, rec))

	rec = a.do(http.MethodPut, "/customers/me", shopper, map[string]any{"name": "Bob", "email": nil, "is_active": nil})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FIELD_NOT_ALLOWED", errorCode(t, rec))

	rec = a.do(http.MethodGet, "/customers/me", shopper, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Test Shopper", decode[handler.CustomerResponse](t, rec).Name)

	rec = a.do(http.MethodPut, "/customers/me", shopper, map[string]any{"name": "Alice", "phone": "0987654321"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Alice", decode[handler.CustomerResponse](t, rec).Name)
}

func TestCustomerAdministration(t *testing.T) {
	a := newTestAPI(t)
	admin := a.token(adminUsername, adminPassword)

	rec := a.do(http.MethodPost, "/customers", admin, map[string]any{"name": "Bob", "email": "bob@example.com", "phone": "0912345678"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	customer := decode[handler.CustomerResponse](t, rec)

	rec = a.do(http.MethodGet, "/customers/", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]handler.CustomerResponse](t, rec), 1)

	rec = a.do(http.MethodPost, "/customers", admin, map[string]any{"name": "Bobby", "email": "bob@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_EMAIL", errorCode(t, rec))

	rec = a.do(http.MethodPut, "/customers/"+itoa(customer.ID), admin, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[handler.CustomerResponse](t, rec).IsActive)

	rec = a.do(http.MethodDelete, "/customers/"+itoa(customer.ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONFIRMATION_REQUIRED", errorCode(t, rec))

	rec = a.do(http.MethodDelete, "/customers/"+itoa(customer.ID)+"?confirm=true", admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(http.MethodGet, "/customers/"+itoa(customer.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLinkCustomerThenOrder(t *testing.T) {
	a := newTestAPI(t)
	admin := a.token(adminUsername, adminPassword)
	product := a.createProduct(admin, "Widget", 10, 5)

	rec := a.do(http.MethodPost, "/auth/", "", map[string]any{"email": "carol@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[handler.RegisterResponse](t, rec).User
	carol := a.token("carol@example.com", "password123")

	orderBody := map[string]any{"items": []map[string]any{{"product_id": product.ID, "quantity": 1}}}
	rec = a.do(http.MethodPost, "/orders", carol, orderBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NO_LINKED_CUSTOMER", errorCode(t, rec))

	rec = a.do(http.MethodPost, "/customers", admin, map[string]any{"name": "Carol", "email": "carol.billing@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	customer := decode[handler.CustomerResponse](t, rec)

	rec = a.do(http.MethodPatch, "/auth/users/"+itoa(user.ID)+"/customer", admin, map[string]any{"customer_id": customer.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/orders", carol, orderBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, customer.ID, decode[handler.OrderResponse](t, rec).CustomerID)
}

func TestProductVisibilityAndDelete(t *testing.T) {
	a := newTestAPI(t)
	admin := a.token(adminUsername, adminPassword)
	shopper := a.registerShopper("alice@example.com")
	product := a.createProduct(admin, "Widget", 10, 5)

	rec := a.do(http.MethodPatch, "/products/"+itoa(product.ID), admin, map[string]any{
		"name": "Widget", "price": 10, "stock": 5, "is_active": false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/products?include_inactive=true", shopper, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]handler.ProductResponse](t, rec))

	rec = a.do(http.MethodGet, "/products?include_inactive=true", admin, nil)
	assert.Len(t, decode[[]handler.ProductResponse](t, rec), 1)

	rec = a.do(http.MethodGet, "/products?min_price=abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, "/products", admin, map[string]any{"name": "Bad", "price": 0, "stock": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))

	rec = a.do(http.MethodDelete, "/products/"+itoa(product.ID), admin, nil)
	assert.Equal(t, "CONFIRMATION_REQUIRED", errorCode(t, rec))

	rec = a.do(http.MethodDelete, "/products/"+itoa(product.ID)+"?confirm=true", admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExport(t *testing.T) {
	a := newTestAPI(t)
	admin := a.token(adminUsername, adminPassword)
	a.createProduct(admin, "Widget", 10, 5)

	rec := a.do(http.MethodGet, "/exports/products", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "attachment; filename=products.csv", rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "ID,Name,Price,Stock\n1,Widget,10,5\n", rec.Body.String())

	rec = a.do(http.MethodGet, "/exports/invoices", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
