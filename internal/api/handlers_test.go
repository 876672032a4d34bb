package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/celulex-store/internal/auth"
	"github.com/example/celulex-store/internal/cart"
	"github.com/example/celulex-store/internal/catalog"
	"github.com/example/celulex-store/internal/checkout"
	"github.com/example/celulex-store/internal/infrastructure/store/mocks"
	"github.com/example/celulex-store/internal/order"
	"github.com/example/celulex-store/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============ Test setup ============

const (
	testAdminUser = "admin"
	testAdminPass = "celulex-admin-pass"
)

type testEnv struct {
	server    *httptest.Server
	products  *mocks.MockProductStore
	orders    *mocks.MockOrderStore
	publisher *mocks.MockPublisher
}

func newTestEnv(t *testing.T, seed ...catalog.Product) *testEnv {
	t.Helper()

	products := mocks.NewMockProductStore(seed...)
	orders := mocks.NewMockOrderStore()
	publisher := mocks.NewMockPublisher()
	sessions := session.NewMemoryStore(time.Hour)

	catalogSvc := catalog.NewService(products)
	cartSvc := cart.NewService(products)
	checkoutSvc := checkout.NewService(products, orders, cartSvc, publisher)

	jwtService := auth.NewJWTService("test-secret-key-that-is-long-enough!", time.Hour)
	credentials := auth.NewAdminCredentials(testAdminUser, "", testAdminPass)

	router := NewRouter(RouterConfig{
		Handlers:      NewHandlers(catalogSvc, cartSvc, checkoutSvc, orders, sessions),
		AdminHandlers: NewAdminHandlers(catalogSvc, credentials, jwtService, sessions),
		JWTService:    jwtService,
		Sessions:      sessions,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, products: products, orders: orders, publisher: publisher}
}

// client returns an http.Client with its own cookie jar, i.e. its own session.
func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (e *testEnv) do(t *testing.T, client *http.Client, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeSummary(t *testing.T, data []byte) cart.Summary {
	t.Helper()

	var summary cart.Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	return summary
}

func validCustomer() order.Customer {
	return order.Customer{
		Name:          "Alice",
		Email:         "alice@example.com",
		Phone:         "555-0100",
		Address:       "1 Main St",
		PaymentMethod: "card",
	}
}

func testProducts() []catalog.Product {
	return []catalog.Product{
		{ID: 1, Name: "Nebula X1", Brand: "Celulex", Price: 599.99, Stock: 5},
		{ID: 2, Name: "Nebula X2", Brand: "Celulex", Price: 899.99, Stock: 2},
	}
}

// ============ Products ============

func TestGetProducts(t *testing.T) {
	env := newTestEnv(t, testProducts()...)

	resp, data := env.do(t, env.client(t), http.MethodGet, "/api/products", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []catalog.Product
	require.NoError(t, json.Unmarshal(data, &products))
	require.Len(t, products, 2)
	assert.Equal(t, "Nebula X1", products[0].Name)
}

func TestGetProducts_EmptyCatalogIsEmptyList(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, env.client(t), http.MethodGet, "/api/products", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(data))
}

func TestGetProducts_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, env.client(t), http.MethodPut, "/api/products", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// ============ Cart ============

func TestCart_AddAndGet(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	client := env.client(t)

	resp, data := env.do(t, client, http.MethodPost, "/api/cart/items",
		map[string]int{"productId": 1, "quantity": 2})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeSummary(t, data)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 2, summary.Items[0].Quantity)
	assert.InDelta(t, 1199.98, summary.Total, 0.001)

	// The cart persists across requests on the same session.
	resp, data = env.do(t, client, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary = decodeSummary(t, data)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 2, summary.TotalQuantity)
}

func TestCart_AddDefaultsQuantityToOne(t *testing.T) {
	env := newTestEnv(t, testProducts()...)

	resp, data := env.do(t, env.client(t), http.MethodPost, "/api/cart/items",
		map[string]int{"productId": 1})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeSummary(t, data)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 1, summary.Items[0].Quantity)
}

func TestCart_AddUnknownProduct(t *testing.T) {
	env := newTestEnv(t, testProducts()...)

	resp, data := env.do(t, env.client(t), http.MethodPost, "/api/cart/items",
		map[string]int{"productId": 999, "quantity": 1})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(data), "error")
}

func TestCart_AddInvalidQuantity(t *testing.T) {
	env := newTestEnv(t, testProducts()...)

	resp, _ := env.do(t, env.client(t), http.MethodPost, "/api/cart/items",
		map[string]int{"productId": 1, "quantity": -3})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCart_ChangeQuantity(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	client := env.client(t)

	env.do(t, client, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 1})

	resp, data := env.do(t, client, http.MethodPatch, "/api/cart/items/1", map[string]int{"change": 2})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeSummary(t, data)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 3, summary.Items[0].Quantity)
}

func TestCart_ChangeToZeroRemovesItem(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	client := env.client(t)

	env.do(t, client, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 1})

	resp, data := env.do(t, client, http.MethodPatch, "/api/cart/items/1", map[string]int{"change": -1})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeSummary(t, data)
	assert.Empty(t, summary.Items)
}

func TestCart_ChangeMissingItem(t *testing.T) {
	env := newTestEnv(t, testProducts()...)

	resp, _ := env.do(t, env.client(t), http.MethodPatch, "/api/cart/items/1", map[string]int{"change": 1})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCart_ChangeBadID(t *testing.T) {
	env := newTestEnv(t, testProducts()...)

	resp, _ := env.do(t, env.client(t), http.MethodPatch, "/api/cart/items/abc", map[string]int{"change": 1})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCart_RemoveItem(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	client := env.client(t)

	env.do(t, client, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 1})
	env.do(t, client, http.MethodPost, "/api/cart/items", map[string]int{"productId": 2, "quantity": 1})

	resp, data := env.do(t, client, http.MethodDelete, "/api/cart/items/1", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeSummary(t, data)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 2, summary.Items[0].ID)
}

func TestCart_Clear(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	client := env.client(t)

	env.do(t, client, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 2})

	resp, data := env.do(t, client, http.MethodDelete, "/api/cart", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeSummary(t, data)
	assert.Empty(t, summary.Items)
	assert.Zero(t, summary.Total)

	_, data = env.do(t, client, http.MethodGet, "/api/cart", nil)
	assert.Empty(t, decodeSummary(t, data).Items)
}

func TestCart_IsolatedPerSession(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	first := env.client(t)
	second := env.client(t)

	env.do(t, first, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 2})

	_, data := env.do(t, second, http.MethodGet, "/api/cart", nil)
	assert.Empty(t, decodeSummary(t, data).Items)
}

// ============ Checkout and orders ============

func TestCheckout_Success(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	client := env.client(t)

	env.do(t, client, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 3})

	resp, data := env.do(t, client, http.MethodPost, "/api/checkout",
		map[string]order.Customer{"customer": validCustomer()})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var receipt checkout.Receipt
	require.NoError(t, json.Unmarshal(data, &receipt))
	assert.NotEmpty(t, receipt.OrderID)
	assert.InDelta(t, 1799.97, receipt.Total, 0.001)

	// Stock is decremented.
	stored := env.products.Snapshot()
	require.Len(t, stored, 2)
	assert.Equal(t, 2, stored[0].Stock)

	// The cart is cleared.
	_, data = env.do(t, client, http.MethodGet, "/api/cart", nil)
	assert.Empty(t, decodeSummary(t, data).Items)

	// The order shows up in the session's history.
	_, data = env.do(t, client, http.MethodGet, "/api/orders", nil)
	var orders []order.Order
	require.NoError(t, json.Unmarshal(data, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, receipt.OrderID, orders[0].ID)
	assert.Equal(t, order.StatusConfirmed, orders[0].Status)

	// The confirmation event was published.
	require.Len(t, env.publisher.Published, 1)
	assert.Equal(t, receipt.OrderID, env.publisher.Published[0].Key)
	assert.Equal(t, checkout.EventOrderConfirmed, env.publisher.Published[0].EventType)
}

func TestCheckout_MissingFields(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	client := env.client(t)

	env.do(t, client, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 1})

	customer := validCustomer()
	customer.Email = ""
	resp, data := env.do(t, client, http.MethodPost, "/api/checkout",
		map[string]order.Customer{"customer": customer})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "email")
	assert.Empty(t, env.orders.PrependCalls)
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv(t, testProducts()...)

	resp, _ := env.do(t, env.client(t), http.MethodPost, "/api/checkout",
		map[string]order.Customer{"customer": validCustomer()})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOrders_EmptyHistory(t *testing.T) {
	env := newTestEnv(t, testProducts()...)

	resp, data := env.do(t, env.client(t), http.MethodGet, "/api/orders", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(data))
}

func TestGetOrders_OnlyOwnOrders(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	buyer := env.client(t)
	other := env.client(t)

	env.do(t, buyer, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 1})
	resp, _ := env.do(t, buyer, http.MethodPost, "/api/checkout",
		map[string]order.Customer{"customer": validCustomer()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, data := env.do(t, other, http.MethodGet, "/api/orders", nil)
	assert.JSONEq(t, "[]", string(data))
}

func TestGetOrders_NewestFirst(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	client := env.client(t)

	var ids []string
	for i := 0; i < 2; i++ {
		env.do(t, client, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 1})
		resp, data := env.do(t, client, http.MethodPost, "/api/checkout",
			map[string]order.Customer{"customer": validCustomer()})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var receipt checkout.Receipt
		require.NoError(t, json.Unmarshal(data, &receipt))
		ids = append(ids, receipt.OrderID)
	}

	_, data := env.do(t, client, http.MethodGet, "/api/orders", nil)
	var orders []order.Order
	require.NoError(t, json.Unmarshal(data, &orders))
	require.Len(t, orders, 2)
	assert.Equal(t, ids[1], orders[0].ID)
	assert.Equal(t, ids[0], orders[1].ID)
}

// ============ Admin ============

func adminLogin(t *testing.T, env *testEnv, client *http.Client) LoginResponse {
	t.Helper()

	resp, data := env.do(t, client, http.MethodPost, "/api/admin/login",
		map[string]string{"username": testAdminUser, "password": testAdminPass})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login LoginResponse
	require.NoError(t, json.Unmarshal(data, &login))
	return login
}

func TestAdminLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, env.client(t), http.MethodPost, "/api/admin/login",
		map[string]string{"username": testAdminUser, "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminLogin_SetsSessionAndIssuesToken(t *testing.T) {
	env := newTestEnv(t)
	client := env.client(t)

	login := adminLogin(t, env, client)
	assert.NotEmpty(t, login.Token)

	resp, data := env.do(t, client, http.MethodGet, "/api/admin/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"isAdmin":true}`, string(data))
}

func TestAdminSession_DefaultIsNotAdmin(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, env.client(t), http.MethodGet, "/api/admin/session", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"isAdmin":false}`, string(data))
}

func TestAdminLogout(t *testing.T) {
	env := newTestEnv(t)
	client := env.client(t)

	adminLogin(t, env, client)

	resp, _ := env.do(t, client, http.MethodPost, "/api/admin/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data := env.do(t, client, http.MethodGet, "/api/admin/session", nil)
	assert.JSONEq(t, `{"isAdmin":false}`, string(data))

	// Admin rights are gone with the flag.
	resp, _ = env.do(t, client, http.MethodPost, "/api/products",
		catalog.Product{Name: "Nebula X3", Price: 1, Stock: 1})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminCRUD_RequiresAuth(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	client := env.client(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/products/1"},
		{http.MethodDelete, "/api/products/1"},
	}
	for _, tc := range tests {
		resp, _ := env.do(t, client, tc.method, tc.path, catalog.Product{Name: "X", Price: 1, Stock: 1})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestAdminCRUD_WithSession(t *testing.T) {
	env := newTestEnv(t, testProducts()...)
	client := env.client(t)

	adminLogin(t, env, client)

	// Create
	resp, data := env.do(t, client, http.MethodPost, "/api/products",
		catalog.Product{Name: "Nebula X3", Brand: "Celulex", Price: 1299.99, Stock: 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created catalog.Product
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, 3, created.ID)

	// Update
	resp, data = env.do(t, client, http.MethodPut, fmt.Sprintf("/api/products/%d", created.ID),
		catalog.Product{Name: "Nebula X3 Pro", Brand: "Celulex", Price: 1399.99, Stock: 8})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated catalog.Product
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.Equal(t, "Nebula X3 Pro", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	// Delete
	resp, _ = env.do(t, client, http.MethodDelete, fmt.Sprintf("/api/products/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data = env.do(t, client, http.MethodGet, "/api/products", nil)
	var products []catalog.Product
	require.NoError(t, json.Unmarshal(data, &products))
	assert.Len(t, products, 2)
}

func TestAdminCRUD_WithBearerToken(t *testing.T) {
	env := newTestEnv(t)

	login := adminLogin(t, env, env.client(t))

	// A different client without the admin session uses the token instead.
	body, err := json.Marshal(catalog.Product{Name: "Nebula X1", Price: 599.99, Stock: 5})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/products", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+login.Token)

	resp, err := env.client(t).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAdminCreateProduct_ValidationError(t *testing.T) {
	env := newTestEnv(t)
	client := env.client(t)

	adminLogin(t, env, client)

	resp, _ := env.do(t, client, http.MethodPost, "/api/products",
		catalog.Product{Name: "", Price: 1, Stock: 1})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminUpdateProduct_NotFound(t *testing.T) {
	env := newTestEnv(t)
	client := env.client(t)

	adminLogin(t, env, client)

	resp, _ := env.do(t, client, http.MethodPut, "/api/products/999",
		catalog.Product{Name: "Ghost", Price: 1, Stock: 1})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
