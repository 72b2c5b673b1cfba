package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories/memory"
	"kohisync_backend/internal/services"
	"kohisync_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	engine   *gin.Engine
	svcs     *services.Services
	products map[string]int64
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	tokens, err := utils.NewTokenManager("router-test-secret", time.Hour)
	require.NoError(t, err)
	svcs := services.New(memory.New(), tokens, services.Observers{}, 30*time.Minute, time.UTC)

	require.NoError(t, svcs.Auth.EnsureAdmin(ctx, "admin", "password123"))
	_, err = svcs.Auth.CreateUser(ctx, services.CreateUserRequest{Username: "cashier1", Password: "password123"})
	require.NoError(t, err)

	api := &testAPI{svcs: svcs, products: map[string]int64{}}
	for _, p := range []struct {
		name     string
		category models.ProductCategory
		price    int64
		stock    int
	}{
		{"Americano", models.CategoryBeverage, 80, 50},
		{"Pastry - Muffin", models.CategoryFood, 50, 25},
		{"Fresh Milk", models.CategoryIngredient, 180, 3},
	} {
		stock := p.stock
		created, err := svcs.Inventory.CreateProduct(ctx, services.CreateProductRequest{
			Name: p.name, Category: p.category, Price: decimal.NewFromInt(p.price), CurrentStock: &stock,
		})
		require.NoError(t, err)
		api.products[p.name] = created.ID
	}

	api.engine = gin.New()
	Setup(api.engine, Dependencies{Services: svcs, Tokens: tokens})
	return api
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(t *testing.T, username string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": username, "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp services.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken
}

func (a *testAPI) stock(t *testing.T, name string) int {
	t.Helper()
	p, err := a.svcs.Inventory.GetProduct(context.Background(), a.products[name])
	require.NoError(t, err)
	return p.CurrentStock
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error utils.APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error.Code
}

func TestPing(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "admin", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, utils.ErrCodeUnauthorized, errorCode(t, w))
}

func TestCounterOrderLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "cashier1")

	w := api.do(t, http.MethodPost, "/api/v1/orders", token, gin.H{
		"customer_name": "Walk-in",
		"items": []gin.H{
			{"product_id": api.products["Americano"], "quantity": 1},
			{"product_id": api.products["Pastry - Muffin"], "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.Order](t, w)
	assert.Equal(t, models.ChannelPOS, order.Channel)
	assert.True(t, decimal.NewFromInt(130).Equal(order.TotalBeforeDiscount))
	assert.Equal(t, 49, api.stock(t, "Americano"), "counter orders deduct at creation")

	path := fmt.Sprintf("/api/v1/orders/%d", order.ID)

	w = api.do(t, http.MethodPost, path+"/discount", token, gin.H{"discount_reason": "pwd"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order = decode[models.Order](t, w)
	assert.True(t, decimal.NewFromInt(104).Equal(order.TotalAfterDiscount), order.TotalAfterDiscount.String())

	w = api.do(t, http.MethodPost, path+"/pay", token, gin.H{"amount_paid": "100"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, utils.ErrCodeInsufficientPayment, errorCode(t, w))

	w = api.do(t, http.MethodPost, path+"/pay", token, gin.H{"amount_paid": "110"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[services.PaymentResult](t, w)
	assert.True(t, decimal.NewFromInt(6).Equal(result.ChangeAmount))
	assert.Equal(t, models.StatusCompleted, result.Order.Status)

	w = api.do(t, http.MethodPost, path+"/pay", token, gin.H{"amount_paid": "110"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, utils.ErrCodeOrderNotPending, errorCode(t, w))

	w = api.do(t, http.MethodGet, "/api/v1/orders?channel=pos&status=completed", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Data  []models.Order `json:"data"`
		Total int            `json:"total"`
	}](t, w)
	assert.Equal(t, 1, list.Total)
}

func TestCreateOrder_Rejections(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "cashier1")

	w := api.do(t, http.MethodPost, "/api/v1/orders", token, gin.H{
		"items": []gin.H{{"product_id": api.products["Americano"], "quantity": 51}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, utils.ErrCodeOutOfStock, errorCode(t, w))
	assert.Equal(t, 50, api.stock(t, "Americano"))

	w = api.do(t, http.MethodPost, "/api/v1/orders", token, gin.H{
		"items": []gin.H{{"product_id": 9999, "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/orders", token, gin.H{"items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/orders/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/orders/424242", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/orders", token, gin.H{
		"items": []gin.H{{"product_id": api.products["Americano"], "quantity": models.MaxLineQuantity + 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/orders", token, gin.H{
		"items": []gin.H{
			{"product_id": api.products["Americano"], "quantity": 6917529027641081856},
			{"product_id": api.products["Americano"], "quantity": 6917529027641081856},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 50, api.stock(t, "Americano"))
}

func TestKioskFlow(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/kiosk/menu", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	menu := decode[models.KioskMenu](t, w)
	assert.Len(t, menu.Beverages, 1)
	assert.Len(t, menu.Food, 1)

	w = api.do(t, http.MethodPost, "/api/v1/kiosk/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	session := decode[models.KioskSession](t, w)
	base := "/api/v1/kiosk/sessions/" + session.SessionID

	w = api.do(t, http.MethodPost, base+"/items", "", gin.H{"product_id": api.products["Americano"], "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = api.do(t, http.MethodPost, base+"/items", "", gin.H{"product_id": api.products["Pastry - Muffin"]})
	require.Equal(t, http.StatusOK, w.Code)
	cart := decode[models.CartView](t, w)
	assert.Len(t, cart.Lines, 2)
	assert.True(t, decimal.NewFromInt(210).Equal(cart.Total))

	w = api.do(t, http.MethodPost, base+"/items", "", gin.H{"product_id": api.products["Fresh Milk"]})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodDelete, fmt.Sprintf("%s/items/%d", base, api.products["Pastry - Muffin"]), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.CartView](t, w).Lines, 1)

	w = api.do(t, http.MethodPost, base+"/submit", "", gin.H{"customer_name": "Ana"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	submitted := decode[struct {
		Order models.Order `json:"order"`
	}](t, w)
	assert.Equal(t, models.ChannelKiosk, submitted.Order.Channel)
	assert.Equal(t, 50, api.stock(t, "Americano"), "kiosk orders deduct at payment")

	w = api.do(t, http.MethodPost, base+"/items", "", gin.H{"product_id": api.products["Americano"]})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, utils.ErrCodeSessionNotFound, errorCode(t, w))

	token := api.login(t, "cashier1")
	w = api.do(t, http.MethodGet, "/api/v1/orders/pending-kiosk", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[struct {
		Data []models.Order `json:"data"`
	}](t, w)
	require.Len(t, pending.Data, 1)
	assert.Equal(t, submitted.Order.ID, pending.Data[0].ID)

	w = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/pay", submitted.Order.ID), token, gin.H{"amount_paid": "160"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 48, api.stock(t, "Americano"))
}

func TestAccessControl(t *testing.T) {
	api := newTestAPI(t)
	staff := api.login(t, "cashier1")
	admin := api.login(t, "admin")

	w := api.do(t, http.MethodGet, "/api/v1/inventory", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/reports/daily", staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/inventory/adjust", staff, gin.H{"product_id": api.products["Americano"], "adjustment_type": "add", "quantity": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/inventory", staff, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/reports/daily", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/auth/users", staff, gin.H{"username": "someone", "password": "password123"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/auth/users", admin, gin.H{"username": "cashier1", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/auth/me", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cashier1", decode[models.User](t, w).Username)
}

func TestInventoryAdmin(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login(t, "admin")
	milk := api.products["Fresh Milk"]

	w := api.do(t, http.MethodPost, "/api/v1/inventory/adjust", admin, gin.H{"product_id": milk, "adjustment_type": "deduct", "quantity": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 3, api.stock(t, "Fresh Milk"))

	w = api.do(t, http.MethodPost, "/api/v1/inventory/adjust", admin, gin.H{"product_id": milk, "adjustment_type": "add", "quantity": 7, "reason": "delivery"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 10, api.stock(t, "Fresh Milk"))

	w = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/inventory/adjustments?product_id=%d", milk), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[struct {
		Adjustments []models.InventoryAdjustment `json:"adjustments"`
	}](t, w)
	require.Len(t, history.Adjustments, 1)
	assert.Equal(t, 7, history.Adjustments[0].QuantityChanged)

	w = api.do(t, http.MethodPost, "/api/v1/inventory/products", admin, gin.H{"name": "Americano", "category": "beverage", "price": "90"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPut, fmt.Sprintf("/api/v1/inventory/products/%d", milk), admin, gin.H{"price": "200"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decimal.NewFromInt(200).Equal(decode[models.Product](t, w).Price))

	w = api.do(t, http.MethodGet, "/api/v1/reports/monthly?year=2024&month=13", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSalesAnalytics(t *testing.T) {
	api := newTestAPI(t)
	staff := api.login(t, "cashier1")
	admin := api.login(t, "admin")

	w := api.do(t, http.MethodPost, "/api/v1/orders", staff, gin.H{
		"items": []gin.H{{"product_id": api.products["Americano"], "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.Order](t, w)
	w = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/discount", order.ID), staff, gin.H{"discount_reason": "student"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/pay", order.ID), staff, gin.H{"amount_paid": "200"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/reports/top-products", staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/reports/top-products?days=7&limit=5", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	top := decode[models.TopProductsReport](t, w)
	require.Len(t, top.Products, 1)
	assert.Equal(t, "Americano", top.Products[0].Name)
	assert.Equal(t, 2, top.Products[0].QuantitySold)

	w = api.do(t, http.MethodGet, "/api/v1/reports/top-products?days=abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/reports/discounts", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	discounts := decode[models.DiscountReport](t, w)
	require.Len(t, discounts.Breakdown, 1)
	assert.Equal(t, models.DiscountStudent, discounts.Breakdown[0].Reason)
	assert.True(t, decimal.NewFromInt(16).Equal(discounts.Summary.TotalDiscounts), discounts.Summary.TotalDiscounts.String())

	w = api.do(t, http.MethodGet, "/api/v1/reports/transaction-types", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	channels := decode[models.ChannelReport](t, w)
	assert.Equal(t, 1, channels.Totals.TransactionCount)
	require.Len(t, channels.ByChannel, 1)
	assert.Equal(t, models.ChannelPOS, channels.ByChannel[0].Channel)

	w = api.do(t, http.MethodGet, "/api/v1/reports/hourly-trend", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	trend := decode[models.HourlyTrend](t, w)
	require.Len(t, trend.Hours, 1)
	assert.Equal(t, 1, trend.Hours[0].TransactionCount)

	w = api.do(t, http.MethodGet, "/api/v1/reports/hourly-trend?date=tomorrow", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListUsers(t *testing.T) {
	api := newTestAPI(t)
	staff := api.login(t, "cashier1")
	admin := api.login(t, "admin")

	w := api.do(t, http.MethodGet, "/api/v1/auth/users", staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/auth/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	list := decode[struct {
		Users []models.User `json:"users"`
	}](t, w)
	require.Len(t, list.Users, 2)
}
