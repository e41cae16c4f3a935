package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storefront_back_end/internal/journal"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/money"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
	"storefront_back_end/internal/store/storetest"
)

var jwtSecret = []byte("jwt-test")

func newRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := storetest.New(t)
	log := zaptest.NewLogger(t)
	j := &journal.Memory{}
	prices := map[models.DeliveryMethod]money.Money{
		models.DeliveryCourier: 1499,
		models.DeliveryLocker:  1299,
		models.DeliveryPickup:  0,
	}

	r := gin.New()
	RegisterRoutes(r, Deps{
		Carts:         services.NewCartService(st, nil, log),
		Checkout:      services.NewCheckoutService(st, j, nil, services.CheckoutSettings{DeliveryPrices: prices, DefaultCountry: "Poland"}, log),
		Orders:        services.NewOrderService(st, j, log),
		Catalog:       services.NewCatalogService(st, nil, log),
		Sessions:      middleware.NewCookieStore([]byte("session-test"), false),
		JWTSecret:     jwtSecret,
		CartRateLimit: 20,
		Log:           log,
	})
	return r, st
}

type client struct {
	t       *testing.T
	r       *gin.Engine
	cookies []*http.Cookie
	token   string
}

func (cl *client) do(method, path string, body any) (int, map[string]any) {
	cl.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(cl.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	w := httptest.NewRecorder()
	cl.r.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		cl.cookies = set
	}
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := middleware.IssueToken(jwtSecret, userID, userID+"@example.com", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestShopperJourney(t *testing.T) {
	r, st := newRouter(t)
	p := storetest.Product(t, st, "Misa", 1800, 4)
	shopper := &client{t: t, r: r}

	code, body := shopper.do(http.MethodPost, "/api/cart/add", gin.H{"product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, code)
	require.Len(t, shopper.cookies, 1)

	code, body = shopper.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3600), body["total"])

	// un autre visiteur ne voit pas ce panier
	stranger := &client{t: t, r: r}
	_, body = stranger.do(http.MethodGet, "/api/cart", nil)
	assert.Equal(t, float64(0), body["total"])

	code, body = shopper.do(http.MethodPost, "/api/checkout", gin.H{
		"customer_name":   "Zofia",
		"customer_email":  "zofia@example.com",
		"customer_phone":  "500",
		"address_line1":   "Rynek 1",
		"city":            "Wrocław",
		"postal_code":     "50-001",
		"country":         "Poland",
		"delivery_method": "pickup",
		"payment_method":  "cash_on_delivery",
	})
	require.Equal(t, http.StatusCreated, code)
	id := body["order_id"].(string)

	code, body = shopper.do(http.MethodGet, "/api/checkout/success/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3600), body["total_amount"])

	code, _ = stranger.do(http.MethodGet, "/api/checkout/success/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = shopper.do(http.MethodGet, "/api/products/"+p.Slug, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAccessControl(t *testing.T) {
	r, _ := newRouter(t)

	anon := &client{t: t, r: r}
	code, _ := anon.do(http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = anon.do(http.MethodGet, "/api/admin/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	customer := &client{t: t, r: r, token: token(t, "u-1", "customer")}
	code, body := customer.do(http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])
	code, _ = customer.do(http.MethodGet, "/api/admin/orders", nil)
	assert.Equal(t, http.StatusForbidden, code)

	support := &client{t: t, r: r, token: token(t, "s-1", "support")}
	code, _ = support.do(http.MethodGet, "/api/admin/orders", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = support.do(http.MethodPatch, "/api/admin/orders/x/status", gin.H{"status": "paid"})
	assert.Equal(t, http.StatusForbidden, code)

	admin := &client{t: t, r: r, token: token(t, "a-1", "admin")}
	code, _ = admin.do(http.MethodPatch, "/api/admin/orders/x/status", gin.H{"status": "paid"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = anon.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
}
