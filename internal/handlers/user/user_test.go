package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/journal"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/money"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
	"storefront_back_end/internal/store/storetest"
)

type env struct {
	store    *store.Store
	carts    *services.CartService
	checkout *services.CheckoutService
	router   *gin.Engine
}

var prices = map[models.DeliveryMethod]money.Money{
	models.DeliveryCourier: 1499,
	models.DeliveryLocker:  1299,
	models.DeliveryPickup:  0,
}

// identify remplace le cookie et le JWT : la session et l'utilisateur
// viennent des en-têtes de test.
func identify(c *gin.Context) {
	c.Set(middleware.CtxSessionKey, c.GetHeader("X-Session"))
	if id := c.GetHeader("X-User"); id != "" {
		c.Set(middleware.CtxUserID, id)
	}
	c.Next()
}

func newEnv(t *testing.T, c *cache.Cache) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := storetest.New(t)
	log := zaptest.NewLogger(t)
	j := &journal.Memory{}

	var notifier cache.CartNotifier
	if c != nil {
		notifier = c
	}
	carts := services.NewCartService(st, notifier, log)
	checkout := services.NewCheckoutService(st, j, c, services.CheckoutSettings{DeliveryPrices: prices, DefaultCountry: "Poland"}, log)
	orders := services.NewOrderService(st, j, log)

	cartH := NewCartHandler(carts, log)
	orderH := NewOrderHandler(orders, log)
	sync := NewCartSync(carts, c, nil, log)

	r := gin.New()
	r.Use(identify)
	r.GET("/api/cart", cartH.GetCart)
	r.POST("/api/cart/add", cartH.AddToCart)
	r.PATCH("/api/cart/items/:item", cartH.UpdateQuantity)
	r.DELETE("/api/cart/items/:item", cartH.RemoveItem)
	r.DELETE("/api/cart", cartH.ClearCart)
	r.GET("/api/cart/ws", sync.CartWebSocket)
	r.GET("/api/orders", orderH.GetMyOrders)
	r.GET("/api/orders/:id", orderH.GetMyOrder)

	return &env{store: st, carts: carts, checkout: checkout, router: r}
}

func (e *env) call(t *testing.T, method, path, session, user string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session", session)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestCartEndpoints(t *testing.T) {
	e := newEnv(t, nil)
	p := storetest.Product(t, e.store, "Lampe", 2500, 3)

	w, body := e.call(t, http.MethodPost, "/api/cart/add", "s1", "", gin.H{"product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cart := body["cart"].(map[string]any)
	assert.Equal(t, float64(5000), cart["total"])
	assert.Equal(t, float64(2), cart["count"])
	itemID := body["item"].(map[string]any)["id"].(string)

	w, body = e.call(t, http.MethodPost, "/api/cart/add", "s1", "", gin.H{"product_id": p.ID, "quantity": 2})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "insufficient_stock", body["kind"])
	assert.Equal(t, float64(1), body["left"])

	w, body = e.call(t, http.MethodPost, "/api/cart/add", "s1", "", gin.H{"product_id": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "product_unavailable", body["kind"])

	w, body = e.call(t, http.MethodPost, "/api/cart/add", "s1", "", gin.H{"quantity": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_failed", body["kind"])
	assert.Equal(t, "product_id", body["field"])

	w, body = e.call(t, http.MethodPatch, "/api/cart/items/"+itemID, "s1", "", gin.H{"quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(7500), body["total"])

	w, body = e.call(t, http.MethodPatch, "/api/cart/items/"+itemID, "s1", "", gin.H{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_failed", body["kind"])

	w, body = e.call(t, http.MethodPatch, "/api/cart/items/"+itemID, "s1", "", gin.H{"quantity": -2})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_failed", body["kind"])
	assert.Equal(t, "quantity", body["field"])

	w, body = e.call(t, http.MethodDelete, "/api/cart/items/"+itemID, "intruder", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", body["kind"])

	w, _ = e.call(t, http.MethodDelete, "/api/cart/items/"+itemID, "s1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = e.call(t, http.MethodGet, "/api/cart", "s1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["items"])

	e.call(t, http.MethodPost, "/api/cart/add", "s1", "", gin.H{"product_id": p.ID})
	w, _ = e.call(t, http.MethodDelete, "/api/cart", "s1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	_, body = e.call(t, http.MethodGet, "/api/cart", "s1", "", nil)
	assert.Equal(t, float64(0), body["total"])
}

func TestCustomerOrderEndpoints(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	u := storetest.User(t, e.store, "Ola", "ola@example.com", false)
	p := storetest.Product(t, e.store, "Kubek", 1000, 5)

	w, _ := e.call(t, http.MethodPost, "/api/cart/add", "s1", u.ID, gin.H{"product_id": p.ID})
	require.Equal(t, http.StatusOK, w.Code)
	res, err := e.checkout.Checkout(ctx, services.CheckoutRequest{
		SessionKey: "s1",
		UserID:     &u.ID,
		Form: models.CheckoutForm{
			ContactInfo:     models.ContactInfo{Name: "Ola", Email: "ola@example.com", Phone: "123"},
			ShippingAddress: models.ShippingAddress{Line1: "Długa 2", City: "Kraków", PostalCode: "30-001", Country: "Poland"},
			DeliveryMethod:  models.DeliveryLocker,
			PaymentMethod:   models.PaymentCashOnDelivery,
		},
	})
	require.NoError(t, err)

	w, _ = e.call(t, http.MethodGet, "/api/orders", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := e.call(t, http.MethodGet, "/api/orders", "", u.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	w, body = e.call(t, http.MethodGet, "/api/orders/"+res.OrderID, "", u.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1299), body["delivery_price"])
	assert.Equal(t, float64(2299), body["total_amount"])

	w, _ = e.call(t, http.MethodGet, "/api/orders/"+res.OrderID, "", "someone-else", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCartWebSocketWithoutRedis(t *testing.T) {
	e := newEnv(t, nil)
	w, _ := e.call(t, http.MethodGet, "/api/cart/ws", "s1", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCartWebSocketPushesRenderedCart(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	e := newEnv(t, c)
	p := storetest.Product(t, e.store, "Świeca", 1500, 4)

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	header := http.Header{}
	header.Set("X-Session", "ws-session")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/cart/ws", header)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "connected", msg["type"])

	w, _ := e.call(t, http.MethodPost, "/api/cart/add", "ws-session", "", gin.H{"product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "cart_updated", msg["type"])
	assert.Equal(t, cache.EventUpdated, msg["event"])
	cart := msg["cart"].(map[string]any)
	assert.Equal(t, float64(3000), cart["total"])
}
