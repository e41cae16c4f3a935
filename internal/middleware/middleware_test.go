package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/models"
)

var secret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func echoIdentity(c *gin.Context) {
	var uid string
	if id := UserID(c); id != nil {
		uid = *id
	}
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "role": c.GetString(CtxRole), "session": SessionKey(c)})
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := IssueToken(secret, "u-1", "u1@example.com", role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthRequired(secret), echoIdentity)

	w := do(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, "customer"))
	w = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u-1"`)

	forged, err := IssueToken([]byte("other"), "u-1", "", "admin", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	expired, err := IssueToken(secret, "u-1", "", "admin", -time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", OptionalAuth(secret), echoIdentity)

	w := do(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, "customer"))
	assert.Contains(t, do(r, req).Body.String(), `"user_id":"u-1"`)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestAdminAndPermissions(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AuthRequired(secret), RequireAdmin, echoIdentity)
	r.PATCH("/orders", AuthRequired(secret), RequirePermission(models.PERM_ORDERS_EDIT), echoIdentity)
	r.GET("/orders", AuthRequired(secret), RequirePermission(models.PERM_ORDERS_VIEW), echoIdentity)

	cases := []struct {
		method, path, role string
		want               int
	}{
		{http.MethodGet, "/admin", "admin", http.StatusOK},
		{http.MethodGet, "/admin", "customer", http.StatusForbidden},
		{http.MethodPatch, "/orders", "admin", http.StatusOK},
		{http.MethodPatch, "/orders", "support", http.StatusForbidden},
		{http.MethodGet, "/orders", "support", http.StatusOK},
		{http.MethodGet, "/orders", "customer", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", bearer(t, tc.role))
		assert.Equal(t, tc.want, do(r, req).Code, "%s %s as %s", tc.method, tc.path, tc.role)
	}
}

func TestSessionKeyIsStable(t *testing.T) {
	r := gin.New()
	r.Use(Session(NewCookieStore(secret, false), zap.NewNop()))
	r.GET("/", echoIdentity)

	first := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	second := do(r, req)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Empty(t, second.Result().Cookies())

	other := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEqual(t, first.Body.String(), other.Body.String())
}

func TestCartRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	r := gin.New()
	r.Use(func(ctx *gin.Context) { ctx.Set(CtxSessionKey, "s-1"); ctx.Next() })
	r.POST("/add", CartRateLimit(c, 3, zap.NewNop()), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, do(r, httptest.NewRequest(http.MethodPost, "/add", nil)).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(r, httptest.NewRequest(http.MethodPost, "/add", nil)).Code)

	mr.FastForward(CartRateWindow + time.Second)
	assert.Equal(t, http.StatusNoContent, do(r, httptest.NewRequest(http.MethodPost, "/add", nil)).Code)
}

func TestCartRateLimitWithoutRedis(t *testing.T) {
	r := gin.New()
	r.POST("/add", CartRateLimit(nil, 1, zap.NewNop()), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, do(r, httptest.NewRequest(http.MethodPost, "/add", nil)).Code)
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	do(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	do(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
}
