package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/cache"
)

const CartRateWindow = 1 * time.Minute

// CartRateLimit limite les écritures panier par session (anti-spam).
// Sans Redis, la limite est désactivée.
func CartRateLimit(c *cache.Cache, limit int64, log *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil {
			ctx.Next()
			return
		}
		id := SessionKey(ctx)
		if id == "" {
			id = ctx.ClientIP()
		}
		key := "cart_add:" + id

		requests, err := c.GetRateLimit(ctx.Request.Context(), key)
		if err != nil {
			log.Warn("⚠️ Rate limit indisponible", zap.Error(err))
			ctx.Next()
			return
		}
		if requests >= limit {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop d'ajouts au panier. Ralentissez un peu",
				"retry_after": int(CartRateWindow.Seconds()),
			})
			return
		}

		if _, err := c.IncrementRateLimit(ctx.Request.Context(), key, CartRateWindow); err != nil {
			log.Warn("⚠️ Rate limit indisponible", zap.Error(err))
		}
		ctx.Next()
	}
}
