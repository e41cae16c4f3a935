package user

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/services"
)

const wsPingInterval = 30 * time.Second

// CartSync pousse le panier rendu à chaque événement publié sur
// le canal Redis de la session.
type CartSync struct {
	carts    *services.CartService
	cache    *cache.Cache
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewCartSync(carts *services.CartService, c *cache.Cache, allowedOrigins []string, log *zap.Logger) *CartSync {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &CartSync{
		carts: carts,
		cache: c,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

// CartWebSocket gère la synchronisation temps réel du panier
func (h *CartSync) CartWebSocket(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Synchronisation indisponible"})
		return
	}
	session := middleware.SessionKey(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("❌ Erreur upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.cache.SubscribeCart(ctx, session)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.Error("❌ Abonnement Redis impossible", zap.Error(err))
		return
	}
	ch := pubsub.Channel()

	// lecture en tâche de fond pour détecter la fermeture côté client
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(gin.H{"type": "connected", "message": "Synchronisation panier activée"}); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			view, err := h.carts.RenderCart(ctx, session)
			if err != nil {
				h.log.Error("❌ Rendu panier WebSocket", zap.Error(err))
				continue
			}
			if err := conn.WriteJSON(gin.H{"type": "cart_updated", "event": msg.Payload, "cart": view}); err != nil {
				h.log.Debug("❌ Erreur envoi WebSocket", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
