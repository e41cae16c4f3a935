package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Événements publiés sur le canal d'un panier.
const (
	EventUpdated    = "updated"
	EventCleared    = "cleared"
	EventCheckedOut = "checked_out"
)

func CartChannel(sessionKey string) string {
	return "cart:" + sessionKey
}

// CartNotifier prévient les onglets ouverts qu'un panier a changé.
type CartNotifier interface {
	NotifyCart(ctx context.Context, sessionKey, event string) error
}

func (c *Cache) NotifyCart(ctx context.Context, sessionKey, event string) error {
	if c == nil {
		return nil
	}
	return c.rdb.Publish(ctx, CartChannel(sessionKey), event).Err()
}

// SubscribeCart s'abonne aux événements d'un panier ; nil sans Redis.
func (c *Cache) SubscribeCart(ctx context.Context, sessionKey string) *redis.PubSub {
	if c == nil {
		return nil
	}
	return c.rdb.Subscribe(ctx, CartChannel(sessionKey))
}
