// Package cache regroupe les usages Redis : notifications temps réel du
// panier (Pub/Sub), cache des fiches produit et compteurs de rate limit.
// Redis n'est jamais la source de vérité.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront_back_end/internal/models"
)

const ProductCacheTTL = 2 * time.Minute

type Cache struct {
	rdb *redis.Client
}

// New retourne nil si Redis n'est pas configuré ; toutes les méthodes
// tolèrent un *Cache nil.
func New(rdb *redis.Client) *Cache {
	if rdb == nil {
		return nil
	}
	return &Cache{rdb: rdb}
}

// --- Rate Limiting ---

// IncrementRateLimit incrémente le compteur et réarme sa fenêtre.
func (c *Cache) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if c == nil {
		return 0, nil
	}
	pipe := c.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *Cache) GetRateLimit(ctx context.Context, key string) (int64, error) {
	if c == nil {
		return 0, nil
	}
	val, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// --- Produits ---

func productKey(slug string) string { return "product:" + slug }

// GetProduct retourne (produit, true) si la fiche est en cache.
func (c *Cache) GetProduct(ctx context.Context, slug string) (models.Product, bool) {
	if c == nil {
		return models.Product{}, false
	}
	data, err := c.rdb.Get(ctx, productKey(slug)).Bytes()
	if err != nil {
		return models.Product{}, false
	}
	var p models.Product
	if json.Unmarshal(data, &p) != nil {
		return models.Product{}, false
	}
	return p, true
}

func (c *Cache) SetProduct(ctx context.Context, p models.Product) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(p.Slug), data, ProductCacheTTL).Err()
}

// InvalidateProducts retire les fiches dont le stock vient de changer.
func (c *Cache) InvalidateProducts(ctx context.Context, slugs ...string) error {
	if c == nil || len(slugs) == 0 {
		return nil
	}
	keys := make([]string, len(slugs))
	for i, s := range slugs {
		keys[i] = productKey(s)
	}
	return c.rdb.Del(ctx, keys...).Err()
}
