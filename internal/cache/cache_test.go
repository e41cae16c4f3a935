package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_back_end/internal/models"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

func TestIncrementRateLimit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := c.IncrementRateLimit(ctx, "cart_add:s1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	n, err := c.GetRateLimit(ctx, "cart_add:s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mr.FastForward(2 * time.Minute)
	n, err = c.GetRateLimit(ctx, "cart_add:s1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProductCache(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	p := models.Product{ID: "p1", Slug: "mug", Name: "Mug", Price: 1999, Stock: 3, Images: []string{}}

	_, ok := c.GetProduct(ctx, "mug")
	assert.False(t, ok)

	require.NoError(t, c.SetProduct(ctx, p))
	got, ok := c.GetProduct(ctx, "mug")
	require.True(t, ok)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Stock, got.Stock)

	require.NoError(t, c.InvalidateProducts(ctx, "mug"))
	_, ok = c.GetProduct(ctx, "mug")
	assert.False(t, ok)
}

func TestNotifyCartReachesSubscriber(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	sub := c.SubscribeCart(ctx, "sess-1")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, c.NotifyCart(ctx, "sess-1", EventUpdated))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cart:sess-1", msg.Channel)
	assert.Equal(t, EventUpdated, msg.Payload)
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	n, err := c.IncrementRateLimit(ctx, "k", time.Minute)
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, c.NotifyCart(ctx, "s", EventCleared))
	assert.Nil(t, c.SubscribeCart(ctx, "s"))
	_, ok := c.GetProduct(ctx, "x")
	assert.False(t, ok)
	assert.Nil(t, New(nil))
}
