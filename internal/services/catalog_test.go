package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storefront_back_end/internal/apperr"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/journal"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store/storetest"
)

func TestProductBySlugUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	st := storetest.New(t)
	log := zaptest.NewLogger(t)
	catalog := NewCatalogService(st, c, log)
	ctx := context.Background()
	p := storetest.Product(t, st, "Wazon", 5000, 3)

	got, err := catalog.ProductBySlug(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.True(t, mr.Exists("product:"+p.Slug))

	// la fiche en cache sert tant qu'elle n'est pas invalidée
	require.NoError(t, st.SetStock(ctx, p.ID, 1, time.Now()))
	got, err = catalog.ProductBySlug(ctx, p.Slug)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Stock)

	// un checkout invalide la fiche
	checkout := NewCheckoutService(st, &journal.Memory{}, c, CheckoutSettings{DeliveryPrices: testPrices, DefaultCountry: "Poland"}, log)
	carts := NewCartService(st, c, log)
	cart, err := carts.GetOrCreateCart(ctx, "s", nil)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, cart, p.ID, 1)
	require.NoError(t, err)
	_, err = checkout.Checkout(ctx, CheckoutRequest{SessionKey: "s", Form: validForm(models.DeliveryPickup)})
	require.NoError(t, err)
	assert.False(t, mr.Exists("product:"+p.Slug))

	got, err = catalog.ProductBySlug(ctx, p.Slug)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.Stock)
}

func TestProductBySlugHidesInactive(t *testing.T) {
	st := storetest.New(t)
	catalog := NewCatalogService(st, nil, zaptest.NewLogger(t))
	ctx := context.Background()
	p := storetest.Product(t, st, "Stół", 90000, 1)

	require.NoError(t, st.SetProductActive(ctx, p.ID, false, time.Now()))
	_, err := catalog.ProductBySlug(ctx, p.Slug)
	requireKind(t, err, apperr.NotFound)

	_, err = catalog.ProductBySlug(ctx, "absent")
	requireKind(t, err, apperr.NotFound)
}
