package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storefront_back_end/internal/apperr"
	"storefront_back_end/internal/journal"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/money"
	"storefront_back_end/internal/store"
	"storefront_back_end/internal/store/storetest"
)

type fixture struct {
	store    *store.Store
	journal  *journal.Memory
	cart     *CartService
	checkout *CheckoutService
	orders   *OrderService
}

var testPrices = map[models.DeliveryMethod]money.Money{
	models.DeliveryCourier: 1499,
	models.DeliveryLocker:  1299,
	models.DeliveryPickup:  0,
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := storetest.New(t)
	log := zaptest.NewLogger(t)
	j := &journal.Memory{}
	return &fixture{
		store:   st,
		journal: j,
		cart:    NewCartService(st, nil, log),
		checkout: NewCheckoutService(st, j, nil, CheckoutSettings{
			DeliveryPrices: testPrices,
			DefaultCountry: "Poland",
		}, log),
		orders: NewOrderService(st, j, log),
	}
}

// fill crée le panier de la session et y ajoute qty unités de chaque produit.
func (f *fixture) fill(t *testing.T, session string, qty money.Quantity, products ...models.Product) models.Cart {
	t.Helper()
	ctx := context.Background()
	cart, err := f.cart.GetOrCreateCart(ctx, session, nil)
	require.NoError(t, err)
	for _, p := range products {
		_, err := f.cart.AddItem(ctx, cart, p.ID, qty)
		require.NoError(t, err)
	}
	return cart
}

func validForm(method models.DeliveryMethod) models.CheckoutForm {
	return models.CheckoutForm{
		ContactInfo: models.ContactInfo{
			Name:  "Jan Kowalski",
			Email: "jan@example.com",
			Phone: "+48 600 000 000",
		},
		ShippingAddress: models.ShippingAddress{
			Line1:      "ul. Prosta 1",
			City:       "Warszawa",
			PostalCode: "00-001",
			Country:    "Poland",
		},
		DeliveryMethod: method,
		PaymentMethod:  models.PaymentTransfer,
	}
}

func requireKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "erreur inattendue: %v", err)
	require.Equal(t, kind, e.Kind, e.Message)
	return e
}
