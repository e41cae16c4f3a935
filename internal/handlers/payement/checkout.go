package pa

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/services"
)

type CheckoutHandler struct {
	checkout *services.CheckoutService
	carts    *services.CartService
	log      *zap.Logger
}

func NewCheckoutHandler(checkout *services.CheckoutService, carts *services.CartService, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, carts: carts, log: log}
}

// GetCheckout retourne le panier, le formulaire pré-rempli et les options.
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	ctx := c.Request.Context()
	cart, err := h.carts.RenderCart(ctx, middleware.SessionKey(c))
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}
	form, err := h.checkout.Defaults(ctx, middleware.UserID(c))
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart":             cart,
		"form":             form,
		"delivery_options": h.checkout.DeliveryOptions(),
		"payment_methods":  models.PaymentMethods,
	})
}

// Checkout transforme le panier de la session en commande
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var form models.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		handlers.Invalid(c, h.log, "", "Données invalides")
		return
	}

	res, err := h.checkout.Checkout(c.Request.Context(), services.CheckoutRequest{
		SessionKey: middleware.SessionKey(c),
		UserID:     middleware.UserID(c),
		Form:       form,
	})
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Commande enregistrée",
		"order_id":     res.OrderID,
		"redirect_url": res.RedirectURL,
	})
}

// GetConfirmation : récapitulatif après commande
func (h *CheckoutHandler) GetConfirmation(c *gin.Context) {
	order, err := h.checkout.Confirmation(c.Request.Context(), c.Param("id"), middleware.SessionKey(c), middleware.UserID(c))
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
