package pa

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/models"
)

// GetShippingOptions retourne les options de livraison disponibles
func (h *CheckoutHandler) GetShippingOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"options":         h.checkout.DeliveryOptions(),
		"payment_methods": models.PaymentMethods,
	})
}
