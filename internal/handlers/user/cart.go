package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/money"
	"storefront_back_end/internal/services"
)

type CartHandler struct {
	carts *services.CartService
	log   *zap.Logger
}

func NewCartHandler(carts *services.CartService, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

// 🛒 GET /api/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.carts.RenderCart(c.Request.Context(), middleware.SessionKey(c))
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// 🟢 POST /api/cart/add
func (h *CartHandler) AddToCart(c *gin.Context) {
	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  *int64 `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.Invalid(c, h.log, "product_id", "Données invalides")
		return
	}
	qty := int64(1)
	if input.Quantity != nil {
		qty = *input.Quantity
	}

	ctx := c.Request.Context()
	session := middleware.SessionKey(c)
	cart, err := h.carts.GetOrCreateCart(ctx, session, middleware.UserID(c))
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}
	item, err := h.carts.AddItem(ctx, cart, input.ProductID, money.Quantity(qty))
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}
	view, err := h.carts.RenderCart(ctx, session)
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit ajouté au panier",
		"item":    item,
		"cart":    view,
	})
}

// ✏️ PATCH /api/cart/items/:item
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var input struct {
		Quantity *int64 `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		handlers.Invalid(c, h.log, "quantity", "Quantité manquante")
		return
	}
	if *input.Quantity < 0 {
		handlers.Invalid(c, h.log, "quantity", "Quantité invalide")
		return
	}

	view, err := h.carts.SetQuantity(c.Request.Context(), c.Param("item"), money.Quantity(*input.Quantity), middleware.SessionKey(c))
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ❌ DELETE /api/cart/items/:item
func (h *CartHandler) RemoveItem(c *gin.Context) {
	if err := h.carts.RemoveItem(c.Request.Context(), c.Param("item"), middleware.SessionKey(c)); err != nil {
		handlers.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit retiré du panier"})
}

// 🧹 DELETE /api/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), middleware.SessionKey(c)); err != nil {
		handlers.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé"})
}
