package pa

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/services"
)

type AdminOrderHandler struct {
	orders *services.OrderService
	log    *zap.Logger
}

func NewAdminOrderHandler(orders *services.OrderService, log *zap.Logger) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders, log: log}
}

// GetAllOrders : registre des commandes, filtrable et triable
func (h *AdminOrderHandler) GetAllOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), services.OrderQuery{
		Status:   c.Query("status"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Sort:     c.Query("sort"),
		Dir:      c.Query("dir"),
	})
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *AdminOrderHandler) GetOrder(c *gin.Context) {
	detail, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateOrderStatus permet à un admin de mettre à jour le statut d'une commande
func (h *AdminOrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Invalid(c, h.log, "status", "Statut manquant")
		return
	}

	actor := services.Actor{
		UserID:    c.GetString(middleware.CtxUserID),
		Email:     c.GetString(middleware.CtxEmail),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		SessionID: middleware.SessionKey(c),
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, actor)
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Statut mis à jour",
		"order":   order,
	})
}

// GetDashboardStats retourne les statistiques du dashboard admin
func (h *AdminOrderHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.orders.Dashboard(c.Request.Context())
	if err != nil {
		handlers.Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
